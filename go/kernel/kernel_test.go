package kernel

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	rvarch "github.com/lunixbochs/lazycorn/go/arch/rv32"
	"github.com/lunixbochs/lazycorn/go/cpu/rv32"
	"github.com/lunixbochs/lazycorn/go/models/cpu"
	"github.com/lunixbochs/lazycorn/go/models/mock"
)

type touchLog struct {
	calls [][2]uint64
	err   error
}

func (t *touchLog) Touch(c cpu.Cpu, addr, size uint64) error {
	t.calls = append(t.calls, [2]uint64{addr, size})
	return t.err
}

func setup(t *testing.T) (*Kernel, *mock.Cpu, *bytes.Buffer, *bytes.Buffer, *touchLog) {
	regs := make([]int, 0, rv32.PC+1)
	for i := rv32.ZERO; i <= rv32.PC; i++ {
		regs = append(regs, i)
	}
	c := mock.NewCpu(regs...)
	require.NoError(t, c.MemMapProt(0x1000, 0x1000, cpu.PROT_ALL))
	require.NoError(t, c.MemWrite(0x1000, []byte("hello\n")))
	var stdout, stderr bytes.Buffer
	touch := &touchLog{}
	k := New(rvarch.Arch, touch, &stdout, &stderr, nil)
	_, err := k.Install(c)
	require.NoError(t, err)
	return k, c, &stdout, &stderr, touch
}

func syscall(t *testing.T, c *mock.Cpu, num uint64, args ...uint64) uint64 {
	t.Helper()
	require.NoError(t, c.RegWrite(rv32.A7, num))
	for i, a := range args {
		require.NoError(t, c.RegWrite(rv32.A0+i, a))
	}
	c.OnIntr(rv32.INTR_ECALL)
	ret, err := c.RegRead(rv32.A0)
	require.NoError(t, err)
	return ret
}

func TestWrite(t *testing.T) {
	k, c, stdout, stderr, touch := setup(t)
	require.Equal(t, uint64(6), syscall(t, c, 64, 1, 0x1000, 6))
	require.Equal(t, "hello\n", stdout.String())
	require.Equal(t, uint64(2), syscall(t, c, 64, 2, 0x1000, 2))
	require.Equal(t, "he", stderr.String())
	require.Equal(t, [][2]uint64{{0x1000, 6}, {0x1000, 2}}, touch.calls)
	require.False(t, k.Exited)
	require.NoError(t, k.Err())
}

func TestWriteErrors(t *testing.T) {
	k, c, stdout, _, touch := setup(t)
	require.Equal(t, uint64(0xffffffff-EBADF+1), syscall(t, c, 64, 3, 0x1000, 6))
	require.Equal(t, uint64(0xffffffff-EFAULT+1), syscall(t, c, 64, 1, 0x9000, 6))
	touch.err = errors.New("segfault")
	require.Equal(t, uint64(0xffffffff-EFAULT+1), syscall(t, c, 64, 1, 0x1000, 6))
	require.Equal(t, uint64(0), syscall(t, c, 64, 1, 0x1000, 0))
	require.Empty(t, stdout.String())
	require.NoError(t, k.Err())
}

func TestExit(t *testing.T) {
	for _, num := range []uint64{93, 94} {
		k, c, _, _, _ := setup(t)
		syscall(t, c, num, 0xffffffff)
		require.True(t, k.Exited)
		require.Equal(t, -1, k.Status)
		require.True(t, c.Stopped)
	}
}

func TestENOSYS(t *testing.T) {
	k, c, _, _, _ := setup(t)
	require.Equal(t, uint64(0xffffffda), syscall(t, c, 222, 0, 0x1000))
	require.Equal(t, uint64(0xffffffda), syscall(t, c, 9999))
	require.False(t, c.Stopped)
	require.NoError(t, k.Err())
}

func TestUnhandledInterrupt(t *testing.T) {
	k, c, _, _, _ := setup(t)
	c.OnIntr(rv32.INTR_BREAKPOINT)
	require.Error(t, k.Err())
	require.True(t, c.Stopped)
}
