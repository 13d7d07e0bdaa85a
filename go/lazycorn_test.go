package lazycorn

import (
	"bytes"
	"debug/elf"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/lunixbochs/lazycorn/go/arch"
	"github.com/lunixbochs/lazycorn/go/cpu/rv32"
	"github.com/lunixbochs/lazycorn/go/loader"
	"github.com/lunixbochs/lazycorn/go/models"
	"github.com/lunixbochs/lazycorn/go/models/mock"
	"github.com/lunixbochs/lazycorn/go/models/trace"
	"github.com/lunixbochs/lazycorn/go/pager"
)

const textBase = 0x10000

var ret = rv32.Jalr(rv32.ZERO, rv32.RA, 0)

func writeElf(t *testing.T, e *mock.Elf) string {
	path := filepath.Join(t.TempDir(), "prog")
	require.NoError(t, ioutil.WriteFile(path, e.Bytes(), 0755))
	return path
}

func rvElf(code []byte, segs ...mock.Seg) *mock.Elf {
	text := mock.Seg{Vaddr: textBase, Data: code, Flags: elf.PF_R | elf.PF_X}
	return &mock.Elf{
		Machine: elf.EM_RISCV,
		Entry:   textBase,
		Segs:    append([]mock.Seg{text}, segs...),
	}
}

func run(t *testing.T, e *mock.Elf, config *models.Config) (*Lazycorn, *Result, error) {
	l, err := NewLazycorn(writeElf(t, e), config)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	res, err := l.Run()
	return l, res, err
}

func TestReturnValue(t *testing.T) {
	code := rv32.Assemble(rv32.Li(rv32.A0, 42), ret)
	_, res, err := run(t, rvElf(code), nil)
	require.NoError(t, err)
	require.Equal(t, 42, res.Return)
	require.False(t, res.Exited)
	require.Equal(t, pager.Stats{PagesMapped: 1, FaultsServiced: 1}, res.Stats)
	require.Equal(t, uint64(0x1000-len(code)), res.Fragmentation)
	require.Equal(t, 0, res.EntrySegment.Index)
}

func TestNegativeReturn(t *testing.T) {
	code := rv32.Assemble(rv32.Addi(rv32.A0, rv32.ZERO, -7), ret)
	_, res, err := run(t, rvElf(code), nil)
	require.NoError(t, err)
	require.Equal(t, -7, res.Return)
}

func TestExitSyscall(t *testing.T) {
	code := rv32.Assemble(
		rv32.Li(rv32.A0, 3),
		rv32.Li(rv32.A7, 93),
		rv32.Ecall,
		// not reached
		rv32.Li(rv32.A0, 1),
		ret,
	)
	_, res, err := run(t, rvElf(code), nil)
	require.NoError(t, err)
	require.True(t, res.Exited)
	require.Equal(t, 3, res.Return)
}

func TestUnknownSyscall(t *testing.T) {
	code := rv32.Assemble(rv32.Li(rv32.A7, 999), rv32.Ecall, ret)
	_, res, err := run(t, rvElf(code), nil)
	require.NoError(t, err)
	require.Equal(t, -38, res.Return)
}

func TestDataAndBss(t *testing.T) {
	code := rv32.Assemble(
		rv32.Li(rv32.T0, 0x12000),
		rv32.Lbu(rv32.A0, rv32.T0, 1),
		rv32.Li(rv32.T1, 0x13800),
		rv32.Lw(rv32.A1, rv32.T1, 0),
		rv32.Add(rv32.A0, rv32.A0, rv32.A1),
		// store into bss and read it back
		rv32.Sw(rv32.A0, rv32.T1, 4),
		rv32.Lw(rv32.A2, rv32.T1, 4),
		rv32.Add(rv32.A0, rv32.A0, rv32.A2),
		ret,
	)
	data := mock.Seg{Vaddr: 0x12000, Data: []byte{0x11, 0x22, 0x33, 0x44}, Memsz: 0x2000, Flags: elf.PF_R | elf.PF_W}
	l, res, err := run(t, rvElf(code, data), nil)
	require.NoError(t, err)
	require.Equal(t, 0x44, res.Return)
	require.Equal(t, pager.Stats{PagesMapped: 3, FaultsServiced: 3}, res.Stats)
	require.Equal(t, []uint64{0x10000, 0x12000, 0x13000}, l.Pager().Mapped())

	var addrs []uint64
	for _, p := range l.Cpu.(mapper).Maps() {
		addrs = append(addrs, p.Addr)
	}
	require.Equal(t, []uint64{0x10000, 0x12000, 0x13000, STACK_BASE}, addrs)
}

func TestWriteSyscall(t *testing.T) {
	code := rv32.Assemble(
		rv32.Li(rv32.A0, 1),
		rv32.Li(rv32.A1, 0x12000),
		rv32.Li(rv32.A2, 6),
		rv32.Li(rv32.A7, 64),
		rv32.Ecall,
		ret,
	)
	data := mock.Seg{Vaddr: 0x12000, Data: []byte("hello\n"), Flags: elf.PF_R}
	var stdout bytes.Buffer
	_, res, err := run(t, rvElf(code, data), &models.Config{Stdout: &stdout})
	require.NoError(t, err)
	require.Equal(t, "hello\n", stdout.String())
	require.Equal(t, 6, res.Return)
	require.Equal(t, uint64(2), res.PagesMapped)
}

func TestOutOfBounds(t *testing.T) {
	code := rv32.Assemble(
		rv32.Li(rv32.T0, 0x40000000),
		rv32.Lw(rv32.A0, rv32.T0, 0),
		ret,
	)
	l, res, err := run(t, rvElf(code), nil)
	require.Error(t, err)
	require.Nil(t, res)

	var oob *pager.OutOfBoundsError
	require.True(t, errors.As(err, &oob))
	require.Equal(t, uint64(0x40000000), oob.Addr)

	var fatal *FatalError
	require.True(t, errors.As(err, &fatal))
	require.Equal(t, uint64(textBase+8), fatal.PC)
	require.Len(t, fatal.Ins, 1)
	require.Equal(t, "lw", fatal.Ins[0].Mnemonic())
	require.NotEmpty(t, fatal.Regs)

	dump := fatal.Dump(32, false)
	require.True(t, strings.HasPrefix(dump, "[fatal] "))
	require.Contains(t, dump, "lw")

	require.Equal(t, pager.Stats{PagesMapped: 1, FaultsServiced: 1}, l.Pager().Stats())
}

func TestEntryOutsideSegment(t *testing.T) {
	code := rv32.Assemble(rv32.Li(rv32.A0, 5), ret)
	e := rvElf(code)
	// entry past the text segment resolves to it but faults out of bounds
	e.Entry = textBase + 0x2000
	_, _, err := run(t, e, nil)
	var oob *pager.OutOfBoundsError
	require.True(t, errors.As(err, &oob))
	require.Equal(t, uint64(textBase+0x2000), oob.Addr)
}

func TestPageSize(t *testing.T) {
	code := rv32.Assemble(rv32.Li(rv32.T0, 0x10000+0x4000), rv32.Lbu(rv32.A0, rv32.T0, 0), ret)
	data := make([]byte, 0x4800)
	copy(data, code)
	data[0x4000] = 9
	e := &mock.Elf{
		Machine: elf.EM_RISCV,
		Entry:   textBase,
		Segs:    []mock.Seg{{Vaddr: textBase, Data: data, Flags: elf.PF_R | elf.PF_X}},
	}
	_, res, err := run(t, e, &models.Config{PageSize: 0x4000})
	require.NoError(t, err)
	require.Equal(t, 9, res.Return)
	require.Equal(t, uint64(2), res.PagesMapped)
	require.Equal(t, uint64(0x8000-0x4800), res.Fragmentation)
}

func TestTraceAndMetrics(t *testing.T) {
	dir := t.TempDir()
	config := &models.Config{
		TracePath:   filepath.Join(dir, "faults.trace"),
		MetricsPath: filepath.Join(dir, "metrics.prom"),
	}
	code := rv32.Assemble(rv32.Li(rv32.A0, 0), ret)
	l, _, err := run(t, rvElf(code), config)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	f, err := os.Open(config.TracePath)
	require.NoError(t, err)
	tr, err := trace.NewReader(f)
	require.NoError(t, err)
	defer tr.Close()
	require.Equal(t, "rv32", tr.Header.Arch)
	recs, err := tr.All()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, uint64(textBase), recs[0].Page)
	require.Equal(t, uint32(len(code)), recs[0].Len)

	metrics, err := ioutil.ReadFile(config.MetricsPath)
	require.NoError(t, err)
	require.Contains(t, string(metrics), "lazycorn_pages_mapped_total 1")
	require.Contains(t, string(metrics), "lazycorn_faults_serviced_total 1")
}

func TestCloseOnce(t *testing.T) {
	code := rv32.Assemble(rv32.Li(rv32.A0, 0), ret)
	l, err := NewLazycorn(writeElf(t, rvElf(code)), nil)
	require.NoError(t, err)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
}

func TestNewErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk")
	require.NoError(t, ioutil.WriteFile(path, bytes.Repeat([]byte{'A'}, 64), 0644))
	_, err := NewLazycorn(path, nil)
	require.True(t, errors.Is(err, loader.ErrBadMagic))

	e := rvElf(rv32.Assemble(ret))
	e.Machine = elf.EM_MIPS
	_, err = NewLazycorn(writeElf(t, e), nil)
	require.True(t, errors.Is(err, arch.ErrUnknownMachine))

	e = rvElf(rv32.Assemble(ret))
	e.Entry = 0x1000
	_, err = NewLazycorn(writeElf(t, e), nil)
	require.True(t, errors.Is(err, loader.ErrNoEntrySegment))

	_, err = NewLazycorn(filepath.Join(t.TempDir(), "missing"), nil)
	require.Error(t, err)
}

func TestStackOverlap(t *testing.T) {
	code := rv32.Assemble(ret)
	e := &mock.Elf{
		Machine: elf.EM_RISCV,
		Entry:   STACK_BASE,
		Segs:    []mock.Seg{{Vaddr: STACK_BASE, Data: code, Flags: elf.PF_R | elf.PF_X}},
	}
	_, _, err := run(t, e, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "overlaps segment")
}

func TestReport(t *testing.T) {
	res := &Result{
		Return:        42,
		Stats:         pager.Stats{PagesMapped: 3, FaultsServiced: 3},
		Fragmentation: 3192,
	}
	var buf bytes.Buffer
	res.Report(&buf)
	require.Equal(t, "Return value of _start: 42\n"+
		"Pages used: 3\n"+
		"Page faults: 3\n"+
		"Total Fragmentation (in KB): 3.12 KB\n", buf.String())
}

func TestAlign(t *testing.T) {
	addr, size := align(0x1234, 0x10, 0x1000)
	require.Equal(t, uint64(0x1000), addr)
	require.Equal(t, uint64(0x1000), size)
	addr, size = align(0x1ff8, 0x10, 0x1000)
	require.Equal(t, uint64(0x1000), addr)
	require.Equal(t, uint64(0x2000), size)
}
