package cmd

import (
	"bytes"
	"debug/elf"
	"flag"
	"io"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/lunixbochs/lazycorn/go/cpu/rv32"
	"github.com/lunixbochs/lazycorn/go/models"
	"github.com/lunixbochs/lazycorn/go/models/mock"
)

func testCmd() (*LazycornCmd, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &LazycornCmd{
		Flags:  flag.NewFlagSet("lazycorn", flag.ContinueOnError),
		Stdout: &stdout,
		Stderr: &stderr,
	}, &stdout, &stderr
}

func writeProg(t *testing.T, code ...interface{}) string {
	e := &mock.Elf{
		Machine: elf.EM_RISCV,
		Entry:   0x10000,
		Segs:    []mock.Seg{{Vaddr: 0x10000, Data: rv32.Assemble(code...), Flags: elf.PF_R | elf.PF_X}},
	}
	path := filepath.Join(t.TempDir(), "prog")
	require.NoError(t, ioutil.WriteFile(path, e.Bytes(), 0755))
	return path
}

func TestUsage(t *testing.T) {
	c, stdout, stderr := testCmd()
	require.Equal(t, 1, c.Run([]string{"lazycorn"}))
	require.Empty(t, stdout.String())
	require.Contains(t, stderr.String(), "Usage: lazycorn [options] <elf>")
	require.Contains(t, stderr.String(), "-pagesize")

	c, _, _ = testCmd()
	require.Equal(t, 1, c.Run([]string{"lazycorn", "a", "b"}))
}

func TestBadFlag(t *testing.T) {
	c, _, stderr := testCmd()
	require.Equal(t, 1, c.Run([]string{"lazycorn", "-fill", "sparse", "prog"}))
	require.Contains(t, stderr.String(), "unknown fill mode")
}

func TestReport(t *testing.T) {
	prog := writeProg(t, rv32.Li(rv32.A0, 42), rv32.Jalr(rv32.ZERO, rv32.RA, 0))
	c, stdout, _ := testCmd()
	require.Equal(t, 0, c.Run([]string{"lazycorn", "-pagesize", "4096", prog}))
	require.Equal(t, "Return value of _start: 42\n"+
		"Pages used: 1\n"+
		"Page faults: 1\n"+
		"Total Fragmentation (in KB): 3.99 KB\n", stdout.String())
	require.Equal(t, models.FillClamp, c.Config.Fill)
	require.Equal(t, uint64(4096), c.Config.PageSize)
}

func TestExitCode(t *testing.T) {
	prog := writeProg(t, rv32.Li(rv32.A0, 7), rv32.Li(rv32.A7, 93), rv32.Ecall)
	c, stdout, _ := testCmd()
	require.Equal(t, 7, c.Run([]string{"lazycorn", "-pagesize", "4096", "-fill", "page", prog}))
	require.True(t, strings.HasPrefix(stdout.String(), "Return value of _start: 7\n"))
	require.Equal(t, models.FillPage, c.Config.Fill)
}

func TestFatal(t *testing.T) {
	prog := writeProg(t, rv32.Li(rv32.T0, 0x40000000), rv32.Lw(rv32.A0, rv32.T0, 0))
	c, stdout, stderr := testCmd()
	require.Equal(t, 1, c.Run([]string{"lazycorn", "-pagesize", "4096", prog}))
	require.Empty(t, stdout.String())
	out := stderr.String()
	require.Contains(t, out, "[fatal] ")
	require.Contains(t, out, "0x40000000")
	require.Contains(t, out, "Error: ")
	// stack trace frames
	require.Contains(t, out, "pager.(*Pager).Handle()")
}

func TestMissingFile(t *testing.T) {
	c, _, stderr := testCmd()
	require.Equal(t, 1, c.Run([]string{"lazycorn", filepath.Join(t.TempDir(), "nope")}))
	require.Contains(t, stderr.String(), "Error: ")
}

func TestFindStack(t *testing.T) {
	require.Nil(t, findStack(nil))
	require.Nil(t, findStack(io.EOF))
	inner := errors.New("inner")
	st := findStack(errors.Wrap(errors.WithMessage(inner, "msg"), "outer"))
	require.NotNil(t, st)
	require.Equal(t, inner.(stackTracer).StackTrace(), st.StackTrace())
}
