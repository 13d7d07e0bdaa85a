package loader_test

import (
	"bytes"
	"debug/elf"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/lunixbochs/lazycorn/go/loader"
	"github.com/lunixbochs/lazycorn/go/models/mock"
)

func resolve(t *testing.T, e *mock.Elf) (loader.EntryPoint, error) {
	t.Helper()
	img, err := loader.Load(bytes.NewReader(e.Bytes()))
	require.NoError(t, err)
	return loader.ResolveEntry(img)
}

func TestEntrySecondSegment(t *testing.T) {
	ep, err := resolve(t, twoSegs())
	require.NoError(t, err)
	require.Equal(t, 1, ep.SegIndex)
	require.Equal(t, uint64(0x3000), ep.Base)
	require.Equal(t, uint64(0x50), ep.Offset)
	require.Equal(t, uint64(0x3050), ep.Addr)
}

func TestEntryFirstSegment(t *testing.T) {
	e := twoSegs()
	e.Entry = 0x1010
	ep, err := resolve(t, e)
	require.NoError(t, err)
	require.Equal(t, 0, ep.SegIndex)
	require.Equal(t, uint64(0x10), ep.Offset)
}

func TestEntryIgnoresHigherSegments(t *testing.T) {
	// an unsigned difference would wrap and could pick the segment above the entry
	e := &mock.Elf{
		Machine: elf.EM_RISCV,
		Entry:   0x2000,
		Segs: []mock.Seg{
			{Vaddr: 0x3000, Data: []byte{1}},
			{Vaddr: 0x1000, Data: []byte{1}},
		},
	}
	ep, err := resolve(t, e)
	require.NoError(t, err)
	require.Equal(t, 1, ep.SegIndex)
	require.Equal(t, uint64(0x1000), ep.Offset)
}

func TestEntryPrefersContaining(t *testing.T) {
	e := &mock.Elf{
		Machine: elf.EM_RISCV,
		Entry:   0x1800,
		Segs: []mock.Seg{
			{Vaddr: 0x1000, Data: make([]byte, 0x1000)},
			{Vaddr: 0x1700, Data: make([]byte, 0x10)},
		},
	}
	ep, err := resolve(t, e)
	require.NoError(t, err)
	require.Equal(t, 0, ep.SegIndex)
}

func TestEntryTieKeepsFirst(t *testing.T) {
	e := &mock.Elf{
		Machine: elf.EM_RISCV,
		Entry:   0x1004,
		Segs: []mock.Seg{
			{Vaddr: 0x1000, Data: make([]byte, 0x10)},
			{Vaddr: 0x1000, Data: make([]byte, 0x20)},
		},
	}
	ep, err := resolve(t, e)
	require.NoError(t, err)
	require.Equal(t, 0, ep.SegIndex)
}

func TestEntryNoSegment(t *testing.T) {
	e := twoSegs()
	e.Entry = 0x800
	_, err := resolve(t, e)
	require.Equal(t, loader.ErrNoEntrySegment, errors.Cause(err))

	e.Segs = []mock.Seg{{Type: elf.PT_NOTE, Vaddr: 0x100, Data: []byte{1}}}
	_, err = resolve(t, e)
	require.Equal(t, loader.ErrNoEntrySegment, errors.Cause(err))
}
