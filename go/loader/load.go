package loader

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Image is the parsed metadata of a 32-bit ELF executable.
type Image struct {
	Header Elf32Header
	Progs  []Elf32Prog
	Order  binary.ByteOrder
	// byte length of the file
	Size int64
}

// Segment is a PT_LOAD entry with its program header table index.
type Segment struct {
	Index int
	Elf32Prog
}

func (s Segment) Base() uint64 { return uint64(s.Vaddr) }
func (s Segment) End() uint64  { return uint64(s.Vaddr) + uint64(s.Memsz) }

// Contains reports vaddr <= addr < vaddr+memsz.
func (s Segment) Contains(addr uint64) bool {
	return addr >= s.Base() && addr < s.End()
}

func (s Segment) String() string {
	return fmt.Sprintf("LOAD[%d] %#x-%#x off=%#x filesz=%#x", s.Index, s.Base(), s.End(), s.Offset, s.Filesz)
}

// Load parses the header and program header table of r.
func Load(r io.ReadSeeker) (*Image, error) {
	hdr, order, err := LoadHeader(r)
	if err != nil {
		return nil, err
	}
	progs, err := LoadProgs(r, hdr, order)
	if err != nil {
		return nil, err
	}
	for i, p := range progs {
		if elf.ProgType(p.Type) == elf.PT_LOAD && p.Memsz < p.Filesz {
			return nil, errors.Wrapf(ErrBadSegment, "program header %d: memsz %#x < filesz %#x", i, p.Memsz, p.Filesz)
		}
	}
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, errors.Wrap(err, "seek to end of image")
	}
	return &Image{Header: *hdr, Progs: progs, Order: order, Size: size}, nil
}

func (i *Image) Machine() elf.Machine {
	return elf.Machine(i.Header.Machine)
}

// Loads returns the PT_LOAD entries in table order.
func (i *Image) Loads() []Segment {
	var ret []Segment
	for n, p := range i.Progs {
		if elf.ProgType(p.Type) == elf.PT_LOAD {
			ret = append(ret, Segment{Index: n, Elf32Prog: p})
		}
	}
	return ret
}
