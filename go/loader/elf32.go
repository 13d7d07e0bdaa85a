package loader

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"io"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

const (
	Elf32HeaderSize = 52
	Elf32ProgSize   = 32
)

var (
	ErrShortHeader    = errors.New("short read on ELF header")
	ErrBadMagic       = errors.New("bad ELF magic")
	ErrNotElf32       = errors.New("not a 32-bit ELF")
	ErrBadEncoding    = errors.New("unknown ELF data encoding")
	ErrShortProgs     = errors.New("short read on program headers")
	ErrBadProgSize    = errors.New("program header entry too small")
	ErrBadSegment     = errors.New("PT_LOAD memsz smaller than filesz")
	ErrNoEntrySegment = errors.New("no loadable segment at or below entry point")
)

type Elf32Header struct {
	Ident     [elf.EI_NIDENT]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint32
	Phoff     uint32
	Shoff     uint32
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

type Elf32Prog struct {
	Type   uint32
	Offset uint32
	Vaddr  uint32
	Paddr  uint32
	Filesz uint32
	Memsz  uint32
	Flags  uint32
	Align  uint32
}

func unpack(p []byte, i interface{}, order binary.ByteOrder) error {
	return struc.UnpackWithOrder(bytes.NewReader(p), i, order)
}

// LoadHeader reads and validates the ELF header at the start of r.
// The class is checked before anything past the header is read.
func LoadHeader(r io.ReadSeeker) (*Elf32Header, binary.ByteOrder, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, nil, errors.Wrap(err, "seek to ELF header")
	}
	buf := make([]byte, Elf32HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, nil, errors.WithStack(ErrShortHeader)
		}
		return nil, nil, errors.Wrap(err, "read ELF header")
	}
	if !bytes.Equal(buf[:4], []byte(elf.ELFMAG)) {
		return nil, nil, errors.WithStack(ErrBadMagic)
	}
	if elf.Class(buf[elf.EI_CLASS]) != elf.ELFCLASS32 {
		return nil, nil, errors.Wrapf(ErrNotElf32, "class %s", elf.Class(buf[elf.EI_CLASS]))
	}
	var order binary.ByteOrder
	switch elf.Data(buf[elf.EI_DATA]) {
	case elf.ELFDATA2LSB:
		order = binary.LittleEndian
	case elf.ELFDATA2MSB:
		order = binary.BigEndian
	default:
		return nil, nil, errors.Wrapf(ErrBadEncoding, "%s", elf.Data(buf[elf.EI_DATA]))
	}
	var hdr Elf32Header
	if err := unpack(buf, &hdr, order); err != nil {
		return nil, nil, errors.Wrap(err, "decode ELF header")
	}
	return &hdr, order, nil
}

// LoadProgs reads the program header table in file order.
// Entries larger than Elf32ProgSize are truncated to the standard fields.
func LoadProgs(r io.ReadSeeker, hdr *Elf32Header, order binary.ByteOrder) ([]Elf32Prog, error) {
	if hdr.Phnum == 0 {
		return nil, nil
	}
	if hdr.Phentsize < Elf32ProgSize {
		return nil, errors.Wrapf(ErrBadProgSize, "e_phentsize %d", hdr.Phentsize)
	}
	if _, err := r.Seek(int64(hdr.Phoff), io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "seek to program headers")
	}
	stride := int(hdr.Phentsize)
	buf := make([]byte, int(hdr.Phnum)*stride)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errors.Wrapf(ErrShortProgs, "%d entries at %#x", hdr.Phnum, hdr.Phoff)
		}
		return nil, errors.Wrap(err, "read program headers")
	}
	progs := make([]Elf32Prog, hdr.Phnum)
	for i := range progs {
		off := i * stride
		if err := unpack(buf[off:off+Elf32ProgSize], &progs[i], order); err != nil {
			return nil, errors.Wrapf(err, "decode program header %d", i)
		}
	}
	return progs, nil
}
