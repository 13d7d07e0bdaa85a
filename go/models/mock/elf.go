package mock

import (
	"bytes"
	"debug/elf"
	"encoding/binary"

	"github.com/lunixbochs/struc"
)

type elfHeader struct {
	Ident     [16]byte
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

type elfProg struct {
	Type   uint32
	Offset uint32
	Vaddr  uint32
	Paddr  uint32
	Filesz uint32
	Memsz  uint32
	Flags  uint32
	Align  uint32
}

// Seg is one program header. Data is the file-backed part; Memsz defaults to len(Data).
type Seg struct {
	Type  elf.ProgType
	Vaddr uint32
	Data  []byte
	Memsz uint32
	Flags elf.ProgFlag
}

// Elf builds minimal ELF images for tests.
type Elf struct {
	Class   elf.Class
	Order   binary.ByteOrder
	Machine elf.Machine
	Entry   uint32
	Segs    []Seg
	// program header stride, defaults to 32
	Phentsize uint16
}

func alignUp(n, align uint32) uint32 {
	return (n + align - 1) &^ (align - 1)
}

// Bytes lays out header, program headers, then each segment's data at a file
// offset congruent to its vaddr modulo 0x1000.
func (e *Elf) Bytes() []byte {
	order := e.Order
	if order == nil {
		order = binary.LittleEndian
	}
	class := e.Class
	if class == elf.ELFCLASSNONE {
		class = elf.ELFCLASS32
	}
	phentsize := e.Phentsize
	if phentsize == 0 {
		phentsize = 32
	}
	hdr := elfHeader{
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(e.Machine),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     e.Entry,
		Phoff:     52,
		Ehsize:    52,
		Phentsize: phentsize,
		Phnum:     uint16(len(e.Segs)),
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(class)
	if order == binary.BigEndian {
		hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2MSB)
	} else {
		hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	}
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	cur := 52 + uint32(phentsize)*uint32(len(e.Segs))
	progs := make([]elfProg, len(e.Segs))
	for i, s := range e.Segs {
		typ := s.Type
		if typ == elf.PT_NULL {
			typ = elf.PT_LOAD
		}
		memsz := s.Memsz
		if memsz == 0 {
			memsz = uint32(len(s.Data))
		}
		off := alignUp(cur, 0x1000) + s.Vaddr%0x1000
		progs[i] = elfProg{
			Type:   uint32(typ),
			Offset: off,
			Vaddr:  s.Vaddr,
			Paddr:  s.Vaddr,
			Filesz: uint32(len(s.Data)),
			Memsz:  memsz,
			Flags:  uint32(s.Flags),
			Align:  0x1000,
		}
		cur = off + uint32(len(s.Data))
	}

	var buf bytes.Buffer
	if err := struc.PackWithOrder(&buf, &hdr, order); err != nil {
		panic(err)
	}
	for _, p := range progs {
		var ph bytes.Buffer
		if err := struc.PackWithOrder(&ph, &p, order); err != nil {
			panic(err)
		}
		entry := make([]byte, phentsize)
		copy(entry, ph.Bytes())
		buf.Write(entry)
	}
	out := buf.Bytes()
	for i, s := range e.Segs {
		end := int(progs[i].Offset) + len(s.Data)
		if len(out) < end {
			out = append(out, make([]byte, end-len(out))...)
		}
		copy(out[progs[i].Offset:], s.Data)
	}
	return out
}
