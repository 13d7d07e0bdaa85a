package cpu

import (
	"fmt"
	"sort"
)

type MemError struct {
	Addr uint64
	Size int
	Enum int
}

func (m *MemError) Error() string {
	reason := "memory error"
	switch m.Enum {
	case MEM_WRITE_UNMAPPED:
		reason = "unmapped write"
	case MEM_READ_UNMAPPED:
		reason = "unmapped read"
	case MEM_FETCH_UNMAPPED:
		reason = "unmapped fetch"
	case MEM_WRITE_PROT:
		reason = "protected write"
	case MEM_READ_PROT:
		reason = "protected read"
	case MEM_FETCH_PROT:
		reason = "protected exec"
	}
	return fmt.Sprintf("%s at %#x(%d)", reason, m.Addr, m.Size)
}

// MemSim is a sparse address space made of sorted, non-overlapping pages.
type MemSim struct {
	Mem Pages
}

// RangeValid checks whether addr:addr+size is fully mapped.
// If prot > 0, every region must also carry the entire protection mask.
func (m *MemSim) RangeValid(addr, size uint64, prot int) (mapGood bool, protGood bool) {
	first := m.Mem.bsearch(addr)
	if first == -1 {
		return false, false
	}
	protGood = true
	end := addr + size
	for _, mm := range m.Mem[first:] {
		if !mm.Contains(addr) {
			break
		}
		if prot > 0 && mm.Prot&prot != prot {
			protGood = false
		}
		addr = mm.Addr + mm.Size
		if addr >= end {
			break
		}
	}
	return addr >= end, protGood
}

// Map creates a zeroed region at addr:addr+size, replacing whatever was
// mapped there before (MAP_FIXED semantics).
func (m *MemSim) Map(addr, size uint64, prot int) *Page {
	tmp := make(Pages, 0, len(m.Mem)+1)
	for _, mm := range m.Mem {
		oaddr, osize, ok := mm.Intersect(addr, size)
		if !ok {
			tmp = append(tmp, mm)
			continue
		}
		if oaddr > mm.Addr {
			tmp = append(tmp, mm.slice(mm.Addr, oaddr-mm.Addr))
		}
		if end := mm.Addr + mm.Size; oaddr+osize < end {
			tmp = append(tmp, mm.slice(oaddr+osize, end-(oaddr+osize)))
		}
	}
	page := &Page{Addr: addr, Size: size, Prot: prot, Data: make([]byte, size)}
	m.Mem = append(tmp, page)
	sort.Sort(m.Mem)
	return page
}

// hole returns the first unmapped address in addr:addr+size.
func (m *MemSim) hole(addr, size uint64) uint64 {
	end := addr + size
	for addr < end {
		p := m.Mem.Find(addr)
		if p == nil {
			break
		}
		addr = p.Addr + p.Size
	}
	return addr
}

func (m *MemSim) Read(addr uint64, p []byte, prot int) error {
	if gmap, gprot := m.RangeValid(addr, uint64(len(p)), prot); !gmap {
		hole := m.hole(addr, uint64(len(p)))
		if prot&PROT_EXEC == PROT_EXEC {
			return &MemError{Addr: hole, Size: len(p), Enum: MEM_FETCH_UNMAPPED}
		}
		return &MemError{Addr: hole, Size: len(p), Enum: MEM_READ_UNMAPPED}
	} else if !gprot {
		if prot&PROT_EXEC == PROT_EXEC {
			return &MemError{Addr: addr, Size: len(p), Enum: MEM_FETCH_PROT}
		}
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_READ_PROT}
	}
	for _, mm := range m.Mem[m.Mem.bsearch(addr):] {
		if len(p) == 0 || !mm.Contains(addr) {
			break
		}
		n := copy(p, mm.Data[addr-mm.Addr:])
		addr, p = addr+uint64(n), p[n:]
	}
	return nil
}

func (m *MemSim) Write(addr uint64, p []byte, prot int) error {
	if gmap, gprot := m.RangeValid(addr, uint64(len(p)), prot); !gmap {
		return &MemError{Addr: m.hole(addr, uint64(len(p))), Size: len(p), Enum: MEM_WRITE_UNMAPPED}
	} else if !gprot {
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_WRITE_PROT}
	}
	for _, mm := range m.Mem[m.Mem.bsearch(addr):] {
		if len(p) == 0 || !mm.Contains(addr) {
			break
		}
		n := copy(mm.Data[addr-mm.Addr:], p)
		addr, p = addr+uint64(n), p[n:]
	}
	return nil
}
