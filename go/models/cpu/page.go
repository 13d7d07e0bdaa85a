package cpu

import (
	"fmt"
	"sort"
	"strings"
)

type Page struct {
	Addr uint64
	Size uint64
	Prot int
	Data []byte
}

func (p *Page) String() string {
	prots := []int{PROT_READ, PROT_WRITE, PROT_EXEC}
	chars := "rwx"
	prot := ""
	for i := range prots {
		if p.Prot&prots[i] != 0 {
			prot += chars[i : i+1]
		} else {
			prot += "-"
		}
	}
	return fmt.Sprintf("0x%x-0x%x %s", p.Addr, p.Addr+p.Size, prot)
}

func (p *Page) Contains(addr uint64) bool {
	return addr >= p.Addr && addr < p.Addr+p.Size
}

// start = max(s1, s2), end = min(e1, e2), ok = end > start
func (p *Page) Intersect(addr, size uint64) (uint64, uint64, bool) {
	start, end := p.Addr, p.Addr+p.Size
	if e2 := addr + size; end > e2 {
		end = e2
	}
	if start < addr {
		start = addr
	}
	if end <= start {
		return start, 0, false
	}
	return start, end - start, true
}

func (p *Page) Overlaps(addr, size uint64) bool {
	_, _, ok := p.Intersect(addr, size)
	return ok
}

// slice returns the part of p covering addr:addr+size, sharing Data.
func (p *Page) slice(addr, size uint64) *Page {
	o := addr - p.Addr
	return &Page{Addr: addr, Size: size, Prot: p.Prot, Data: p.Data[o : o+size]}
}

type Pages []*Page

func (p Pages) Len() int           { return len(p) }
func (p Pages) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p Pages) Less(i, j int) bool { return p[i].Addr < p[j].Addr }

func (p Pages) String() string {
	s := make([]string, len(p))
	for i, v := range p {
		s[i] = v.String()
	}
	return strings.Join(s, "\n")
}

// bsearch returns the index of the region containing addr, or -1.
func (p Pages) bsearch(addr uint64) int {
	i := sort.Search(len(p), func(i int) bool { return p[i].Addr+p[i].Size > addr })
	if i < len(p) && p[i].Contains(addr) {
		return i
	}
	return -1
}

func (p Pages) Find(addr uint64) *Page {
	if i := p.bsearch(addr); i >= 0 {
		return p[i]
	}
	return nil
}

// FindRange returns every region overlapping addr:addr+size.
func (p Pages) FindRange(addr, size uint64) Pages {
	var ret Pages
	for _, v := range p {
		if v.Overlaps(addr, size) {
			ret = append(ret, v)
		}
	}
	return ret
}
