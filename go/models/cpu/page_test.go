package cpu

import (
	"testing"
)

func pageEq(a Pages, b Pages) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPageFind(t *testing.T) {
	mem := Pages{
		&Page{Addr: 0x1000, Size: 0x1000},
		&Page{Addr: 0x2000, Size: 0x1000},
		&Page{Addr: 0x4000, Size: 0x2000},
		&Page{Addr: 0x6000, Size: 0x2000},
	}
	if mem.Find(0x1000) != mem[0] ||
		mem.Find(0x1001) != mem[0] ||
		mem.Find(0x1fff) != mem[0] ||
		mem.Find(0x7fff) != mem[3] {
		t.Error("Find() failed")
	}
	if mem.Find(0x3000) != nil ||
		mem.Find(0x1) != nil ||
		mem.Find(0x8000) != nil {
		t.Error("Find() negative failed")
	}
	if !pageEq(mem.FindRange(0x0, 0x10000), mem) ||
		!pageEq(mem.FindRange(0x0, 0x1000), nil) ||
		!pageEq(mem.FindRange(0x1000, 0x1000), mem[:1]) ||
		!pageEq(mem.FindRange(0x1000, 0x2000), mem[:2]) ||
		!pageEq(mem.FindRange(0x2000, 0x4000), mem[1:3]) ||
		!pageEq(mem.FindRange(0x2000, 0x10000), mem[1:]) {
		t.Error("FindRange() failed")
	}
}

func TestPageIntersect(t *testing.T) {
	p := &Page{Addr: 0x1000, Size: 0x1000}
	if addr, size, ok := p.Intersect(0x1800, 0x1000); !ok || addr != 0x1800 || size != 0x800 {
		t.Errorf("Intersect(0x1800, 0x1000) = %#x, %#x, %v", addr, size, ok)
	}
	if addr, size, ok := p.Intersect(0x0, 0x1100); !ok || addr != 0x1000 || size != 0x100 {
		t.Errorf("Intersect(0x0, 0x1100) = %#x, %#x, %v", addr, size, ok)
	}
	if p.Overlaps(0x2000, 0x1000) || p.Overlaps(0x0, 0x1000) {
		t.Error("adjacent ranges should not overlap")
	}
}
