package loader

import (
	"fmt"

	"github.com/pkg/errors"
)

type EntryPoint struct {
	Addr     uint64
	SegIndex int
	Base     uint64
	Offset   uint64
}

func (e EntryPoint) String() string {
	return fmt.Sprintf("%#x (LOAD[%d] %#x+%#x)", e.Addr, e.SegIndex, e.Base, e.Offset)
}

// ResolveEntry picks the PT_LOAD segment the entry point belongs to.
//
// Only segments based at or below e_entry are candidates. A segment whose
// memory range contains the entry wins over one that merely starts below it;
// within each class the smallest e_entry - p_vaddr wins, ties going to the
// earlier table entry.
func ResolveEntry(img *Image) (EntryPoint, error) {
	entry := uint64(img.Header.Entry)
	var best *Segment
	bestContains := false
	loads := img.Loads()
	for i := range loads {
		seg := &loads[i]
		if seg.Base() > entry {
			continue
		}
		contains := seg.Contains(entry)
		switch {
		case best == nil,
			contains && !bestContains,
			contains == bestContains && entry-seg.Base() < entry-best.Base():
			best, bestContains = seg, contains
		}
	}
	if best == nil {
		return EntryPoint{}, errors.Wrapf(ErrNoEntrySegment, "entry %#x", entry)
	}
	return EntryPoint{
		Addr:     entry,
		SegIndex: best.Index,
		Base:     best.Base(),
		Offset:   entry - best.Base(),
	}, nil
}
