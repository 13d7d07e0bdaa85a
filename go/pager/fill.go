package pager

import (
	"io"

	"github.com/pkg/errors"

	"github.com/lunixbochs/lazycorn/go/loader"
	"github.com/lunixbochs/lazycorn/go/models"
)

// fillResult records which file range ended up in a page.
type fillResult struct {
	fileOff uint64
	n       int
}

func readAt(r io.ReaderAt, p []byte, off int64) (int, error) {
	n, err := r.ReadAt(p, off)
	if err == io.EOF {
		err = nil
	}
	return n, err
}

// fill returns the contents of the page at base, which belongs to seg.
func (p *Pager) fill(seg *loader.Segment, base uint64) ([]byte, fillResult, error) {
	buf := make([]byte, p.pageSize)
	var res fillResult
	var err error
	switch p.fillMode {
	case models.FillPage:
		res, err = p.fillPage(buf, seg, base)
	default:
		res, err = p.fillClamp(buf, base)
	}
	return buf, res, err
}

// fillPage reads one page from p_offset + (base - aligned p_vaddr),
// ignoring p_filesz. Bytes past the end of the file stay zero.
func (p *Pager) fillPage(buf []byte, seg *loader.Segment, base uint64) (fillResult, error) {
	offset := base - (seg.Base() &^ (p.pageSize - 1))
	off := uint64(seg.Offset) + offset
	n, err := readAt(p.file, buf, int64(off))
	if err != nil {
		return fillResult{}, errors.Wrapf(err, "read page at file offset %#x", off)
	}
	return fillResult{fileOff: off, n: n}, nil
}

// fillClamp copies only the bytes of the page that fall inside
// [p_vaddr, p_vaddr+p_filesz) of some PT_LOAD segment.
func (p *Pager) fillClamp(buf []byte, base uint64) (fillResult, error) {
	var res fillResult
	end := base + p.pageSize
	for _, s := range p.segs {
		start, stop := s.Base(), s.Base()+uint64(s.Filesz)
		if start < base {
			start = base
		}
		if stop > end {
			stop = end
		}
		if stop <= start {
			continue
		}
		off := uint64(s.Offset) + (start - s.Base())
		n, err := readAt(p.file, buf[start-base:stop-base], int64(off))
		if err != nil {
			return res, errors.Wrapf(err, "read segment %d at file offset %#x", s.Index, off)
		}
		if res.n == 0 {
			res.fileOff = off
		}
		res.n += n
	}
	return res, nil
}
