package pager

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/lunixbochs/lazycorn/go/models/cpu"
)

var (
	ErrReentrantFault = errors.New("page fault while servicing a page fault")
	ErrDoubleFault    = errors.New("fault on a page that is already mapped")
	ErrBadPageSize    = errors.New("page size must be a power of two")
)

// OutOfBoundsError is a fault outside every loadable segment: a genuine
// segmentation fault in the guest.
type OutOfBoundsError struct {
	Addr   uint64
	Access int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("segmentation fault: %s at %#x outside any loadable segment", cpu.AccessName(e.Access), e.Addr)
}

// MapError wraps a failure to map or fill a page.
type MapError struct {
	Page uint64
	Err  error
}

func (e *MapError) Error() string {
	return fmt.Sprintf("failed to map page %#x: %v", e.Page, e.Err)
}

func (e *MapError) Unwrap() error { return e.Err }
