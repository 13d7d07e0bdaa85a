package loader

import (
	"os"
	"sync"

	"github.com/pkg/errors"
)

// Executable is an open image file. Close may be called any number of times.
type Executable struct {
	*os.File
	Name string
	Size int64

	closeOnce sync.Once
	closeErr  error
}

func OpenFile(path string) (*Executable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open executable")
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "stat executable")
	}
	return &Executable{File: f, Name: path, Size: fi.Size()}, nil
}

func (e *Executable) Close() error {
	e.closeOnce.Do(func() {
		e.closeErr = e.File.Close()
	})
	return e.closeErr
}
