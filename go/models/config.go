package models

import (
	"fmt"
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/pkg/errors"
)

type FillMode int

const (
	// copy only file-backed bytes of each segment, zero the rest
	FillClamp FillMode = iota
	// read a whole page from the segment's file offset, like the C loader did
	FillPage
)

func (f FillMode) String() string {
	switch f {
	case FillClamp:
		return "clamp"
	case FillPage:
		return "page"
	}
	return fmt.Sprintf("FillMode(%d)", int(f))
}

// Set implements flag.Value.
func (f *FillMode) Set(s string) error {
	switch s {
	case "clamp":
		*f = FillClamp
	case "page":
		*f = FillPage
	default:
		return errors.Errorf("unknown fill mode %q (want clamp or page)", s)
	}
	return nil
}

const DefaultStackSize = 0x10000

type Config struct {
	Color    bool
	Verbose  bool
	PageSize uint64
	Fill     FillMode

	StackSize   uint64
	TracePath   string
	MetricsPath string

	// guest stdout/stderr
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// Init fills unset fields with defaults.
func (c *Config) Init() *Config {
	if c.PageSize == 0 {
		c.PageSize = 0x1000
	}
	if c.StackSize == 0 {
		c.StackSize = DefaultStackSize
	}
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	if c.Logger == nil {
		c.Logger = log.NewNopLogger()
	}
	return c
}
