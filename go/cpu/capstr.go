package cpu

import (
	cs "github.com/lunixbochs/capstr"
	"github.com/pkg/errors"

	"github.com/lunixbochs/lazycorn/go/models"
)

// Capstr disassembles guest code for fault diagnostics.
type Capstr struct {
	Arch, Mode int

	cs *cs.Engine
	// 2-byte ARM windows are decoded as thumb
	thumb *Capstr
}

func (c *Capstr) Open() (err error) {
	engine, err := cs.New(c.Arch, c.Mode)
	if err == nil {
		c.cs = engine
	}
	return errors.Wrap(err, "cs.New() failed")
}

func (c *Capstr) Dis(mem []byte, addr uint64) ([]models.Ins, error) {
	if c.cs == nil {
		if err := c.Open(); err != nil {
			return nil, err
		}
	}
	if len(mem) == 2 && c.Arch == cs.ARCH_ARM && c.Mode == cs.MODE_ARM {
		if c.thumb == nil {
			c.thumb = &Capstr{Arch: cs.ARCH_ARM, Mode: cs.MODE_THUMB}
		}
		return c.thumb.Dis(mem, addr)
	}
	dis, err := c.cs.Dis(mem, addr, 0)
	if err != nil {
		return nil, errors.Wrap(err, "capstone disassembly failed")
	}
	ret := make([]models.Ins, len(dis))
	for i, v := range dis {
		ret[i] = v
	}
	return ret, nil
}
