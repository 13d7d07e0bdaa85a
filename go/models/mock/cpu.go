package mock

import (
	"encoding/binary"

	"github.com/lunixbochs/lazycorn/go/models/cpu"
)

// Cpu is a memory-only cpu.Cpu. Guest accesses go through its embedded
// *cpu.Mem (ReadUint, WriteUint) so fault hooks fire like they would
// under an interpreter. Start runs Run if set.
type Cpu struct {
	*cpu.Hooks
	*cpu.Regs
	*cpu.Mem

	Run     func(c *Cpu) error
	Stopped bool
	Closed  int
	// returned by MemMapProt when set
	MapErr error
}

func NewCpu(regs ...int) *Cpu {
	c := &Cpu{
		Regs: cpu.NewRegs(32, regs),
		Mem:  cpu.NewMem(32, binary.LittleEndian),
	}
	c.Hooks = cpu.NewHooks(c, c.Mem)
	return c
}

func (c *Cpu) MemMapProt(addr, size uint64, prot int) error {
	if c.MapErr != nil {
		return c.MapErr
	}
	return c.Mem.MemMapProt(addr, size, prot)
}

func (c *Cpu) Start(begin, until uint64) error {
	c.Stopped = false
	if c.Run != nil {
		return c.Run(c)
	}
	return nil
}

func (c *Cpu) Stop() error {
	c.Stopped = true
	return nil
}

func (c *Cpu) Close() error {
	c.Closed++
	return nil
}
