package cpu

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Mem wraps MemSim to make a Cpu interface-compatible memory model.
//
// Guest accesses (ReadProt, WriteProt, ReadUint, WriteUint) dispatch fault
// hooks on failure. When a hook reports the fault handled, the access is
// retried. A retry that faults again at the same address, or a fault no hook
// handles, is returned to the interpreter.
type Mem struct {
	bits uint
	// addresses outside mask are rejected by MemMapProt
	mask uint64
	// set when passing *Mem to NewHooks()
	hooks *Hooks
	sim   *MemSim

	order binary.ByteOrder
}

func NewMem(bits uint, order binary.ByteOrder) *Mem {
	return &Mem{
		bits:  bits,
		mask:  ^uint64(0) >> (64 - bits),
		sim:   &MemSim{},
		order: order,
	}
}

func (m *Mem) Order() binary.ByteOrder { return m.order }

// Maps returns the current mappings, sorted by address.
func (m *Mem) Maps() Pages { return m.sim.Mem }

func (m *Mem) MemMapProt(addr, size uint64, prot int) error {
	if size == 0 {
		return errors.New("zero-length mapping")
	}
	if end := addr + size - 1; end < addr || end&m.mask != end {
		return errors.Errorf("region %#x+%#x outside memory range", addr, size)
	}
	m.sim.Map(addr, size, prot)
	return nil
}

func (m *Mem) MemReadInto(p []byte, addr uint64) error {
	return m.sim.Read(addr, p, 0)
}

func (m *Mem) MemRead(addr, size uint64) ([]byte, error) {
	p := make([]byte, size)
	if err := m.MemReadInto(p, addr); err != nil {
		return nil, err
	}
	return p, nil
}

func (m *Mem) MemWrite(addr uint64, p []byte) error {
	return m.sim.Write(addr, p, 0)
}

// access runs op, dispatching fault hooks and retrying until it succeeds,
// no hook handles the fault, or the same address faults twice in a row.
func (m *Mem) access(op func() error, size int, val int64) error {
	last := ^uint64(0)
	for {
		err := op()
		merr, ok := err.(*MemError)
		if !ok || m.hooks == nil || merr.Addr == last {
			return err
		}
		last = merr.Addr
		if !m.hooks.OnFault(merr.Enum, merr.Addr, size, val) {
			return err
		}
	}
}

// ReadProt reads while checking protections. This exists to support a CPU interpreter.
func (m *Mem) ReadProt(addr, size uint64, prot int) ([]byte, error) {
	p := make([]byte, size)
	if err := m.access(func() error { return m.sim.Read(addr, p, prot) }, int(size), 0); err != nil {
		return nil, err
	}
	return p, nil
}

// WriteProt writes while checking protections. This exists to support a CPU interpreter.
func (m *Mem) WriteProt(addr uint64, p []byte, prot int) error {
	var val int64
	if len(p) <= 8 {
		v, _ := UnpackUint(m.order, len(p), p)
		val = int64(v)
	}
	return m.access(func() error { return m.sim.Write(addr, p, prot) }, len(p), val)
}

func (m *Mem) ReadUint(addr uint64, size, prot int) (uint64, error) {
	if size > 8 {
		return 0, errors.Errorf("ReadUint size too large: %d > 8", size)
	}
	p, err := m.ReadProt(addr, uint64(size), prot)
	if err != nil {
		return 0, err
	}
	return UnpackUint(m.order, size, p)
}

func (m *Mem) WriteUint(addr uint64, size, prot int, val uint64) error {
	var buf [8]byte
	if size > 8 {
		return errors.Errorf("WriteUint size too large: %d > 8", size)
	}
	if _, err := PackUint(m.order, size, buf[:], val); err != nil {
		return err
	}
	return m.WriteProt(addr, buf[:size], prot)
}
