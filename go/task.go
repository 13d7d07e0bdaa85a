package lazycorn

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/lunixbochs/lazycorn/go/models"
	"github.com/lunixbochs/lazycorn/go/models/cpu"
)

// Task pairs a cpu with the arch-specific knowledge needed to set up a call
// into guest code.
type Task struct {
	cpu.Cpu

	arch  *models.Arch
	Bsz   int
	order binary.ByteOrder
}

func NewTask(c cpu.Cpu, arch *models.Arch, order binary.ByteOrder) *Task {
	return &Task{
		Cpu:   c,
		arch:  arch,
		Bsz:   arch.Bits / 8,
		order: order,
	}
}

func (t *Task) Arch() *models.Arch {
	return t.arch
}

func (t *Task) PackAddr(buf []byte, n uint64) ([]byte, error) {
	return cpu.PackUint(t.order, t.Bsz, buf, n)
}

func (t *Task) UnpackAddr(buf []byte) uint64 {
	n, _ := cpu.UnpackUint(t.order, t.Bsz, buf)
	return n
}

func (t *Task) Push(n uint64) (uint64, error) {
	buf, err := t.PackAddr(nil, n)
	if err != nil {
		return 0, err
	}
	sp, err := t.RegRead(t.arch.SP)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read stack pointer")
	}
	sp -= uint64(len(buf))
	if err := t.MemWrite(sp, buf); err != nil {
		return 0, errors.Wrapf(err, "failed to push to stack at %#x", sp)
	}
	return sp, t.RegWrite(t.arch.SP, sp)
}

func (t *Task) Pop() (uint64, error) {
	sp, err := t.RegRead(t.arch.SP)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read stack pointer")
	}
	buf, err := t.MemRead(sp, uint64(t.Bsz))
	if err != nil {
		return 0, errors.Wrapf(err, "failed to pop from stack at %#x", sp)
	}
	return t.UnpackAddr(buf), t.RegWrite(t.arch.SP, sp+uint64(t.Bsz))
}

// SetReturn makes the next return from the called function land on addr:
// pushed on the stack for NoLink arches, otherwise placed in the link register.
func (t *Task) SetReturn(addr uint64) error {
	if t.arch.Link == models.NoLink {
		_, err := t.Push(addr)
		return err
	}
	return t.RegWrite(t.arch.Link, addr)
}

// RegDump reads every named register of the arch.
func (t *Task) RegDump() ([]models.RegVal, error) {
	return t.arch.RegDump(t.Cpu)
}

// Dis disassembles size bytes at addr, if the memory is mapped.
func (t *Task) Dis(addr, size uint64) ([]models.Ins, error) {
	if t.arch.Dis == nil {
		return nil, errors.Errorf("no disassembler for %s", t.arch.Name)
	}
	mem, err := t.MemRead(addr, size)
	if err != nil {
		return nil, err
	}
	return t.arch.Dis.Dis(mem, addr)
}
