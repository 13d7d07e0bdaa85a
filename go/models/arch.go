package models

import (
	"debug/elf"
	"fmt"
	"sort"
	"testing"

	"github.com/lunixbochs/fvbommel-util/sortorder"

	"github.com/lunixbochs/lazycorn/go/models/cpu"
)

type Reg struct {
	Enum int
	Name string
}

type RegVal struct {
	Reg
	Val uint64
}

type regList []Reg

func (r regList) Len() int           { return len(r) }
func (r regList) Swap(i, j int)      { r[i], r[j] = r[j], r[i] }
func (r regList) Less(i, j int) bool { return sortorder.NaturalLess(r[i].Name, r[j].Name) }

type regMap map[int]string

func (r regMap) Items() regList {
	ret := make(regList, 0, len(r))
	for e, n := range r {
		ret = append(ret, Reg{e, n})
	}
	return ret
}

type Disassembler interface {
	Dis(mem []byte, addr uint64) ([]Ins, error)
}

// NoLink marks architectures that push the return address instead of using a link register.
const NoLink = -1

type Arch struct {
	Name    string
	Bits    int
	Machine elf.Machine

	Cpu cpu.Builder
	Dis Disassembler

	PC   int
	SP   int
	Ret  int
	Link int
	Regs regMap

	OS *OS

	// sorted for RegDump
	regList regList
}

func (a *Arch) String() string {
	return fmt.Sprintf("<Arch %s>", a.Name)
}

// SmokeTest checks the arch can build a cpu and round-trip its stack pointer.
func (a *Arch) SmokeTest(t *testing.T) {
	c, err := a.Cpu.New()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if err := c.RegWrite(a.SP, 0x1000); err != nil {
		t.Fatal(err)
	}
	val, err := c.RegRead(a.SP)
	if err != nil {
		t.Fatal(err)
	}
	if val != 0x1000 {
		t.Fatal(a.Name + " failed to read/write stack pointer")
	}
	if _, err := a.RegDump(c); err != nil {
		t.Fatal(err)
	}
}

// RegDump reads every named register, in natural name order.
func (a *Arch) RegDump(c cpu.Cpu) ([]RegVal, error) {
	if a.regList == nil {
		rl := a.Regs.Items()
		sort.Sort(rl)
		a.regList = rl
	}
	ret := make([]RegVal, len(a.regList))
	for i, r := range a.regList {
		val, err := c.RegRead(r.Enum)
		if err != nil {
			return nil, err
		}
		ret[i] = RegVal{r, val}
	}
	return ret, nil
}

// OS describes how guest code enters the kernel.
type OS struct {
	Name string
	// interrupt number delivered to HOOK_INTR for a syscall instruction
	Intno uint32
	// register holding the syscall number
	SyscallReg int
	// argument registers, in order
	ArgRegs []int
	// register receiving the syscall return value
	RetReg int
	// syscall number to name
	Names map[int]string
}

func (o *OS) String() string {
	return fmt.Sprintf("<OS %s>", o.Name)
}
