package rv32

import (
	"encoding/binary"
	"fmt"

	"github.com/lunixbochs/lazycorn/go/models/cpu"
)

type Builder struct{}

func (b *Builder) New() (cpu.Cpu, error) {
	enums := make([]int, 0, PC+1)
	for i := ZERO; i <= PC; i++ {
		enums = append(enums, i)
	}
	c := &Rv32Cpu{
		Regs: cpu.NewRegs(32, enums),
		Mem:  cpu.NewMem(32, binary.LittleEndian),
	}
	c.Hooks = cpu.NewHooks(c, c.Mem)
	return c, nil
}

// IllegalError is returned by Start for undecodable instructions.
type IllegalError struct {
	Addr uint64
	Ins  uint32
}

func (e *IllegalError) Error() string {
	return fmt.Sprintf("illegal instruction %#08x at %#x", e.Ins, e.Addr)
}

// Rv32Cpu interprets the RV32I base integer instruction set.
type Rv32Cpu struct {
	*cpu.Hooks
	*cpu.Regs
	*cpu.Mem

	exitRequest bool
}

func (c *Rv32Cpu) reg(n uint32) uint32 {
	val, _ := c.RegRead(int(n))
	return uint32(val)
}

func (c *Rv32Cpu) setReg(n uint32, val uint32) {
	if n != ZERO {
		c.RegWrite(int(n), uint64(val))
	}
}

func (c *Rv32Cpu) Start(begin, until uint64) error {
	c.exitRequest = false
	pc := uint32(begin)
	c.RegWrite(PC, uint64(pc))
	for uint64(pc) != until && !c.exitRequest {
		raw, err := c.ReadUint(uint64(pc), 4, cpu.PROT_EXEC)
		if err != nil {
			return err
		}
		c.OnCode(uint64(pc), 4)
		// a code hook may stop the emulator before the instruction runs
		if c.exitRequest {
			break
		}
		next, err := c.step(pc, inst(raw))
		if err != nil {
			return err
		}
		pc = next
		c.RegWrite(PC, uint64(pc))
	}
	return nil
}

// step executes one instruction and returns the next pc.
func (c *Rv32Cpu) step(pc uint32, i inst) (uint32, error) {
	next := pc + 4
	rs1, rs2 := c.reg(i.rs1()), c.reg(i.rs2())
	switch i.opcode() {
	case OP_LUI:
		c.setReg(i.rd(), uint32(i.immU()))
	case OP_AUIPC:
		c.setReg(i.rd(), pc+uint32(i.immU()))
	case OP_JAL:
		c.setReg(i.rd(), next)
		next = pc + uint32(i.immJ())
	case OP_JALR:
		target := (rs1 + uint32(i.immI())) &^ 1
		c.setReg(i.rd(), next)
		next = target
	case OP_BRANCH:
		var taken bool
		switch i.funct3() {
		case 0:
			taken = rs1 == rs2
		case 1:
			taken = rs1 != rs2
		case 4:
			taken = int32(rs1) < int32(rs2)
		case 5:
			taken = int32(rs1) >= int32(rs2)
		case 6:
			taken = rs1 < rs2
		case 7:
			taken = rs1 >= rs2
		default:
			return 0, &IllegalError{uint64(pc), uint32(i)}
		}
		if taken {
			next = pc + uint32(i.immB())
		}
	case OP_LOAD:
		addr := uint64(rs1 + uint32(i.immI()))
		var size int
		var signed bool
		switch i.funct3() {
		case 0:
			size, signed = 1, true
		case 1:
			size, signed = 2, true
		case 2:
			size = 4
		case 4:
			size = 1
		case 5:
			size = 2
		default:
			return 0, &IllegalError{uint64(pc), uint32(i)}
		}
		val, err := c.ReadUint(addr, size, cpu.PROT_READ)
		if err != nil {
			return 0, err
		}
		v := uint32(val)
		if signed {
			v = uint32(signExtend(v, uint(size*8)))
		}
		c.setReg(i.rd(), v)
	case OP_STORE:
		addr := uint64(rs1 + uint32(i.immS()))
		var size int
		switch i.funct3() {
		case 0:
			size = 1
		case 1:
			size = 2
		case 2:
			size = 4
		default:
			return 0, &IllegalError{uint64(pc), uint32(i)}
		}
		if err := c.WriteUint(addr, size, cpu.PROT_WRITE, uint64(rs2)); err != nil {
			return 0, err
		}
	case OP_IMM:
		imm := uint32(i.immI())
		shamt := imm & 0x1f
		var v uint32
		switch i.funct3() {
		case 0:
			v = rs1 + imm
		case 1:
			if i.funct7() != 0 {
				return 0, &IllegalError{uint64(pc), uint32(i)}
			}
			v = rs1 << shamt
		case 2:
			v = b2u(int32(rs1) < int32(imm))
		case 3:
			v = b2u(rs1 < imm)
		case 4:
			v = rs1 ^ imm
		case 5:
			switch i.funct7() {
			case 0:
				v = rs1 >> shamt
			case 0x20:
				v = uint32(int32(rs1) >> shamt)
			default:
				return 0, &IllegalError{uint64(pc), uint32(i)}
			}
		case 6:
			v = rs1 | imm
		case 7:
			v = rs1 & imm
		}
		c.setReg(i.rd(), v)
	case OP_OP:
		var v uint32
		f7 := i.funct7()
		switch {
		case i.funct3() == 0 && f7 == 0:
			v = rs1 + rs2
		case i.funct3() == 0 && f7 == 0x20:
			v = rs1 - rs2
		case i.funct3() == 1 && f7 == 0:
			v = rs1 << (rs2 & 0x1f)
		case i.funct3() == 2 && f7 == 0:
			v = b2u(int32(rs1) < int32(rs2))
		case i.funct3() == 3 && f7 == 0:
			v = b2u(rs1 < rs2)
		case i.funct3() == 4 && f7 == 0:
			v = rs1 ^ rs2
		case i.funct3() == 5 && f7 == 0:
			v = rs1 >> (rs2 & 0x1f)
		case i.funct3() == 5 && f7 == 0x20:
			v = uint32(int32(rs1) >> (rs2 & 0x1f))
		case i.funct3() == 6 && f7 == 0:
			v = rs1 | rs2
		case i.funct3() == 7 && f7 == 0:
			v = rs1 & rs2
		default:
			return 0, &IllegalError{uint64(pc), uint32(i)}
		}
		c.setReg(i.rd(), v)
	case OP_MISC_MEM:
		// fence: single hart, nothing to order
	case OP_SYSTEM:
		switch uint32(i) {
		case 0x00000073:
			c.OnIntr(INTR_ECALL)
		case 0x00100073:
			c.OnIntr(INTR_BREAKPOINT)
		default:
			return 0, &IllegalError{uint64(pc), uint32(i)}
		}
		// interrupt hooks may redirect execution
		if val, _ := c.RegRead(PC); uint32(val) != pc {
			next = uint32(val)
		}
	default:
		return 0, &IllegalError{uint64(pc), uint32(i)}
	}
	return next, nil
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func (c *Rv32Cpu) Stop() error {
	c.exitRequest = true
	return nil
}

func (c *Rv32Cpu) Close() error {
	return nil
}
