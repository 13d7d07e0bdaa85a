package rv32

import (
	"encoding/binary"
)

// Instruction encoders, used to build guest code in tests and tooling.

func encR(op, rd, f3, rs1, rs2, f7 uint32) uint32 {
	return f7<<25 | rs2<<20 | rs1<<15 | f3<<12 | rd<<7 | op
}

func encI(op, rd, f3, rs1 uint32, imm int32) uint32 {
	return (uint32(imm)&0xfff)<<20 | rs1<<15 | f3<<12 | rd<<7 | op
}

func encS(op, f3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm) & 0xfff
	return (u>>5)<<25 | rs2<<20 | rs1<<15 | f3<<12 | (u&0x1f)<<7 | op
}

func encB(f3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	return (u>>12&1)<<31 | (u>>5&0x3f)<<25 | rs2<<20 | rs1<<15 |
		f3<<12 | (u>>1&0xf)<<8 | (u>>11&1)<<7 | OP_BRANCH
}

func encJ(rd uint32, imm int32) uint32 {
	u := uint32(imm)
	return (u>>20&1)<<31 | (u>>1&0x3ff)<<21 | (u>>11&1)<<20 | (u>>12&0xff)<<12 | rd<<7 | OP_JAL
}

func Lui(rd, imm20 uint32) uint32 { return imm20<<12 | rd<<7 | OP_LUI }
func Auipc(rd, imm20 uint32) uint32 { return imm20<<12 | rd<<7 | OP_AUIPC }
func Jal(rd uint32, off int32) uint32 { return encJ(rd, off) }
func Jalr(rd, rs1 uint32, off int32) uint32 { return encI(OP_JALR, rd, 0, rs1, off) }

func Beq(rs1, rs2 uint32, off int32) uint32 { return encB(0, rs1, rs2, off) }
func Bne(rs1, rs2 uint32, off int32) uint32 { return encB(1, rs1, rs2, off) }
func Blt(rs1, rs2 uint32, off int32) uint32 { return encB(4, rs1, rs2, off) }
func Bge(rs1, rs2 uint32, off int32) uint32 { return encB(5, rs1, rs2, off) }
func Bltu(rs1, rs2 uint32, off int32) uint32 { return encB(6, rs1, rs2, off) }
func Bgeu(rs1, rs2 uint32, off int32) uint32 { return encB(7, rs1, rs2, off) }

func Lb(rd, rs1 uint32, off int32) uint32 { return encI(OP_LOAD, rd, 0, rs1, off) }
func Lh(rd, rs1 uint32, off int32) uint32 { return encI(OP_LOAD, rd, 1, rs1, off) }
func Lw(rd, rs1 uint32, off int32) uint32 { return encI(OP_LOAD, rd, 2, rs1, off) }
func Lbu(rd, rs1 uint32, off int32) uint32 { return encI(OP_LOAD, rd, 4, rs1, off) }
func Lhu(rd, rs1 uint32, off int32) uint32 { return encI(OP_LOAD, rd, 5, rs1, off) }

func Sb(rs2, rs1 uint32, off int32) uint32 { return encS(OP_STORE, 0, rs1, rs2, off) }
func Sh(rs2, rs1 uint32, off int32) uint32 { return encS(OP_STORE, 1, rs1, rs2, off) }
func Sw(rs2, rs1 uint32, off int32) uint32 { return encS(OP_STORE, 2, rs1, rs2, off) }

func Addi(rd, rs1 uint32, imm int32) uint32 { return encI(OP_IMM, rd, 0, rs1, imm) }
func Slti(rd, rs1 uint32, imm int32) uint32 { return encI(OP_IMM, rd, 2, rs1, imm) }
func Xori(rd, rs1 uint32, imm int32) uint32 { return encI(OP_IMM, rd, 4, rs1, imm) }
func Ori(rd, rs1 uint32, imm int32) uint32 { return encI(OP_IMM, rd, 6, rs1, imm) }
func Andi(rd, rs1 uint32, imm int32) uint32 { return encI(OP_IMM, rd, 7, rs1, imm) }
func Slli(rd, rs1, sh uint32) uint32 { return encI(OP_IMM, rd, 1, rs1, int32(sh)) }
func Srli(rd, rs1, sh uint32) uint32 { return encI(OP_IMM, rd, 5, rs1, int32(sh)) }
func Srai(rd, rs1, sh uint32) uint32 { return encI(OP_IMM, rd, 5, rs1, int32(0x400|sh)) }

func Add(rd, rs1, rs2 uint32) uint32 { return encR(OP_OP, rd, 0, rs1, rs2, 0) }
func Sub(rd, rs1, rs2 uint32) uint32 { return encR(OP_OP, rd, 0, rs1, rs2, 0x20) }
func Sll(rd, rs1, rs2 uint32) uint32 { return encR(OP_OP, rd, 1, rs1, rs2, 0) }
func Slt(rd, rs1, rs2 uint32) uint32 { return encR(OP_OP, rd, 2, rs1, rs2, 0) }
func Sltu(rd, rs1, rs2 uint32) uint32 { return encR(OP_OP, rd, 3, rs1, rs2, 0) }
func Xor(rd, rs1, rs2 uint32) uint32 { return encR(OP_OP, rd, 4, rs1, rs2, 0) }
func Srl(rd, rs1, rs2 uint32) uint32 { return encR(OP_OP, rd, 5, rs1, rs2, 0) }
func Sra(rd, rs1, rs2 uint32) uint32 { return encR(OP_OP, rd, 5, rs1, rs2, 0x20) }
func Or(rd, rs1, rs2 uint32) uint32 { return encR(OP_OP, rd, 6, rs1, rs2, 0) }
func And(rd, rs1, rs2 uint32) uint32 { return encR(OP_OP, rd, 7, rs1, rs2, 0) }

const (
	Ecall  uint32 = 0x00000073
	Ebreak uint32 = 0x00100073
	Fence  uint32 = 0x0ff0000f
)

// Li loads a 32-bit constant into rd with lui+addi.
func Li(rd uint32, val uint32) []uint32 {
	hi := (val + 0x800) >> 12
	lo := int32(val<<20) >> 20
	return []uint32{Lui(rd, hi&0xfffff), Addi(rd, rd, lo)}
}

// Assemble lays out words little-endian. Each argument is a uint32 or []uint32.
func Assemble(code ...interface{}) []byte {
	var out []byte
	put := func(w uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], w)
		out = append(out, b[:]...)
	}
	for _, c := range code {
		switch v := c.(type) {
		case uint32:
			put(v)
		case []uint32:
			for _, w := range v {
				put(w)
			}
		default:
			panic("Assemble: unsupported type")
		}
	}
	return out
}
