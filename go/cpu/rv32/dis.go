package rv32

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	"github.com/lunixbochs/lazycorn/go/models"
)

type ins struct {
	addr  uint64
	name  string
	op    string
	bytes []byte
}

func (i *ins) String() string { return i.name + " " + i.op }
func (i *ins) Addr() uint64 { return i.addr }
func (i *ins) Bytes() []byte { return i.bytes }
func (i *ins) Mnemonic() string { return i.name }
func (i *ins) OpStr() string { return i.op }

var (
	branchNames = map[uint32]string{0: "beq", 1: "bne", 4: "blt", 5: "bge", 6: "bltu", 7: "bgeu"}
	loadNames   = map[uint32]string{0: "lb", 1: "lh", 2: "lw", 4: "lbu", 5: "lhu"}
	storeNames  = map[uint32]string{0: "sb", 1: "sh", 2: "sw"}
	immNames    = map[uint32]string{0: "addi", 1: "slli", 2: "slti", 3: "sltiu", 4: "xori", 5: "srli", 6: "ori", 7: "andi"}
	opNames     = map[uint32]string{0: "add", 1: "sll", 2: "slt", 3: "sltu", 4: "xor", 5: "srl", 6: "or", 7: "and"}
)

func rn(n uint32) string { return regNames[n] }

// Dis decodes whole 32-bit words from mem. Undecodable words become ".word".
type Dis struct{}

func (d *Dis) Dis(mem []byte, addr uint64) ([]models.Ins, error) {
	if len(mem) < 4 {
		return nil, errors.Errorf("short instruction at %#x", addr)
	}
	var ret []models.Ins
	for off := 0; off+4 <= len(mem); off += 4 {
		raw := mem[off : off+4]
		pc := addr + uint64(off)
		name, op := decode(inst(binary.LittleEndian.Uint32(raw)), uint32(pc))
		ret = append(ret, &ins{addr: pc, name: name, op: op, bytes: raw})
	}
	return ret, nil
}

func decode(i inst, pc uint32) (string, string) {
	rd, rs1, rs2 := rn(i.rd()), rn(i.rs1()), rn(i.rs2())
	switch i.opcode() {
	case OP_LUI:
		return "lui", fmt.Sprintf("%s, %#x", rd, uint32(i.immU())>>12)
	case OP_AUIPC:
		return "auipc", fmt.Sprintf("%s, %#x", rd, uint32(i.immU())>>12)
	case OP_JAL:
		return "jal", fmt.Sprintf("%s, %#x", rd, pc+uint32(i.immJ()))
	case OP_JALR:
		return "jalr", fmt.Sprintf("%s, %d(%s)", rd, i.immI(), rs1)
	case OP_BRANCH:
		if name, ok := branchNames[i.funct3()]; ok {
			return name, fmt.Sprintf("%s, %s, %#x", rs1, rs2, pc+uint32(i.immB()))
		}
	case OP_LOAD:
		if name, ok := loadNames[i.funct3()]; ok {
			return name, fmt.Sprintf("%s, %d(%s)", rd, i.immI(), rs1)
		}
	case OP_STORE:
		if name, ok := storeNames[i.funct3()]; ok {
			return name, fmt.Sprintf("%s, %d(%s)", rs2, i.immS(), rs1)
		}
	case OP_IMM:
		name := immNames[i.funct3()]
		imm := i.immI()
		switch i.funct3() {
		case 1, 5:
			if i.funct7() == 0x20 {
				name = "srai"
			}
			imm &= 0x1f
		}
		return name, fmt.Sprintf("%s, %s, %d", rd, rs1, imm)
	case OP_OP:
		name := opNames[i.funct3()]
		if i.funct7() == 0x20 {
			switch i.funct3() {
			case 0:
				name = "sub"
			case 5:
				name = "sra"
			}
		}
		return name, fmt.Sprintf("%s, %s, %s", rd, rs1, rs2)
	case OP_MISC_MEM:
		return "fence", ""
	case OP_SYSTEM:
		switch uint32(i) {
		case 0x00000073:
			return "ecall", ""
		case 0x00100073:
			return "ebreak", ""
		}
	}
	return ".word", fmt.Sprintf("%#08x", uint32(i))
}
