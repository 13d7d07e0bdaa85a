package rv32

// registers x0-x31 use their index as enum
const (
	ZERO = iota
	RA
	SP
	GP
	TP
	T0
	T1
	T2
	S0
	S1
	A0
	A1
	A2
	A3
	A4
	A5
	A6
	A7
	S2
	S3
	S4
	S5
	S6
	S7
	S8
	S9
	S10
	S11
	T3
	T4
	T5
	T6
	PC
)

// interrupt numbers passed to HOOK_INTR, matching mcause exception codes
const (
	INTR_BREAKPOINT = 3
	INTR_ECALL      = 8
)

var regNames = [...]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
	"pc",
}

// RegNames maps register enums to ABI names.
func RegNames() map[int]string {
	ret := make(map[int]string, len(regNames))
	for i, name := range regNames {
		ret[i] = name
	}
	return ret
}

// major opcodes
const (
	OP_LOAD     = 0x03
	OP_MISC_MEM = 0x0f
	OP_IMM      = 0x13
	OP_AUIPC    = 0x17
	OP_STORE    = 0x23
	OP_OP       = 0x33
	OP_LUI      = 0x37
	OP_BRANCH   = 0x63
	OP_JALR     = 0x67
	OP_JAL      = 0x6f
	OP_SYSTEM   = 0x73
)
