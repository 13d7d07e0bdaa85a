package rv32

import (
	"github.com/lunixbochs/lazycorn/go/cpu/rv32"
	"github.com/lunixbochs/lazycorn/go/models"
)

// generic syscall table (asm-generic/unistd.h), only the numbers we name
var linuxSyscalls = map[int]string{
	56:  "openat",
	57:  "close",
	63:  "read",
	64:  "write",
	93:  "exit",
	94:  "exit_group",
	214: "brk",
	222: "mmap",
}

var Linux = &models.OS{
	Name:       "linux",
	Intno:      rv32.INTR_ECALL,
	SyscallReg: rv32.A7,
	ArgRegs:    []int{rv32.A0, rv32.A1, rv32.A2, rv32.A3, rv32.A4, rv32.A5},
	RetReg:     rv32.A0,
	Names:      linuxSyscalls,
}
