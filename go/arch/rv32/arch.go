package rv32

import (
	"debug/elf"

	"github.com/lunixbochs/lazycorn/go/cpu/rv32"
	"github.com/lunixbochs/lazycorn/go/models"
)

var Arch = &models.Arch{
	Name:    "rv32",
	Bits:    32,
	Machine: elf.EM_RISCV,

	Cpu: &rv32.Builder{},
	Dis: &rv32.Dis{},

	PC:   rv32.PC,
	SP:   rv32.SP,
	Ret:  rv32.A0,
	Link: rv32.RA,
	Regs: rv32.RegNames(),
	OS:   Linux,
}
