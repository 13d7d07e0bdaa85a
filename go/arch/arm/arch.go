package arm

import (
	"debug/elf"

	cs "github.com/lunixbochs/capstr"
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/lazycorn/go/cpu"
	"github.com/lunixbochs/lazycorn/go/cpu/unicorn"
	"github.com/lunixbochs/lazycorn/go/models"
)

var Arch = &models.Arch{
	Name:    "arm",
	Bits:    32,
	Machine: elf.EM_ARM,

	Cpu: &unicorn.Builder{Arch: uc.ARCH_ARM, Mode: uc.MODE_ARM},
	Dis: &cpu.Capstr{Arch: cs.ARCH_ARM, Mode: cs.MODE_ARM},

	PC:   uc.ARM_REG_PC,
	SP:   uc.ARM_REG_SP,
	Ret:  uc.ARM_REG_R0,
	Link: uc.ARM_REG_LR,
	Regs: map[int]string{
		uc.ARM_REG_R0:  "r0",
		uc.ARM_REG_R1:  "r1",
		uc.ARM_REG_R2:  "r2",
		uc.ARM_REG_R3:  "r3",
		uc.ARM_REG_R4:  "r4",
		uc.ARM_REG_R5:  "r5",
		uc.ARM_REG_R6:  "r6",
		uc.ARM_REG_R7:  "r7",
		uc.ARM_REG_R8:  "r8",
		uc.ARM_REG_R9:  "r9",
		uc.ARM_REG_R10: "r10",
		uc.ARM_REG_R11: "r11",
		uc.ARM_REG_R12: "r12",
		uc.ARM_REG_LR:  "lr",
		uc.ARM_REG_SP:  "sp",
		uc.ARM_REG_PC:  "pc",
	},
	OS: Linux,
}
