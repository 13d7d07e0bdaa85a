package x86

import (
	"debug/elf"

	cs "github.com/lunixbochs/capstr"
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/lazycorn/go/cpu"
	"github.com/lunixbochs/lazycorn/go/cpu/unicorn"
	"github.com/lunixbochs/lazycorn/go/models"
)

var Arch = &models.Arch{
	Name:    "x86",
	Bits:    32,
	Machine: elf.EM_386,

	Cpu: &unicorn.Builder{Arch: uc.ARCH_X86, Mode: uc.MODE_32},
	Dis: &cpu.Capstr{Arch: cs.ARCH_X86, Mode: cs.MODE_32},

	PC:   uc.X86_REG_EIP,
	SP:   uc.X86_REG_ESP,
	Ret:  uc.X86_REG_EAX,
	Link: models.NoLink,
	Regs: map[int]string{
		uc.X86_REG_EIP: "eip",
		uc.X86_REG_ESP: "esp",
		uc.X86_REG_EBP: "ebp",
		uc.X86_REG_EAX: "eax",
		uc.X86_REG_EBX: "ebx",
		uc.X86_REG_ECX: "ecx",
		uc.X86_REG_EDX: "edx",
		uc.X86_REG_ESI: "esi",
		uc.X86_REG_EDI: "edi",

		uc.X86_REG_EFLAGS: "eflags",
	},
	OS: Linux,
}
