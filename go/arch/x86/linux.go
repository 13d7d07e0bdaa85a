package x86

import (
	"github.com/lunixbochs/ghostrace/ghost/sys/num"
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/lazycorn/go/models"
)

var LinuxRegs = []int{uc.X86_REG_EBX, uc.X86_REG_ECX, uc.X86_REG_EDX, uc.X86_REG_ESI, uc.X86_REG_EDI, uc.X86_REG_EBP}

// int 0x80
var Linux = &models.OS{
	Name:       "linux",
	Intno:      0x80,
	SyscallReg: uc.X86_REG_EAX,
	ArgRegs:    LinuxRegs,
	RetReg:     uc.X86_REG_EAX,
	Names:      num.Linux_x86,
}
