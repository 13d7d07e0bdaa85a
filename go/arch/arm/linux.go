package arm

import (
	"github.com/lunixbochs/ghostrace/ghost/sys/num"
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/lazycorn/go/models"
)

var LinuxRegs = []int{uc.ARM_REG_R0, uc.ARM_REG_R1, uc.ARM_REG_R2, uc.ARM_REG_R3, uc.ARM_REG_R4, uc.ARM_REG_R5, uc.ARM_REG_R6}

// svc raises EXCP_SWI inside unicorn. EABI only: OABI numbers (base 0x900000)
// are not translated.
var Linux = &models.OS{
	Name:       "linux",
	Intno:      2,
	SyscallReg: uc.ARM_REG_R7,
	ArgRegs:    LinuxRegs,
	RetReg:     uc.ARM_REG_R0,
	Names:      num.Linux_arm,
}
