package arch

import (
	"debug/elf"

	"github.com/pkg/errors"

	"github.com/lunixbochs/lazycorn/go/arch/arm"
	"github.com/lunixbochs/lazycorn/go/arch/rv32"
	"github.com/lunixbochs/lazycorn/go/arch/x86"
	"github.com/lunixbochs/lazycorn/go/models"
)

var ErrUnknownMachine = errors.New("unsupported machine")

var archMap = map[elf.Machine]*models.Arch{
	elf.EM_386:   x86.Arch,
	elf.EM_ARM:   arm.Arch,
	elf.EM_RISCV: rv32.Arch,
}

func ForMachine(m elf.Machine) (*models.Arch, error) {
	a, ok := archMap[m]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownMachine, "%s", m)
	}
	return a, nil
}

func GetArch(name string) (*models.Arch, error) {
	for _, a := range archMap {
		if a.Name == name {
			return a, nil
		}
	}
	return nil, errors.Errorf("arch %q not found", name)
}
