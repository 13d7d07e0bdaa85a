package unicorn

import (
	"github.com/pkg/errors"
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/lazycorn/go/models/cpu"
)

type Builder struct {
	Arch, Mode int
}

func (b *Builder) New() (cpu.Cpu, error) {
	u, err := uc.NewUnicorn(b.Arch, b.Mode)
	if err != nil {
		return nil, errors.Wrap(err, "NewUnicorn() failed")
	}
	return &UnicornCpu{u}, nil
}

// UnicornCpu adapts uc.Unicorn to cpu.Cpu. Only hook signatures differ.
type UnicornCpu struct {
	uc.Unicorn
}

func (u *UnicornCpu) HookAdd(htype int, cb interface{}, start uint64, end uint64, extra ...int) (cpu.Hook, error) {
	// hooks are wrapped so callbacks receive the cpu.Cpu rather than the raw engine
	var wrap interface{}
	switch htype {
	case cpu.HOOK_CODE:
		cbc, ok := cb.(func(cpu.Cpu, uint64, uint32))
		if !ok {
			return nil, errors.Errorf("bad code hook callback: %T", cb)
		}
		wrap = func(_ uc.Unicorn, addr uint64, size uint32) { cbc(u, addr, size) }

	case cpu.HOOK_INTR:
		cbc, ok := cb.(func(cpu.Cpu, uint32))
		if !ok {
			return nil, errors.Errorf("bad interrupt hook callback: %T", cb)
		}
		wrap = func(_ uc.Unicorn, intno uint32) { cbc(u, intno) }

	default:
		// fault masks may combine any of the unmapped/prot bits
		if htype == 0 || htype&^cpu.HOOK_MEM_ERR != 0 {
			return nil, errors.Errorf("unknown hook type: %d", htype)
		}
		cbc, ok := cb.(func(cpu.Cpu, int, uint64, int, int64) bool)
		if !ok {
			return nil, errors.Errorf("bad memory fault hook callback: %T", cb)
		}
		wrap = func(_ uc.Unicorn, access int, addr uint64, size int, val int64) bool {
			return cbc(u, access, addr, size, val)
		}
	}
	hh, err := u.Unicorn.HookAdd(htype, wrap, start, end, extra...)
	if err != nil {
		return nil, errors.Wrap(err, "HookAdd() failed")
	}
	return hh, nil
}

func (u *UnicornCpu) HookDel(hh cpu.Hook) error {
	h, ok := hh.(uc.Hook)
	if !ok {
		return errors.Errorf("not a unicorn hook: %T", hh)
	}
	return u.Unicorn.HookDel(h)
}
