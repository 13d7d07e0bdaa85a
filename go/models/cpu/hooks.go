package cpu

import (
	"github.com/pkg/errors"
)

// callback shapes accepted by HookAdd:
//   HOOK_CODE        func(Cpu, addr uint64, size uint32)
//   HOOK_INTR        func(Cpu, intno uint32)
//   HOOK_MEM_*       func(Cpu, access int, addr uint64, size int, val int64) bool

type hookInfo struct {
	htype int
	start uint64
	end   uint64
}

func (h *hookInfo) Type() int {
	return h.htype
}

// start > end means the hook covers the whole address space
func (h *hookInfo) Contains(addr uint64) bool {
	return h.start > h.end || addr >= h.start && addr <= h.end
}

type hinfo interface {
	Type() int
}

type codeHook struct {
	hookInfo
	cb func(Cpu, uint64, uint32)
}

type intrHook struct {
	hookInfo
	cb func(Cpu, uint32)
}

type memFaultHook struct {
	hookInfo
	cb func(Cpu, int, uint64, int, int64) bool
}

// Hooks is a callback registry for interpreters that have no native hook support.
type Hooks struct {
	cpu Cpu

	code     []*codeHook
	intr     []*intrHook
	memFault []*memFaultHook
}

// NewHooks creates a registry dispatching on behalf of cpu.
// If mem is not nil, its guest accesses dispatch fault hooks from this registry.
func NewHooks(cpu Cpu, mem *Mem) *Hooks {
	h := &Hooks{cpu: cpu}
	if mem != nil {
		mem.hooks = h
	}
	return h
}

func isFaultMask(htype int) bool {
	return htype != 0 && htype&^HOOK_MEM_ERR == 0
}

func (h *Hooks) HookAdd(htype int, cb interface{}, start uint64, end uint64, extra ...int) (Hook, error) {
	info := hookInfo{htype, start, end}
	var hook Hook
	switch {
	case htype == HOOK_CODE:
		fn, ok := cb.(func(Cpu, uint64, uint32))
		if !ok {
			return nil, errors.Errorf("bad code hook callback: %T", cb)
		}
		hh := &codeHook{info, fn}
		h.code, hook = append(h.code, hh), hh

	case htype == HOOK_INTR:
		fn, ok := cb.(func(Cpu, uint32))
		if !ok {
			return nil, errors.Errorf("bad interrupt hook callback: %T", cb)
		}
		hh := &intrHook{info, fn}
		h.intr, hook = append(h.intr, hh), hh

	case isFaultMask(htype):
		fn, ok := cb.(func(Cpu, int, uint64, int, int64) bool)
		if !ok {
			return nil, errors.Errorf("bad memory fault hook callback: %T", cb)
		}
		hh := &memFaultHook{info, fn}
		h.memFault, hook = append(h.memFault, hh), hh

	default:
		return nil, errors.Errorf("unknown hook type: %d", htype)
	}
	return hook, nil
}

func (h *Hooks) HookDel(hh Hook) error {
	info, ok := hh.(hinfo)
	if !ok {
		return errors.Errorf("not a hook: %T", hh)
	}
	switch htype := info.Type(); {
	case htype == HOOK_CODE:
		var tmp []*codeHook
		for _, v := range h.code {
			if v != hh {
				tmp = append(tmp, v)
			}
		}
		h.code = tmp
	case htype == HOOK_INTR:
		var tmp []*intrHook
		for _, v := range h.intr {
			if v != hh {
				tmp = append(tmp, v)
			}
		}
		h.intr = tmp
	case isFaultMask(htype):
		var tmp []*memFaultHook
		for _, v := range h.memFault {
			if v != hh {
				tmp = append(tmp, v)
			}
		}
		h.memFault = tmp
	}
	return nil
}

func (h *Hooks) OnCode(addr uint64, size uint32) {
	for _, v := range h.code {
		if v.Contains(addr) {
			v.cb(h.cpu, addr, size)
		}
	}
}

func (h *Hooks) OnIntr(intno uint32) {
	for _, v := range h.intr {
		v.cb(h.cpu, intno)
	}
}

// OnFault reports whether any matching fault hook handled the access.
func (h *Hooks) OnFault(access int, addr uint64, size int, val int64) bool {
	mask := faultMask(access)
	for _, v := range h.memFault {
		if v.htype&mask != 0 && v.Contains(addr) {
			if v.cb(h.cpu, access, addr, size, val) {
				return true
			}
		}
	}
	return false
}

func faultMask(access int) int {
	switch access {
	case MEM_READ_UNMAPPED:
		return HOOK_MEM_READ_UNMAPPED
	case MEM_WRITE_UNMAPPED:
		return HOOK_MEM_WRITE_UNMAPPED
	case MEM_FETCH_UNMAPPED:
		return HOOK_MEM_FETCH_UNMAPPED
	case MEM_READ_PROT:
		return HOOK_MEM_READ_PROT
	case MEM_WRITE_PROT:
		return HOOK_MEM_WRITE_PROT
	case MEM_FETCH_PROT:
		return HOOK_MEM_FETCH_PROT
	}
	return 0
}
