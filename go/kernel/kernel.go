package kernel

import (
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/lunixbochs/lazycorn/go/models"
	"github.com/lunixbochs/lazycorn/go/models/cpu"
)

// linux errno values returned to the guest
const (
	EBADF  = 9
	EFAULT = 14
	ENOSYS = 38
)

// Toucher faults in lazily loaded memory before the host reads it.
type Toucher interface {
	Touch(c cpu.Cpu, addr, size uint64) error
}

// Kernel implements the few Linux syscalls a freestanding program needs:
// exit, exit_group and write to stdout/stderr. Everything else fails with ENOSYS.
type Kernel struct {
	arch   *models.Arch
	mem    Toucher
	stdout io.Writer
	stderr io.Writer
	logger log.Logger

	Exited bool
	Status int

	err error
}

func New(arch *models.Arch, mem Toucher, stdout, stderr io.Writer, logger log.Logger) *Kernel {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Kernel{
		arch:   arch,
		mem:    mem,
		stdout: stdout,
		stderr: stderr,
		logger: log.With(logger, "component", "kernel"),
	}
}

func (k *Kernel) Install(c cpu.Cpu) (cpu.Hook, error) {
	hh, err := c.HookAdd(cpu.HOOK_INTR, k.Interrupt, 1, 0)
	return hh, errors.Wrap(err, "failed to install interrupt hook")
}

// Err returns the first fatal kernel error.
func (k *Kernel) Err() error { return k.err }

func (k *Kernel) Interrupt(c cpu.Cpu, intno uint32) {
	if intno != k.arch.OS.Intno {
		pc, _ := c.RegRead(k.arch.PC)
		k.fail(c, errors.Errorf("unhandled %s interrupt %d at %#x", k.arch.Name, intno, pc))
		return
	}
	k.Syscall(c)
}

func (k *Kernel) fail(c cpu.Cpu, err error) {
	if k.err == nil {
		k.err = err
	}
	c.Stop()
}

func (k *Kernel) args(c cpu.Cpu, n int) []uint64 {
	ret := make([]uint64, n)
	for i := 0; i < n && i < len(k.arch.OS.ArgRegs); i++ {
		ret[i], _ = c.RegRead(k.arch.OS.ArgRegs[i])
	}
	return ret
}

func (k *Kernel) errno(n int) uint64 {
	mask := ^uint64(0) >> (64 - uint(k.arch.Bits))
	return uint64(-int64(n)) & mask
}

func (k *Kernel) Syscall(c cpu.Cpu) {
	os := k.arch.OS
	num, err := c.RegRead(os.SyscallReg)
	if err != nil {
		k.fail(c, errors.Wrap(err, "failed to read syscall number"))
		return
	}
	name := os.Names[int(num)]
	var ret uint64
	switch name {
	case "exit", "exit_group":
		args := k.args(c, 1)
		k.Exited = true
		k.Status = int(int32(args[0]))
		level.Debug(k.logger).Log("syscall", name, "status", k.Status)
		c.Stop()
		return
	case "write":
		args := k.args(c, 3)
		ret = k.write(c, args[0], args[1], args[2])
		level.Debug(k.logger).Log("syscall", name, "fd", args[0], "buf", args[1], "count", args[2], "ret", int32(ret))
	default:
		ret = k.errno(ENOSYS)
		if name == "" {
			name = "unknown"
		}
		level.Debug(k.logger).Log("syscall", name, "num", num, "ret", "-ENOSYS")
	}
	if err := c.RegWrite(os.RetReg, ret); err != nil {
		k.fail(c, errors.Wrap(err, "failed to write syscall return"))
	}
}

func (k *Kernel) write(c cpu.Cpu, fd, buf, count uint64) uint64 {
	var w io.Writer
	switch fd {
	case 1:
		w = k.stdout
	case 2:
		w = k.stderr
	}
	if w == nil {
		return k.errno(EBADF)
	}
	if count == 0 {
		return 0
	}
	if k.mem != nil {
		if err := k.mem.Touch(c, buf, count); err != nil {
			// the pager has already stopped the cpu with a fatal fault
			return k.errno(EFAULT)
		}
	}
	p, err := c.MemRead(buf, count)
	if err != nil {
		return k.errno(EFAULT)
	}
	n, _ := w.Write(p)
	return uint64(n)
}
