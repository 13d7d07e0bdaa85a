package lazycorn

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lunixbochs/lazycorn/go/arch"
	"github.com/lunixbochs/lazycorn/go/kernel"
	"github.com/lunixbochs/lazycorn/go/loader"
	"github.com/lunixbochs/lazycorn/go/models"
	"github.com/lunixbochs/lazycorn/go/models/cpu"
	"github.com/lunixbochs/lazycorn/go/models/trace"
	"github.com/lunixbochs/lazycorn/go/pager"
)

type Result struct {
	Return int
	// true when the guest called exit or exit_group instead of returning
	Exited bool
	pager.Stats
	// slack in the entry segment's last page
	Fragmentation uint64
	EntrySegment  loader.Segment
}

// Report writes the four line summary.
func (r *Result) Report(w io.Writer) {
	fmt.Fprintf(w, "Return value of _start: %d\n", r.Return)
	fmt.Fprintf(w, "Pages used: %d\n", r.PagesMapped)
	fmt.Fprintf(w, "Page faults: %d\n", r.FaultsServiced)
	fmt.Fprintf(w, "Total Fragmentation (in KB): %.2f KB\n", float64(r.Fragmentation)/1024)
}

// FatalError carries the cpu state at the point a run was aborted.
type FatalError struct {
	Err  error
	PC   uint64
	Regs []models.RegVal
	Ins  []models.Ins
}

func (f *FatalError) Error() string { return f.Err.Error() }
func (f *FatalError) Cause() error  { return f.Err }
func (f *FatalError) Unwrap() error { return f.Err }

// Dump renders the banner, faulting instruction and register dump.
func (f *FatalError) Dump(bits int, color bool) string {
	out := models.Banner(f.Err.Error(), color) + "\n"
	for _, ins := range f.Ins {
		out += models.FormatIns(ins) + "\n"
	}
	return out + models.FormatRegs(f.Regs, bits, color)
}

// interpreted cpus expose their page list
type mapper interface {
	Maps() cpu.Pages
}

type Lazycorn struct {
	*Task

	config *models.Config
	logger log.Logger

	exe   *loader.Executable
	img   *loader.Image
	Entry loader.EntryPoint

	pager  *pager.Pager
	kernel *kernel.Kernel
	trace  *trace.TraceWriter

	registry *prometheus.Registry

	stackBase, stackSize uint64

	closeOnce sync.Once
	closeErr  error
}

func NewLazycorn(exe string, config *models.Config) (l *Lazycorn, err error) {
	if config == nil {
		config = &models.Config{}
	}
	config.Init()
	l = &Lazycorn{config: config, logger: config.Logger}
	defer func() {
		if err != nil {
			l.Close()
			l = nil
		}
	}()
	if l.exe, err = loader.OpenFile(exe); err != nil {
		return l, err
	}
	if l.img, err = loader.Load(l.exe); err != nil {
		return l, errors.Wrapf(err, "failed to load %s", exe)
	}
	if l.Entry, err = loader.ResolveEntry(l.img); err != nil {
		return l, err
	}
	a, err := arch.ForMachine(l.img.Machine())
	if err != nil {
		return l, err
	}
	if l.img.Order != binary.LittleEndian {
		return l, errors.Errorf("%s: big-endian images are not supported", a.Name)
	}
	c, err := a.Cpu.New()
	if err != nil {
		return l, errors.Wrapf(err, "failed to create %s cpu", a.Name)
	}
	l.Task = NewTask(c, a, l.img.Order)

	pconf := pager.Config{
		PageSize: config.PageSize,
		Fill:     config.Fill,
		Logger:   config.Logger,
	}
	if config.TracePath != "" {
		f, err := os.Create(config.TracePath)
		if err != nil {
			return l, errors.Wrap(err, "failed to create trace file")
		}
		if l.trace, err = trace.NewWriter(f, a.Name, config.PageSize, uint8(config.Fill)); err != nil {
			f.Close()
			return l, err
		}
		pconf.Trace = l.trace
	}
	if config.MetricsPath != "" {
		l.registry = prometheus.NewRegistry()
		pconf.Metrics = pager.NewMetrics(l.registry)
	}
	if l.pager, err = pager.New(l.img, l.exe, pconf); err != nil {
		return l, err
	}
	l.kernel = kernel.New(a, l.pager, config.Stdout, config.Stderr, config.Logger)
	return l, nil
}

func (l *Lazycorn) Pager() *pager.Pager { return l.pager }

func (l *Lazycorn) Image() *loader.Image { return l.img }

func (l *Lazycorn) addHooks() error {
	if _, err := l.pager.Install(l.Cpu); err != nil {
		return err
	}
	_, err := l.kernel.Install(l.Cpu)
	return err
}

// setupStack eagerly maps the stack at
// STACK_BASE and arranges for _start to return to RETURN_SENTINEL.
func (l *Lazycorn) setupStack() error {
	base, size := align(STACK_BASE, l.config.StackSize, l.pager.PageSize())
	for _, s := range l.img.Loads() {
		if s.Base() < base+size && base < s.End() {
			return errors.Errorf("stack %#x-%#x overlaps segment %s", base, base+size, s)
		}
	}
	if err := l.MemMapProt(base, size, cpu.PROT_READ|cpu.PROT_WRITE); err != nil {
		return errors.Wrap(err, "failed to map stack")
	}
	l.stackBase, l.stackSize = base, size
	// 16-byte aligned, leaving room for the return slot
	if err := l.RegWrite(l.arch.SP, base+size-16); err != nil {
		return err
	}
	return l.SetReturn(RETURN_SENTINEL)
}

// Run executes the program from its entry point until _start returns, the
// guest exits, or a fatal error stops the cpu.
func (l *Lazycorn) Run() (*Result, error) {
	if err := l.addHooks(); err != nil {
		return nil, err
	}
	if err := l.setupStack(); err != nil {
		return nil, err
	}
	seg := loader.Segment{Index: l.Entry.SegIndex, Elf32Prog: l.img.Progs[l.Entry.SegIndex]}
	level.Debug(l.logger).Log("msg", "entry point", "entry", l.Entry, "segment", seg, "arch", l.arch.Name)
	level.Debug(l.logger).Log("msg", "stack", "base", hex(l.stackBase), "size", hex(l.stackSize))

	err := l.Start(l.Entry.Addr, RETURN_SENTINEL)
	l.writeMetrics()
	if m, ok := l.Cpu.(mapper); ok {
		level.Debug(l.logger).Log("msg", "memory map", "maps", m.Maps().String())
	}
	if perr := l.pager.Err(); perr != nil {
		return nil, l.fatal(perr)
	}
	if kerr := l.kernel.Err(); kerr != nil {
		return nil, l.fatal(kerr)
	}
	if err != nil {
		return nil, l.fatal(errors.Wrap(err, "cpu error"))
	}

	res := &Result{
		Stats:         l.pager.Stats(),
		Fragmentation: pager.Fragmentation(uint64(seg.Memsz), l.pager.PageSize()),
		EntrySegment:  seg,
	}
	if l.kernel.Exited {
		res.Return = l.kernel.Status
		res.Exited = true
	} else {
		ret, err := l.RegRead(l.arch.Ret)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read return value")
		}
		res.Return = int(int32(ret))
	}
	level.Debug(l.logger).Log("msg", "finished", "return", res.Return, "exited", res.Exited,
		"pages", res.PagesMapped, "faults", res.FaultsServiced)
	return res, nil
}

// fatal captures the register state and, if the pc is mapped, the
// instruction that was executing.
func (l *Lazycorn) fatal(err error) error {
	f := &FatalError{Err: err}
	f.PC, _ = l.RegRead(l.arch.PC)
	if regs, rerr := l.RegDump(); rerr == nil {
		f.Regs = regs
	}
	if ins, derr := l.Dis(f.PC, 16); derr == nil && len(ins) > 0 {
		f.Ins = ins[:1]
	}
	level.Error(l.logger).Log("msg", "fatal", "pc", hex(f.PC), "err", err)
	return f
}

func (l *Lazycorn) writeMetrics() {
	if l.registry == nil {
		return
	}
	if err := pager.WriteTextfile(l.config.MetricsPath, l.registry); err != nil {
		level.Warn(l.logger).Log("msg", "failed to write metrics", "err", err)
	}
}

// Close releases the cpu, executable and trace file. Safe to call more than once.
func (l *Lazycorn) Close() error {
	l.closeOnce.Do(func() {
		var errs []error
		if l.Task != nil {
			errs = append(errs, l.Task.Close())
		}
		if l.exe != nil {
			errs = append(errs, l.exe.Close())
		}
		if l.trace != nil {
			errs = append(errs, l.trace.Close())
		}
		for _, err := range errs {
			if err != nil {
				l.closeErr = err
				break
			}
		}
	})
	return l.closeErr
}

type hex uint64

func (h hex) String() string { return fmt.Sprintf("%#x", uint64(h)) }
