package pager

import (
	"io"
	"sort"
	"strconv"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/lunixbochs/lazycorn/go/loader"
	"github.com/lunixbochs/lazycorn/go/models"
	"github.com/lunixbochs/lazycorn/go/models/cpu"
	"github.com/lunixbochs/lazycorn/go/models/trace"
)

type Stats struct {
	PagesMapped    uint64
	FaultsServiced uint64
}

// FaultSink receives one record per serviced fault.
type FaultSink interface {
	Fault(rec *trace.FaultRecord) error
}

type Config struct {
	PageSize uint64
	Fill     models.FillMode
	Logger   log.Logger
	// optional
	Trace   FaultSink
	Metrics *Metrics
}

// Pager maps segment pages into a cpu on first touch.
//
// Handle runs on the emulation thread from inside the cpu's fault hook, so a
// Pager must not be shared between concurrently running cpus.
type Pager struct {
	segs     []loader.Segment
	file     io.ReaderAt
	pageSize uint64
	fillMode models.FillMode
	logger   log.Logger
	trace    FaultSink
	metrics  *Metrics

	stats  Stats
	mapped map[uint64]int
	active bool
	err    error
}

func New(img *loader.Image, file io.ReaderAt, conf Config) (*Pager, error) {
	if conf.PageSize == 0 || conf.PageSize&(conf.PageSize-1) != 0 {
		return nil, errors.Wrapf(ErrBadPageSize, "%#x", conf.PageSize)
	}
	logger := conf.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Pager{
		segs:     img.Loads(),
		file:     file,
		pageSize: conf.PageSize,
		fillMode: conf.Fill,
		logger:   log.With(logger, "component", "pager"),
		trace:    conf.Trace,
		metrics:  conf.Metrics,
		mapped:   make(map[uint64]int),
	}, nil
}

func (p *Pager) PageSize() uint64 { return p.pageSize }

// Install registers the fault hook over the whole address space.
func (p *Pager) Install(c cpu.Cpu) (cpu.Hook, error) {
	hh, err := c.HookAdd(cpu.HOOK_MEM_UNMAPPED, p.Handle, 1, 0)
	return hh, errors.Wrap(err, "failed to install fault hook")
}

// Segment returns the first PT_LOAD segment containing addr.
func (p *Pager) Segment(addr uint64) *loader.Segment {
	for i := range p.segs {
		if p.segs[i].Contains(addr) {
			return &p.segs[i]
		}
	}
	return nil
}

// Handle services one fault. It returns true when the page was mapped and
// the access should be retried. On false, Err holds the fatal cause and the
// cpu has been asked to stop.
func (p *Pager) Handle(c cpu.Cpu, access int, addr uint64, size int, val int64) bool {
	if p.active {
		p.fail(c, errors.Wrapf(ErrReentrantFault, "at %#x", addr))
		return false
	}
	p.active = true
	defer func() { p.active = false }()

	seg := p.Segment(addr)
	if seg == nil {
		p.fail(c, errors.WithStack(&OutOfBoundsError{Addr: addr, Access: access}))
		return false
	}
	base := addr &^ (p.pageSize - 1)
	if _, ok := p.mapped[base]; ok {
		p.fail(c, errors.Wrapf(ErrDoubleFault, "%s at %#x (page %#x)", cpu.AccessName(access), addr, base))
		return false
	}
	if err := c.MemMapProt(base, p.pageSize, cpu.PROT_ALL); err != nil {
		p.fail(c, errors.WithStack(&MapError{Page: base, Err: err}))
		return false
	}
	buf, res, err := p.fill(seg, base)
	if err == nil {
		err = c.MemWrite(base, buf)
	}
	if err != nil {
		p.fail(c, errors.WithStack(&MapError{Page: base, Err: err}))
		return false
	}
	p.stats.FaultsServiced++
	p.stats.PagesMapped++
	p.mapped[base] = seg.Index

	size64 := uint64(seg.Memsz)
	frag := Fragmentation(size64, p.pageSize)
	level.Debug(p.logger).Log(
		"msg", "mapped page",
		"addr", hex(addr),
		"page", hex(base),
		"access", cpu.AccessName(access),
		"segment", seg.Index,
		"segment_size", size64,
		"pages_needed", PagesNeeded(size64, p.pageSize),
		"fragmentation", frag,
		"file_off", hex(res.fileOff),
		"file_len", res.n,
	)
	if p.metrics != nil {
		p.metrics.observe(seg.Index, frag)
	}
	if p.trace != nil {
		rec := &trace.FaultRecord{
			Seq:     p.stats.FaultsServiced,
			Addr:    addr,
			Page:    base,
			Segment: int32(seg.Index),
			Access:  int32(access),
			FileOff: res.fileOff,
			Len:     uint32(res.n),
		}
		if err := p.trace.Fault(rec); err != nil {
			level.Warn(p.logger).Log("msg", "dropping fault trace", "err", err)
			p.trace = nil
		}
	}
	return true
}

// Touch faults in every unmapped segment page of addr:addr+size without
// going through the cpu, for host-side reads of guest memory.
// Addresses outside any segment are skipped.
func (p *Pager) Touch(c cpu.Cpu, addr, size uint64) error {
	if size == 0 {
		return nil
	}
	end := addr + size
	for page := addr &^ (p.pageSize - 1); page < end; page += p.pageSize {
		probe := page
		if probe < addr {
			probe = addr
		}
		if p.Segment(probe) == nil {
			continue
		}
		if _, ok := p.mapped[probe&^(p.pageSize-1)]; ok {
			continue
		}
		if !p.Handle(c, cpu.MEM_READ_UNMAPPED, probe, 1, 0) {
			return p.err
		}
	}
	return nil
}

func (p *Pager) fail(c cpu.Cpu, err error) {
	if p.err == nil {
		p.err = err
	}
	level.Error(p.logger).Log("msg", "fatal fault", "err", err)
	c.Stop()
}

// Err returns the first fatal fault, if any.
func (p *Pager) Err() error { return p.err }

func (p *Pager) Stats() Stats { return p.stats }

// Mapped returns the mapped page addresses in ascending order.
func (p *Pager) Mapped() []uint64 {
	ret := make([]uint64, 0, len(p.mapped))
	for page := range p.mapped {
		ret = append(ret, page)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}

type hex uint64

func (h hex) String() string {
	return "0x" + strconv.FormatUint(uint64(h), 16)
}
