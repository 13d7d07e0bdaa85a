package trace

import (
	"bytes"
	"io"
	"strings"
	"sync"

	"github.com/golang/snappy"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

var TRACE_MAGIC = "LZFT"

const TRACE_VERSION = 1

type TraceHeader struct {
	// MAGIC ("LZFT")
	Magic string `struc:"[4]byte"`
	// file format version
	Version uint32

	// Emulated architecture, right-null-padded.
	Arch string `struc:"[16]byte"`

	PageSize uint64
	// 0 for clamp, 1 for page
	Fill uint8
}

// FaultRecord describes one serviced page fault.
type FaultRecord struct {
	Seq  uint64
	Addr uint64
	Page uint64
	// program header table index of the segment
	Segment int32
	Access  int32
	// file range copied into the page, Len 0 if none
	FileOff uint64
	Len     uint32
}

var recordSize int

func init() {
	var err error
	if recordSize, err = struc.Sizeof(&FaultRecord{}); err != nil {
		panic(err)
	}
}

type TraceWriter struct {
	w  io.WriteCloser
	zw *snappy.Writer

	closeOnce sync.Once
	closeErr  error
}

func NewWriter(w io.WriteCloser, arch string, pageSize uint64, fill uint8) (*TraceWriter, error) {
	header := &TraceHeader{
		Magic:    TRACE_MAGIC,
		Version:  TRACE_VERSION,
		Arch:     arch,
		PageSize: pageSize,
		Fill:     fill,
	}
	if err := struc.Pack(w, header); err != nil {
		return nil, errors.Wrap(err, "failed to pack header")
	}
	return &TraceWriter{w: w, zw: snappy.NewBufferedWriter(w)}, nil
}

// Fault appends one record.
func (t *TraceWriter) Fault(rec *FaultRecord) error {
	return errors.Wrap(struc.Pack(t.zw, rec), "failed to pack fault record")
}

// Close flushes the stream and closes the underlying writer once.
func (t *TraceWriter) Close() error {
	t.closeOnce.Do(func() {
		err := t.zw.Close()
		if cerr := t.w.Close(); err == nil {
			err = cerr
		}
		t.closeErr = err
	})
	return t.closeErr
}

type TraceReader struct {
	r      io.ReadCloser
	zr     *snappy.Reader
	Header TraceHeader
}

func NewReader(r io.ReadCloser) (*TraceReader, error) {
	t := &TraceReader{r: r}
	if err := struc.Unpack(r, &t.Header); err != nil {
		return nil, errors.Wrap(err, "failed to unpack header")
	}
	if t.Header.Magic != TRACE_MAGIC {
		return nil, errors.New("invalid trace file magic")
	}
	if t.Header.Version != TRACE_VERSION {
		return nil, errors.Errorf("unsupported trace version %d", t.Header.Version)
	}
	t.Header.Arch = strings.TrimRight(t.Header.Arch, "\x00")
	t.zr = snappy.NewReader(r)
	return t, nil
}

// Next returns the next record, or io.EOF after the last one.
func (t *TraceReader) Next() (*FaultRecord, error) {
	buf := make([]byte, recordSize)
	if _, err := io.ReadFull(t.zr, buf); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, "truncated fault record")
	}
	var rec FaultRecord
	if err := struc.Unpack(bytes.NewReader(buf), &rec); err != nil {
		return nil, errors.Wrap(err, "failed to unpack fault record")
	}
	return &rec, nil
}

// All reads every remaining record.
func (t *TraceReader) All() ([]*FaultRecord, error) {
	var ret []*FaultRecord
	for {
		rec, err := t.Next()
		if err == io.EOF {
			return ret, nil
		} else if err != nil {
			return ret, err
		}
		ret = append(ret, rec)
	}
}

func (t *TraceReader) Close() error {
	t.zr.Reset(nil)
	return t.r.Close()
}
