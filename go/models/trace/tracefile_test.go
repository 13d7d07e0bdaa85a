package trace

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type nopCloser struct {
	*bytes.Buffer
	closed int
}

func (n *nopCloser) Close() error {
	n.closed++
	return nil
}

func TestTraceRoundTrip(t *testing.T) {
	buf := &nopCloser{Buffer: &bytes.Buffer{}}
	w, err := NewWriter(buf, "rv32", 0x1000, 0)
	require.NoError(t, err)
	recs := []*FaultRecord{
		{Seq: 1, Addr: 0x10074, Page: 0x10000, Segment: 0, Access: 21, FileOff: 0, Len: 0x1000},
		{Seq: 2, Addr: 0x12008, Page: 0x12000, Segment: 1, Access: 20, FileOff: 0x2000, Len: 0x10},
	}
	for _, r := range recs {
		require.NoError(t, w.Fault(r))
	}
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	require.Equal(t, 1, buf.closed)

	r, err := NewReader(io.NopCloser(bytes.NewReader(buf.Bytes())))
	require.NoError(t, err)
	require.Equal(t, "rv32", r.Header.Arch)
	require.Equal(t, uint64(0x1000), r.Header.PageSize)
	got, err := r.All()
	require.NoError(t, err)
	require.Equal(t, recs, got)
	require.NoError(t, r.Close())
}

func TestTraceBadMagic(t *testing.T) {
	raw := bytes.Repeat([]byte{0}, 64)
	copy(raw, "UCIR")
	_, err := NewReader(io.NopCloser(bytes.NewReader(raw)))
	require.Error(t, err)
}
