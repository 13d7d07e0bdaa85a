package pager

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFragmentation(t *testing.T) {
	cases := []struct {
		size, pages, frag uint64
	}{
		{5000, 2, 3192},
		{8192, 2, 0},
		{0, 0, 0},
		{1, 1, 4095},
		{4096, 1, 0},
		{4097, 2, 4095},
	}
	for _, c := range cases {
		require.Equal(t, c.pages, PagesNeeded(c.size, 4096), "pages for %d", c.size)
		require.Equal(t, c.frag, Fragmentation(c.size, 4096), "fragmentation for %d", c.size)
	}
}
