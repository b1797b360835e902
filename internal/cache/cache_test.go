package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheSetGetDelete(t *testing.T) {
	c := New(8, 0)

	_, ok := c.Get("missing")
	require.False(t, ok)

	c.Set("announcement", []byte("nearly sold out"))
	got, ok := c.Get("announcement")
	require.True(t, ok)
	require.Equal(t, []byte("nearly sold out"), got)

	// Last writer wins.
	c.Set("announcement", []byte("updated"))
	got, _ = c.Get("announcement")
	require.Equal(t, []byte("updated"), got)

	c.Delete("announcement")
	_, ok = c.Get("announcement")
	require.False(t, ok)
}
