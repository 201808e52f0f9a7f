package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPings(t *testing.T) {
	m := miniredis.RunT(t)
	m.RequireAuth("pw")

	c, err := New(context.Background(), m.Addr(), "pw")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Set(context.Background(), "k", "v", 0).Err())
	got, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewFailsOnBadPassword(t *testing.T) {
	m := miniredis.RunT(t)
	m.RequireAuth("pw")

	_, err := New(context.Background(), m.Addr(), "wrong")
	assert.Error(t, err)
}
