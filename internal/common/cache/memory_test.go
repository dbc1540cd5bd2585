package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-tktt/community-hub/internal/common/clock"
)

func TestMemory_PutThenGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour, clock.NewFake(time.Unix(0, 0)))

	require.NoError(t, m.Put(ctx, "https://raw/x/index.json", []byte("v1")))

	got, ok, err := m.Get(ctx, "https://raw/x/index.json")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v1"), got)
}

func TestMemory_StaleEntryIsMissButStaysStored(t *testing.T) {
	ctx := context.Background()
	fake := clock.NewFake(time.Unix(0, 0))
	m := NewMemory(DefaultTTL, fake)

	require.NoError(t, m.Put(ctx, "k", []byte("v")))

	fake.Advance(DefaultTTL - time.Second)
	_, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)

	fake.Advance(time.Second)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 1, len(m.entries))
}

func TestMemory_PutOverwritesAndRefreshesTimestamp(t *testing.T) {
	ctx := context.Background()
	fake := clock.NewFake(time.Unix(0, 0))
	m := NewMemory(time.Hour, fake)

	require.NoError(t, m.Put(ctx, "k", []byte("old")))
	fake.Advance(2 * time.Hour)
	require.NoError(t, m.Put(ctx, "k", []byte("new")))

	got, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("new"), got)
	assert.Equal(t, 1, len(m.entries))
}

func TestMemory_Clear(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0, nil)

	require.NoError(t, m.Put(ctx, "a", []byte("1")))
	require.NoError(t, m.Put(ctx, "b", []byte("2")))
	require.NoError(t, m.Clear(ctx))

	_, ok, _ := m.Get(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, 0, len(m.entries))
}

func TestMemory_MissingKey(t *testing.T) {
	_, ok, err := NewMemory(0, nil).Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}
