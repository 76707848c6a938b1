package live

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/stockmaster/internal/models"
	"github.com/xelth-com/stockmaster/internal/store"
)

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestMirror_LoadedDistinctFromEmpty(t *testing.T) {
	m := NewMirror()
	assert.False(t, m.Loaded(models.CollectionInventory))

	require.NoError(t, m.Apply(store.Snapshot{Collection: models.CollectionInventory}))
	assert.True(t, m.Loaded(models.CollectionInventory))
	assert.Empty(t, m.Items())
}

func TestMirror_ApplyIsIdempotent(t *testing.T) {
	m := NewMirror()
	snap := store.Snapshot{
		Collection: models.CollectionInventory,
		Records: map[string]json.RawMessage{
			"b": raw(t, models.StockItem{ID: "b", Name: "Keyboard", Quantity: 3}),
			"a": raw(t, models.StockItem{ID: "a", Name: "Mouse", Quantity: 1}),
		},
	}
	require.NoError(t, m.Apply(snap))
	first := m.Items()
	require.NoError(t, m.Apply(snap))
	assert.Equal(t, first, m.Items())

	require.Len(t, first, 2)
	assert.Equal(t, "a", first[0].ID, "items come back in key order")

	item, ok := m.Item("b")
	require.True(t, ok)
	assert.Equal(t, "Keyboard", item.Name)
	_, ok = m.Item("zzz")
	assert.False(t, ok)
}

func TestMirror_ChatOrderedByTimestamp(t *testing.T) {
	m := NewMirror()
	require.NoError(t, m.Apply(store.Snapshot{
		Collection: models.CollectionTeamChat,
		Records: map[string]json.RawMessage{
			"a": raw(t, models.ChatMessage{ID: "a", Content: "second", Timestamp: 2000}),
			"b": raw(t, models.ChatMessage{ID: "b", Content: "first", Timestamp: 1000}),
		},
	}))
	chat := m.Chat()
	require.Len(t, chat, 2)
	assert.Equal(t, "first", chat[0].Content)
}

func TestMirror_RejectsUnknownCollection(t *testing.T) {
	m := NewMirror()
	assert.Error(t, m.Apply(store.Snapshot{Collection: "nope"}))
}

func TestMirror_RunFollowsStore(t *testing.T) {
	s := store.NewMemory()
	m := NewMirror()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, m.Run(ctx, s))

	waitCtx, waitCancel := context.WithTimeout(ctx, time.Second)
	defer waitCancel()
	require.NoError(t, m.WaitLoaded(waitCtx))

	require.NoError(t, s.ApplyPatch(ctx, store.Patch{
		"warehouses/wh-1": models.Warehouse{Name: "Main", Location: "Pune"},
	}))
	require.Eventually(t, func() bool {
		_, ok := m.Warehouse("wh-1")
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestMirror_WaitLoadedHonoursContext(t *testing.T) {
	m := NewMirror()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.WaitLoaded(ctx), context.Canceled)
}
