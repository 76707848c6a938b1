package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/stockmaster/internal/models"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		raw     string
		want    Path
		wantErr bool
	}{
		{raw: "inventory/abc", want: Path{Collection: "inventory", Key: "abc"}},
		{raw: "/inventory/abc/quantity", want: Path{Collection: "inventory", Key: "abc", Field: "quantity"}},
		{raw: "inventory", wantErr: true},
		{raw: "inventory//quantity", wantErr: true},
		{raw: "unknown/abc", wantErr: true},
		{raw: "inventory/a/b/c", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParsePath(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	m := NewMemory()
	sub, err := m.Subscribe(context.Background(), models.CollectionWarehouses)
	require.NoError(t, err)
	sub.Close()
	sub.Close()

	assert.Equal(t, 0, m.Subscribers(models.CollectionWarehouses))
	seedItem(t, m, "x", 1)
}

func TestNewKey_IsTimeOrdered(t *testing.T) {
	m := NewMemory()
	a := m.NewKey(models.CollectionHistory)
	b := m.NewKey(models.CollectionHistory)
	assert.Less(t, a, b)
}
