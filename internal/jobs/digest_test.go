package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/stockmaster/internal/models"
)

type staticItems []models.StockItem

func (s staticItems) Items() []models.StockItem { return s }

type recordingPoster struct {
	posts []string
	err   error
}

func (p *recordingPoster) PostNotice(ctx context.Context, text string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.posts = append(p.posts, text)
	return "msg-1", nil
}

func TestLowStockDigest(t *testing.T) {
	items := staticItems{
		{Name: "Mouse", Quantity: 2, MinThreshold: 5},
		{Name: "Cable", Quantity: 40, MinThreshold: 5},
		{Name: "Toner", Quantity: 0.5, MinThreshold: 1},
	}
	poster := &recordingPoster{}
	d := NewLowStockDigest(items, poster)

	assert.Equal(t, "Low stock: Mouse (2 left, min 5), Toner (0.5 left, min 1)", d.Message())
	require.NoError(t, d.Run(context.Background()))
	assert.Equal(t, []string{d.Message()}, poster.posts)
}

func TestLowStockDigest_NothingLow(t *testing.T) {
	poster := &recordingPoster{}
	d := NewLowStockDigest(staticItems{{Name: "Cable", Quantity: 40, MinThreshold: 5}}, poster)

	require.NoError(t, d.Run(context.Background()))
	assert.Empty(t, poster.posts)
}

func TestLowStockDigest_PostFailure(t *testing.T) {
	boom := errors.New("offline")
	d := NewLowStockDigest(staticItems{{Name: "Mouse", Quantity: 0, MinThreshold: 5}}, &recordingPoster{err: boom})
	assert.ErrorIs(t, d.Run(context.Background()), boom)
}

func TestNewScheduler(t *testing.T) {
	d := NewLowStockDigest(staticItems{}, &recordingPoster{})

	sched, err := NewScheduler(time.UTC, "0 9 * * *", d)
	require.NoError(t, err)
	assert.Len(t, sched.Entries(), 1)

	_, err = NewScheduler(time.UTC, "every tuesday", d)
	assert.Error(t, err)
}
