// Package jobs runs scheduled background tasks.
package jobs

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xelth-com/stockmaster/internal/analytics"
	"github.com/xelth-com/stockmaster/internal/models"
	"go.uber.org/zap"
)

// ItemSource lists the current stock
type ItemSource interface {
	Items() []models.StockItem
}

// Poster publishes a service notice to the team chat
type Poster interface {
	PostNotice(ctx context.Context, text string) (string, error)
}

// LowStockDigest posts the items at or below their threshold
type LowStockDigest struct {
	items  ItemSource
	poster Poster
	log    *zap.SugaredLogger
}

// NewLowStockDigest creates the digest job
func NewLowStockDigest(items ItemSource, poster Poster) *LowStockDigest {
	return &LowStockDigest{items: items, poster: poster, log: zap.S().Named("jobs")}
}

// Message formats the digest, or "" when nothing is low
func (d *LowStockDigest) Message() string {
	low := analytics.LowStock(d.items.Items())
	if len(low) == 0 {
		return ""
	}
	parts := make([]string, 0, len(low))
	for _, item := range low {
		parts = append(parts, item.Name+" ("+num(item.Quantity)+" left, min "+num(item.MinThreshold)+")")
	}
	return "Low stock: " + strings.Join(parts, ", ")
}

// Run posts the digest if any item is low
func (d *LowStockDigest) Run(ctx context.Context) error {
	msg := d.Message()
	if msg == "" {
		return nil
	}
	if _, err := d.poster.PostNotice(ctx, msg); err != nil {
		return err
	}
	d.log.Infow("low stock digest posted", "length", len(msg))
	return nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NewScheduler registers the digest under spec. The caller starts and
// stops the returned scheduler.
func NewScheduler(loc *time.Location, spec string, digest *LowStockDigest) (*cron.Cron, error) {
	sched := cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))
	_, err := sched.AddFunc(spec, func() {
		defer func() {
			if err := recover(); err != nil {
				digest.log.Error(err)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := digest.Run(ctx); err != nil {
			digest.log.Errorw("low stock digest failed", "error", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return sched, nil
}
