package intel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// RefresherConfig configures a Refresher.
type RefresherConfig struct {
	// Sources are fetched in this order.
	Sources []Source

	// Interval is the minimum spacing between two source fetches.
	// Zero disables pacing.
	Interval time.Duration

	Logger *slog.Logger

	now func() time.Time
}

func (c *RefresherConfig) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
}

// Refresher builds a fresh, scored item list from every source.
type Refresher struct {
	fetcher Fetcher
	cfg     RefresherConfig
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewRefresher creates a Refresher.
func NewRefresher(fetcher Fetcher, cfg RefresherConfig) *Refresher {
	cfg.defaults()
	limit := rate.Inf
	if cfg.Interval > 0 {
		limit = rate.Every(cfg.Interval)
	}
	return &Refresher{
		fetcher: fetcher,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		logger:  cfg.Logger,
	}
}

// Sources returns the configured sources.
func (r *Refresher) Sources() []Source { return r.cfg.Sources }

// Refresh fetches every source one after another. A source that fails
// yields a single placeholder item naming it. The result is scored and
// sorted by descending risk, and is never nil.
func (r *Refresher) Refresh(ctx context.Context) []Item {
	items := []Item{}
	failed := 0
	for _, src := range r.cfg.Sources {
		got, err := r.fetchOne(ctx, src)
		if err != nil {
			failed++
			r.logger.Warn("intel: source failed", "source", src.Name, "error", err)
			items = append(items, placeholder(src, r.cfg.now()))
			continue
		}
		items = append(items, got...)
	}

	items = Scored(items)
	SortByRisk(items)
	r.logger.Info("intel: refresh complete",
		"sources", len(r.cfg.Sources), "failed", failed, "items", len(items))
	return items
}

func (r *Refresher) fetchOne(ctx context.Context, src Source) (items []Item, err error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("fetcher panic: %v", p)
		}
	}()
	return r.fetcher.Fetch(ctx, src)
}

func placeholder(src Source, now time.Time) Item {
	return Item{
		Source:      src.Name,
		Title:       fmt.Sprintf("%s feed unavailable", src.Name),
		Link:        src.URL,
		PublishedAt: now,
		Description: "The source could not be fetched or parsed during this refresh.",
		Placeholder: true,
	}
}
