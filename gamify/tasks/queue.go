package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/openpack/gamify/gamify/config"
	"github.com/openpack/gamify/gamify/database/models"
)

// Recomputer rebuilds one ranking category snapshot.
type Recomputer interface {
	RecomputeCategory(ctx context.Context, category models.RankingCategory, seasonID *int64, force bool) error
}

// Queue coalesces ranking recompute requests. Producers enqueue after
// an unlock; the worker waits a short settle delay so a burst of
// unlocks collapses into a single rebuild, and a category already
// queued is not queued twice.
type Queue struct {
	recomputer Recomputer
	delay      time.Duration

	mu      sync.Mutex
	pending map[models.RankingCategory]bool
	ch      chan models.RankingCategory
	done    chan struct{}
}

func NewQueue(recomputer Recomputer, delay time.Duration) *Queue {
	return &Queue{
		recomputer: recomputer,
		delay:      delay,
		pending:    make(map[models.RankingCategory]bool),
		ch:         make(chan models.RankingCategory, len(models.AllRankingCategories)),
		done:       make(chan struct{}),
	}
}

// Enqueue requests a deferred rebuild of the category. Duplicate
// requests while one is queued are dropped; the eventual rebuild sees
// all of their writes anyway.
func (q *Queue) Enqueue(category models.RankingCategory) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending[category] {
		return
	}

	select {
	case q.ch <- category:
		q.pending[category] = true
	default:
		// Channel is sized for every category, so with dedup this
		// cannot fill; log instead of blocking a producer if it does.
		slog.Warn("Recompute queue full, dropping request",
			slog.String("type", "ranking"),
			slog.String("category", string(category)))
	}
}

// Len reports how many categories are waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Run consumes the queue until the context is cancelled. Call it from
// its own goroutine; Wait blocks until it drains out.
func (q *Queue) Run(ctx context.Context) {
	defer close(q.done)

	for {
		select {
		case <-ctx.Done():
			return
		case category := <-q.ch:
			if !q.settle(ctx) {
				return
			}

			// Unmark before rebuilding so writes landing mid-rebuild
			// schedule a fresh one.
			q.mu.Lock()
			delete(q.pending, category)
			q.mu.Unlock()

			rctx, cancel := context.WithTimeout(ctx, config.RecomputeTimeout)
			if err := q.recomputer.RecomputeCategory(rctx, category, nil, false); err != nil {
				slog.Error("Deferred ranking recompute failed",
					slog.String("type", "ranking"),
					slog.String("category", string(category)),
					slog.String("error", err.Error()))
			}
			cancel()
		}
	}
}

// Wait blocks until Run has returned.
func (q *Queue) Wait() {
	<-q.done
}

func (q *Queue) settle(ctx context.Context) bool {
	if q.delay <= 0 {
		return true
	}
	timer := time.NewTimer(q.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
