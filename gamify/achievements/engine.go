package achievements

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openpack/gamify/gamify/cache"
	"github.com/openpack/gamify/gamify/config"
	"github.com/openpack/gamify/gamify/database/models"
	"github.com/openpack/gamify/gamify/database/repositories"
)

// RecomputeEnqueuer defers a ranking category refresh until after the
// current batch of writes settles.
type RecomputeEnqueuer interface {
	Enqueue(category models.RankingCategory)
}

// Unlocked is one achievement granted by a HandleEvent call.
type Unlocked struct {
	Achievement *models.Achievement
	TotalXP     int64
	Level       int
	LeveledUp   bool
}

// Engine matches incoming events against the catalog and unlocks
// whatever the user has newly earned. It never locks an achievement
// back: the unlock transaction is the only write path and it only
// flips is_completed one way.
type Engine struct {
	catalog   *Catalog
	evaluator *Evaluator
	repo      repositories.AchievementRepository
	cache     *cache.TTLCache
	enqueuer  RecomputeEnqueuer
}

func NewEngine(catalog *Catalog, evaluator *Evaluator, repo repositories.AchievementRepository, c *cache.TTLCache, enqueuer RecomputeEnqueuer) *Engine {
	return &Engine{
		catalog:   catalog,
		evaluator: evaluator,
		repo:      repo,
		cache:     c,
		enqueuer:  enqueuer,
	}
}

// HandleEvent evaluates every catalog entry the event can affect and
// unlocks the ones whose conditions all hold. A failing predicate read
// skips that one achievement and logs it; the rest of the batch still
// runs, and the event can simply be replayed later because unlocks are
// idempotent. Unlock write failures also don't stop the batch, but they
// do surface in the returned error alongside whatever did unlock.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) ([]Unlocked, error) {
	entries := e.catalog.Relevant(ev.EventType())
	if len(entries) == 0 {
		return nil, nil
	}

	userID := ev.UserID()
	completed, err := e.completedIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed achievements for %s: %w", userID, err)
	}

	var unlocked []Unlocked
	var unlockErrs []error
	for _, entry := range entries {
		if completed[entry.Def.ID] {
			continue
		}

		ok, err := e.holds(ctx, entry, userID, ev)
		if err != nil {
			slog.Error("Achievement evaluation failed",
				slog.String("type", "engine"),
				slog.String("user_id", userID),
				slog.String("achievement", entry.Def.Name),
				slog.String("error", err.Error()))
			continue
		}
		if !ok {
			continue
		}

		result, err := e.repo.Unlock(ctx, userID, entry.Def.ID, entry.Def.Points)
		if err != nil {
			slog.Error("Achievement unlock failed",
				slog.String("type", "engine"),
				slog.String("user_id", userID),
				slog.String("achievement", entry.Def.Name),
				slog.String("error", err.Error()))
			unlockErrs = append(unlockErrs, fmt.Errorf("unlock %q: %w", entry.Def.Name, err))
			continue
		}
		if result.AlreadyCompleted {
			// A concurrent handler won the race; treat it as done.
			continue
		}

		unlocked = append(unlocked, Unlocked{
			Achievement: entry.Def,
			TotalXP:     result.TotalXP,
			Level:       result.Level,
			LeveledUp:   result.LeveledUp,
		})
		slog.Info("Achievement unlocked",
			slog.String("type", "engine"),
			slog.String("user_id", userID),
			slog.String("achievement", entry.Def.Name),
			slog.Int64("points", entry.Def.Points),
			slog.Int64("total_xp", result.TotalXP),
			slog.Bool("leveled_up", result.LeveledUp))
	}

	if len(unlocked) > 0 {
		e.cache.InvalidatePrefix(userCachePrefix(userID))
		if e.enqueuer != nil {
			e.enqueuer.Enqueue(models.CategoryTotalXP)
		}
	}
	return unlocked, errors.Join(unlockErrs...)
}

// completedIDs reads the user's completed set through the cache. The
// set only grows, so a briefly stale hit at worst re-attempts an
// unlock that the conditional upsert then turns into a no-op.
func (e *Engine) completedIDs(ctx context.Context, userID string) (map[int64]bool, error) {
	key := completedCacheKey(userID)
	if v, ok := e.cache.Get(key); ok {
		return v.(map[int64]bool), nil
	}

	completed, err := e.repo.GetCompletedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	e.cache.SetWithTTL(key, completed, config.CacheExpiration)
	return completed, nil
}

func (e *Engine) holds(ctx context.Context, entry *Entry, userID string, ev Event) (bool, error) {
	for _, cond := range entry.Conditions {
		ok, err := e.evaluator.Evaluate(ctx, cond, userID, ev)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Summary is the per-user achievement overview.
type Summary struct {
	Unlocked    []*models.UserAchievement
	TotalPoints int64
	Level       int
	TotalXP     int64
}

// UserSummary loads a user's unlock history with catalog rows attached.
func (e *Engine) UserSummary(ctx context.Context, userID string, stats *models.UserStats) (*Summary, error) {
	uas, err := e.repo.GetUserAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}

	var points int64
	var unlocked []*models.UserAchievement
	for _, ua := range uas {
		if !ua.IsCompleted {
			continue
		}
		unlocked = append(unlocked, ua)
		if ua.Achievement != nil {
			points += ua.Achievement.Points
		}
	}

	s := &Summary{Unlocked: unlocked, TotalPoints: points}
	if stats != nil {
		s.Level = stats.Level
		s.TotalXP = stats.TotalXP
	}
	return s, nil
}

func userCachePrefix(userID string) string {
	return "user:" + userID + ":"
}

func completedCacheKey(userID string) string {
	return userCachePrefix(userID) + "completed"
}
