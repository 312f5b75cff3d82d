package achievements

import (
	"context"
	"fmt"
	"time"

	"github.com/openpack/gamify/gamify/database/repositories"
	"github.com/openpack/gamify/gamify/streaks"
)

// Evaluator decides condition truth. Each predicate is a pure function
// of (condition parameters, user state, event); the only side effects
// are the aggregate reads backing them.
type Evaluator struct {
	stats    repositories.StatsRepository
	activity repositories.ActivityRepository
	loc      *time.Location
	clock    streaks.Clock
}

func NewEvaluator(stats repositories.StatsRepository, activity repositories.ActivityRepository, loc *time.Location, clock streaks.Clock) *Evaluator {
	if clock == nil {
		clock = streaks.SystemClock{}
	}
	return &Evaluator{stats: stats, activity: activity, loc: loc, clock: clock}
}

// Evaluate returns whether the condition holds for the user and event.
func (e *Evaluator) Evaluate(ctx context.Context, cond Condition, userID string, ev Event) (bool, error) {
	switch cond.Kind {
	case KindCount:
		return e.evalCount(ctx, cond, userID)
	case KindValue:
		return e.evalValue(ctx, cond, userID)
	case KindRarityThreshold:
		n, err := e.activity.CountItemsAtOrAbove(ctx, userID, cond.Rarity)
		if err != nil {
			return false, err
		}
		return n >= cond.Count, nil
	case KindCollectionCompletion:
		n, err := e.activity.CountCompletedCollections(ctx, userID)
		if err != nil {
			return false, err
		}
		return n >= cond.Count, nil
	case KindFirstOccurrence:
		return e.evalFirstOccurrence(cond, ev), nil
	case KindFirstPurchase:
		purchase, ok := ev.(MarketplacePurchase)
		return ok && purchase.FirstPurchase, nil
	case KindStreak, KindDailyStreak:
		return e.evalStreak(ctx, cond, userID)
	case KindTimeWindow:
		hour := ev.OccurredAt().In(e.loc).Hour()
		return hour >= cond.StartHour && hour < cond.EndHour, nil
	case KindDailyLogin:
		n, err := e.activity.CountLogins(ctx, userID)
		if err != nil {
			return false, err
		}
		return n >= cond.Target, nil
	case KindDailyRewardsClaimed:
		stats, err := e.stats.GetOrCreate(ctx, userID)
		if err != nil {
			return false, err
		}
		return stats.DailyRewardsClaimed >= cond.Target, nil
	case KindEarlyBird:
		if _, ok := ev.(DailyLogin); !ok {
			return false, nil
		}
		return ev.OccurredAt().In(e.loc).Hour() < cond.BeforeHour, nil
	case KindWeekendWarrior:
		day := streaks.DayOf(ev.OccurredAt(), e.loc)
		n, err := e.activity.CountWeekendLoginsInMonth(ctx, userID, day)
		if err != nil {
			return false, err
		}
		return n >= cond.Count, nil
	case KindComeback:
		return e.evalComeback(ctx, cond, userID, ev)
	default:
		return false, fmt.Errorf("unknown condition kind %q", cond.Kind)
	}
}

func (e *Evaluator) evalCount(ctx context.Context, cond Condition, userID string) (bool, error) {
	var n int64
	var err error

	switch cond.Counter {
	case CounterPacksOpened:
		n, err = e.activity.CountPackOpenings(ctx, userID)
	case CounterItemsCollected:
		n, err = e.activity.CountItems(ctx, userID)
	case CounterCollectionsCompleted:
		n, err = e.activity.CountCompletedCollections(ctx, userID)
	case CounterLogins:
		n, err = e.activity.CountLogins(ctx, userID)
	case CounterMarketplaceSales, CounterMarketplacePurchases:
		stats, serr := e.stats.GetOrCreate(ctx, userID)
		if serr != nil {
			return false, serr
		}
		if cond.Counter == CounterMarketplaceSales {
			n = stats.MarketplaceSales
		} else {
			n = stats.MarketplacePurchases
		}
	default:
		return false, fmt.Errorf("unknown counter %q", cond.Counter)
	}
	if err != nil {
		return false, err
	}
	return n >= cond.Target, nil
}

func (e *Evaluator) evalValue(ctx context.Context, cond Condition, userID string) (bool, error) {
	stats, err := e.stats.GetOrCreate(ctx, userID)
	if err != nil {
		return false, err
	}
	switch cond.Counter {
	case ValueTotalXP:
		return stats.TotalXP >= cond.Target, nil
	case ValueLevel:
		return int64(stats.Level) >= cond.Target, nil
	default:
		return false, fmt.Errorf("unknown value %q", cond.Counter)
	}
}

func (e *Evaluator) evalFirstOccurrence(cond Condition, ev Event) bool {
	switch cond.Of {
	case EventPackOpened:
		opened, ok := ev.(PackOpened)
		return ok && opened.FirstPack
	case EventMarketplacePurchase:
		purchase, ok := ev.(MarketplacePurchase)
		return ok && purchase.FirstPurchase
	}
	return false
}

func (e *Evaluator) evalStreak(ctx context.Context, cond Condition, userID string) (bool, error) {
	stats, err := e.stats.GetOrCreate(ctx, userID)
	if err != nil {
		return false, err
	}
	current := streaks.Effective(stats.CurrentStreak, stats.LastActivityAt, e.clock.Now(), e.loc)
	return int64(current) >= cond.Target, nil
}

func (e *Evaluator) evalComeback(ctx context.Context, cond Condition, userID string, ev Event) (bool, error) {
	if _, ok := ev.(DailyLogin); !ok {
		return false, nil
	}
	today := streaks.DayOf(ev.OccurredAt(), e.loc)
	last, err := e.activity.LastLoginBefore(ctx, userID, today)
	if err != nil {
		return false, err
	}
	if last.IsZero() {
		// Never logged in before: a first login is not a comeback.
		return false, nil
	}
	return streaks.DaysBetween(last, today, e.loc) >= cond.GapDays, nil
}
