package rankings

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/openpack/gamify/gamify/database/models"
	"github.com/openpack/gamify/gamify/database/repositories"
	"github.com/openpack/gamify/gamify/streaks"
)

// Calculator rebuilds per-category ranking snapshots from source data.
// A recompute is wholesale: sources are read, positions assigned, and
// the category's rows replaced in one transaction, so readers always
// see a complete snapshot.
type Calculator struct {
	stats     repositories.StatsRepository
	source    repositories.RankingSourceRepository
	rankings  repositories.RankingRepository
	loc       *time.Location
	clock     streaks.Clock
	staleness time.Duration

	// weeklyCutoff drops users whose last activity is older than this
	// from the WEEKLY_ACTIVE category.
	weeklyCutoff time.Duration
}

func NewCalculator(
	stats repositories.StatsRepository,
	source repositories.RankingSourceRepository,
	rankings repositories.RankingRepository,
	loc *time.Location,
	clock streaks.Clock,
	staleness, weeklyCutoff time.Duration,
) *Calculator {
	if clock == nil {
		clock = streaks.SystemClock{}
	}
	return &Calculator{
		stats:        stats,
		source:       source,
		rankings:     rankings,
		loc:          loc,
		clock:        clock,
		staleness:    staleness,
		weeklyCutoff: weeklyCutoff,
	}
}

// RecomputeCategory rebuilds one category snapshot. Unless forced, a
// snapshot younger than the staleness window is left alone so bursts
// of unlocks collapse into a single rebuild.
func (c *Calculator) RecomputeCategory(ctx context.Context, category models.RankingCategory, seasonID *int64, force bool) error {
	if !force {
		computedAt, err := c.rankings.LastComputedAt(ctx, category, seasonID)
		if err != nil {
			return err
		}
		if !computedAt.IsZero() && c.clock.Now().Sub(computedAt) < c.staleness {
			return nil
		}
	}

	start := c.clock.Now()
	values, err := c.categoryValues(ctx, category)
	if err != nil {
		return fmt.Errorf("failed to source %s values: %w", category, err)
	}

	entries := buildEntries(category, seasonID, values, start)
	if err := c.rankings.ReplaceCategory(ctx, category, seasonID, entries); err != nil {
		return err
	}

	slog.Info("Ranking category recomputed",
		slog.String("type", "ranking"),
		slog.String("category", string(category)),
		slog.Int("entries", len(entries)),
		slog.Duration("took", time.Since(start)))
	return nil
}

// RecomputeAll rebuilds every category, reusing a single stats read
// for the counter-backed ones.
func (c *Calculator) RecomputeAll(ctx context.Context, seasonID *int64, force bool) error {
	for _, category := range models.AllRankingCategories {
		if err := c.RecomputeCategory(ctx, category, seasonID, force); err != nil {
			return err
		}
	}
	return nil
}

func (c *Calculator) categoryValues(ctx context.Context, category models.RankingCategory) ([]repositories.SourceValue, error) {
	// TOTAL_XP is recomputed from the unlock history rather than the
	// cached counter so a drifted counter can never leak into rankings.
	if category == models.CategoryTotalXP {
		return c.source.CompletedPointsByUser(ctx)
	}

	rows, err := c.stats.GetAllForRanking(ctx)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	values := make([]repositories.SourceValue, 0, len(rows))
	for _, row := range rows {
		if row.IsAdmin {
			continue
		}

		var value int64
		switch category {
		case models.CategoryItemsCollected:
			value = row.TotalItemsCollected
		case models.CategoryPacksOpened:
			value = row.TotalPacksOpened
		case models.CategoryMarketplaceSales:
			value = row.MarketplaceSales
		case models.CategoryLegendaryItems:
			value = row.LegendaryItems
		case models.CategoryWeeklyActive:
			if now.Sub(row.LastActivityAt) > c.weeklyCutoff {
				continue
			}
			value = int64(streaks.Effective(row.CurrentStreak, row.LastActivityAt, now, c.loc))
		default:
			return nil, fmt.Errorf("unknown ranking category %q", category)
		}

		if value <= 0 {
			continue
		}
		values = append(values, repositories.SourceValue{
			UserID:   row.UserID,
			Value:    value,
			JoinedAt: row.JoinedAt,
		})
	}
	return values, nil
}

// buildEntries orders values into a dense 1..N position list. Ties
// break by account age (older account ranks higher), then by user ID
// so the ordering is fully deterministic. Non-positive values are
// dropped here so every source path shares the same eligibility floor.
func buildEntries(category models.RankingCategory, seasonID *int64, values []repositories.SourceValue, computedAt time.Time) []*models.RankingEntry {
	eligible := make([]repositories.SourceValue, 0, len(values))
	for _, v := range values {
		if v.Value > 0 {
			eligible = append(eligible, v)
		}
	}
	values = eligible

	sort.Slice(values, func(i, j int) bool {
		if values[i].Value != values[j].Value {
			return values[i].Value > values[j].Value
		}
		if !values[i].JoinedAt.Equal(values[j].JoinedAt) {
			return values[i].JoinedAt.Before(values[j].JoinedAt)
		}
		return values[i].UserID < values[j].UserID
	})

	entries := make([]*models.RankingEntry, len(values))
	for i, v := range values {
		entries[i] = &models.RankingEntry{
			UserID:     v.UserID,
			Category:   category,
			SeasonID:   seasonID,
			Position:   i + 1,
			Value:      v.Value,
			ComputedAt: computedAt,
		}
	}
	return entries
}

// GetUserPosition returns the user's position in a category, forcing
// one recompute when the user is missing from the current snapshot.
// Zero means the user is not ranked.
func (c *Calculator) GetUserPosition(ctx context.Context, userID string, category models.RankingCategory, seasonID *int64) (int, error) {
	entry, err := c.rankings.GetEntry(ctx, userID, category, seasonID)
	if err == nil {
		return entry.Position, nil
	}
	if !repositories.IsNotFound(err) {
		return 0, err
	}

	if err := c.RecomputeCategory(ctx, category, seasonID, true); err != nil {
		return 0, err
	}

	entry, err = c.rankings.GetEntry(ctx, userID, category, seasonID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return entry.Position, nil
}
