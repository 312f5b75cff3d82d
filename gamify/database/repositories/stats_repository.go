package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/openpack/gamify/gamify/database/models"
	"github.com/uptrace/bun"
)

// StatsRepository maintains the per-user aggregate counters. Increments
// are single-statement so concurrent events never lose updates.
type StatsRepository interface {
	GetOrCreate(ctx context.Context, userID string) (*models.UserStats, error)
	Get(ctx context.Context, userID string) (*models.UserStats, error)
	IncrementCounter(ctx context.Context, userID, column string, delta int64) error
	UpdateStreak(ctx context.Context, userID string, current, longest int, at time.Time) error
	OverwriteCounters(ctx context.Context, userID string, packs, items, xp int64, level int) error
	GetAllForRanking(ctx context.Context) ([]*StatsWithUser, error)
}

// StatsWithUser joins the aggregate row with the ranking-relevant user
// columns (admin flag for exclusion, created_at for tie-breaks).
type StatsWithUser struct {
	models.UserStats
	Username string    `bun:"username"`
	IsAdmin  bool      `bun:"is_admin"`
	JoinedAt time.Time `bun:"joined_at"`
}

// Counter columns accepted by IncrementCounter. A closed set keeps the
// dynamic SET clause injection-safe.
const (
	ColPacksOpened          = "total_packs_opened"
	ColItemsCollected       = "total_items_collected"
	ColRareItems            = "rare_items"
	ColEpicItems            = "epic_items"
	ColLegendaryItems       = "legendary_items"
	ColMarketplaceSales     = "marketplace_sales"
	ColMarketplacePurchases = "marketplace_purchases"
	ColDailyRewardsClaimed  = "daily_rewards_claimed"
)

var counterColumns = map[string]bool{
	ColPacksOpened:          true,
	ColItemsCollected:       true,
	ColRareItems:            true,
	ColEpicItems:            true,
	ColLegendaryItems:       true,
	ColMarketplaceSales:     true,
	ColMarketplacePurchases: true,
	ColDailyRewardsClaimed:  true,
}

type statsRepository struct {
	*BaseRepository
}

func NewStatsRepository(db *bun.DB) StatsRepository {
	return &statsRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *statsRepository) GetOrCreate(ctx context.Context, userID string) (*models.UserStats, error) {
	stats, err := r.Get(ctx, userID)
	if err == nil {
		return stats, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	now := time.Now()
	stats = &models.UserStats{
		UserID:    userID,
		Level:     1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = r.DB().NewInsert().
		Model(stats).
		On("CONFLICT (user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_or_create", "user_stats", userID, err)
	}

	// Re-read so a concurrent creator's row wins.
	return r.Get(ctx, userID)
}

func (r *statsRepository) Get(ctx context.Context, userID string) (*models.UserStats, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	stats := new(models.UserStats)
	err := r.DB().NewSelect().
		Model(stats).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Entity: "user_stats", ID: userID}
		}
		return nil, r.HandleErrorWithID("get", "user_stats", userID, err)
	}
	return stats, nil
}

func (r *statsRepository) IncrementCounter(ctx context.Context, userID, column string, delta int64) error {
	if !counterColumns[column] {
		return &RepositoryError{
			Operation: "increment_counter",
			Entity:    "user_stats",
			Err:       errors.New("unknown counter column: " + column),
		}
	}

	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.DB().NewUpdate().
		Model((*models.UserStats)(nil)).
		Set(column+" = "+column+" + ?", delta).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Exec(ctx)
	return r.HandleErrorWithID("increment_counter", "user_stats", userID, err)
}

func (r *statsRepository) UpdateStreak(ctx context.Context, userID string, current, longest int, at time.Time) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.DB().NewUpdate().
		Model((*models.UserStats)(nil)).
		Set("current_streak = ?", current).
		Set("longest_streak = GREATEST(longest_streak, ?)", longest).
		Set("last_activity_at = GREATEST(last_activity_at, ?)", at).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Exec(ctx)
	return r.HandleErrorWithID("update_streak", "user_stats", userID, err)
}

// OverwriteCounters applies reconciled ground truth in one update.
func (r *statsRepository) OverwriteCounters(ctx context.Context, userID string, packs, items, xp int64, level int) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.DB().NewUpdate().
		Model((*models.UserStats)(nil)).
		Set("total_packs_opened = ?", packs).
		Set("total_items_collected = ?", items).
		Set("total_xp = ?", xp).
		Set("level = GREATEST(level, ?)", level).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Exec(ctx)
	return r.HandleErrorWithID("overwrite_counters", "user_stats", userID, err)
}

func (r *statsRepository) GetAllForRanking(ctx context.Context) ([]*StatsWithUser, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var rows []*StatsWithUser
	err := r.DB().NewSelect().
		Model((*models.UserStats)(nil)).
		ColumnExpr("ust.*").
		ColumnExpr("u.username AS username").
		ColumnExpr("u.is_admin AS is_admin").
		ColumnExpr("u.created_at AS joined_at").
		Join("JOIN users AS u ON u.id = ust.user_id").
		Scan(ctx, &rows)
	return rows, r.HandleError("get_all_for_ranking", "user_stats", err)
}
