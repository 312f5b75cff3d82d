package repositories

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/openpack/gamify/gamify/database/models"
	"github.com/uptrace/bun"
)

type RankingRepository interface {
	// ReplaceCategory wholesale-replaces every entry for the category
	// and season in one transaction; a failed recompute leaves the
	// previous snapshot intact.
	ReplaceCategory(ctx context.Context, category models.RankingCategory, seasonID *int64, entries []*models.RankingEntry) error
	GetEntry(ctx context.Context, userID string, category models.RankingCategory, seasonID *int64) (*models.RankingEntry, error)
	GetPage(ctx context.Context, category models.RankingCategory, seasonID *int64, offset, limit int) ([]*models.RankingEntry, error)
	GetAll(ctx context.Context, category models.RankingCategory, seasonID *int64) ([]*models.RankingEntry, error)
	CountEntries(ctx context.Context, category models.RankingCategory, seasonID *int64) (int, error)
	LastComputedAt(ctx context.Context, category models.RankingCategory, seasonID *int64) (time.Time, error)
}

type rankingRepository struct {
	*BaseRepository
}

func NewRankingRepository(db *bun.DB) RankingRepository {
	return &rankingRepository{BaseRepository: NewBaseRepository(db)}
}

func seasonClause(q *bun.SelectQuery, seasonID *int64) *bun.SelectQuery {
	if seasonID == nil {
		return q.Where("season_id IS NULL")
	}
	return q.Where("season_id = ?", *seasonID)
}

func (r *rankingRepository) ReplaceCategory(ctx context.Context, category models.RankingCategory, seasonID *int64, entries []*models.RankingEntry) error {
	err := r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		del := tx.NewDelete().
			Model((*models.RankingEntry)(nil)).
			Where("category = ?", category)
		if seasonID == nil {
			del = del.Where("season_id IS NULL")
		} else {
			del = del.Where("season_id = ?", *seasonID)
		}
		if _, err := del.Exec(ctx); err != nil {
			return err
		}

		if len(entries) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&entries).Exec(ctx)
		return err
	})
	if err != nil {
		return r.HandleErrorWithID("replace_category", "ranking", category, err)
	}

	slog.Debug("Ranking category replaced",
		slog.String("type", "ranking"),
		slog.String("category", string(category)),
		slog.Int("entries", len(entries)))
	return nil
}

func (r *rankingRepository) GetEntry(ctx context.Context, userID string, category models.RankingCategory, seasonID *int64) (*models.RankingEntry, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	entry := new(models.RankingEntry)
	q := r.DB().NewSelect().
		Model(entry).
		Where("user_id = ?", userID).
		Where("category = ?", category)
	err := seasonClause(q, seasonID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Entity: "ranking_entry", ID: userID}
		}
		return nil, r.HandleErrorWithID("get_entry", "ranking_entry", userID, err)
	}
	return entry, nil
}

func (r *rankingRepository) GetPage(ctx context.Context, category models.RankingCategory, seasonID *int64, offset, limit int) ([]*models.RankingEntry, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var entries []*models.RankingEntry
	q := r.DB().NewSelect().
		Model(&entries).
		Where("category = ?", category)
	err := seasonClause(q, seasonID).
		Order("position ASC").
		Offset(offset).
		Limit(limit).
		Scan(ctx)
	return entries, r.HandleErrorWithID("get_page", "ranking_entry", category, err)
}

func (r *rankingRepository) GetAll(ctx context.Context, category models.RankingCategory, seasonID *int64) ([]*models.RankingEntry, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var entries []*models.RankingEntry
	q := r.DB().NewSelect().
		Model(&entries).
		Where("category = ?", category)
	err := seasonClause(q, seasonID).
		Order("position ASC").
		Scan(ctx)
	return entries, r.HandleErrorWithID("get_all", "ranking_entry", category, err)
}

func (r *rankingRepository) CountEntries(ctx context.Context, category models.RankingCategory, seasonID *int64) (int, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	q := r.DB().NewSelect().
		Model((*models.RankingEntry)(nil)).
		Where("category = ?", category)
	count, err := seasonClause(q, seasonID).Count(ctx)
	return count, r.HandleErrorWithID("count_entries", "ranking_entry", category, err)
}

// LastComputedAt returns the zero time when the category has never
// been computed.
func (r *rankingRepository) LastComputedAt(ctx context.Context, category models.RankingCategory, seasonID *int64) (time.Time, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var computedAt sql.NullTime
	q := r.DB().NewSelect().
		Model((*models.RankingEntry)(nil)).
		ColumnExpr("MAX(computed_at)").
		Where("category = ?", category)
	err := seasonClause(q, seasonID).Scan(ctx, &computedAt)
	if err != nil {
		return time.Time{}, r.HandleErrorWithID("last_computed_at", "ranking_entry", category, err)
	}
	if !computedAt.Valid {
		return time.Time{}, nil
	}
	return computedAt.Time, nil
}
