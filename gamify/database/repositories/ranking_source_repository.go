package repositories

import (
	"context"
	"time"

	"github.com/openpack/gamify/gamify/database/models"
	"github.com/uptrace/bun"
)

// SourceValue is one user's raw value for a ranking category, joined
// with the account-creation time used as the deterministic tie-break.
type SourceValue struct {
	UserID   string    `bun:"user_id"`
	Value    int64     `bun:"value"`
	JoinedAt time.Time `bun:"joined_at"`
}

// RankingSourceRepository recomputes authoritative values that cannot
// be trusted from the cached counters.
type RankingSourceRepository interface {
	// CompletedPointsByUser returns Σ(points of completed achievements)
	// per non-admin user — the ground truth behind TOTAL_XP.
	CompletedPointsByUser(ctx context.Context) ([]SourceValue, error)
}

type rankingSourceRepository struct {
	*BaseRepository
}

func NewRankingSourceRepository(db *bun.DB) RankingSourceRepository {
	return &rankingSourceRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *rankingSourceRepository) CompletedPointsByUser(ctx context.Context) ([]SourceValue, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var values []SourceValue
	err := r.DB().NewSelect().
		Model((*models.UserAchievement)(nil)).
		ColumnExpr("uach.user_id AS user_id").
		ColumnExpr("SUM(ach.points) AS value").
		ColumnExpr("u.created_at AS joined_at").
		Join("JOIN achievements AS ach ON ach.id = uach.achievement_id").
		Join("JOIN users AS u ON u.id = uach.user_id").
		Where("uach.is_completed = true").
		Where("u.is_admin = false").
		GroupExpr("uach.user_id, u.created_at").
		Scan(ctx, &values)
	return values, r.HandleError("completed_points_by_user", "user_achievement", err)
}
