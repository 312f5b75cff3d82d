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

// UnlockResult reports the outcome of an unlock transaction.
type UnlockResult struct {
	// AlreadyCompleted is true when a concurrent or earlier unlock won
	// the race; nothing was written.
	AlreadyCompleted bool
	TotalXP          int64
	Level            int
	LeveledUp        bool
}

type AchievementRepository interface {
	UpsertDefinition(ctx context.Context, def *models.Achievement) error
	GetAllDefinitions(ctx context.Context) ([]*models.Achievement, error)
	GetUserAchievements(ctx context.Context, userID string) ([]*models.UserAchievement, error)
	GetCompletedIDs(ctx context.Context, userID string) (map[int64]bool, error)
	SumCompletedPoints(ctx context.Context, userID string) (int64, error)
	Unlock(ctx context.Context, userID string, achievementID int64, points int64) (*UnlockResult, error)
}

type achievementRepository struct {
	*BaseRepository
}

func NewAchievementRepository(db *bun.DB) AchievementRepository {
	return &achievementRepository{BaseRepository: NewBaseRepository(db)}
}

// UpsertDefinition inserts a catalog entry or refreshes an existing one
// by name. Points and conditions follow the seed; unlock history is
// untouched.
func (r *achievementRepository) UpsertDefinition(ctx context.Context, def *models.Achievement) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	now := time.Now()
	def.CreatedAt = now
	def.UpdatedAt = now

	_, err := r.DB().NewInsert().
		Model(def).
		On("CONFLICT (name) DO UPDATE").
		Set("description = EXCLUDED.description").
		Set("category = EXCLUDED.category").
		Set("type = EXCLUDED.type").
		Set("conditions = EXCLUDED.conditions").
		Set("points = EXCLUDED.points").
		Set("is_secret = EXCLUDED.is_secret").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("id").
		Exec(ctx)
	return r.HandleErrorWithID("upsert_definition", "achievement", def.Name, err)
}

func (r *achievementRepository) GetAllDefinitions(ctx context.Context) ([]*models.Achievement, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var defs []*models.Achievement
	err := r.DB().NewSelect().
		Model(&defs).
		Order("id ASC").
		Scan(ctx)
	return defs, r.HandleError("get_all_definitions", "achievement", err)
}

func (r *achievementRepository) GetUserAchievements(ctx context.Context, userID string) ([]*models.UserAchievement, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var uas []*models.UserAchievement
	err := r.DB().NewSelect().
		Model(&uas).
		Relation("Achievement").
		Where("uach.user_id = ?", userID).
		Order("uach.id ASC").
		Scan(ctx)
	return uas, r.HandleErrorWithID("get_user_achievements", "user_achievement", userID, err)
}

func (r *achievementRepository) GetCompletedIDs(ctx context.Context, userID string) (map[int64]bool, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var ids []int64
	err := r.DB().NewSelect().
		Model((*models.UserAchievement)(nil)).
		Column("achievement_id").
		Where("user_id = ? AND is_completed = true", userID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, r.HandleErrorWithID("get_completed_ids", "user_achievement", userID, err)
	}

	completed := make(map[int64]bool, len(ids))
	for _, id := range ids {
		completed[id] = true
	}
	return completed, nil
}

// SumCompletedPoints recomputes the authoritative XP total straight
// from the unlock history.
func (r *achievementRepository) SumCompletedPoints(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var total sql.NullInt64
	err := r.DB().NewSelect().
		Model((*models.UserAchievement)(nil)).
		ColumnExpr("COALESCE(SUM(ach.points), 0)").
		Join("JOIN achievements AS ach ON ach.id = uach.achievement_id").
		Where("uach.user_id = ? AND uach.is_completed = true", userID).
		Scan(ctx, &total)
	if err != nil {
		return 0, r.HandleErrorWithID("sum_completed_points", "user_achievement", userID, err)
	}
	return total.Int64, nil
}

// Unlock performs the atomic unlock unit: flag the user achievement
// completed, award its points, and raise the level if the new total
// crosses a threshold. All three writes commit together or not at all.
// Concurrent unlocks of the same pair serialize on the unique index;
// the loser observes is_completed already true and becomes a no-op.
func (r *achievementRepository) Unlock(ctx context.Context, userID string, achievementID int64, points int64) (*UnlockResult, error) {
	result := &UnlockResult{}

	err := r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now()
		ua := &models.UserAchievement{
			UserID:        userID,
			AchievementID: achievementID,
			IsCompleted:   true,
			Progress:      100,
			UnlockedAt:    &now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		res, err := tx.NewInsert().
			Model(ua).
			On("CONFLICT (user_id, achievement_id) DO UPDATE").
			Set("is_completed = true").
			Set("progress = 100").
			Set("unlocked_at = EXCLUDED.unlocked_at").
			Set("updated_at = EXCLUDED.updated_at").
			Where("uach.is_completed = false").
			Exec(ctx)
		if err != nil {
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			result.AlreadyCompleted = true
			return nil
		}

		// The stats row may not exist yet for a brand-new user.
		seed := &models.UserStats{
			UserID:    userID,
			Level:     1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err = tx.NewInsert().
			Model(seed).
			On("CONFLICT (user_id) DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}

		var totalXP int64
		err = tx.NewUpdate().
			Model((*models.UserStats)(nil)).
			Set("total_xp = total_xp + ?", points).
			Set("updated_at = ?", now).
			Where("user_id = ?", userID).
			Returning("total_xp").
			Scan(ctx, &totalXP)
		if err != nil {
			return err
		}

		newLevel := models.LevelForXP(totalXP)
		levelRes, err := tx.NewUpdate().
			Model((*models.UserStats)(nil)).
			Set("level = ?", newLevel).
			Where("user_id = ? AND level < ?", userID, newLevel).
			Exec(ctx)
		if err != nil {
			return err
		}
		leveled, err := levelRes.RowsAffected()
		if err != nil {
			return err
		}

		result.TotalXP = totalXP
		result.Level = newLevel
		result.LeveledUp = leveled > 0
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			slog.Warn("Unlock transaction already finished",
				slog.String("type", "db"),
				slog.String("user_id", userID),
				slog.Int64("achievement_id", achievementID))
		}
		return nil, r.HandleErrorWithID("unlock", "user_achievement", userID, err)
	}

	return result, nil
}
