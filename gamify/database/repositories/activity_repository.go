package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/openpack/gamify/gamify/database/models"
	"github.com/uptrace/bun"
)

// ActivityRepository reads the raw history tables the out-of-scope
// producers write: pack openings, owned items, completed collections
// and daily logins. Conditions and the integrity guard treat these as
// ground truth.
type ActivityRepository interface {
	CountPackOpenings(ctx context.Context, userID string) (int64, error)
	CountItems(ctx context.Context, userID string) (int64, error)
	CountItemsAtOrAbove(ctx context.Context, userID string, min models.Rarity) (int64, error)
	CountCompletedCollections(ctx context.Context, userID string) (int64, error)
	RecordLogin(ctx context.Context, userID string, day time.Time, rewardClaimed bool) error
	CountLogins(ctx context.Context, userID string) (int64, error)
	CountWeekendLoginsInMonth(ctx context.Context, userID string, anyDayInMonth time.Time) (int64, error)
	LastLoginBefore(ctx context.Context, userID string, day time.Time) (time.Time, error)
}

type activityRepository struct {
	*BaseRepository
}

func NewActivityRepository(db *bun.DB) ActivityRepository {
	return &activityRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *activityRepository) CountPackOpenings(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	count, err := r.DB().NewSelect().
		Model((*models.PackOpening)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
	return int64(count), r.HandleErrorWithID("count_pack_openings", "pack_opening", userID, err)
}

func (r *activityRepository) CountItems(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	count, err := r.DB().NewSelect().
		Model((*models.UserItem)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
	return int64(count), r.HandleErrorWithID("count_items", "user_item", userID, err)
}

func (r *activityRepository) CountItemsAtOrAbove(ctx context.Context, userID string, min models.Rarity) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	count, err := r.DB().NewSelect().
		Model((*models.UserItem)(nil)).
		Where("user_id = ?", userID).
		Where("rarity IN (?)", bun.In(models.RaritiesAtOrAbove(min))).
		Count(ctx)
	return int64(count), r.HandleErrorWithID("count_items_at_or_above", "user_item", userID, err)
}

func (r *activityRepository) CountCompletedCollections(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	count, err := r.DB().NewSelect().
		Model((*models.UserCollection)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
	return int64(count), r.HandleErrorWithID("count_completed_collections", "user_collection", userID, err)
}

func (r *activityRepository) RecordLogin(ctx context.Context, userID string, day time.Time, rewardClaimed bool) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	login := &models.DailyLogin{
		UserID:        userID,
		LoginDate:     day,
		RewardClaimed: rewardClaimed,
		CreatedAt:     time.Now(),
	}
	_, err := r.DB().NewInsert().
		Model(login).
		On("CONFLICT (user_id, login_date) DO UPDATE").
		Set("reward_claimed = daily_logins.reward_claimed OR EXCLUDED.reward_claimed").
		Exec(ctx)
	return r.HandleErrorWithID("record_login", "daily_login", userID, err)
}

func (r *activityRepository) CountLogins(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	count, err := r.DB().NewSelect().
		Model((*models.DailyLogin)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
	return int64(count), r.HandleErrorWithID("count_logins", "daily_login", userID, err)
}

// CountWeekendLoginsInMonth counts distinct Saturday/Sunday logins in
// the calendar month containing anyDayInMonth.
func (r *activityRepository) CountWeekendLoginsInMonth(ctx context.Context, userID string, anyDayInMonth time.Time) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	monthStart := time.Date(anyDayInMonth.Year(), anyDayInMonth.Month(), 1, 0, 0, 0, 0, anyDayInMonth.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	count, err := r.DB().NewSelect().
		Model((*models.DailyLogin)(nil)).
		Where("user_id = ?", userID).
		Where("login_date >= ? AND login_date < ?", monthStart, monthEnd).
		Where("EXTRACT(ISODOW FROM login_date) IN (6, 7)").
		Count(ctx)
	return int64(count), r.HandleErrorWithID("count_weekend_logins", "daily_login", userID, err)
}

// LastLoginBefore returns the most recent login strictly before day,
// or the zero time when there is none.
func (r *activityRepository) LastLoginBefore(ctx context.Context, userID string, day time.Time) (time.Time, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var last time.Time
	err := r.DB().NewSelect().
		Model((*models.DailyLogin)(nil)).
		Column("login_date").
		Where("user_id = ?", userID).
		Where("login_date < ?", day).
		Order("login_date DESC").
		Limit(1).
		Scan(ctx, &last)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, r.HandleErrorWithID("last_login_before", "daily_login", userID, err)
	}
	return last, nil
}
