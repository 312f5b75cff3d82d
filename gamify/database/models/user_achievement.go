package models

import (
	"time"

	"github.com/uptrace/bun"
)

// UserAchievement is the junction row between a user and a catalog
// entry, unique per (user_id, achievement_id). IsCompleted transitions
// false->true exactly once and never reverts.
type UserAchievement struct {
	bun.BaseModel `bun:"table:user_achievements,alias:uach"`

	ID            int64  `bun:"id,pk,autoincrement"`
	UserID        string `bun:"user_id,notnull"`
	AchievementID int64  `bun:"achievement_id,notnull"`
	IsCompleted   bool   `bun:"is_completed,notnull,default:false"`
	// Progress is 0 or 100 in the current condition set; intermediate
	// values are reserved for future graduated conditions.
	Progress   int        `bun:"progress,notnull,default:0"`
	UnlockedAt *time.Time `bun:"unlocked_at"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`

	// Relations
	Achievement *Achievement `bun:"rel:has-one,join:achievement_id=id"`
}
