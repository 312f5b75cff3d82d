package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

type AchievementCategory string

const (
	CategoryCollector AchievementCategory = "COLLECTOR"
	CategoryExplorer  AchievementCategory = "EXPLORER"
	CategoryTrader    AchievementCategory = "TRADER"
	CategoryMilestone AchievementCategory = "MILESTONE"
	CategorySpecial   AchievementCategory = "SPECIAL"
	CategoryDaily     AchievementCategory = "DAILY"
)

type AchievementType string

const (
	TypeCounter   AchievementType = "counter"
	TypeThreshold AchievementType = "threshold"
	TypeFirstTime AchievementType = "first_time"
	TypeStreak    AchievementType = "streak"
	TypeTimed     AchievementType = "timed"
)

// Achievement is one entry of the static catalog. Rows are seeded at
// startup (upsert by name) and treated as immutable afterwards; the
// conditions column holds the raw specs, decoded once at catalog load.
type Achievement struct {
	bun.BaseModel `bun:"table:achievements,alias:ach"`

	ID          int64               `bun:"id,pk,autoincrement"`
	Name        string              `bun:"name,notnull,unique"`
	Description string              `bun:"description,notnull"`
	Category    AchievementCategory `bun:"category,notnull"`
	Type        AchievementType     `bun:"type,notnull"`
	Conditions  json.RawMessage     `bun:"conditions,type:jsonb,notnull"`
	Points      int64               `bun:"points,notnull,default:0"`
	IsSecret    bool                `bun:"is_secret,notnull,default:false"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
