package models

import (
	"math"
	"time"

	"github.com/uptrace/bun"

	"github.com/openpack/gamify/gamify/config"
)

// UserStats is the one-row-per-user aggregate driving conditions and
// receiving XP/level updates. Counters here are derived; raw history
// (pack_openings, user_items, completed achievements) stays the ground
// truth the integrity guard reconciles against.
type UserStats struct {
	bun.BaseModel `bun:"table:user_stats,alias:ust"`

	ID     int64  `bun:"id,pk,autoincrement"`
	UserID string `bun:"user_id,notnull,unique"`

	// Scoring
	TotalXP int64 `bun:"total_xp,notnull,default:0"`
	Level   int   `bun:"level,notnull,default:1"`

	// Collection counters
	TotalPacksOpened    int64 `bun:"total_packs_opened,notnull,default:0"`
	TotalItemsCollected int64 `bun:"total_items_collected,notnull,default:0"`
	RareItems           int64 `bun:"rare_items,notnull,default:0"`
	EpicItems           int64 `bun:"epic_items,notnull,default:0"`
	LegendaryItems      int64 `bun:"legendary_items,notnull,default:0"`

	// Marketplace counters
	MarketplaceSales     int64 `bun:"marketplace_sales,notnull,default:0"`
	MarketplacePurchases int64 `bun:"marketplace_purchases,notnull,default:0"`

	// Activity
	CurrentStreak       int       `bun:"current_streak,notnull,default:0"`
	LongestStreak       int       `bun:"longest_streak,notnull,default:0"`
	DailyRewardsClaimed int64     `bun:"daily_rewards_claimed,notnull,default:0"`
	LastActivityAt      time.Time `bun:"last_activity_at"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// LevelForXP computes the level for a total XP amount:
// floor(sqrt(totalXP/unit)) + 1. Levels never decrease because XP never
// decreases outside of reconciliation, which only raises it.
func LevelForXP(totalXP int64) int {
	if totalXP <= 0 {
		return 1
	}
	return int(math.Sqrt(float64(totalXP)/config.XPPerLevelUnit)) + 1
}
