package models

import (
	"time"

	"github.com/uptrace/bun"
)

type RankingCategory string

const (
	CategoryTotalXP          RankingCategory = "TOTAL_XP"
	CategoryItemsCollected   RankingCategory = "ITEMS_COLLECTED"
	CategoryPacksOpened      RankingCategory = "PACKS_OPENED"
	CategoryMarketplaceSales RankingCategory = "MARKETPLACE_SALES"
	CategoryLegendaryItems   RankingCategory = "LEGENDARY_ITEMS"
	CategoryWeeklyActive     RankingCategory = "WEEKLY_ACTIVE"
)

// AllRankingCategories lists every category in recompute order.
var AllRankingCategories = []RankingCategory{
	CategoryTotalXP,
	CategoryItemsCollected,
	CategoryPacksOpened,
	CategoryMarketplaceSales,
	CategoryLegendaryItems,
	CategoryWeeklyActive,
}

// RankingEntry rows for one (category, season) are fully replaced on
// each recompute; positions form a dense 1..N sequence.
type RankingEntry struct {
	bun.BaseModel `bun:"table:rankings,alias:rk"`

	ID         int64           `bun:"id,pk,autoincrement"`
	UserID     string          `bun:"user_id,notnull"`
	Category   RankingCategory `bun:"category,notnull"`
	SeasonID   *int64          `bun:"season_id"`
	Position   int             `bun:"position,notnull"`
	Value      int64           `bun:"value,notnull"`
	ComputedAt time.Time       `bun:"computed_at,notnull"`
}
