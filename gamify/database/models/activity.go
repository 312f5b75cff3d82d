package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Rarity string

const (
	RarityCommon    Rarity = "COMMON"
	RarityUncommon  Rarity = "UNCOMMON"
	RarityRare      Rarity = "RARE"
	RarityEpic      Rarity = "EPIC"
	RarityLegendary Rarity = "LEGENDARY"
)

// rarityOrder maps each tier to its rank for at-or-above comparisons.
var rarityOrder = map[Rarity]int{
	RarityCommon:    0,
	RarityUncommon:  1,
	RarityRare:      2,
	RarityEpic:      3,
	RarityLegendary: 4,
}

// AtOrAbove reports whether r is at least as rare as min.
func (r Rarity) AtOrAbove(min Rarity) bool {
	return rarityOrder[r] >= rarityOrder[min]
}

// RaritiesAtOrAbove returns every tier at or above min, for IN clauses.
func RaritiesAtOrAbove(min Rarity) []Rarity {
	out := make([]Rarity, 0, len(rarityOrder))
	for r, ord := range rarityOrder {
		if ord >= rarityOrder[min] {
			out = append(out, r)
		}
	}
	return out
}

// PackOpening is one raw pack-opening record, written by the pack flow
// and read here as reconciliation ground truth.
type PackOpening struct {
	bun.BaseModel `bun:"table:pack_openings,alias:po"`

	ID       int64     `bun:"id,pk,autoincrement"`
	UserID   string    `bun:"user_id,notnull"`
	PackID   int64     `bun:"pack_id"`
	OpenedAt time.Time `bun:"opened_at,notnull,default:current_timestamp"`
}

// UserItem is one owned item, written by the pack/marketplace flows.
type UserItem struct {
	bun.BaseModel `bun:"table:user_items,alias:ui"`

	ID         int64     `bun:"id,pk,autoincrement"`
	UserID     string    `bun:"user_id,notnull"`
	ItemID     int64     `bun:"item_id,notnull"`
	Rarity     Rarity    `bun:"rarity,notnull"`
	ObtainedAt time.Time `bun:"obtained_at,notnull,default:current_timestamp"`
}

// UserCollection marks a collection the user has fully completed.
type UserCollection struct {
	bun.BaseModel `bun:"table:user_collections,alias:uc"`

	ID           int64     `bun:"id,pk,autoincrement"`
	UserID       string    `bun:"user_id,notnull"`
	CollectionID string    `bun:"collection_id,notnull"`
	CompletedAt  time.Time `bun:"completed_at,notnull,default:current_timestamp"`
}

// DailyLogin is one calendar-day login record in the reference
// timezone, unique per (user_id, login_date).
type DailyLogin struct {
	bun.BaseModel `bun:"table:daily_logins,alias:dl"`

	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        string    `bun:"user_id,notnull"`
	LoginDate     time.Time `bun:"login_date,notnull,type:date"`
	RewardClaimed bool      `bun:"reward_claimed,notnull,default:false"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
