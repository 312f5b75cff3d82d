package achievements

import (
	"time"

	"github.com/openpack/gamify/gamify/database/models"
)

type EventType string

// The closed set of game events this core consumes. Producers (pack
// flow, marketplace, auth) emit them; nothing here creates them.
const (
	EventPackOpened          EventType = "PACK_OPENED"
	EventItemObtained        EventType = "ITEM_OBTAINED"
	EventCollectionCompleted EventType = "COLLECTION_COMPLETED"
	EventMarketplaceSale     EventType = "MARKETPLACE_SALE"
	EventMarketplacePurchase EventType = "MARKETPLACE_PURCHASE"
	EventCreditsPurchased    EventType = "CREDITS_PURCHASED"
	EventUserRegistered      EventType = "USER_REGISTERED"
	EventDailyLogin          EventType = "DAILY_LOGIN"
	EventDailyRewardClaimed  EventType = "DAILY_REWARD_CLAIMED"
)

// Event is a fact describing a user action. Each event type is a
// closed struct so producers cannot ship payload shapes the evaluator
// has never seen.
type Event interface {
	EventType() EventType
	UserID() string
	OccurredAt() time.Time
}

// BaseEvent carries the fields every event shares.
type BaseEvent struct {
	User string
	At   time.Time
}

func (e BaseEvent) UserID() string        { return e.User }
func (e BaseEvent) OccurredAt() time.Time { return e.At }

type PackOpened struct {
	BaseEvent
	PackID int64
	// FirstPack marks the user's first-ever opening; required for the
	// first-occurrence conditions.
	FirstPack    bool
	ItemRarities []models.Rarity
}

func (PackOpened) EventType() EventType { return EventPackOpened }

type ItemObtained struct {
	BaseEvent
	ItemID int64
	Rarity models.Rarity
}

func (ItemObtained) EventType() EventType { return EventItemObtained }

type CollectionCompleted struct {
	BaseEvent
	CollectionID string
}

func (CollectionCompleted) EventType() EventType { return EventCollectionCompleted }

type MarketplaceSale struct {
	BaseEvent
	ItemID int64
	Price  int64
}

func (MarketplaceSale) EventType() EventType { return EventMarketplaceSale }

type MarketplacePurchase struct {
	BaseEvent
	ItemID        int64
	Price         int64
	FirstPurchase bool
}

func (MarketplacePurchase) EventType() EventType { return EventMarketplacePurchase }

type CreditsPurchased struct {
	BaseEvent
	Amount int64
}

func (CreditsPurchased) EventType() EventType { return EventCreditsPurchased }

type UserRegistered struct {
	BaseEvent
	Username string
}

func (UserRegistered) EventType() EventType { return EventUserRegistered }

type DailyLogin struct {
	BaseEvent
	RewardClaimed bool
}

func (DailyLogin) EventType() EventType { return EventDailyLogin }

type DailyRewardClaimed struct {
	BaseEvent
	Reward string
}

func (DailyRewardClaimed) EventType() EventType { return EventDailyRewardClaimed }
