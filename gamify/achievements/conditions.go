package achievements

import (
	"encoding/json"
	"fmt"

	"github.com/openpack/gamify/gamify/database/models"
)

type ConditionKind string

// The closed set of condition kinds. This is not a general rules
// engine: adding a kind means adding a predicate to the evaluator.
const (
	KindCount                ConditionKind = "count"
	KindValue                ConditionKind = "value"
	KindRarityThreshold      ConditionKind = "rarity_threshold"
	KindCollectionCompletion ConditionKind = "collection_completion"
	KindFirstOccurrence      ConditionKind = "first_occurrence"
	KindFirstPurchase        ConditionKind = "first_purchase"
	KindStreak               ConditionKind = "streak"
	KindTimeWindow           ConditionKind = "time_window"
	KindDailyLogin           ConditionKind = "daily_login"
	KindDailyStreak          ConditionKind = "daily_streak"
	KindDailyRewardsClaimed  ConditionKind = "daily_rewards_claimed"
	KindEarlyBird            ConditionKind = "early_bird"
	KindWeekendWarrior       ConditionKind = "weekend_warrior"
	KindComeback             ConditionKind = "comeback"
)

// Counters a count condition may target.
const (
	CounterPacksOpened          = "packs_opened"
	CounterItemsCollected       = "items_collected"
	CounterMarketplaceSales     = "marketplace_sales"
	CounterMarketplacePurchases = "marketplace_purchases"
	CounterCollectionsCompleted = "collections_completed"
	CounterLogins               = "logins"
)

// Values a value condition may target.
const (
	ValueTotalXP = "total_xp"
	ValueLevel   = "level"
)

// Condition is the decoded tagged union for one achievement predicate.
// Specs are decoded and validated once at catalog load so a malformed
// definition fails at startup, not on the hot path.
type Condition struct {
	Kind ConditionKind `json:"kind"`

	// count / value / daily_login / daily_rewards_claimed / streak /
	// daily_streak targets
	Counter string `json:"counter,omitempty"`
	Target  int64  `json:"target,omitempty"`

	// rarity_threshold
	Rarity models.Rarity `json:"rarity,omitempty"`
	Count  int64         `json:"count,omitempty"`

	// first_occurrence
	Of EventType `json:"of,omitempty"`

	// time_window [start, end) hours in the reference timezone
	StartHour int `json:"start_hour,omitempty"`
	EndHour   int `json:"end_hour,omitempty"`

	// early_bird
	BeforeHour int `json:"before_hour,omitempty"`

	// comeback
	GapDays int `json:"gap_days,omitempty"`
}

var validCounters = map[string]bool{
	CounterPacksOpened:          true,
	CounterItemsCollected:       true,
	CounterMarketplaceSales:     true,
	CounterMarketplacePurchases: true,
	CounterCollectionsCompleted: true,
	CounterLogins:               true,
}

var validValues = map[string]bool{
	ValueTotalXP: true,
	ValueLevel:   true,
}

var validRarities = map[models.Rarity]bool{
	models.RarityCommon:    true,
	models.RarityUncommon:  true,
	models.RarityRare:      true,
	models.RarityEpic:      true,
	models.RarityLegendary: true,
}

// Validate rejects malformed specs per kind.
func (c Condition) Validate() error {
	switch c.Kind {
	case KindCount:
		if !validCounters[c.Counter] {
			return fmt.Errorf("count condition references unknown counter %q", c.Counter)
		}
		if c.Target <= 0 {
			return fmt.Errorf("count condition needs a positive target, got %d", c.Target)
		}
	case KindValue:
		if !validValues[c.Counter] {
			return fmt.Errorf("value condition references unknown value %q", c.Counter)
		}
		if c.Target <= 0 {
			return fmt.Errorf("value condition needs a positive target, got %d", c.Target)
		}
	case KindRarityThreshold:
		if !validRarities[c.Rarity] {
			return fmt.Errorf("rarity_threshold condition has unknown rarity %q", c.Rarity)
		}
		if c.Count <= 0 {
			return fmt.Errorf("rarity_threshold condition needs a positive count, got %d", c.Count)
		}
	case KindCollectionCompletion:
		if c.Count <= 0 {
			return fmt.Errorf("collection_completion condition needs a positive count, got %d", c.Count)
		}
	case KindFirstOccurrence:
		switch c.Of {
		case EventPackOpened, EventMarketplacePurchase:
			// supported first-occurrence sources
		default:
			return fmt.Errorf("first_occurrence condition has unsupported source %q", c.Of)
		}
	case KindFirstPurchase:
		// no parameters
	case KindStreak, KindDailyStreak:
		if c.Target <= 0 {
			return fmt.Errorf("%s condition needs a positive target, got %d", c.Kind, c.Target)
		}
	case KindTimeWindow:
		if c.StartHour < 0 || c.StartHour > 23 || c.EndHour < 1 || c.EndHour > 24 {
			return fmt.Errorf("time_window condition has hours out of range: [%d, %d)", c.StartHour, c.EndHour)
		}
		if c.StartHour >= c.EndHour {
			return fmt.Errorf("time_window condition start %d must precede end %d", c.StartHour, c.EndHour)
		}
	case KindDailyLogin, KindDailyRewardsClaimed:
		if c.Target <= 0 {
			return fmt.Errorf("%s condition needs a positive target, got %d", c.Kind, c.Target)
		}
	case KindEarlyBird:
		if c.BeforeHour < 1 || c.BeforeHour > 23 {
			return fmt.Errorf("early_bird condition hour out of range: %d", c.BeforeHour)
		}
	case KindWeekendWarrior:
		if c.Count <= 0 {
			return fmt.Errorf("weekend_warrior condition needs a positive count, got %d", c.Count)
		}
	case KindComeback:
		if c.GapDays <= 0 {
			return fmt.Errorf("comeback condition needs positive gap days, got %d", c.GapDays)
		}
	default:
		return fmt.Errorf("unknown condition kind %q", c.Kind)
	}
	return nil
}

// DecodeConditions parses and validates the jsonb condition list of
// one catalog entry.
func DecodeConditions(raw json.RawMessage) ([]Condition, error) {
	var conds []Condition
	if err := json.Unmarshal(raw, &conds); err != nil {
		return nil, fmt.Errorf("failed to decode conditions: %w", err)
	}
	if len(conds) == 0 {
		return nil, fmt.Errorf("achievement declares no conditions")
	}
	for i, c := range conds {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
	}
	return conds, nil
}

// MustConditions marshals a condition list for seed data.
func MustConditions(conds ...Condition) json.RawMessage {
	raw, err := json.Marshal(conds)
	if err != nil {
		panic(err)
	}
	return raw
}
