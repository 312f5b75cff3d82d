package achievements

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openpack/gamify/gamify/database/models"
	"github.com/openpack/gamify/gamify/database/repositories"
)

// categoryEvents is the relevance filter: an event type can only ever
// affect achievements in the listed categories, so the rest of the
// catalog is skipped without touching its conditions.
var categoryEvents = map[models.AchievementCategory][]EventType{
	models.CategoryCollector: {EventPackOpened, EventItemObtained, EventCollectionCompleted},
	models.CategoryExplorer:  {EventItemObtained, EventCollectionCompleted},
	models.CategoryTrader:    {EventMarketplaceSale, EventMarketplacePurchase, EventCreditsPurchased},
	models.CategoryMilestone: {
		EventPackOpened, EventItemObtained, EventCollectionCompleted,
		EventMarketplaceSale, EventMarketplacePurchase, EventDailyLogin,
	},
	models.CategorySpecial: {EventPackOpened, EventUserRegistered, EventMarketplacePurchase, EventCreditsPurchased},
	models.CategoryDaily:   {EventDailyLogin, EventDailyRewardClaimed},
}

// Entry pairs a catalog row with its decoded conditions.
type Entry struct {
	Def        *models.Achievement
	Conditions []Condition
}

// Catalog is the immutable in-memory achievement catalog, decoded once
// at startup.
type Catalog struct {
	entries []*Entry
	byID    map[int64]*Entry
	byEvent map[EventType][]*Entry
}

// LoadCatalog reads every definition and decodes its conditions;
// a malformed definition aborts startup.
func LoadCatalog(ctx context.Context, repo repositories.AchievementRepository) (*Catalog, error) {
	defs, err := repo.GetAllDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievement catalog: %w", err)
	}

	c := &Catalog{
		byID:    make(map[int64]*Entry, len(defs)),
		byEvent: make(map[EventType][]*Entry),
	}
	for _, def := range defs {
		conds, err := DecodeConditions(def.Conditions)
		if err != nil {
			return nil, fmt.Errorf("achievement %q: %w", def.Name, err)
		}
		entry := &Entry{Def: def, Conditions: conds}
		c.entries = append(c.entries, entry)
		c.byID[def.ID] = entry
		for _, et := range categoryEvents[def.Category] {
			c.byEvent[et] = append(c.byEvent[et], entry)
		}
	}

	slog.Info("Achievement catalog loaded",
		slog.String("type", "engine"),
		slog.Int("achievements", len(c.entries)))
	return c, nil
}

// Relevant returns the catalog entries an event type can affect.
func (c *Catalog) Relevant(et EventType) []*Entry {
	return c.byEvent[et]
}

func (c *Catalog) All() []*Entry {
	return c.entries
}

func (c *Catalog) ByID(id int64) (*Entry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

func (c *Catalog) Len() int {
	return len(c.entries)
}
