package achievements

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpack/gamify/gamify/cache"
	"github.com/openpack/gamify/gamify/database/models"
)

type testCore struct {
	service  *Service
	engine   *Engine
	stats    *fakeStats
	activity *fakeActivity
	repo     *fakeAchievements
	cache    *cache.TTLCache
	enqueuer *fakeEnqueuer
	loc      *time.Location
}

func newTestCore(t *testing.T) *testCore {
	t.Helper()
	loc := testLocation(t)

	stats := newFakeStats()
	activity := newFakeActivity()
	repo := newFakeAchievements(stats)
	require.NoError(t, SeedCatalog(context.Background(), repo))

	catalog, err := LoadCatalog(context.Background(), repo)
	require.NoError(t, err)

	c, err := cache.NewTTL(100, time.Minute)
	require.NoError(t, err)

	enqueuer := &fakeEnqueuer{}
	evaluator := NewEvaluator(stats, activity, loc, nil)
	engine := NewEngine(catalog, evaluator, repo, c, enqueuer)
	tracker := NewTracker(newFakeUsers(), stats, activity, loc, nil)

	return &testCore{
		service:  NewService(tracker, engine),
		engine:   engine,
		stats:    stats,
		activity: activity,
		repo:     repo,
		cache:    c,
		enqueuer: enqueuer,
		loc:      loc,
	}
}

func unlockedNames(unlocked []Unlocked) []string {
	names := make([]string, len(unlocked))
	for i, u := range unlocked {
		names[i] = u.Achievement.Name
	}
	return names
}

func TestFirstPackWithLegendary(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	// Prior unlocks left the user at 135 XP.
	row, _ := core.stats.GetOrCreate(ctx, "u1")
	row.TotalXP = 135
	row.Level = models.LevelForXP(135)

	// The pack flow wrote its history before emitting the event.
	rarities := []models.Rarity{models.RarityLegendary, models.RarityCommon, models.RarityCommon}
	core.activity.packs = 1
	core.activity.items = rarities

	event := PackOpened{
		BaseEvent:    BaseEvent{User: "u1", At: time.Date(2025, 3, 10, 10, 0, 0, 0, core.loc)},
		PackID:       42,
		FirstPack:    true,
		ItemRarities: rarities,
	}

	unlocked, err := core.service.Process(ctx, event)
	require.NoError(t, err)

	names := unlockedNames(unlocked)
	assert.ElementsMatch(t, []string{"Primeira Abertura", "Sortudo de Primeira"}, names)

	row, _ = core.stats.GetOrCreate(ctx, "u1")
	assert.Equal(t, int64(340), row.TotalXP, "135 + 5 + 200")
	assert.Equal(t, 2, row.Level)
	assert.Equal(t, int64(1), row.TotalPacksOpened)
	assert.Equal(t, int64(3), row.TotalItemsCollected)
	assert.Equal(t, int64(1), row.LegendaryItems)
	assert.Equal(t, 1, row.CurrentStreak)

	assert.Equal(t, []models.RankingCategory{models.CategoryTotalXP}, core.enqueuer.enqueued())
}

func TestReplayedEventUnlocksNothing(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	rarities := []models.Rarity{models.RarityLegendary}
	core.activity.packs = 1
	core.activity.items = rarities
	event := PackOpened{
		BaseEvent:    BaseEvent{User: "u1", At: time.Date(2025, 3, 10, 10, 0, 0, 0, core.loc)},
		FirstPack:    true,
		ItemRarities: rarities,
	}

	unlocked, err := core.service.Process(ctx, event)
	require.NoError(t, err)
	require.NotEmpty(t, unlocked)

	row, _ := core.stats.GetOrCreate(ctx, "u1")
	xpAfterFirst := row.TotalXP

	// Replay with a warm cache.
	unlocked, err = core.service.Process(ctx, event)
	require.NoError(t, err)
	assert.Empty(t, unlocked)

	// Replay with a cold cache: the conditional unlock still refuses
	// to double-award.
	core.cache.Purge()
	unlocked, err = core.service.Process(ctx, event)
	require.NoError(t, err)
	assert.Empty(t, unlocked)

	row, _ = core.stats.GetOrCreate(ctx, "u1")
	assert.Equal(t, xpAfterFirst, row.TotalXP)
}

func TestIrrelevantEventTouchesNothing(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	// A credits purchase is only relevant to TRADER and SPECIAL
	// entries, none of which it satisfies here.
	event := CreditsPurchased{
		BaseEvent: BaseEvent{User: "u1", At: time.Date(2025, 3, 10, 10, 0, 0, 0, core.loc)},
		Amount:    500,
	}

	unlocked, err := core.service.Process(ctx, event)
	require.NoError(t, err)
	assert.Empty(t, unlocked)
	assert.Empty(t, core.enqueuer.enqueued())
}

func TestCounterThresholdUnlock(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	// The tenth item pushes Colecionador Iniciante over its target.
	for i := 0; i < 10; i++ {
		core.activity.items = append(core.activity.items, models.RarityCommon)
	}

	event := ItemObtained{
		BaseEvent: BaseEvent{User: "u1", At: time.Date(2025, 3, 10, 10, 0, 0, 0, core.loc)},
		Rarity:    models.RarityCommon,
	}

	unlocked, err := core.service.Process(ctx, event)
	require.NoError(t, err)
	assert.Contains(t, unlockedNames(unlocked), "Colecionador Iniciante")
}

func TestEarlyBirdLogin(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	event := DailyLogin{
		BaseEvent: BaseEvent{User: "u1", At: time.Date(2025, 3, 10, 5, 30, 0, 0, core.loc)},
	}

	unlocked, err := core.service.Process(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, []string{"Madrugador"}, unlockedNames(unlocked))

	// The same login replayed stays silent.
	unlocked, err = core.service.Process(ctx, event)
	require.NoError(t, err)
	assert.Empty(t, unlocked)
}

func TestSecretAchievementsAreSeeded(t *testing.T) {
	core := newTestCore(t)

	var secret int
	for _, entry := range core.engine.catalog.All() {
		if entry.Def.IsSecret {
			secret++
		}
	}
	assert.Equal(t, 2, secret)
}
