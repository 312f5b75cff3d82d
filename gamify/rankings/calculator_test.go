package rankings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpack/gamify/gamify/database/models"
	"github.com/openpack/gamify/gamify/database/repositories"
)

func newTestCalculator(stats *fakeStatsSource, source *fakeSource, rankings *fakeRankings, now time.Time) *Calculator {
	return NewCalculator(stats, source, rankings, time.UTC, fixedClock{now},
		5*time.Minute, 7*24*time.Hour)
}

func TestBuildEntriesDensePositionsAndTieBreak(t *testing.T) {
	now := time.Now()
	older := now.AddDate(-1, 0, 0)
	newer := now.AddDate(0, -1, 0)

	values := []repositories.SourceValue{
		{UserID: "mid", Value: 50, JoinedAt: now},
		{UserID: "tied-newer", Value: 100, JoinedAt: newer},
		{UserID: "tied-older", Value: 100, JoinedAt: older},
		{UserID: "last", Value: 1, JoinedAt: now},
	}

	entries := buildEntries(models.CategoryTotalXP, nil, values, now)
	require.Len(t, entries, 4)

	var order []string
	for i, e := range entries {
		order = append(order, e.UserID)
		assert.Equal(t, i+1, e.Position, "positions must be dense 1..N")
		assert.Equal(t, models.CategoryTotalXP, e.Category)
		assert.Equal(t, now, e.ComputedAt)
	}
	assert.Equal(t, []string{"tied-older", "tied-newer", "mid", "last"}, order)
}

func TestRecomputeCategoryExcludesAdminsAndZeros(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	stats := &fakeStatsSource{rows: []*repositories.StatsWithUser{
		{UserStats: models.UserStats{UserID: "player", TotalPacksOpened: 40, LastActivityAt: now}},
		{UserStats: models.UserStats{UserID: "admin", TotalPacksOpened: 900, LastActivityAt: now}, IsAdmin: true},
		{UserStats: models.UserStats{UserID: "lurker", TotalPacksOpened: 0, LastActivityAt: now}},
	}}
	rankings := newFakeRankings()
	calc := newTestCalculator(stats, &fakeSource{}, rankings, now)

	require.NoError(t, calc.RecomputeCategory(context.Background(), models.CategoryPacksOpened, nil, true))

	entries := rankings.entries[models.CategoryPacksOpened]
	require.Len(t, entries, 1)
	assert.Equal(t, "player", entries[0].UserID)
	assert.Equal(t, 1, entries[0].Position)
	assert.Equal(t, int64(40), entries[0].Value)
}

func TestRecomputeTotalXPUsesUnlockHistory(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	// The counter says 9999 but the unlock history says 340; the
	// snapshot must trust the history.
	stats := &fakeStatsSource{rows: []*repositories.StatsWithUser{
		{UserStats: models.UserStats{UserID: "u1", TotalXP: 9999}},
	}}
	source := &fakeSource{values: []repositories.SourceValue{
		{UserID: "u1", Value: 340, JoinedAt: now.AddDate(-1, 0, 0)},
		{UserID: "pointless", Value: 0, JoinedAt: now.AddDate(-2, 0, 0)},
	}}
	rankings := newFakeRankings()
	calc := newTestCalculator(stats, source, rankings, now)

	require.NoError(t, calc.RecomputeCategory(context.Background(), models.CategoryTotalXP, nil, true))

	// Only completions worth points rank; a user whose unlocks sum to
	// zero stays off the board like any other zero-value user.
	entries := rankings.entries[models.CategoryTotalXP]
	require.Len(t, entries, 1)
	assert.Equal(t, "u1", entries[0].UserID)
	assert.Equal(t, int64(340), entries[0].Value)
}

func TestRecomputeSkipsFreshSnapshot(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	stats := &fakeStatsSource{rows: []*repositories.StatsWithUser{
		{UserStats: models.UserStats{UserID: "u1", TotalPacksOpened: 5, LastActivityAt: now}},
	}}
	rankings := newFakeRankings()
	calc := newTestCalculator(stats, &fakeSource{}, rankings, now)

	require.NoError(t, calc.RecomputeCategory(context.Background(), models.CategoryPacksOpened, nil, true))
	require.NoError(t, calc.RecomputeCategory(context.Background(), models.CategoryPacksOpened, nil, false))
	assert.Equal(t, 1, rankings.replaced[models.CategoryPacksOpened], "fresh snapshot must not be rebuilt")

	require.NoError(t, calc.RecomputeCategory(context.Background(), models.CategoryPacksOpened, nil, true))
	assert.Equal(t, 2, rankings.replaced[models.CategoryPacksOpened], "force bypasses the staleness guard")
}

func TestWeeklyActiveExcludesInactive(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	stats := &fakeStatsSource{rows: []*repositories.StatsWithUser{
		{UserStats: models.UserStats{
			UserID:         "active",
			CurrentStreak:  4,
			LastActivityAt: now.Add(-2 * time.Hour),
		}},
		{UserStats: models.UserStats{
			UserID:         "dormant",
			CurrentStreak:  20,
			LastActivityAt: now.AddDate(0, 0, -10),
		}},
	}}
	rankings := newFakeRankings()
	calc := newTestCalculator(stats, &fakeSource{}, rankings, now)

	require.NoError(t, calc.RecomputeCategory(context.Background(), models.CategoryWeeklyActive, nil, true))

	entries := rankings.entries[models.CategoryWeeklyActive]
	require.Len(t, entries, 1)
	assert.Equal(t, "active", entries[0].UserID)
	assert.Equal(t, int64(4), entries[0].Value)
}

func TestGetUserPositionForcesOneRecompute(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	stats := &fakeStatsSource{rows: []*repositories.StatsWithUser{
		{UserStats: models.UserStats{UserID: "u1", TotalPacksOpened: 3, LastActivityAt: now}},
	}}
	rankings := newFakeRankings()
	calc := newTestCalculator(stats, &fakeSource{}, rankings, now)

	pos, err := calc.GetUserPosition(context.Background(), "u1", models.CategoryPacksOpened, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
	assert.Equal(t, 1, rankings.replaced[models.CategoryPacksOpened])

	// A user with nothing to rank stays at zero even after the forced
	// recompute.
	pos, err = calc.GetUserPosition(context.Background(), "ghost", models.CategoryPacksOpened, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, pos)
}
