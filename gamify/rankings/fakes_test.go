package rankings

import (
	"context"
	"sync"
	"time"

	"github.com/openpack/gamify/gamify/database/models"
	"github.com/openpack/gamify/gamify/database/repositories"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// fakeRankings keeps one snapshot per category. entries holds the
// nil-season snapshots most tests use; bySeason holds per-season ones
// for the tests that scope reads to a season.
type fakeRankings struct {
	mu       sync.Mutex
	entries  map[models.RankingCategory][]*models.RankingEntry
	bySeason map[int64]map[models.RankingCategory][]*models.RankingEntry
	replaced map[models.RankingCategory]int
}

func newFakeRankings() *fakeRankings {
	return &fakeRankings{
		entries:  make(map[models.RankingCategory][]*models.RankingEntry),
		bySeason: make(map[int64]map[models.RankingCategory][]*models.RankingEntry),
		replaced: make(map[models.RankingCategory]int),
	}
}

func (f *fakeRankings) ReplaceCategory(_ context.Context, category models.RankingCategory, _ *int64, entries []*models.RankingEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[category] = entries
	f.replaced[category]++
	return nil
}

func (f *fakeRankings) GetEntry(_ context.Context, userID string, category models.RankingCategory, _ *int64) (*models.RankingEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries[category] {
		if e.UserID == userID {
			return e, nil
		}
	}
	return nil, &repositories.NotFoundError{Entity: "ranking_entry", ID: userID}
}

func (f *fakeRankings) GetPage(_ context.Context, category models.RankingCategory, _ *int64, offset, limit int) ([]*models.RankingEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := f.entries[category]
	if offset >= len(entries) {
		return nil, nil
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end], nil
}

func (f *fakeRankings) GetAll(_ context.Context, category models.RankingCategory, seasonID *int64) ([]*models.RankingEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if seasonID != nil {
		return f.bySeason[*seasonID][category], nil
	}
	return f.entries[category], nil
}

func (f *fakeRankings) CountEntries(_ context.Context, category models.RankingCategory, _ *int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries[category]), nil
}

func (f *fakeRankings) LastComputedAt(_ context.Context, category models.RankingCategory, _ *int64) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest time.Time
	for _, e := range f.entries[category] {
		if e.ComputedAt.After(latest) {
			latest = e.ComputedAt
		}
	}
	return latest, nil
}

type fakeSource struct {
	values []repositories.SourceValue
}

func (f *fakeSource) CompletedPointsByUser(context.Context) ([]repositories.SourceValue, error) {
	return f.values, nil
}

type fakeStatsSource struct {
	rows []*repositories.StatsWithUser
}

func (f *fakeStatsSource) GetOrCreate(_ context.Context, userID string) (*models.UserStats, error) {
	return &models.UserStats{UserID: userID, Level: 1}, nil
}

func (f *fakeStatsSource) Get(_ context.Context, userID string) (*models.UserStats, error) {
	return &models.UserStats{UserID: userID, Level: 1}, nil
}

func (f *fakeStatsSource) IncrementCounter(context.Context, string, string, int64) error { return nil }

func (f *fakeStatsSource) UpdateStreak(context.Context, string, int, int, time.Time) error {
	return nil
}

func (f *fakeStatsSource) OverwriteCounters(context.Context, string, int64, int64, int64, int) error {
	return nil
}

func (f *fakeStatsSource) GetAllForRanking(context.Context) ([]*repositories.StatsWithUser, error) {
	return f.rows, nil
}

type fakeUsers struct {
	names map[string]string
}

func (f *fakeUsers) Create(context.Context, *models.User) error { return nil }

func (f *fakeUsers) GetByID(_ context.Context, userID string) (*models.User, error) {
	return &models.User{ID: userID, Username: f.names[userID]}, nil
}

func (f *fakeUsers) GetAllIDs(context.Context) ([]string, error) {
	ids := make([]string, 0, len(f.names))
	for id := range f.names {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeUsers) GetUsernames(_ context.Context, userIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(userIDs))
	for _, id := range userIDs {
		out[id] = f.names[id]
	}
	return out, nil
}
