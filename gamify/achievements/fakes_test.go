package achievements

import (
	"context"
	"sync"
	"time"

	"github.com/openpack/gamify/gamify/database/models"
	"github.com/openpack/gamify/gamify/database/repositories"
)

// In-memory stand-ins for the repository interfaces, mirroring the
// real SQL semantics closely enough for engine and evaluator tests.

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeStats struct {
	mu   sync.Mutex
	rows map[string]*models.UserStats
}

func newFakeStats() *fakeStats {
	return &fakeStats{rows: make(map[string]*models.UserStats)}
}

func (f *fakeStats) GetOrCreate(_ context.Context, userID string) (*models.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getOrCreateLocked(userID), nil
}

func (f *fakeStats) getOrCreateLocked(userID string) *models.UserStats {
	if row, ok := f.rows[userID]; ok {
		return row
	}
	row := &models.UserStats{UserID: userID, Level: 1}
	f.rows[userID] = row
	return row
}

func (f *fakeStats) Get(_ context.Context, userID string) (*models.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[userID]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "user_stats", ID: userID}
	}
	return row, nil
}

func (f *fakeStats) IncrementCounter(_ context.Context, userID, column string, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.getOrCreateLocked(userID)
	switch column {
	case repositories.ColPacksOpened:
		row.TotalPacksOpened += delta
	case repositories.ColItemsCollected:
		row.TotalItemsCollected += delta
	case repositories.ColRareItems:
		row.RareItems += delta
	case repositories.ColEpicItems:
		row.EpicItems += delta
	case repositories.ColLegendaryItems:
		row.LegendaryItems += delta
	case repositories.ColMarketplaceSales:
		row.MarketplaceSales += delta
	case repositories.ColMarketplacePurchases:
		row.MarketplacePurchases += delta
	case repositories.ColDailyRewardsClaimed:
		row.DailyRewardsClaimed += delta
	}
	return nil
}

func (f *fakeStats) UpdateStreak(_ context.Context, userID string, current, longest int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.getOrCreateLocked(userID)
	row.CurrentStreak = current
	if longest > row.LongestStreak {
		row.LongestStreak = longest
	}
	if at.After(row.LastActivityAt) {
		row.LastActivityAt = at
	}
	return nil
}

func (f *fakeStats) OverwriteCounters(_ context.Context, userID string, packs, items, xp int64, level int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.getOrCreateLocked(userID)
	row.TotalPacksOpened = packs
	row.TotalItemsCollected = items
	row.TotalXP = xp
	if level > row.Level {
		row.Level = level
	}
	return nil
}

func (f *fakeStats) GetAllForRanking(_ context.Context) ([]*repositories.StatsWithUser, error) {
	return nil, nil
}

type fakeActivity struct {
	mu          sync.Mutex
	packs       int64
	items       []models.Rarity
	collections int64
	logins      map[time.Time]bool
}

func newFakeActivity() *fakeActivity {
	return &fakeActivity{logins: make(map[time.Time]bool)}
}

func (f *fakeActivity) CountPackOpenings(context.Context, string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.packs, nil
}

func (f *fakeActivity) CountItems(context.Context, string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.items)), nil
}

func (f *fakeActivity) CountItemsAtOrAbove(_ context.Context, _ string, min models.Rarity) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.items {
		if r.AtOrAbove(min) {
			n++
		}
	}
	return n, nil
}

func (f *fakeActivity) CountCompletedCollections(context.Context, string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.collections, nil
}

func (f *fakeActivity) RecordLogin(_ context.Context, _ string, day time.Time, rewardClaimed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins[day] = f.logins[day] || rewardClaimed
	return nil
}

func (f *fakeActivity) CountLogins(context.Context, string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.logins)), nil
}

func (f *fakeActivity) CountWeekendLoginsInMonth(_ context.Context, _ string, anyDayInMonth time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for day := range f.logins {
		if day.Year() == anyDayInMonth.Year() && day.Month() == anyDayInMonth.Month() {
			if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
				n++
			}
		}
	}
	return n, nil
}

func (f *fakeActivity) LastLoginBefore(_ context.Context, _ string, day time.Time) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var last time.Time
	for d := range f.logins {
		if d.Before(day) && d.After(last) {
			last = d
		}
	}
	return last, nil
}

// fakeAchievements mirrors the unlock transaction: conditional
// completion, XP award and level raise, all against the fakeStats row.
type fakeAchievements struct {
	mu        sync.Mutex
	defs      []*models.Achievement
	completed map[string]map[int64]bool
	stats     *fakeStats
}

func newFakeAchievements(stats *fakeStats) *fakeAchievements {
	return &fakeAchievements{
		completed: make(map[string]map[int64]bool),
		stats:     stats,
	}
}

func (f *fakeAchievements) UpsertDefinition(_ context.Context, def *models.Achievement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.defs {
		if existing.Name == def.Name {
			def.ID = existing.ID
			*existing = *def
			return nil
		}
	}
	def.ID = int64(len(f.defs) + 1)
	f.defs = append(f.defs, def)
	return nil
}

func (f *fakeAchievements) GetAllDefinitions(context.Context) ([]*models.Achievement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.Achievement(nil), f.defs...), nil
}

func (f *fakeAchievements) GetUserAchievements(_ context.Context, userID string) ([]*models.UserAchievement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var uas []*models.UserAchievement
	for _, def := range f.defs {
		if f.completed[userID][def.ID] {
			uas = append(uas, &models.UserAchievement{
				UserID:        userID,
				AchievementID: def.ID,
				IsCompleted:   true,
				Progress:      100,
				Achievement:   def,
			})
		}
	}
	return uas, nil
}

func (f *fakeAchievements) GetCompletedIDs(_ context.Context, userID string) (map[int64]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64]bool, len(f.completed[userID]))
	for id := range f.completed[userID] {
		out[id] = true
	}
	return out, nil
}

func (f *fakeAchievements) SumCompletedPoints(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int64
	for _, def := range f.defs {
		if f.completed[userID][def.ID] {
			sum += def.Points
		}
	}
	return sum, nil
}

func (f *fakeAchievements) Unlock(_ context.Context, userID string, achievementID, points int64) (*repositories.UnlockResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.completed[userID] == nil {
		f.completed[userID] = make(map[int64]bool)
	}
	if f.completed[userID][achievementID] {
		return &repositories.UnlockResult{AlreadyCompleted: true}, nil
	}
	f.completed[userID][achievementID] = true

	f.stats.mu.Lock()
	defer f.stats.mu.Unlock()
	row := f.stats.getOrCreateLocked(userID)
	row.TotalXP += points
	newLevel := models.LevelForXP(row.TotalXP)
	leveled := newLevel > row.Level
	if leveled {
		row.Level = newLevel
	}
	return &repositories.UnlockResult{
		TotalXP:   row.TotalXP,
		Level:     row.Level,
		LeveledUp: leveled,
	}, nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]*models.User)}
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		f.users[user.ID] = user
	}
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, userID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "user", ID: userID}
	}
	return user, nil
}

func (f *fakeUsers) GetAllIDs(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeUsers) GetUsernames(_ context.Context, userIDs []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make(map[string]string, len(userIDs))
	for _, id := range userIDs {
		if u, ok := f.users[id]; ok {
			names[id] = u.Username
		}
	}
	return names, nil
}

type fakeEnqueuer struct {
	mu         sync.Mutex
	categories []models.RankingCategory
}

func (f *fakeEnqueuer) Enqueue(category models.RankingCategory) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories = append(f.categories, category)
}

func (f *fakeEnqueuer) enqueued() []models.RankingCategory {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.RankingCategory(nil), f.categories...)
}
