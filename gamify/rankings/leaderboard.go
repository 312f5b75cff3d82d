package rankings

import (
	"context"
	"fmt"

	"github.com/sahilm/fuzzy"

	"github.com/openpack/gamify/gamify/cache"
	"github.com/openpack/gamify/gamify/config"
	"github.com/openpack/gamify/gamify/database/models"
	"github.com/openpack/gamify/gamify/database/repositories"
)

// LeaderboardRow is one display row of a category leaderboard.
type LeaderboardRow struct {
	Position int
	UserID   string
	Username string
	Value    int64
}

// LeaderboardPage is a page of a category leaderboard plus paging
// metadata.
type LeaderboardPage struct {
	Category models.RankingCategory
	Rows     []*LeaderboardRow
	Page     int
	PageSize int
	Total    int
}

// Leaderboard serves paginated reads of the stored category snapshots.
// Entry totals are cached briefly since every page render asks for them.
type Leaderboard struct {
	rankings repositories.RankingRepository
	users    repositories.UserRepository
	totals   *cache.TTLCache
}

func NewLeaderboard(rankings repositories.RankingRepository, users repositories.UserRepository, totals *cache.TTLCache) *Leaderboard {
	return &Leaderboard{rankings: rankings, users: users, totals: totals}
}

// Page returns one page of a category leaderboard. Pages are 1-based;
// out-of-range sizes clamp to the configured bounds.
func (l *Leaderboard) Page(ctx context.Context, category models.RankingCategory, seasonID *int64, page, pageSize int) (*LeaderboardPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = config.DefaultPageSize
	}
	if pageSize > config.MaxPageSize {
		pageSize = config.MaxPageSize
	}

	total, err := l.countEntries(ctx, category, seasonID)
	if err != nil {
		return nil, err
	}

	entries, err := l.rankings.GetPage(ctx, category, seasonID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}

	rows, err := l.rowsFor(ctx, entries)
	if err != nil {
		return nil, err
	}
	return &LeaderboardPage{
		Category: category,
		Rows:     rows,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}

// FindUser fuzzy-matches a username against a category leaderboard and
// returns the best-matching rows, most relevant first.
func (l *Leaderboard) FindUser(ctx context.Context, category models.RankingCategory, seasonID *int64, query string, limit int) ([]*LeaderboardRow, error) {
	entries, err := l.rankings.GetAll(ctx, category, seasonID)
	if err != nil {
		return nil, err
	}
	rows, err := l.rowsFor(ctx, entries)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.Username
	}

	matches := fuzzy.Find(query, names)
	if limit <= 0 || limit > len(matches) {
		limit = len(matches)
	}

	found := make([]*LeaderboardRow, 0, limit)
	for _, m := range matches[:limit] {
		found = append(found, rows[m.Index])
	}
	return found, nil
}

func (l *Leaderboard) countEntries(ctx context.Context, category models.RankingCategory, seasonID *int64) (int, error) {
	key := totalsCacheKey(category, seasonID)
	if l.totals != nil {
		if v, ok := l.totals.Get(key); ok {
			return v.(int), nil
		}
	}

	total, err := l.rankings.CountEntries(ctx, category, seasonID)
	if err != nil {
		return 0, err
	}
	if l.totals != nil {
		l.totals.SetWithTTL(key, total, config.TotalsCacheExpiration)
	}
	return total, nil
}

func totalsCacheKey(category models.RankingCategory, seasonID *int64) string {
	if seasonID == nil {
		return fmt.Sprintf("totals:%s", category)
	}
	return fmt.Sprintf("totals:%s:%d", category, *seasonID)
}

func (l *Leaderboard) rowsFor(ctx context.Context, entries []*models.RankingEntry) ([]*LeaderboardRow, error) {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.UserID
	}
	names, err := l.users.GetUsernames(ctx, ids)
	if err != nil {
		return nil, err
	}

	rows := make([]*LeaderboardRow, len(entries))
	for i, e := range entries {
		rows[i] = &LeaderboardRow{
			Position: e.Position,
			UserID:   e.UserID,
			Username: names[e.UserID],
			Value:    e.Value,
		}
	}
	return rows, nil
}
