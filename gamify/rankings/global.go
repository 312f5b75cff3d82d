package rankings

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/openpack/gamify/gamify/cache"
	"github.com/openpack/gamify/gamify/database/models"
	"github.com/openpack/gamify/gamify/database/repositories"
)

const globalBoardPrefix = "global:board"

func globalBoardKey(seasonID *int64) string {
	if seasonID == nil {
		return globalBoardPrefix
	}
	return fmt.Sprintf("%s:%d", globalBoardPrefix, *seasonID)
}

// GlobalScore is one row of the weighted global leaderboard.
type GlobalScore struct {
	UserID     string
	Username   string
	Position   int
	Score      float64
	Percentage float64

	// CategoryPositions holds the per-category positions that fed the
	// score; zero means unranked in that category.
	CategoryPositions map[models.RankingCategory]int
}

// Global derives the weighted leaderboard from the per-category
// snapshots. A user's category score is (total − position + 1) / total,
// so first place scores 1.0 and last place just above zero; a category
// the user is absent from contributes zero but keeps its full weight
// in the denominator. The derived board is cached wholesale.
type Global struct {
	rankings repositories.RankingRepository
	users    repositories.UserRepository
	cache    *cache.TTLCache
	ttl      time.Duration
}

func NewGlobal(rankings repositories.RankingRepository, users repositories.UserRepository, c *cache.TTLCache, ttl time.Duration) *Global {
	return &Global{rankings: rankings, users: users, cache: c, ttl: ttl}
}

// Board returns the full global leaderboard, best score first. Each
// season caches under its own key so a season query never reads the
// all-time board.
func (g *Global) Board(ctx context.Context, seasonID *int64) ([]*GlobalScore, error) {
	key := globalBoardKey(seasonID)
	if v, ok := g.cache.Get(key); ok {
		return v.([]*GlobalScore), nil
	}

	board, err := g.compute(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	g.cache.SetWithTTL(key, board, g.ttl)
	return board, nil
}

// UserScore returns one user's global row, or nil when the user holds
// no position in any category.
func (g *Global) UserScore(ctx context.Context, userID string, seasonID *int64) (*GlobalScore, error) {
	board, err := g.Board(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	for _, row := range board {
		if row.UserID == userID {
			return row, nil
		}
	}
	return nil, nil
}

// Invalidate drops every cached board, all seasons included, so the
// next read recomputes from the snapshots.
func (g *Global) Invalidate() {
	g.cache.InvalidatePrefix(globalBoardPrefix)
}

func (g *Global) compute(ctx context.Context, seasonID *int64) ([]*GlobalScore, error) {
	type categorySnapshot struct {
		positions map[string]int
		total     int
	}

	snapshots := make(map[models.RankingCategory]categorySnapshot, len(Weights))
	userIDs := make(map[string]bool)
	for category := range Weights {
		entries, err := g.rankings.GetAll(ctx, category, seasonID)
		if err != nil {
			return nil, err
		}
		positions := make(map[string]int, len(entries))
		for _, e := range entries {
			positions[e.UserID] = e.Position
			userIDs[e.UserID] = true
		}
		snapshots[category] = categorySnapshot{positions: positions, total: len(entries)}
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	weightSum := WeightSum()
	board := make([]*GlobalScore, 0, len(userIDs))
	for userID := range userIDs {
		row := &GlobalScore{
			UserID:            userID,
			CategoryPositions: make(map[models.RankingCategory]int, len(Weights)),
		}

		var weighted float64
		for category, weight := range Weights {
			snap := snapshots[category]
			pos, ranked := snap.positions[userID]
			row.CategoryPositions[category] = pos
			if !ranked || snap.total == 0 {
				continue
			}
			weighted += weight * float64(snap.total-pos+1) / float64(snap.total)
		}
		row.Score = weighted / weightSum
		row.Percentage = row.Score * 100
		board = append(board, row)
	}

	sort.Slice(board, func(i, j int) bool {
		if board[i].Score != board[j].Score {
			return board[i].Score > board[j].Score
		}
		return board[i].UserID < board[j].UserID
	})
	for i, row := range board {
		row.Position = i + 1
	}

	if err := g.fillUsernames(ctx, board); err != nil {
		return nil, err
	}
	return board, nil
}

func (g *Global) fillUsernames(ctx context.Context, board []*GlobalScore) error {
	ids := make([]string, len(board))
	for i, row := range board {
		ids[i] = row.UserID
	}

	names, err := g.users.GetUsernames(ctx, ids)
	if err != nil {
		return err
	}
	for _, row := range board {
		row.Username = names[row.UserID]
	}
	return nil
}
