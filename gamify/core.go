package gamify

import (
	"github.com/openpack/gamify/gamify/achievements"
	"github.com/openpack/gamify/gamify/cache"
	"github.com/openpack/gamify/gamify/database"
	"github.com/openpack/gamify/gamify/database/repositories"
	"github.com/openpack/gamify/gamify/integrity"
	"github.com/openpack/gamify/gamify/rankings"
	"github.com/openpack/gamify/gamify/tasks"
)

// Core bundles every wired service. Embedding applications (the bot,
// an HTTP surface, admin tooling) reach the engine through it instead
// of rebuilding the graph themselves.
type Core struct {
	Config  Config
	Version string
	Commit  string

	DB    *database.DB
	Cache *cache.TTLCache

	UserRepository        repositories.UserRepository
	StatsRepository       repositories.StatsRepository
	AchievementRepository repositories.AchievementRepository
	ActivityRepository    repositories.ActivityRepository
	RankingRepository     repositories.RankingRepository
	AuditRepository       repositories.AuditRepository

	Catalog      *achievements.Catalog
	Achievements *achievements.Service
	Calculator   *rankings.Calculator
	Global       *rankings.Global
	Leaderboard  *rankings.Leaderboard
	Guard        *integrity.Guard
	Queue        *tasks.Queue
}

func New(cfg Config, version, commit string) *Core {
	return &Core{
		Config:  cfg,
		Version: version,
		Commit:  commit,
	}
}
