package gamify

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	cfg := DefaultConfig()
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log  LogConfig  `toml:"log"`
	DB   DBConfig   `toml:"db"`
	Game GameConfig `toml:"game"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	PoolSize int    `toml:"pool_size"`
}

type GameConfig struct {
	// Timezone is the reference timezone for streaks and time-of-day
	// achievement conditions.
	Timezone string `toml:"timezone"`

	// RankingStaleness is how fresh a category snapshot must be before
	// a recompute request is skipped.
	RankingStaleness time.Duration `toml:"ranking_staleness"`

	// RecomputeDelay is how long the deferred worker waits before
	// rebuilding a category after an unlock.
	RecomputeDelay time.Duration `toml:"recompute_delay"`

	// GlobalCacheTTL bounds how stale the cached global leaderboard
	// may be.
	GlobalCacheTTL time.Duration `toml:"global_cache_ttl"`

	SweepInterval time.Duration `toml:"sweep_interval"`
	SweepFixLimit int           `toml:"sweep_fix_limit"`

	// WeeklyActiveCutoff excludes users inactive for longer than this
	// from the WEEKLY_ACTIVE category.
	WeeklyActiveCutoff time.Duration `toml:"weekly_active_cutoff"`
}

func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  slog.LevelInfo,
			Format: "text",
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     5432,
			PoolSize: 10,
		},
		Game: GameConfig{
			Timezone:           "America/Sao_Paulo",
			RankingStaleness:   5 * time.Minute,
			RecomputeDelay:     2 * time.Second,
			GlobalCacheTTL:     2 * time.Minute,
			SweepInterval:      30 * time.Minute,
			SweepFixLimit:      10,
			WeeklyActiveCutoff: 7 * 24 * time.Hour,
		},
	}
}
