package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openpack/gamify/gamify"
	"github.com/openpack/gamify/gamify/achievements"
	"github.com/openpack/gamify/gamify/cache"
	"github.com/openpack/gamify/gamify/config"
	"github.com/openpack/gamify/gamify/database"
	"github.com/openpack/gamify/gamify/database/repositories"
	"github.com/openpack/gamify/gamify/integrity"
	"github.com/openpack/gamify/gamify/logger"
	"github.com/openpack/gamify/gamify/rankings"
	"github.com/openpack/gamify/gamify/scheduler"
	"github.com/openpack/gamify/gamify/tasks"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := gamify.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}

	customHandler := logger.NewHandler(cfg.Log.Level)
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting gamify core",
		slog.String("version", version),
		slog.String("commit", commit))

	loc, err := time.LoadLocation(cfg.Game.Timezone)
	if err != nil {
		slog.Error("Invalid reference timezone",
			slog.String("timezone", cfg.Game.Timezone),
			slog.Any("error", err))
		os.Exit(-1)
	}

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancelStartup()

	db, err := database.New(startupCtx, database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	})
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	defer db.Close()

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	if err := db.InitializeSchema(startupCtx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()))
		os.Exit(-1)
	}
	slog.Info("Database schema initialized successfully")

	core := gamify.New(*cfg, version, commit)
	core.DB = db

	core.UserRepository = repositories.NewUserRepository(db.BunDB())
	core.StatsRepository = repositories.NewStatsRepository(db.BunDB())
	core.AchievementRepository = repositories.NewAchievementRepository(db.BunDB())
	core.ActivityRepository = repositories.NewActivityRepository(db.BunDB())
	core.RankingRepository = repositories.NewRankingRepository(db.BunDB())
	core.AuditRepository = repositories.NewAuditRepository(db.BunDB())
	sourceRepo := repositories.NewRankingSourceRepository(db.BunDB())

	if err := achievements.SeedCatalog(startupCtx, core.AchievementRepository); err != nil {
		slog.Error("Failed to seed achievement catalog",
			slog.String("error", err.Error()))
		os.Exit(-1)
	}

	core.Catalog, err = achievements.LoadCatalog(startupCtx, core.AchievementRepository)
	if err != nil {
		slog.Error("Failed to load achievement catalog",
			slog.String("error", err.Error()))
		os.Exit(-1)
	}

	core.Cache, err = cache.NewTTL(config.CacheSize, config.CacheExpiration)
	if err != nil {
		slog.Error("Failed to create cache", slog.Any("error", err))
		os.Exit(-1)
	}

	core.Calculator = rankings.NewCalculator(core.StatsRepository, sourceRepo, core.RankingRepository,
		loc, nil, cfg.Game.RankingStaleness, cfg.Game.WeeklyActiveCutoff)
	core.Global = rankings.NewGlobal(core.RankingRepository, core.UserRepository, core.Cache, cfg.Game.GlobalCacheTTL)
	core.Leaderboard = rankings.NewLeaderboard(core.RankingRepository, core.UserRepository, core.Cache)
	core.Queue = tasks.NewQueue(core.Calculator, cfg.Game.RecomputeDelay)

	evaluator := achievements.NewEvaluator(core.StatsRepository, core.ActivityRepository, loc, nil)
	engine := achievements.NewEngine(core.Catalog, evaluator, core.AchievementRepository, core.Cache, core.Queue)
	tracker := achievements.NewTracker(core.UserRepository, core.StatsRepository, core.ActivityRepository, loc, nil)
	core.Achievements = achievements.NewService(tracker, engine)

	core.Guard = integrity.NewGuard(core.StatsRepository, core.ActivityRepository,
		core.AchievementRepository, core.UserRepository, core.AuditRepository, cfg.Game.SweepFixLimit)

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	go core.Queue.Run(runCtx)

	sched := scheduler.New(core.Calculator, core.Global, core.Guard)
	sweepSpec := fmt.Sprintf("@every %s", cfg.Game.SweepInterval)
	if err := sched.Start(runCtx, sweepSpec); err != nil {
		slog.Error("Failed to start scheduler", slog.Any("error", err))
		os.Exit(-1)
	}

	slog.Info("Gamify core is now running. Press CTRL-C to exit.",
		slog.Int("achievements", core.Catalog.Len()))

	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-s

	slog.Info("Shutting down...")
	sched.Stop()
	cancelRun()
	core.Queue.Wait()
}
