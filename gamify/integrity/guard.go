package integrity

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openpack/gamify/gamify/config"
	"github.com/openpack/gamify/gamify/database/models"
	"github.com/openpack/gamify/gamify/database/repositories"
)

// Status of a single user check or a whole sweep.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusCritical Status = "critical"
)

// Discrepancy is one counter that disagrees with its history table.
type Discrepancy struct {
	Field    string `json:"field"`
	Stored   int64  `json:"stored"`
	Expected int64  `json:"expected"`
}

// CheckResult is the outcome of reconciling one user.
type CheckResult struct {
	UserID        string
	Status        Status
	Discrepancies []Discrepancy
	Fixed         bool
}

// SweepResult summarizes a full reconciliation pass.
type SweepResult struct {
	Checked  int
	Drifted  int
	Fixed    int
	Failed   int
	Status   Status
	Duration time.Duration
}

// Guard reconciles the cached stats counters against the history
// tables. Counters are only ever raised to ground truth, never
// lowered: a counter above truth means producers wrote history we
// have not seen, which resolves itself, while a counter below truth
// means lost increments that the guard repairs.
type Guard struct {
	stats        repositories.StatsRepository
	activity     repositories.ActivityRepository
	achievements repositories.AchievementRepository
	users        repositories.UserRepository
	audit        repositories.AuditRepository

	fixLimit int
}

func NewGuard(
	stats repositories.StatsRepository,
	activity repositories.ActivityRepository,
	achievements repositories.AchievementRepository,
	users repositories.UserRepository,
	audit repositories.AuditRepository,
	fixLimit int,
) *Guard {
	if fixLimit <= 0 {
		fixLimit = config.SweepFixLimit
	}
	return &Guard{
		stats:        stats,
		activity:     activity,
		achievements: achievements,
		users:        users,
		audit:        audit,
		fixLimit:     fixLimit,
	}
}

// groundTruth recomputes the reconcilable counters from history.
type groundTruth struct {
	Packs   int64
	Items   int64
	TotalXP int64
	Level   int
}

func (g *Guard) groundTruth(ctx context.Context, userID string) (*groundTruth, error) {
	packs, err := g.activity.CountPackOpenings(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := g.activity.CountItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	xp, err := g.achievements.SumCompletedPoints(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &groundTruth{
		Packs:   packs,
		Items:   items,
		TotalXP: xp,
		Level:   models.LevelForXP(xp),
	}, nil
}

// CheckUser reports where a user's counters have fallen behind the
// history tables without changing anything.
func (g *Guard) CheckUser(ctx context.Context, userID string) (*CheckResult, error) {
	stats, err := g.stats.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	truth, err := g.groundTruth(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{UserID: userID, Status: StatusHealthy}
	check := func(field string, stored, expected int64) {
		if stored < expected {
			result.Discrepancies = append(result.Discrepancies, Discrepancy{
				Field:    field,
				Stored:   stored,
				Expected: expected,
			})
		}
	}
	check("total_packs_opened", stats.TotalPacksOpened, truth.Packs)
	check("total_items_collected", stats.TotalItemsCollected, truth.Items)
	check("total_xp", stats.TotalXP, truth.TotalXP)
	check("level", int64(stats.Level), int64(truth.Level))

	if len(result.Discrepancies) > 0 {
		result.Status = StatusDegraded
	}
	return result, nil
}

// FixUser reconciles a user's counters to ground truth and appends the
// before/after snapshots to the audit trail. Healthy users are left
// untouched.
func (g *Guard) FixUser(ctx context.Context, userID, source string) (*CheckResult, error) {
	result, err := g.CheckUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if result.Status == StatusHealthy {
		return result, nil
	}

	before, err := g.stats.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	truth, err := g.groundTruth(ctx, userID)
	if err != nil {
		return nil, err
	}

	fixErr := g.stats.OverwriteCounters(ctx, userID,
		max64(before.TotalPacksOpened, truth.Packs),
		max64(before.TotalItemsCollected, truth.Items),
		max64(before.TotalXP, truth.TotalXP),
		truth.Level)

	after, _ := g.stats.Get(ctx, userID)
	if auditErr := g.appendAudit(ctx, userID, "reconcile_counters", source, before, after, fixErr); auditErr != nil {
		slog.Error("Audit append failed",
			slog.String("type", "guard"),
			slog.String("user_id", userID),
			slog.String("error", auditErr.Error()))
	}
	if fixErr != nil {
		return nil, fixErr
	}

	result.Fixed = true
	slog.Warn("Stats counters reconciled",
		slog.String("type", "guard"),
		slog.String("user_id", userID),
		slog.String("source", source),
		slog.Int("discrepancies", len(result.Discrepancies)))
	return result, nil
}

// Sweep checks every user concurrently and auto-fixes drift up to the
// fix limit. Past the limit the sweep stops fixing and reports
// critical: widespread drift points at a producer bug that bulk
// rewrites would only mask. A failing check or fix for one user never
// stops the pass; failures are counted and escalate the status instead,
// with each fix attempt already recorded in the audit trail.
func (g *Guard) Sweep(ctx context.Context) (*SweepResult, error) {
	start := time.Now()
	userIDs, err := g.users.GetAllIDs(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	sweep := &SweepResult{Checked: len(userIDs), Status: StatusHealthy}

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(config.SweepWorkers)
	for _, userID := range userIDs {
		userID := userID
		grp.Go(func() error {
			check, err := g.CheckUser(gctx, userID)
			if err != nil {
				slog.Error("Sweep check failed",
					slog.String("type", "guard"),
					slog.String("user_id", userID),
					slog.String("error", err.Error()))
				mu.Lock()
				sweep.Failed++
				mu.Unlock()
				return nil
			}
			if check.Status == StatusHealthy {
				return nil
			}

			mu.Lock()
			sweep.Drifted++
			overLimit := sweep.Drifted > g.fixLimit
			mu.Unlock()

			if overLimit {
				return nil
			}
			if _, err := g.FixUser(gctx, userID, "sweep"); err != nil {
				slog.Error("Sweep fix failed",
					slog.String("type", "guard"),
					slog.String("user_id", userID),
					slog.String("error", err.Error()))
				mu.Lock()
				sweep.Failed++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			sweep.Fixed++
			mu.Unlock()
			return nil
		})
	}
	// Workers report failures through the result, never as errors.
	_ = grp.Wait()

	sweep.Duration = time.Since(start)
	switch {
	case sweep.Drifted > g.fixLimit || sweep.Failed > 0:
		sweep.Status = StatusCritical
		slog.Error("Integrity sweep needs attention",
			slog.String("type", "guard"),
			slog.Int("checked", sweep.Checked),
			slog.Int("drifted", sweep.Drifted),
			slog.Int("failed", sweep.Failed),
			slog.Int("fix_limit", g.fixLimit))
	case sweep.Drifted > 0:
		sweep.Status = StatusDegraded
		slog.Warn("Integrity sweep repaired drift",
			slog.String("type", "guard"),
			slog.Int("checked", sweep.Checked),
			slog.Int("drifted", sweep.Drifted),
			slog.Int("fixed", sweep.Fixed))
	default:
		slog.Info("Integrity sweep clean",
			slog.String("type", "guard"),
			slog.Int("checked", sweep.Checked),
			slog.Duration("took", sweep.Duration))
	}
	return sweep, nil
}

func (g *Guard) appendAudit(ctx context.Context, userID, operation, source string, before, after *models.UserStats, opErr error) error {
	beforeRaw, err := json.Marshal(before)
	if err != nil {
		return err
	}
	var afterRaw json.RawMessage
	if after != nil {
		if afterRaw, err = json.Marshal(after); err != nil {
			return err
		}
	}

	entry := &models.AuditLog{
		UserID:    userID,
		Operation: operation,
		Source:    source,
		Before:    beforeRaw,
		After:     afterRaw,
		Success:   opErr == nil,
	}
	if opErr != nil {
		entry.Error = opErr.Error()
	}
	return g.audit.Append(ctx, entry)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
