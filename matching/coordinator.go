package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"vibin_matcher/models"
)

// DefaultLockKey names the advisory lock serialising batch runs.
const DefaultLockKey = "batch_matching"

// ErrLockUnavailable is logged when another run holds the lock.
var ErrLockUnavailable = errors.New("batch lock held by another run")

// PoolReader supplies a snapshot of every pending pool entry.
type PoolReader interface {
	ReadPool(ctx context.Context) ([]models.PoolRecord, error)
}

// MatchWriter persists a match and removes the entries it consumes as one
// atomic operation.
type MatchWriter interface {
	CommitMatch(ctx context.Context, match models.Match) error
}

// LifecycleStore is what the tier sweep needs from the pool.
type LifecycleStore interface {
	ListPoolEntries(ctx context.Context) ([]models.PoolEntry, error)
	UpdateTier(ctx context.Context, entryID string, tier int) error
	DeleteEntry(ctx context.Context, entryID string) error
}

// PoolStore is the full store collaborator of a batch run.
type PoolStore interface {
	PoolReader
	MatchWriter
	LifecycleStore
}

// Locker is a non-blocking, non-reentrant named lock.
type Locker interface {
	TryAcquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// ReportSink receives the report of every completed run.
type ReportSink interface {
	SaveReport(ctx context.Context, report models.RunReport) error
}

// Coordinator runs one batch cycle at a time under the advisory lock.
type Coordinator struct {
	Store    PoolStore
	Locker   Locker
	Reports  ReportSink // optional
	Romantic *RomanticMatcher
	Groups   *GroupFormationEngine
	LockKey  string
	Clock    func() time.Time
	Log      logr.Logger
}

// NewCoordinator wires a coordinator with default matchers over weights.
func NewCoordinator(store PoolStore, locker Locker, weights Weights, log logr.Logger) *Coordinator {
	scorer := NewScorer(weights)
	return &Coordinator{
		Store:    store,
		Locker:   locker,
		Romantic: NewRomanticMatcher(scorer),
		Groups:   NewGroupFormationEngine(scorer),
		LockKey:  DefaultLockKey,
		Clock:    time.Now,
		Log:      log,
	}
}

// RunBatchCycle executes one cycle. It never returns an error: lock
// contention is a skipped success and every failure inside the cycle is
// reported in the result. The lock is released on every path that took it.
func (c *Coordinator) RunBatchCycle(ctx context.Context) models.RunResult {
	runID := uuid.NewString()
	log := c.Log.WithValues("runId", runID)
	started := c.Clock()
	result := models.RunResult{RunID: runID}

	acquired, err := c.Locker.TryAcquire(ctx, c.LockKey)
	if err != nil {
		log.Error(err, "failed to acquire batch lock", "lockKey", c.LockKey)
		result.Error = fmt.Sprintf("acquire lock: %v", err)
		return c.finish(result, started)
	}
	if !acquired {
		log.Info("batch run skipped", "reason", ErrLockUnavailable.Error(), "lockKey", c.LockKey)
		result.Success = true
		result.Skipped = true
		return c.finish(result, started)
	}
	defer func() {
		if err := c.Locker.Release(context.WithoutCancel(ctx), c.LockKey); err != nil {
			log.Error(err, "failed to release batch lock", "lockKey", c.LockKey)
		}
	}()

	report := &models.RunReport{RunID: runID, StartedAt: started}
	err = c.runGuarded(ctx, log, report)
	report.FinishedAt = c.Clock()
	result.Report = report
	if err != nil {
		log.Error(err, "batch run failed")
		result.Error = err.Error()
		return c.finish(result, started)
	}

	result.Success = true
	log.Info("batch run finished",
		"poolSize", report.PoolSize,
		"excluded", len(report.Excluded),
		"romanticMatches", report.RomanticMatches,
		"groupMatches", report.GroupMatches,
		"promoted", report.Promoted,
		"expired", report.Expired)

	if c.Reports != nil {
		if err := c.Reports.SaveReport(ctx, *report); err != nil {
			log.Error(err, "failed to archive run report")
		}
	}
	return c.finish(result, started)
}

func (c *Coordinator) finish(result models.RunResult, started time.Time) models.RunResult {
	result.DurationMs = c.Clock().Sub(started).Milliseconds()
	return result
}

// runGuarded is the body executed under the lock. A panic anywhere below is
// turned into an error.
func (c *Coordinator) runGuarded(ctx context.Context, log logr.Logger, report *models.RunReport) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal fault: %v", r)
		}
	}()

	now := c.Clock()

	records, err := c.Store.ReadPool(ctx)
	if err != nil {
		return fmt.Errorf("read pool: %w", err)
	}
	report.PoolSize = len(records)

	cands, excluded := BuildCandidates(records, now)
	for _, ex := range excluded {
		log.Info("pool entry excluded", "entryId", ex.EntryID, "reason", ex.Err.Error())
		report.Excluded = append(report.Excluded, ex.EntryID)
	}

	romantic, friendship := SplitByIntent(cands)
	report.RomanticPool = len(romantic)
	report.FriendshipPool = len(friendship)

	pairs := c.Romantic.Match(romantic, now)
	groups := c.Groups.Form(friendship, now)

	for _, p := range pairs {
		m := models.NewMatch(models.ConnectionRomantic, p.Members, p.Score, now)
		if err := c.Store.CommitMatch(ctx, m); err != nil {
			return fmt.Errorf("commit romantic match: %w", err)
		}
		report.RomanticMatches++
		report.MatchIDs = append(report.MatchIDs, m.MatchID)
	}
	for _, g := range groups {
		m := models.NewMatch(models.ConnectionFriends, g.Members, g.Score, now)
		if err := c.Store.CommitMatch(ctx, m); err != nil {
			return fmt.Errorf("commit group match: %w", err)
		}
		report.GroupMatches++
		if report.GroupSizes == nil {
			report.GroupSizes = make(map[int]int)
		}
		report.GroupSizes[m.GroupSize]++
		report.MatchIDs = append(report.MatchIDs, m.MatchID)
	}

	promoter := &TierPromoter{Store: c.Store, Log: log}
	report.Promoted, report.Expired, err = promoter.Sweep(ctx, now)
	if err != nil {
		return fmt.Errorf("tier sweep: %w", err)
	}
	return nil
}
