package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"vibin_matcher/models"
)

const (
	tier1After = 24 * time.Hour
	tier2After = 48 * time.Hour
)

// TierFor derives the tier an entry should hold after waiting for age.
func TierFor(age time.Duration) int {
	switch {
	case age >= tier2After:
		return models.Tier2
	case age >= tier1After:
		return models.Tier1
	}
	return models.Tier0
}

// TierChange is a promotion to apply to one entry.
type TierChange struct {
	EntryID string
	From    int
	To      int
}

// LifecyclePlan is the outcome of a sweep before it is applied.
type LifecyclePlan struct {
	Promote []TierChange
	Expire  []string
}

// PlanLifecycle decides, for every entry, whether it expires, is promoted or
// stays. Tiers only ever move up.
func PlanLifecycle(entries []models.PoolEntry, now time.Time) LifecyclePlan {
	var plan LifecyclePlan
	for _, e := range entries {
		if e.Expired(now) {
			plan.Expire = append(plan.Expire, e.EntryID)
			continue
		}
		if to := TierFor(e.Age(now)); to > e.Tier {
			plan.Promote = append(plan.Promote, TierChange{EntryID: e.EntryID, From: e.Tier, To: to})
		}
	}
	return plan
}

// TierPromoter advances and expires the entries left in the pool after a
// matching pass.
type TierPromoter struct {
	Store LifecycleStore
	Log   logr.Logger
}

// Sweep reads the remaining pool, applies the lifecycle plan and returns
// how many entries were promoted and expired.
func (p *TierPromoter) Sweep(ctx context.Context, now time.Time) (promoted, expired int, err error) {
	entries, err := p.Store.ListPoolEntries(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list pool entries: %w", err)
	}

	plan := PlanLifecycle(entries, now)
	for _, id := range plan.Expire {
		if err := p.Store.DeleteEntry(ctx, id); err != nil {
			return promoted, expired, fmt.Errorf("failed to expire entry %s: %w", id, err)
		}
		expired++
		p.Log.V(1).Info("pool entry expired", "entryId", id)
	}
	for _, ch := range plan.Promote {
		if err := p.Store.UpdateTier(ctx, ch.EntryID, ch.To); err != nil {
			return promoted, expired, fmt.Errorf("failed to promote entry %s: %w", ch.EntryID, err)
		}
		promoted++
		p.Log.V(1).Info("pool entry promoted", "entryId", ch.EntryID, "from", ch.From, "to", ch.To)
	}
	return promoted, expired, nil
}
