package matching

import (
	"fmt"
	"math"
)

// WeightRow weights the sub-scores of one compatibility computation.
type WeightRow struct {
	Intention  float64 `yaml:"intention"`
	Activities float64 `yaml:"activities"`
	Age        float64 `yaml:"age"`
	Survey     float64 `yaml:"survey"`
	Location   float64 `yaml:"location"`
	Time       float64 `yaml:"time"`
}

func (r WeightRow) sum() float64 {
	return r.Intention + r.Activities + r.Age + r.Survey + r.Location + r.Time
}

// BucketWeights holds one row per waiting-day bucket.
type BucketWeights struct {
	Fresh WeightRow `yaml:"fresh"` // waited at most 1 day
	Warm  WeightRow `yaml:"warm"`  // 2-3 days
	Stale WeightRow `yaml:"stale"` // 4 days or more
}

func (b BucketWeights) row(waitingDays int) WeightRow {
	switch {
	case waitingDays <= 1:
		return b.Fresh
	case waitingDays <= 3:
		return b.Warm
	default:
		return b.Stale
	}
}

// Weights is the full weight table, one set of buckets per mode.
type Weights struct {
	Romantic   BucketWeights `yaml:"romantic"`
	Friendship BucketWeights `yaml:"friendship"`
}

// DefaultWeights returns the built-in weight table.
func DefaultWeights() Weights {
	return Weights{
		Romantic: BucketWeights{
			Fresh: WeightRow{Intention: 0.25, Activities: 0.15, Age: 0.20, Survey: 0.15, Location: 0.15, Time: 0.10},
			Warm:  WeightRow{Intention: 0.22, Activities: 0.15, Age: 0.18, Survey: 0.15, Location: 0.15, Time: 0.15},
			Stale: WeightRow{Intention: 0.20, Activities: 0.15, Age: 0.15, Survey: 0.15, Location: 0.15, Time: 0.20},
		},
		Friendship: BucketWeights{
			Fresh: WeightRow{Intention: 0.20, Activities: 0.30, Age: 0.10, Survey: 0.10, Location: 0.15, Time: 0.15},
			Warm:  WeightRow{Intention: 0.18, Activities: 0.28, Age: 0.08, Survey: 0.12, Location: 0.15, Time: 0.19},
			Stale: WeightRow{Intention: 0.15, Activities: 0.25, Age: 0.05, Survey: 0.15, Location: 0.20, Time: 0.20},
		},
	}
}

// Validate checks every row is non-negative and sums to 1.
func (w Weights) Validate() error {
	rows := []struct {
		name string
		row  WeightRow
	}{
		{"romantic.fresh", w.Romantic.Fresh},
		{"romantic.warm", w.Romantic.Warm},
		{"romantic.stale", w.Romantic.Stale},
		{"friendship.fresh", w.Friendship.Fresh},
		{"friendship.warm", w.Friendship.Warm},
		{"friendship.stale", w.Friendship.Stale},
	}
	for _, r := range rows {
		for _, v := range []float64{r.row.Intention, r.row.Activities, r.row.Age, r.row.Survey, r.row.Location, r.row.Time} {
			if v < 0 || math.IsNaN(v) {
				return fmt.Errorf("weights %s: negative or NaN weight", r.name)
			}
		}
		if s := r.row.sum(); math.Abs(s-1) > 0.001 {
			return fmt.Errorf("weights %s: sum is %.3f, want 1", r.name, s)
		}
	}
	return nil
}
