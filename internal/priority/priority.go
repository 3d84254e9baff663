// Package priority maps due dates to urgency buckets and Todoist priorities.
package priority

import (
	"fmt"

	"github.com/vipul43/canvas-todoist-sync/internal/duedate"
)

// Level is the user-facing Todoist priority, P1 most urgent.
type Level int

const (
	P1 Level = 1
	P2 Level = 2
	P3 Level = 3
	P4 Level = 4
)

// FallbackLevel is used when every bucket is disabled.
const FallbackLevel = P3

// FivePlus is the threshold sentinel meaning "5 or more days".
const FivePlus = 5

func (l Level) Valid() bool {
	return l >= P1 && l <= P4
}

// APIValue converts to the Todoist REST value, where 4 is the most urgent.
func (l Level) APIValue() int {
	if !l.Valid() {
		return FallbackLevel.APIValue()
	}
	return 5 - int(l)
}

func (l Level) String() string {
	return fmt.Sprintf("P%d", int(l))
}

// LevelFromAPI is the inverse of APIValue.
func LevelFromAPI(v int) Level {
	if v < 1 || v > 4 {
		return FallbackLevel
	}
	return Level(5 - v)
}

// BucketID indexes the four buckets, B1 most urgent.
type BucketID int

const (
	B1 BucketID = iota
	B2
	B3
	B4
)

func (b BucketID) String() string {
	return fmt.Sprintf("B%d", int(b)+1)
}

type Bucket struct {
	Enabled  bool  `json:"enabled"`
	To       int   `json:"to"`
	Priority Level `json:"priority"`
}

// BucketConfig holds the buckets ordered most to least urgent.
type BucketConfig struct {
	Buckets [4]Bucket `json:"buckets"`
}

func DefaultBucketConfig() BucketConfig {
	return BucketConfig{Buckets: [4]Bucket{
		{Enabled: true, To: 1, Priority: P1},
		{Enabled: true, To: 2, Priority: P2},
		{Enabled: true, To: 4, Priority: P3},
		{Enabled: true, To: FivePlus, Priority: P4},
	}}
}

// Normalize clamps thresholds to [1, FivePlus], pushes later thresholds up so
// B1 <= B2 <= B3, and pins B4 at FivePlus. Invalid priorities fall back to the
// default for their bucket.
func (c BucketConfig) Normalize() BucketConfig {
	out := c
	defaults := DefaultBucketConfig()
	for i := range out.Buckets {
		out.Buckets[i].To = clamp(out.Buckets[i].To, 1, FivePlus)
		if i > 0 && out.Buckets[i].To < out.Buckets[i-1].To {
			out.Buckets[i].To = out.Buckets[i-1].To
		}
		if !out.Buckets[i].Priority.Valid() {
			out.Buckets[i].Priority = defaults.Buckets[i].Priority
		}
	}
	out.Buckets[B4].To = FivePlus
	return out
}

// ClassifyBucket places a due date relative to today. Enablement is ignored
// here; it only matters in ResolvePriority.
func ClassifyBucket(due *duedate.Date, today duedate.Date, cfg BucketConfig) BucketID {
	if due == nil {
		return B4
	}
	diff := today.DaysUntil(*due)
	if diff <= 0 {
		return B1
	}
	diff = clamp(diff, 1, FivePlus)

	n := cfg.Normalize()
	for _, id := range []BucketID{B1, B2, B3} {
		if diff <= n.Buckets[id].To {
			return id
		}
	}
	return B4
}

// ResolvePriority returns the priority of the nearest enabled bucket, looking
// first from bucket toward B1 and then toward B4.
func ResolvePriority(bucket BucketID, cfg BucketConfig) Level {
	if bucket < B1 || bucket > B4 {
		bucket = B4
	}
	n := cfg.Normalize()
	for i := bucket; i >= B1; i-- {
		if n.Buckets[i].Enabled {
			return n.Buckets[i].Priority
		}
	}
	for i := bucket + 1; i <= B4; i++ {
		if n.Buckets[i].Enabled {
			return n.Buckets[i].Priority
		}
	}
	return FallbackLevel
}

// For classifies and resolves in one step.
func For(due *duedate.Date, today duedate.Date, cfg BucketConfig) (BucketID, Level) {
	b := ClassifyBucket(due, today, cfg)
	return b, ResolvePriority(b, cfg)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
