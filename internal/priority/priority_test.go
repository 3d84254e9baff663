package priority

import (
	"encoding/json"
	"testing"

	"github.com/vipul43/canvas-todoist-sync/internal/duedate"
)

func dueIn(today duedate.Date, days int) *duedate.Date {
	d := today.AddDays(days)
	return &d
}

func exampleConfig() BucketConfig {
	return BucketConfig{Buckets: [4]Bucket{
		{Enabled: true, To: 2, Priority: P1},
		{Enabled: true, To: 3, Priority: P2},
		{Enabled: true, To: 4, Priority: P3},
		{Enabled: true, Priority: P4},
	}}
}

func TestClassifyBucket(t *testing.T) {
	today := duedate.New(2026, 10, 19)
	cfg := exampleConfig()

	tests := []struct {
		name string
		due  *duedate.Date
		want BucketID
	}{
		{"no due date", nil, B4},
		{"overdue", dueIn(today, -3), B1},
		{"due today", dueIn(today, 0), B1},
		{"two days out", dueIn(today, 2), B1},
		{"three days out", dueIn(today, 3), B2},
		{"four days out", dueIn(today, 4), B3},
		{"five days out", dueIn(today, 5), B4},
		{"six days clamps to five plus", dueIn(today, 6), B4},
		{"far future", dueIn(today, 90), B4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyBucket(tt.due, today, cfg); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestClassifyBucket_OverdueIgnoresThresholds(t *testing.T) {
	today := duedate.New(2026, 10, 19)
	configs := []BucketConfig{
		exampleConfig(),
		{Buckets: [4]Bucket{{To: 5}, {To: 5}, {To: 5}, {To: 5}}},
		{Buckets: [4]Bucket{{To: 1}, {To: 1}, {To: 1}, {To: 1}}},
		{Buckets: [4]Bucket{{To: -4}, {To: 99}, {To: 0}, {To: 0}}},
	}

	for _, cfg := range configs {
		for d := -10; d <= 0; d++ {
			if got := ClassifyBucket(dueIn(today, d), today, cfg); got != B1 {
				t.Errorf("offset %d with %+v: expected B1, got %s", d, cfg, got)
			}
		}
	}
}

func TestClassifyBucket_DisabledBucketKeepsItsRange(t *testing.T) {
	today := duedate.New(2026, 10, 19)
	cfg := exampleConfig()
	cfg.Buckets[B2].Enabled = false

	if got := ClassifyBucket(dueIn(today, 3), today, cfg); got != B2 {
		t.Errorf("expected B2, got %s", got)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   [4]int
		want [4]int
	}{
		{"already ordered", [4]int{1, 2, 4, 5}, [4]int{1, 2, 4, 5}},
		{"clamps low and high", [4]int{0, 9, 3, 1}, [4]int{1, 5, 5, 5}},
		{"pushes later thresholds up", [4]int{4, 2, 1, 2}, [4]int{4, 4, 4, 5}},
		{"negative values", [4]int{-1, -2, -3, -4}, [4]int{1, 1, 1, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg BucketConfig
			for i, to := range tt.in {
				cfg.Buckets[i] = Bucket{To: to, Priority: P2}
			}
			n := cfg.Normalize()
			for i := range n.Buckets {
				if n.Buckets[i].To != tt.want[i] {
					t.Errorf("bucket %d: expected %d, got %d", i, tt.want[i], n.Buckets[i].To)
				}
			}
		})
	}
}

func TestNormalize_OrderingHoldsForAllInputs(t *testing.T) {
	for a := -1; a <= 7; a++ {
		for b := -1; b <= 7; b++ {
			for c := -1; c <= 7; c++ {
				cfg := BucketConfig{Buckets: [4]Bucket{{To: a}, {To: b}, {To: c}, {To: 2}}}
				n := cfg.Normalize()
				t1, t2, t3 := n.Buckets[B1].To, n.Buckets[B2].To, n.Buckets[B3].To
				if !(t1 <= t2 && t2 <= t3) {
					t.Fatalf("(%d,%d,%d) normalized to (%d,%d,%d)", a, b, c, t1, t2, t3)
				}
				if n.Buckets[B4].To != FivePlus {
					t.Fatalf("B4 threshold %d, expected %d", n.Buckets[B4].To, FivePlus)
				}
			}
		}
	}
}

func TestNormalize_FixesInvalidPriority(t *testing.T) {
	cfg := exampleConfig()
	cfg.Buckets[B3].Priority = 0
	if got := cfg.Normalize().Buckets[B3].Priority; got != P3 {
		t.Errorf("expected default P3, got %s", got)
	}
}

func TestResolvePriority(t *testing.T) {
	tests := []struct {
		name    string
		enabled [4]bool
		bucket  BucketID
		want    Level
	}{
		{"all enabled", [4]bool{true, true, true, true}, B3, P3},
		{"escalates toward B1", [4]bool{true, false, false, true}, B3, P1},
		{"nearest more urgent wins", [4]bool{true, true, false, true}, B3, P2},
		{"falls back toward B4", [4]bool{false, true, true, true}, B1, P2},
		{"B4 disabled borrows B3", [4]bool{true, true, true, false}, B4, P3},
		{"only B4 enabled", [4]bool{false, false, false, true}, B2, P4},
		{"all disabled", [4]bool{false, false, false, false}, B2, FallbackLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultBucketConfig()
			for i, on := range tt.enabled {
				cfg.Buckets[i].Enabled = on
			}
			if got := ResolvePriority(tt.bucket, cfg); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestResolvePriority_DisabledB1BorrowsB2(t *testing.T) {
	cfg := exampleConfig()
	cfg.Buckets[B1].Enabled = false
	cfg.Buckets[B2].Priority = P3

	if got := ResolvePriority(B1, cfg); got != P3 {
		t.Errorf("expected P3, got %s", got)
	}
}

func TestResolvePriority_NeverUsesDisabledBucket(t *testing.T) {
	levels := [4]Level{P1, P2, P3, P4}
	for mask := 1; mask < 16; mask++ {
		cfg := DefaultBucketConfig()
		for i := range cfg.Buckets {
			cfg.Buckets[i].Enabled = mask&(1<<i) != 0
		}
		for b := B1; b <= B4; b++ {
			got := ResolvePriority(b, cfg)
			idx := int(got) - 1
			if levels[idx] != got || !cfg.Buckets[idx].Enabled {
				t.Errorf("mask %04b bucket %s: resolved to disabled bucket priority %s", mask, b, got)
			}
		}
	}
}

func TestFor_UndatedIsB4(t *testing.T) {
	today := duedate.New(2026, 10, 19)
	bucket, level := For(nil, today, DefaultBucketConfig())
	if bucket != B4 || level != P4 {
		t.Errorf("expected B4/P4, got %s/%s", bucket, level)
	}
}

func TestLevel_APIValue(t *testing.T) {
	tests := []struct {
		level Level
		want  int
	}{
		{P1, 4},
		{P2, 3},
		{P3, 2},
		{P4, 1},
		{Level(0), FallbackLevel.APIValue()},
	}

	for _, tt := range tests {
		if got := tt.level.APIValue(); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.level, tt.want, got)
		}
		if tt.level.Valid() && LevelFromAPI(tt.want) != tt.level {
			t.Errorf("LevelFromAPI(%d) did not round trip to %s", tt.want, tt.level)
		}
	}
}

func TestBucketConfig_JSON(t *testing.T) {
	raw := `{"buckets":[{"enabled":false,"to":2,"priority":1},{"enabled":true,"to":3,"priority":3},{"enabled":true,"to":4,"priority":3},{"enabled":true,"to":5,"priority":4}]}`
	var cfg BucketConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if cfg.Buckets[B1].Enabled || cfg.Buckets[B2].Priority != P3 || cfg.Buckets[B3].To != 4 {
		t.Errorf("unexpected config %+v", cfg)
	}
}
