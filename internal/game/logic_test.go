package game

import (
	"testing"
	"time"
)

func TestCutVoteThreshold(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		percent int
		want    int
	}{
		{"zero voters", 0, 50, 0},
		{"negative voters", -3, 50, 0},
		{"one voter majority", 1, 50, 1},
		{"two voters majority", 2, 50, 1},
		{"three voters majority", 3, 50, 2},
		{"four voters majority", 4, 50, 2},
		{"five voters majority", 5, 50, 3},
		{"supermajority", 3, 67, 3},
		{"full consensus", 4, 100, 4},
		{"low threshold", 10, 10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CutVoteThreshold(tt.count, tt.percent); got != tt.want {
				t.Errorf("CutVoteThreshold(%d, %d) = %d, want %d", tt.count, tt.percent, got, tt.want)
			}
		})
	}
}

func TestCutVoteThresholdIsSmallestSufficientInteger(t *testing.T) {
	for count := 1; count <= 20; count++ {
		for _, percent := range []int{10, 25, 50, 67, 75, 100} {
			got := CutVoteThreshold(count, percent)
			needed := float64(count*percent) / 100
			if float64(got) < needed {
				t.Fatalf("threshold %d below %d*%d%%", got, count, percent)
			}
			if float64(got-1) >= needed {
				t.Fatalf("threshold %d not minimal for %d voters at %d%%", got, count, percent)
			}
		}
	}
}

func TestHasReachedCutThreshold(t *testing.T) {
	cfg := DefaultConfig() // 50%

	if HasReachedCutThreshold(1, 3, cfg) {
		t.Error("1 of 3 voters should not reach a 50% threshold")
	}
	if !HasReachedCutThreshold(2, 3, cfg) {
		t.Error("2 of 3 voters should reach a 50% threshold")
	}

	// Monotonic in the vote count.
	reached := false
	for votes := 0; votes <= 5; votes++ {
		now := HasReachedCutThreshold(votes, 5, cfg)
		if reached && !now {
			t.Fatalf("threshold regressed at %d votes", votes)
		}
		reached = now
	}
	if !reached {
		t.Error("threshold never reached with all 5 votes in")
	}

	// No eligible voters means threshold 0, trivially reached.
	if !HasReachedCutThreshold(0, 0, cfg) {
		t.Error("empty voter pool should trivially satisfy the threshold")
	}
}

func TestPerformanceWindow(t *testing.T) {
	cfg := Config{MinPerformanceDurationSec: 30, MaxPerformanceDurationSec: 90}
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	minCutoff, maxEnd := PerformanceWindow(start, cfg)
	if want := start.Add(30 * time.Second); !minCutoff.Equal(want) {
		t.Errorf("minCutoffAt = %v, want %v", minCutoff, want)
	}
	if want := start.Add(90 * time.Second); !maxEnd.Equal(want) {
		t.Errorf("maxEndAt = %v, want %v", maxEnd, want)
	}

	// Exact to the millisecond regardless of the start's sub-second part.
	start = start.Add(123 * time.Millisecond)
	minCutoff, maxEnd = PerformanceWindow(start, cfg)
	if got := minCutoff.Sub(start); got != 30*time.Second {
		t.Errorf("min window = %v, want 30s", got)
	}
	if got := maxEnd.Sub(start); got != 90*time.Second {
		t.Errorf("max window = %v, want 90s", got)
	}
}

func TestCanCastCutVote(t *testing.T) {
	cutoff := time.Date(2025, 6, 1, 12, 0, 30, 0, time.UTC)
	before := cutoff.Add(-time.Second)
	after := cutoff.Add(time.Second)

	tests := []struct {
		name         string
		now          time.Time
		isActor      bool
		alreadyVoted bool
		want         bool
	}{
		{"eligible after cutoff", after, false, false, true},
		{"exactly at cutoff", cutoff, false, false, true},
		{"too early", before, false, false, false},
		{"actor may not vote", after, true, false, false},
		{"already voted", after, false, true, false},
		{"actor and already voted", after, true, true, false},
		{"early actor", before, true, false, false},
		{"early duplicate", before, false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanCastCutVote(tt.now, cutoff, tt.isActor, tt.alreadyVoted)
			if got != tt.want {
				t.Errorf("CanCastCutVote = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAverageRating(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    float64
	}{
		{"empty", nil, 0},
		{"single", []int{7}, 7},
		{"uniform", []int{5, 5, 5}, 5},
		{"rounds to two decimals", []int{3, 3, 4}, 3.33},
		{"rounds up", []int{3, 4, 3, 4, 4, 4}, 3.67},
		{"full spread", []int{1, 10}, 5.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AverageRating(tt.ratings); got != tt.want {
				t.Errorf("AverageRating(%v) = %v, want %v", tt.ratings, got, tt.want)
			}
		})
	}
}

func TestNextActorIndex(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		want    int
	}{
		{"advances", 0, 4, 1},
		{"wraps", 3, 4, 0},
		{"single player", 0, 1, 0},
		{"empty room", 0, 0, 0},
		{"negative total", 2, -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextActorIndex(tt.current, tt.total); got != tt.want {
				t.Errorf("NextActorIndex(%d, %d) = %d, want %d", tt.current, tt.total, got, tt.want)
			}
		})
	}
}
