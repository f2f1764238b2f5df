// Package game holds the pure round math: vote thresholds, performance
// windows, rating averages and actor rotation. Nothing here touches the
// wall clock or mutable state; callers pass in explicit times and counts.
package game

import (
	"math"
	"time"
)

// CutVoteThreshold returns the number of cut votes required to end a
// performance early. The ceiling guarantees a true majority (or configured
// supermajority) is never satisfied by fewer votes than intended: 3
// eligible voters at 50% require 2 votes, not 1.
func CutVoteThreshold(activeNonActorCount, thresholdPercent int) int {
	if activeNonActorCount <= 0 {
		return 0
	}
	return int(math.Ceil(float64(activeNonActorCount*thresholdPercent) / 100))
}

// HasReachedCutThreshold reports whether enough cut votes have been cast.
func HasReachedCutThreshold(cutVoteCount, activeNonActorCount int, cfg Config) bool {
	return cutVoteCount >= CutVoteThreshold(activeNonActorCount, cfg.CutVoteThresholdPercent)
}

// PerformanceWindow computes the earliest cut time and the forced end time
// for a performance starting at startedAt. Both are fixed facts of the
// round, computed once when the performance starts.
func PerformanceWindow(startedAt time.Time, cfg Config) (minCutoffAt, maxEndAt time.Time) {
	minCutoffAt = startedAt.Add(cfg.MinPerformanceDuration())
	maxEndAt = startedAt.Add(cfg.MaxPerformanceDuration())
	return minCutoffAt, maxEndAt
}

// CanCastCutVote reports whether a player may cast a cut vote right now.
// There is no upper bound check: reaching maxEndAt is handled by the state
// machine's forced transition, not by vote eligibility.
func CanCastCutVote(now, minCutoffAt time.Time, isActor, hasAlreadyVoted bool) bool {
	if isActor {
		return false
	}
	if hasAlreadyVoted {
		return false
	}
	if now.Before(minCutoffAt) {
		return false
	}
	return true
}

// AverageRating returns the arithmetic mean of the ratings rounded to two
// decimal places. An empty set scores 0; no ratings submitted is a valid
// outcome, not an error.
func AverageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return math.Round(float64(sum)/float64(len(ratings))*100) / 100
}

// NextActorIndex rotates the actor cursor by fixed seating order. Inactive
// players are skipped at the call site, not here.
func NextActorIndex(currentIndex, totalPlayers int) int {
	if totalPlayers <= 0 {
		return 0
	}
	return (currentIndex + 1) % totalPlayers
}
