package game

import "time"

// Config holds the round lifecycle tunables. Immutable after load.
type Config struct {
	MinPerformanceDurationSec int `yaml:"min_performance_duration_sec"`
	MaxPerformanceDurationSec int `yaml:"max_performance_duration_sec"`
	CutVoteThresholdPercent   int `yaml:"cut_vote_threshold_percent"`
	RatingDeadlineSec         int `yaml:"rating_deadline_sec"`
	RoomGracePeriodSec        int `yaml:"room_grace_period_sec"`
}

// DefaultConfig returns the stock game tunables.
func DefaultConfig() Config {
	return Config{
		MinPerformanceDurationSec: 30,
		MaxPerformanceDurationSec: 90,
		CutVoteThresholdPercent:   50,
		RatingDeadlineSec:         60,
		RoomGracePeriodSec:        300,
	}
}

// MinPerformanceDuration returns the minimum performance duration.
func (c Config) MinPerformanceDuration() time.Duration {
	return time.Duration(c.MinPerformanceDurationSec) * time.Second
}

// MaxPerformanceDuration returns the maximum performance duration.
func (c Config) MaxPerformanceDuration() time.Duration {
	return time.Duration(c.MaxPerformanceDurationSec) * time.Second
}

// RatingDeadline returns how long the rating phase stays open before
// unrated players are excluded and the round closes.
func (c Config) RatingDeadline() time.Duration {
	return time.Duration(c.RatingDeadlineSec) * time.Second
}

// RoomGracePeriod returns how long an empty room survives before the
// registry archives it.
func (c Config) RoomGracePeriod() time.Duration {
	return time.Duration(c.RoomGracePeriodSec) * time.Second
}
