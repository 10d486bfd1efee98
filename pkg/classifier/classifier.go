// Package classifier turns raw samples into engagement states. Given one
// sample plus the elapsed gap since the previous one, it decides whether the
// interval was machine suspension, away-from-keyboard time, or active time,
// and how much of an active interval counts as effective vs passive.
package classifier

import "tally/pkg/protocol"

// Config holds the classification thresholds, all in seconds.
type Config struct {
	// IdleThreshold is the observed idle time at or above which the sample
	// is AFK.
	IdleThreshold int64
	// EffectiveIdleThreshold is the input recency window: active time with
	// idle below it is effective, otherwise passive.
	EffectiveIdleThreshold int64
	// SleepGap is the sample gap above which the whole elapsed interval is
	// treated as suspension. Checked before the idle rules so that a long
	// sleep is not misread as hours of AFK.
	SleepGap int64
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		IdleThreshold:          protocol.DefaultIdleThreshold,
		EffectiveIdleThreshold: protocol.DefaultEffectiveIdleThreshold,
		SleepGap:               protocol.DefaultSleepGap,
	}
}

// Result is the classification of one elapsed interval.
type Result struct {
	State protocol.EngagementState
	// EffectiveDelta and PassiveDelta attribute the elapsed interval when
	// State is active; both are zero otherwise.
	EffectiveDelta int64
	PassiveDelta   int64
	// Resume is the state the sample itself represents when State is
	// suspended: the interval was sleep, but the machine is awake now and
	// a fresh session begins in this state.
	Resume protocol.EngagementState
}

// Classify decides the engagement state for the interval covered by sample s.
// Decision order: sleep gap, then idle threshold, then active with the
// effective/passive split. First match wins.
func Classify(cfg Config, s protocol.RawSample) Result {
	if cfg.SleepGap > 0 && s.GapSeconds > cfg.SleepGap {
		return Result{
			State:  protocol.StateSuspended,
			Resume: instantState(cfg, s.IdleSeconds),
		}
	}
	return classifyAwake(cfg, s.IdleSeconds, s.GapSeconds)
}

// instantState classifies the sample itself, ignoring the elapsed gap.
func instantState(cfg Config, idleSeconds int64) protocol.EngagementState {
	if idleSeconds >= cfg.IdleThreshold {
		return protocol.StateAfk
	}
	return protocol.StateActive
}

func classifyAwake(cfg Config, idleSeconds, elapsed int64) Result {
	if elapsed < 0 {
		elapsed = 0
	}
	if idleSeconds >= cfg.IdleThreshold {
		return Result{State: protocol.StateAfk}
	}
	r := Result{State: protocol.StateActive}
	if idleSeconds < cfg.EffectiveIdleThreshold {
		r.EffectiveDelta = elapsed
	} else {
		r.PassiveDelta = elapsed
	}
	return r
}
