// Package protocol defines the shared types, schema, and constants for the
// tally activity tracker: engagement states, session rows, privacy rules,
// category mappings, and the backup bundle format.
package protocol

import (
	"fmt"
	"strings"
)

// EngagementState classifies what the user was doing during a session.
type EngagementState string

// Engagement state constants.
const (
	// StateActive means the foreground window was in use (or at least on
	// screen) and the machine was awake.
	StateActive EngagementState = "active"
	// StateAfk means observed idle time exceeded the idle threshold.
	StateAfk EngagementState = "afk"
	// StateSuspended means the interval was inferred to be machine
	// sleep/hibernate from an abnormally large sample gap.
	StateSuspended EngagementState = "suspended"
)

// ParseEngagementState validates and normalizes a state string.
func ParseEngagementState(s string) (EngagementState, error) {
	switch EngagementState(strings.ToLower(strings.TrimSpace(s))) {
	case StateActive:
		return StateActive, nil
	case StateAfk:
		return StateAfk, nil
	case StateSuspended:
		return StateSuspended, nil
	}
	return "", fmt.Errorf("invalid engagement state %q", s)
}

// RawSample is one observation from the sampler. It is ephemeral and never
// stored; the stitcher turns runs of samples into sessions.
type RawSample struct {
	// Timestamp is the wall-clock second the sample was taken.
	Timestamp int64
	// AppName is the foreground application (post-redaction before storage).
	AppName string
	// WindowTitle is the foreground window title.
	WindowTitle string
	// IdleSeconds is the time since the last physical input.
	IdleSeconds int64
	// GapSeconds is the wall time elapsed since the previous sample was
	// taken. Zero for the first sample after start.
	GapSeconds int64
}

// Session is one persisted run of identical (state, app, title) samples.
// EndTS is exclusive and monotonically increasing while the session is open.
type Session struct {
	ID               int64           `json:"id"`
	StartTS          int64           `json:"start_ts"`
	EndTS            int64           `json:"end_ts"`
	App              string          `json:"app"`
	Title            string          `json:"title"`
	State            EngagementState `json:"state"`
	EffectiveSeconds int64           `json:"effective_seconds"`
	PassiveSeconds   int64           `json:"passive_seconds"`
}

// Duration returns the session length in seconds. Zero-length sessions are
// valid and represent near-instantaneous transitions.
func (s Session) Duration() int64 {
	if s.EndTS <= s.StartTS {
		return 0
	}
	return s.EndTS - s.StartTS
}

// Redacted reports whether the session's identity was replaced by the
// privacy placeholder.
func (s Session) Redacted() bool {
	return s.App == RedactedPlaceholder || s.Title == RedactedPlaceholder
}

// RuleScope selects which sample field a privacy rule tests.
type RuleScope string

// MatchMode selects how a privacy rule pattern is matched.
type MatchMode string

// Privacy rule scope and match mode constants.
const (
	ScopeApp   RuleScope = "app"
	ScopeTitle RuleScope = "title"

	MatchContains MatchMode = "contains"
	MatchExact    MatchMode = "exact"
	MatchRegex    MatchMode = "regex"
)

// ParseRuleScope validates and normalizes a scope string.
func ParseRuleScope(s string) (RuleScope, error) {
	switch RuleScope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeApp:
		return ScopeApp, nil
	case ScopeTitle:
		return ScopeTitle, nil
	}
	return "", fmt.Errorf("invalid rule scope %q", s)
}

// ParseMatchMode validates and normalizes a match mode string.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case MatchContains:
		return MatchContains, nil
	case MatchExact:
		return MatchExact, nil
	case MatchRegex:
		return MatchRegex, nil
	}
	return "", fmt.Errorf("invalid match mode %q", s)
}

// PrivacyRule redacts matching app names or window titles before storage.
// Rules apply only to samples observed after the rule exists; already-stored
// sessions are never rewritten.
type PrivacyRule struct {
	ID        int64     `json:"id"`
	Scope     RuleScope `json:"scope"`
	MatchMode MatchMode `json:"match_mode"`
	Pattern   string    `json:"pattern"`
	Enabled   bool      `json:"enabled"`
	UpdatedTS int64     `json:"updated_ts"`
}

// CategoryMapping assigns an app to a reporting category. Apps without a
// mapping fall back to UncategorizedLabel at query time.
type CategoryMapping struct {
	App      string `json:"app"`
	Category string `json:"category"`
}
