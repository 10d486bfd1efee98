package protocol

// Bundle is the versioned backup format: the full session log, category
// mapping, and privacy rule set at export time. Bundles contain
// already-redacted values and bypass the privacy filter on restore.
type Bundle struct {
	SchemaVersion int               `json:"schema_version"`
	BundleID      string            `json:"bundle_id"`
	ExportedAtTS  int64             `json:"exported_at_ts"`
	Sessions      []BundleSession   `json:"sessions"`
	Categories    []CategoryMapping `json:"categories"`
	PrivacyRules  []BundleRule      `json:"privacy_rules"`
}

// BundleSession is a session row in a backup bundle. IDs are not carried;
// restore assigns new ones.
type BundleSession struct {
	StartTS          int64  `json:"start_ts"`
	EndTS            int64  `json:"end_ts"`
	App              string `json:"app"`
	Title            string `json:"title"`
	State            string `json:"state"`
	EffectiveSeconds int64  `json:"effective_seconds"`
	PassiveSeconds   int64  `json:"passive_seconds"`
}

// BundleRule is a privacy rule in a backup bundle.
type BundleRule struct {
	Scope     string `json:"scope"`
	MatchMode string `json:"match_mode"`
	Pattern   string `json:"pattern"`
	Enabled   bool   `json:"enabled"`
}

// Validate checks bundle structure and enum values. It does not touch the
// store; callers reject the whole bundle on the first error.
func (b *Bundle) Validate() error {
	if b.SchemaVersion != BundleSchemaVersion {
		return &BundleValidationError{Section: "bundle", Index: 0,
			Reason: "unsupported schema_version"}
	}
	for i, s := range b.Sessions {
		if s.StartTS <= 0 {
			return &BundleValidationError{Section: "sessions", Index: i,
				Reason: "start_ts must be positive"}
		}
		if s.EndTS < s.StartTS {
			return &BundleValidationError{Section: "sessions", Index: i,
				Reason: "end_ts precedes start_ts"}
		}
		if s.App == "" {
			return &BundleValidationError{Section: "sessions", Index: i,
				Reason: "app must not be empty"}
		}
		if _, err := ParseEngagementState(s.State); err != nil {
			return &BundleValidationError{Section: "sessions", Index: i,
				Reason: err.Error()}
		}
		if s.EffectiveSeconds < 0 || s.PassiveSeconds < 0 {
			return &BundleValidationError{Section: "sessions", Index: i,
				Reason: "negative second counts"}
		}
	}
	for i, c := range b.Categories {
		if c.App == "" {
			return &BundleValidationError{Section: "categories", Index: i,
				Reason: "app must not be empty"}
		}
		if c.Category == "" {
			return &BundleValidationError{Section: "categories", Index: i,
				Reason: "category must not be empty"}
		}
	}
	for i, r := range b.PrivacyRules {
		if _, err := ParseRuleScope(r.Scope); err != nil {
			return &BundleValidationError{Section: "privacy_rules", Index: i,
				Reason: err.Error()}
		}
		if _, err := ParseMatchMode(r.MatchMode); err != nil {
			return &BundleValidationError{Section: "privacy_rules", Index: i,
				Reason: err.Error()}
		}
		if r.Pattern == "" {
			return &BundleValidationError{Section: "privacy_rules", Index: i,
				Reason: "pattern must not be empty"}
		}
	}
	return nil
}
