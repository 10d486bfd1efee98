// Package privacy implements the redaction layer. Enabled rules are compiled
// once and evaluated against every sample before it reaches the stitcher;
// a matched app or title is replaced by the redaction placeholder and the
// original value is never persisted.
package privacy

import (
	"regexp"
	"strings"
	"sync"

	"tally/pkg/protocol"
)

// compiledRule is a rule with its regex compiled up front. Contains and
// exact modes keep the raw pattern.
type compiledRule struct {
	rule  protocol.PrivacyRule
	regex *regexp.Regexp
}

// Compile validates a rule for creation. Regex patterns must compile here,
// not at evaluation time, so a bad rule is rejected before it is stored.
func Compile(rule protocol.PrivacyRule) error {
	if _, err := protocol.ParseRuleScope(string(rule.Scope)); err != nil {
		return &protocol.RuleValidationError{Field: "scope", Reason: err.Error()}
	}
	if _, err := protocol.ParseMatchMode(string(rule.MatchMode)); err != nil {
		return &protocol.RuleValidationError{Field: "match_mode", Reason: err.Error()}
	}
	if strings.TrimSpace(rule.Pattern) == "" {
		return &protocol.RuleValidationError{Field: "pattern", Reason: "must not be empty"}
	}
	if rule.MatchMode == protocol.MatchRegex {
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			return &protocol.RuleValidationError{Field: "pattern", Reason: err.Error()}
		}
	}
	return nil
}

// Filter evaluates the enabled rule set against samples. Update is called by
// the rule management surface; Apply runs on the sampling path, so the rule
// set is swapped under a lock rather than rebuilt per sample.
type Filter struct {
	mu       sync.RWMutex
	compiled []compiledRule
}

// New builds a filter from the given rules. Disabled rules and rules that
// fail to compile are skipped; they should have been rejected at creation.
func New(rules []protocol.PrivacyRule) *Filter {
	f := &Filter{}
	f.Update(rules)
	return f
}

// Update replaces the active rule set.
func (f *Filter) Update(rules []protocol.PrivacyRule) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if !r.Enabled || strings.TrimSpace(r.Pattern) == "" {
			continue
		}
		cr := compiledRule{rule: r}
		if r.MatchMode == protocol.MatchRegex {
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				continue
			}
			cr.regex = re
		}
		compiled = append(compiled, cr)
	}

	f.mu.Lock()
	f.compiled = compiled
	f.mu.Unlock()
}

// Apply redacts the sample's app and title fields. Scopes are evaluated
// independently: app rules test AppName, title rules test WindowTitle, and
// the first matching enabled rule per scope short-circuits.
func (f *Filter) Apply(s protocol.RawSample) protocol.RawSample {
	appHit, titleHit := f.match(s.AppName, s.WindowTitle)
	if appHit {
		s.AppName = protocol.RedactedPlaceholder
	}
	if titleHit {
		s.WindowTitle = protocol.RedactedPlaceholder
	}
	return s
}

// Matches reports whether any enabled rule hits either field.
func (f *Filter) Matches(app, title string) bool {
	appHit, titleHit := f.match(app, title)
	return appHit || titleHit
}

// EnabledCount returns the number of active compiled rules.
func (f *Filter) EnabledCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.compiled)
}

func (f *Filter) match(app, title string) (appHit, titleHit bool) {
	f.mu.RLock()
	compiled := f.compiled
	f.mu.RUnlock()

	for _, cr := range compiled {
		value := app
		if cr.rule.Scope == protocol.ScopeTitle {
			value = title
		}
		if value == "" {
			continue
		}
		switch cr.rule.Scope {
		case protocol.ScopeApp:
			if !appHit && cr.matches(value) {
				appHit = true
			}
		case protocol.ScopeTitle:
			if !titleHit && cr.matches(value) {
				titleHit = true
			}
		}
		if appHit && titleHit {
			break
		}
	}
	return appHit, titleHit
}

func (cr compiledRule) matches(value string) bool {
	switch cr.rule.MatchMode {
	case protocol.MatchContains:
		return strings.Contains(value, cr.rule.Pattern)
	case protocol.MatchExact:
		return value == cr.rule.Pattern
	case protocol.MatchRegex:
		return cr.regex != nil && cr.regex.MatchString(value)
	}
	return false
}
