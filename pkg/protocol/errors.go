package protocol

import "fmt"

// RuleValidationError reports a privacy rule rejected at creation time.
// Bad rules are never stored; pattern compilation happens up front, not at
// sample evaluation time.
type RuleValidationError struct {
	Field  string
	Reason string
}

func (e *RuleValidationError) Error() string {
	return fmt.Sprintf("invalid privacy rule: %s: %s", e.Field, e.Reason)
}

// BundleValidationError reports a malformed backup bundle. Restore is
// all-or-nothing: a single bad entry rejects the whole bundle with no
// partial writes.
type BundleValidationError struct {
	Section string
	Index   int
	Reason  string
}

func (e *BundleValidationError) Error() string {
	return fmt.Sprintf("invalid bundle: %s[%d]: %s", e.Section, e.Index, e.Reason)
}

// RangeError reports invalid report period parameters. It is raised before
// any store access and maps to a client input error at the HTTP surface.
type RangeError struct {
	Param  string
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range parameter %s: %s", e.Param, e.Reason)
}
