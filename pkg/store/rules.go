package store

import (
	"context"
	"fmt"
	"time"

	"tally/pkg/privacy"
	"tally/pkg/protocol"
)

// ListRules returns all privacy rules, newest first.
func (s *Store) ListRules(ctx context.Context) ([]protocol.PrivacyRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, scope, match_mode, pattern, enabled, updated_ts
		 FROM privacy_rules
		 ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []protocol.PrivacyRule
	for rows.Next() {
		var r protocol.PrivacyRule
		var scope, mode string
		var enabled int
		if err := rows.Scan(&r.ID, &scope, &mode, &r.Pattern, &enabled, &r.UpdatedTS); err != nil {
			return nil, fmt.Errorf("rule scan: %w", err)
		}
		r.Scope = protocol.RuleScope(scope)
		r.MatchMode = protocol.MatchMode(mode)
		r.Enabled = enabled != 0
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rule rows: %w", err)
	}
	return out, nil
}

// CreateRule validates and stores a new privacy rule. Regex patterns that
// fail to compile are rejected here and never stored.
func (s *Store) CreateRule(ctx context.Context, r protocol.PrivacyRule) (protocol.PrivacyRule, error) {
	if err := privacy.Compile(r); err != nil {
		return protocol.PrivacyRule{}, err
	}

	r.UpdatedTS = time.Now().Unix()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO privacy_rules (scope, match_mode, pattern, enabled, updated_ts)
		 VALUES (?, ?, ?, ?, ?)`,
		string(r.Scope), string(r.MatchMode), r.Pattern, boolToInt(r.Enabled), r.UpdatedTS,
	)
	if err != nil {
		return protocol.PrivacyRule{}, fmt.Errorf("create rule: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return protocol.PrivacyRule{}, fmt.Errorf("create rule id: %w", err)
	}
	r.ID = id
	return r, nil
}

// SetRuleEnabled toggles a rule. Returns whether the rule exists.
func (s *Store) SetRuleEnabled(ctx context.Context, id int64, enabled bool) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE privacy_rules SET enabled = ?, updated_ts = ? WHERE id = ?`,
		boolToInt(enabled), time.Now().Unix(), id,
	)
	if err != nil {
		return false, fmt.Errorf("set rule enabled: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set rule enabled rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteRule removes a rule. Returns whether it existed.
func (s *Store) DeleteRule(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM privacy_rules WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete rule rows affected: %w", err)
	}
	return n > 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
