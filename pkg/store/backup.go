package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tally/pkg/privacy"
	"tally/pkg/protocol"

	"github.com/google/uuid"
)

// RestoreStats summarizes a completed restore.
type RestoreStats struct {
	Replace          bool `json:"replace"`
	InsertedSessions int  `json:"inserted_sessions"`
	SkippedSessions  int  `json:"skipped_sessions"`
	SavedCategories  int  `json:"saved_categories"`
	SavedRules       int  `json:"saved_rules"`
}

// Export produces a full-state backup bundle: every session, category
// mapping, and privacy rule. Values are exported as stored, i.e. already
// redacted.
func (s *Store) Export(ctx context.Context) (protocol.Bundle, error) {
	sessions, err := s.AllSessions(ctx)
	if err != nil {
		return protocol.Bundle{}, fmt.Errorf("export sessions: %w", err)
	}
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return protocol.Bundle{}, fmt.Errorf("export categories: %w", err)
	}
	rules, err := s.ListRules(ctx)
	if err != nil {
		return protocol.Bundle{}, fmt.Errorf("export rules: %w", err)
	}

	b := protocol.Bundle{
		SchemaVersion: protocol.BundleSchemaVersion,
		BundleID:      uuid.New().String(),
		ExportedAtTS:  time.Now().Unix(),
		Categories:    categories,
	}
	for _, sess := range sessions {
		b.Sessions = append(b.Sessions, protocol.BundleSession{
			StartTS:          sess.StartTS,
			EndTS:            sess.EndTS,
			App:              sess.App,
			Title:            sess.Title,
			State:            string(sess.State),
			EffectiveSeconds: sess.EffectiveSeconds,
			PassiveSeconds:   sess.PassiveSeconds,
		})
	}
	for _, r := range rules {
		b.PrivacyRules = append(b.PrivacyRules, protocol.BundleRule{
			Scope:     string(r.Scope),
			MatchMode: string(r.MatchMode),
			Pattern:   r.Pattern,
			Enabled:   r.Enabled,
		})
	}
	return b, nil
}

// Restore applies a bundle inside one transaction. The bundle is validated
// in full before any write; a malformed bundle aborts with no partial
// mutation. In replace mode all three tables are cleared first; in merge
// mode sessions are deduplicated on (start_ts, app, title, state) and
// categories/rules are upserted by natural key.
func (s *Store) Restore(ctx context.Context, b protocol.Bundle, replace bool) (RestoreStats, error) {
	stats := RestoreStats{Replace: replace}

	if err := b.Validate(); err != nil {
		return stats, err
	}
	// Rule patterns must compile before anything is written.
	for i, br := range b.PrivacyRules {
		r := protocol.PrivacyRule{
			Scope:     protocol.RuleScope(br.Scope),
			MatchMode: protocol.MatchMode(br.MatchMode),
			Pattern:   br.Pattern,
			Enabled:   br.Enabled,
		}
		if err := privacy.Compile(r); err != nil {
			return stats, &protocol.BundleValidationError{
				Section: "privacy_rules", Index: i, Reason: err.Error(),
			}
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("restore begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if replace {
		for _, table := range []string{"sessions", "categories", "privacy_rules"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return stats, fmt.Errorf("restore clear %s: %w", table, err)
			}
		}
	}

	now := time.Now().Unix()

	for _, bs := range b.Sessions {
		if !replace {
			var exists int
			err := tx.QueryRowContext(ctx,
				`SELECT 1 FROM sessions WHERE start_ts = ? AND app = ? AND title = ? AND state = ? LIMIT 1`,
				bs.StartTS, bs.App, bs.Title, bs.State,
			).Scan(&exists)
			switch {
			case err == nil:
				stats.SkippedSessions++
				continue
			case !errors.Is(err, sql.ErrNoRows):
				return stats, fmt.Errorf("restore session lookup: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (start_ts, end_ts, app, title, state, effective_seconds, passive_seconds)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			bs.StartTS, bs.EndTS, bs.App, bs.Title, bs.State,
			bs.EffectiveSeconds, bs.PassiveSeconds,
		); err != nil {
			return stats, fmt.Errorf("restore session: %w", err)
		}
		stats.InsertedSessions++
	}

	for _, c := range b.Categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (app, category, updated_ts) VALUES (?, ?, ?)
			 ON CONFLICT(app) DO UPDATE SET category = excluded.category, updated_ts = excluded.updated_ts`,
			c.App, c.Category, now,
		); err != nil {
			return stats, fmt.Errorf("restore category: %w", err)
		}
		stats.SavedCategories++
	}

	for _, br := range b.PrivacyRules {
		if !replace {
			// Natural key: (scope, match_mode, pattern).
			res, err := tx.ExecContext(ctx,
				`UPDATE privacy_rules SET enabled = ?, updated_ts = ?
				 WHERE scope = ? AND match_mode = ? AND pattern = ?`,
				boolToInt(br.Enabled), now, br.Scope, br.MatchMode, br.Pattern,
			)
			if err != nil {
				return stats, fmt.Errorf("restore rule update: %w", err)
			}
			if n, err := res.RowsAffected(); err == nil && n > 0 {
				stats.SavedRules++
				continue
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO privacy_rules (scope, match_mode, pattern, enabled, updated_ts)
			 VALUES (?, ?, ?, ?, ?)`,
			br.Scope, br.MatchMode, br.Pattern, boolToInt(br.Enabled), now,
		); err != nil {
			return stats, fmt.Errorf("restore rule: %w", err)
		}
		stats.SavedRules++
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("restore commit: %w", err)
	}
	return stats, nil
}
