package store

import (
	"context"
	"fmt"
	"time"

	"tally/pkg/protocol"
)

// CategoryMap returns the full app -> category mapping. Report queries take
// this snapshot once at query start.
func (s *Store) CategoryMap(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT app, category FROM categories`)
	if err != nil {
		return nil, fmt.Errorf("category map: %w", err)
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var app, category string
		if err := rows.Scan(&app, &category); err != nil {
			return nil, fmt.Errorf("category scan: %w", err)
		}
		m[app] = category
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("category rows: %w", err)
	}
	return m, nil
}

// ListCategories returns all mappings ordered by app name.
func (s *Store) ListCategories(ctx context.Context) ([]protocol.CategoryMapping, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT app, category FROM categories ORDER BY app COLLATE NOCASE ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []protocol.CategoryMapping
	for rows.Next() {
		var m protocol.CategoryMapping
		if err := rows.Scan(&m.App, &m.Category); err != nil {
			return nil, fmt.Errorf("category scan: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("category rows: %w", err)
	}
	return out, nil
}

// SetCategory creates or updates the mapping for one app.
func (s *Store) SetCategory(ctx context.Context, app, category string) error {
	if app == "" {
		return fmt.Errorf("set category: app must not be empty")
	}
	if category == "" {
		return fmt.Errorf("set category: category must not be empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (app, category, updated_ts) VALUES (?, ?, ?)
		 ON CONFLICT(app) DO UPDATE SET category = excluded.category, updated_ts = excluded.updated_ts`,
		app, category, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("set category: %w", err)
	}
	return nil
}

// DeleteCategory removes an app's mapping, resetting it to the
// uncategorized default. Returns whether a mapping existed.
func (s *Store) DeleteCategory(ctx context.Context, app string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE app = ?`, app)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete category rows affected: %w", err)
	}
	return n > 0, nil
}
