package store

import (
	"context"
	"database/sql"
	"fmt"

	"tally/pkg/protocol"
)

const sessionColumns = "id, start_ts, end_ts, app, title, state, effective_seconds, passive_seconds"

// InsertSession appends a session row and returns its ID.
func (s *Store) InsertSession(ctx context.Context, sess protocol.Session) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (start_ts, end_ts, app, title, state, effective_seconds, passive_seconds)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.StartTS, sess.EndTS, sess.App, sess.Title, string(sess.State),
		sess.EffectiveSeconds, sess.PassiveSeconds,
	)
	if err != nil {
		return 0, fmt.Errorf("session insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("session last insert id: %w", err)
	}
	return id, nil
}

// ExtendSession moves the open session's end forward and accumulates active
// second counters in a single atomic update, so readers never see a
// half-applied extension.
func (s *Store) ExtendSession(ctx context.Context, id int64, endTS, effectiveDelta, passiveDelta int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions
		 SET end_ts = ?,
		     effective_seconds = effective_seconds + ?,
		     passive_seconds = passive_seconds + ?
		 WHERE id = ?`,
		endTS, effectiveDelta, passiveDelta, id,
	)
	if err != nil {
		return fmt.Errorf("session extend: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("session extend rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session extend: no session with id %d", id)
	}
	return nil
}

// Overlapping returns sessions intersecting [startTS, endTS), ordered by
// start. Zero-duration sessions inside the range are included; they
// contribute zero seconds but still appear in listings.
func (s *Store) Overlapping(ctx context.Context, startTS, endTS int64) ([]protocol.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions
		 WHERE (end_ts > ? AND start_ts < ?)
		    OR (start_ts = end_ts AND start_ts >= ? AND start_ts < ?)
		 ORDER BY start_ts ASC, id ASC`,
		startTS, endTS, startTS, endTS,
	)
	if err != nil {
		return nil, fmt.Errorf("overlapping sessions: %w", err)
	}
	return scanSessions(rows)
}

// Recent returns up to limit sessions ordered by most recent end.
func (s *Store) Recent(ctx context.Context, limit int) ([]protocol.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions
		 ORDER BY end_ts DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent sessions: %w", err)
	}
	return scanSessions(rows)
}

// AllSessions returns the full session log ordered by start. Used by backup
// export only.
func (s *Store) AllSessions(ctx context.Context) ([]protocol.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY start_ts ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("all sessions: %w", err)
	}
	return scanSessions(rows)
}

func scanSessions(rows *sql.Rows) ([]protocol.Session, error) {
	defer rows.Close()

	var out []protocol.Session
	for rows.Next() {
		var sess protocol.Session
		var state string
		if err := rows.Scan(
			&sess.ID, &sess.StartTS, &sess.EndTS, &sess.App, &sess.Title,
			&state, &sess.EffectiveSeconds, &sess.PassiveSeconds,
		); err != nil {
			return nil, fmt.Errorf("session scan: %w", err)
		}
		sess.State = protocol.EngagementState(state)
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session rows: %w", err)
	}
	return out, nil
}
