// Package stitcher maintains the single open session per tracker instance
// and turns classified samples into persisted session rows. It is driven by
// the sampling loop only; concurrent readers get a copy of the open session
// through Snapshot.
package stitcher

import (
	"context"
	"fmt"
	"sync"

	"tally/pkg/classifier"
	"tally/pkg/protocol"
)

// Sink persists session rows. The open row is extended with a single atomic
// update so readers never observe a half-applied extension.
type Sink interface {
	InsertSession(ctx context.Context, s protocol.Session) (int64, error)
	ExtendSession(ctx context.Context, id int64, endTS, effectiveDelta, passiveDelta int64) error
}

// Stitcher stitches classified samples into sessions. Exactly one session is
// open at a time; it is closed when the (state, app, title) identity changes,
// when a suspension is detected, or when tracking pauses.
type Stitcher struct {
	sink Sink

	mu   sync.Mutex
	open *protocol.Session
}

// New creates a Stitcher writing to sink.
func New(sink Sink) *Stitcher {
	return &Stitcher{sink: sink}
}

// Ingest feeds one post-redaction sample with its classification. Store
// failures leave the in-memory open session untouched so the next tick can
// retry from a consistent state.
func (st *Stitcher) Ingest(ctx context.Context, sample protocol.RawSample, res classifier.Result) error {
	if res.State == protocol.StateSuspended {
		return st.ingestSuspension(ctx, sample, res)
	}

	st.mu.Lock()
	open := st.open
	st.mu.Unlock()

	if open == nil {
		return st.openSession(ctx, sample.Timestamp, sample, res.State)
	}

	if sameIdentity(open, sample, res.State) {
		return st.extendOpen(ctx, open, sample.Timestamp, res.EffectiveDelta, res.PassiveDelta)
	}

	// Identity changed: the elapsed interval still belongs to the old
	// session, so its end moves up to the boundary before it closes.
	// Active deltas only ever accumulate on active sessions.
	eff, pass := res.EffectiveDelta, res.PassiveDelta
	if open.State != protocol.StateActive {
		eff, pass = 0, 0
	}
	if err := st.extendOpen(ctx, open, sample.Timestamp, eff, pass); err != nil {
		return err
	}
	st.closeOpen()
	return st.openSession(ctx, sample.Timestamp, sample, res.State)
}

// ingestSuspension closes any open session as-is, records one session
// covering exactly the sleep gap, and starts a fresh session in the state
// the machine woke up in.
func (st *Stitcher) ingestSuspension(ctx context.Context, sample protocol.RawSample, res classifier.Result) error {
	st.mu.Lock()
	open := st.open
	st.mu.Unlock()

	gapStart := sample.Timestamp - sample.GapSeconds
	app, title := sample.AppName, sample.WindowTitle
	if open != nil {
		// The last-known-good timestamp is where the open session stopped
		// being extended; the sleep interval starts there.
		gapStart = open.EndTS
		app, title = open.App, open.Title
		st.closeOpen()
	}
	if gapStart > sample.Timestamp {
		gapStart = sample.Timestamp
	}

	gap := protocol.Session{
		StartTS: gapStart,
		EndTS:   sample.Timestamp,
		App:     app,
		Title:   title,
		State:   protocol.StateSuspended,
	}
	if _, err := st.sink.InsertSession(ctx, gap); err != nil {
		return fmt.Errorf("insert suspension session: %w", err)
	}

	return st.openSession(ctx, sample.Timestamp, sample, res.Resume)
}

// Flush closes the open session, if any. The row is already persisted up to
// its last extension; this only forgets the in-memory handle. Used on pause
// and shutdown.
func (st *Stitcher) Flush() {
	st.closeOpen()
}

// Snapshot returns a copy of the open session for report queries that want
// to include in-flight activity.
func (st *Stitcher) Snapshot() (protocol.Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.open == nil {
		return protocol.Session{}, false
	}
	return *st.open, true
}

func (st *Stitcher) openSession(ctx context.Context, ts int64, sample protocol.RawSample, state protocol.EngagementState) error {
	s := protocol.Session{
		StartTS: ts,
		EndTS:   ts,
		App:     sample.AppName,
		Title:   sample.WindowTitle,
		State:   state,
	}
	id, err := st.sink.InsertSession(ctx, s)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	s.ID = id

	st.mu.Lock()
	st.open = &s
	st.mu.Unlock()
	return nil
}

func (st *Stitcher) extendOpen(ctx context.Context, open *protocol.Session, endTS, eff, pass int64) error {
	if endTS < open.EndTS {
		endTS = open.EndTS
	}
	if err := st.sink.ExtendSession(ctx, open.ID, endTS, eff, pass); err != nil {
		return fmt.Errorf("extend session %d: %w", open.ID, err)
	}

	st.mu.Lock()
	if st.open != nil && st.open.ID == open.ID {
		st.open.EndTS = endTS
		st.open.EffectiveSeconds += eff
		st.open.PassiveSeconds += pass
	}
	st.mu.Unlock()
	return nil
}

func (st *Stitcher) closeOpen() {
	st.mu.Lock()
	st.open = nil
	st.mu.Unlock()
}

// sameIdentity reports whether the sample continues the open session.
// Title changes split only active sessions; AFK and suspension runs keep
// the identity they started with.
func sameIdentity(open *protocol.Session, sample protocol.RawSample, state protocol.EngagementState) bool {
	if open.State != state {
		return false
	}
	if open.App != sample.AppName {
		return false
	}
	if state == protocol.StateActive && open.Title != sample.WindowTitle {
		return false
	}
	return true
}
