// Package tracker runs the sampling pipeline: probe the foreground
// window, classify engagement, redact, and stitch into sessions. One
// Tracker owns one sequential sampling loop; it is the sole writer of
// session state.
package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tally/pkg/classifier"
	"tally/pkg/privacy"
	"tally/pkg/protocol"
	"tally/pkg/stitcher"
)

// Sampler probes the foreground window and idle time. Implementations
// must be bounded-time; an error means no sample this tick.
type Sampler interface {
	Sample(ctx context.Context) (protocol.RawSample, error)
}

// Status is the control-plane view of the tracker.
type Status struct {
	Running bool `json:"running"`
	Paused  bool `json:"paused"`
}

// Options configures a Tracker.
type Options struct {
	Sampler    Sampler
	Filter     *privacy.Filter
	Stitcher   *stitcher.Stitcher
	Classifier classifier.Config
	Interval   time.Duration
	Logger     *slog.Logger
}

// Tracker drives the classify, filter, stitch pipeline at a fixed
// cadence and owns the pause control.
type Tracker struct {
	sampler  Sampler
	filter   *privacy.Filter
	stitcher *stitcher.Stitcher
	control  *Control
	interval time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	cfg     classifier.Config
	lastTS  int64
	running bool
}

// New creates a Tracker. Zero-value Interval falls back to the default
// sampling cadence; a nil Logger falls back to slog.Default.
func New(opts Options) *Tracker {
	if opts.Interval <= 0 {
		opts.Interval = protocol.DefaultSampleInterval * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Tracker{
		sampler:  opts.Sampler,
		filter:   opts.Filter,
		stitcher: opts.Stitcher,
		control:  &Control{},
		interval: opts.Interval,
		log:      opts.Logger,
		cfg:      opts.Classifier,
	}
}

// Run samples until ctx is cancelled, then closes the open session.
func (t *Tracker) Run(ctx context.Context) error {
	t.setRunning(true)
	defer t.setRunning(false)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.log.Info("tracker started", "interval", t.interval.String())
	for {
		select {
		case <-ctx.Done():
			t.stitcher.Flush()
			t.log.Info("tracker stopped")
			return nil
		case now := <-ticker.C:
			t.Tick(ctx, now)
		}
	}
}

// Tick performs one sampling step. A sampler or store failure drops the
// tick; the open session simply is not extended and the next tick
// retries from consistent state.
func (t *Tracker) Tick(ctx context.Context, now time.Time) {
	if t.control.IsPaused() {
		return
	}

	sample, err := t.sampler.Sample(ctx)
	if err != nil {
		t.log.Debug("sample failed, tick dropped", "err", err)
		return
	}
	if sample.Timestamp == 0 {
		sample.Timestamp = now.Unix()
	}

	t.mu.Lock()
	cfg := t.cfg
	last := t.lastTS
	t.mu.Unlock()

	if last > 0 && sample.GapSeconds == 0 {
		sample.GapSeconds = sample.Timestamp - last
	}

	res := classifier.Classify(cfg, sample)
	sample = t.filter.Apply(sample)

	if err := t.stitcher.Ingest(ctx, sample, res); err != nil {
		t.log.Warn("session write failed, tick dropped", "err", err)
		return
	}

	t.mu.Lock()
	t.lastTS = sample.Timestamp
	t.mu.Unlock()
}

// Pause stops the pipeline and closes the open session as-is. Report
// queries stay available while paused. Returns whether the tracker was
// already paused.
func (t *Tracker) Pause() bool {
	prev := t.control.SetPaused(true)
	if !prev {
		t.stitcher.Flush()
		// Forget the gap baseline so the pause interval is not
		// misread as a suspension after resume.
		t.mu.Lock()
		t.lastTS = 0
		t.mu.Unlock()
		t.log.Info("tracking paused")
	}
	return prev
}

// Resume restarts the pipeline. Returns whether the tracker was paused.
func (t *Tracker) Resume() bool {
	prev := t.control.SetPaused(false)
	if prev {
		t.log.Info("tracking resumed")
	}
	return prev
}

// Paused reports the pause flag.
func (t *Tracker) Paused() bool { return t.control.IsPaused() }

// Status reports the control-plane state.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	running := t.running
	t.mu.Unlock()
	return Status{Running: running, Paused: t.control.IsPaused()}
}

// Snapshot returns a copy of the in-flight open session, if any.
func (t *Tracker) Snapshot() (protocol.Session, bool) {
	return t.stitcher.Snapshot()
}

// SetClassifierConfig swaps classifier thresholds. Takes effect on the
// next tick; used by config hot reload.
func (t *Tracker) SetClassifierConfig(cfg classifier.Config) {
	t.mu.Lock()
	t.cfg = cfg
	t.mu.Unlock()
}

func (t *Tracker) setRunning(v bool) {
	t.mu.Lock()
	t.running = v
	t.mu.Unlock()
}
