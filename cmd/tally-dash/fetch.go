package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"tally/pkg/config"
	"tally/pkg/report"
)

// fetchTimeout is how long to wait for a daemon API round-trip.
const fetchTimeout = 5 * time.Second

// daemonStatus mirrors the daemon's control status response.
type daemonStatus struct {
	Running bool        `json:"running"`
	Paused  bool        `json:"paused"`
	Current *sessionRow `json:"current,omitempty"`
}

// sessionRow is one session from the recent log or the open session.
type sessionRow struct {
	StartTS         int64  `json:"start_ts"`
	EndTS           int64  `json:"end_ts"`
	App             string `json:"app"`
	Title           string `json:"title"`
	State           string `json:"state"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// dashClient reads dashboard data from the daemon's local HTTP API.
type dashClient struct {
	base string
	hc   *http.Client
}

// newDashClient resolves the daemon address from config and env.
func newDashClient() (*dashClient, error) {
	path, err := config.DefaultPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return &dashClient{
		base: "http://" + cfg.ListenAddr,
		hc:   &http.Client{Timeout: fetchTimeout},
	}, nil
}

func (c *dashClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("daemon offline: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// overview fetches the report for the given period mode and grouping.
func (c *dashClient) overview(ctx context.Context, mode, groupBy string) (report.Overview, error) {
	q := url.Values{}
	q.Set("mode", mode)
	q.Set("group_by", groupBy)

	var o report.Overview
	if err := c.getJSON(ctx, "/api/overview?"+q.Encode(), &o); err != nil {
		return report.Overview{}, err
	}
	return o, nil
}

// status fetches the tracker control status. A nil result with nil error
// never happens; callers treat any error as the daemon being offline.
func (c *dashClient) status(ctx context.Context) (*daemonStatus, error) {
	var st daemonStatus
	if err := c.getJSON(ctx, "/api/control/status", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// recent fetches the newest sessions, most recent first.
func (c *dashClient) recent(ctx context.Context, limit int) ([]sessionRow, error) {
	var resp struct {
		Sessions []sessionRow `json:"sessions"`
	}
	path := fmt.Sprintf("/api/recent?limit=%d", limit)
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// togglePause flips the tracker pause state based on the last known
// status and returns the new status.
func (c *dashClient) togglePause(ctx context.Context, paused bool) (*daemonStatus, error) {
	path := "/api/control/pause"
	if paused {
		path = "/api/control/resume"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("daemon offline: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("POST %s: HTTP %d", path, resp.StatusCode)
	}
	var st daemonStatus
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &st, nil
}
