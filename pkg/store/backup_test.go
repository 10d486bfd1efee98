package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"tally/pkg/protocol"
	"tally/pkg/store"
)

func seedBackupFixture(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()

	mustOK := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	_, err := s.InsertSession(ctx, protocol.Session{
		StartTS: 100, EndTS: 200, App: "editor", Title: "notes.txt",
		State: protocol.StateActive, EffectiveSeconds: 90, PassiveSeconds: 10,
	})
	mustOK(err)
	_, err = s.InsertSession(ctx, protocol.Session{
		StartTS: 200, EndTS: 260, App: "editor",
		State: protocol.StateAfk,
	})
	mustOK(err)
	mustOK(s.SetCategory(ctx, "editor", "work"))
	_, err = s.CreateRule(ctx, protocol.PrivacyRule{
		Scope: protocol.ScopeTitle, MatchMode: protocol.MatchContains,
		Pattern: "secret", Enabled: true,
	})
	mustOK(err)
}

func TestBackupRoundTrip_Replace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := setupStore(t)
	seedBackupFixture(t, src)

	bundle, err := src.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if bundle.SchemaVersion != protocol.BundleSchemaVersion {
		t.Errorf("schema version = %d", bundle.SchemaVersion)
	}
	if bundle.BundleID == "" || bundle.ExportedAtTS == 0 {
		t.Error("bundle id and timestamp must be set")
	}

	dst := setupStore(t)
	// Pre-existing state must be wiped by replace.
	mustInsert(t, dst, activeSession(999, 1000, "stale", ""))

	stats, err := dst.Restore(ctx, bundle, true)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if stats.InsertedSessions != 2 || stats.SkippedSessions != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.SavedCategories != 1 || stats.SavedRules != 1 {
		t.Errorf("stats = %+v", stats)
	}

	reexport, err := dst.Export(ctx)
	if err != nil {
		t.Fatalf("re-export: %v", err)
	}
	if !reflect.DeepEqual(bundle.Sessions, reexport.Sessions) {
		t.Errorf("sessions differ after round trip:\n%+v\n%+v", bundle.Sessions, reexport.Sessions)
	}
	if !reflect.DeepEqual(bundle.Categories, reexport.Categories) {
		t.Errorf("categories differ: %+v vs %+v", bundle.Categories, reexport.Categories)
	}
	if !reflect.DeepEqual(bundle.PrivacyRules, reexport.PrivacyRules) {
		t.Errorf("rules differ: %+v vs %+v", bundle.PrivacyRules, reexport.PrivacyRules)
	}
}

func TestRestore_MergeDeduplicatesSessions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := setupStore(t)
	seedBackupFixture(t, src)
	bundle, err := src.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	dst := setupStore(t)
	// One of the bundle's sessions already exists in the target.
	mustInsert(t, dst, protocol.Session{
		StartTS: 100, EndTS: 200, App: "editor", Title: "notes.txt",
		State: protocol.StateActive, EffectiveSeconds: 90, PassiveSeconds: 10,
	})

	stats, err := dst.Restore(ctx, bundle, false)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if stats.InsertedSessions != 1 || stats.SkippedSessions != 1 {
		t.Errorf("stats = %+v, want 1 inserted 1 skipped", stats)
	}

	all, err := dst.AllSessions(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("sessions = %d, want 2", len(all))
	}
}

func TestRestore_MergeAbortsWhenDedupLookupFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "tally.db")
	s, db, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	// Break the dedup query so it errors rather than reporting no match.
	if _, err := db.ExecContext(ctx, `ALTER TABLE sessions RENAME COLUMN title TO title_gone`); err != nil {
		t.Fatalf("rename column: %v", err)
	}

	bundle := protocol.Bundle{
		SchemaVersion: protocol.BundleSchemaVersion,
		BundleID:      "test",
		ExportedAtTS:  1,
		Sessions: []protocol.BundleSession{
			{StartTS: 100, EndTS: 200, App: "editor", State: string(protocol.StateActive)},
		},
	}

	stats, err := s.Restore(ctx, bundle, false)
	if err == nil {
		t.Fatal("expected lookup failure to abort the restore")
	}
	if !strings.Contains(err.Error(), "session lookup") {
		t.Errorf("err = %v, want a session lookup failure", err)
	}
	if stats.InsertedSessions != 0 || stats.SkippedSessions != 0 {
		t.Errorf("stats = %+v, want no sessions counted", stats)
	}
}

func TestRestore_MergeUpsertsRulesByNaturalKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := setupStore(t)
	seedBackupFixture(t, src)
	bundle, err := src.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	dst := setupStore(t)
	// Same (scope, match_mode, pattern) but disabled; merge must flip it on
	// rather than duplicate.
	if _, err := dst.CreateRule(ctx, protocol.PrivacyRule{
		Scope: protocol.ScopeTitle, MatchMode: protocol.MatchContains,
		Pattern: "secret", Enabled: false,
	}); err != nil {
		t.Fatalf("seed rule: %v", err)
	}

	if _, err := dst.Restore(ctx, bundle, false); err != nil {
		t.Fatalf("restore: %v", err)
	}

	rules, err := dst.ListRules(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("rules = %d, want 1", len(rules))
	}
	if !rules[0].Enabled {
		t.Error("merged rule should be enabled")
	}
}

func TestRestore_MalformedBundleLeavesNoPartialWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dst := setupStore(t)

	bundle := protocol.Bundle{
		SchemaVersion: protocol.BundleSchemaVersion,
		BundleID:      "test",
		ExportedAtTS:  1,
		Sessions: []protocol.BundleSession{
			{StartTS: 100, EndTS: 200, App: "ok", State: string(protocol.StateActive)},
			{StartTS: 300, EndTS: 250, App: "bad", State: string(protocol.StateActive)},
		},
	}

	_, err := dst.Restore(ctx, bundle, false)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr *protocol.BundleValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected BundleValidationError, got %T", err)
	}

	all, err := dst.AllSessions(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("malformed bundle wrote %d sessions, want 0", len(all))
	}
}

func TestRestore_RejectsWrongSchemaVersion(t *testing.T) {
	t.Parallel()

	dst := setupStore(t)
	bundle := protocol.Bundle{
		SchemaVersion: protocol.BundleSchemaVersion + 1,
		BundleID:      "test",
		ExportedAtTS:  1,
	}
	if _, err := dst.Restore(context.Background(), bundle, true); err == nil {
		t.Fatal("expected schema version mismatch error")
	}
}

func TestRestore_RejectsUncompilableRulePattern(t *testing.T) {
	t.Parallel()

	dst := setupStore(t)
	bundle := protocol.Bundle{
		SchemaVersion: protocol.BundleSchemaVersion,
		BundleID:      "test",
		ExportedAtTS:  1,
		PrivacyRules: []protocol.BundleRule{
			{Scope: string(protocol.ScopeTitle), MatchMode: string(protocol.MatchRegex), Pattern: "a[", Enabled: true},
		},
	}
	_, err := dst.Restore(context.Background(), bundle, false)
	if err == nil {
		t.Fatal("expected rule compile failure")
	}

	rules, _ := dst.ListRules(context.Background())
	if len(rules) != 0 {
		t.Error("no rules should be stored")
	}
}
