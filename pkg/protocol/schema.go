package protocol

// SchemaDDL defines the SQLite schema for the tally store.
// Tables: sessions (append-mostly log, the open row is extended in place),
// categories (app -> category key-value), privacy_rules.
// Execute against a SQLite database with: db.Exec(SchemaDDL)
const SchemaDDL = `
-- Session log: one row per run of identical (state, app, title) samples.
-- end_ts is exclusive and grows while the session is open.
CREATE TABLE IF NOT EXISTS sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    start_ts INTEGER NOT NULL,
    end_ts INTEGER NOT NULL,
    app TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    state TEXT NOT NULL DEFAULT 'active',
    effective_seconds INTEGER NOT NULL DEFAULT 0,
    passive_seconds INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sessions_start_end ON sessions(start_ts, end_ts);
CREATE INDEX IF NOT EXISTS idx_sessions_app ON sessions(app);

-- App -> category mapping, maintained by explicit user action only.
CREATE TABLE IF NOT EXISTS categories (
    app TEXT PRIMARY KEY,
    category TEXT NOT NULL,
    updated_ts INTEGER NOT NULL DEFAULT 0
);

-- Privacy redaction rules, evaluated against samples before storage.
CREATE TABLE IF NOT EXISTS privacy_rules (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    scope TEXT NOT NULL,
    match_mode TEXT NOT NULL,
    pattern TEXT NOT NULL,
    enabled INTEGER NOT NULL DEFAULT 1,
    updated_ts INTEGER NOT NULL DEFAULT 0
);
`
