package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SchemaVersion is written to metadata on creation.
const SchemaVersion = "1.0"

// CreateSchema creates all tables and indexes for persisted import runs.
// Uses a single transaction, so schema creation succeeds or fails as a whole.
//
// Schema includes:
//   - runs, methods, call_edges, icc_links (children cascade from runs)
//   - metadata key/value table with the schema version
//
// Safe to call on a database that already has the schema.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	tables := []struct {
		name string
		ddl  string
	}{
		{"runs", createRunsTable},
		{"methods", createMethodsTable},
		{"call_edges", createCallEdgesTable},
		{"icc_links", createIccLinksTable},
		{"metadata", createMetadataTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range getAllIndexes() {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	bootstrapSQL := `
		INSERT OR IGNORE INTO metadata (key, value, updated_at) VALUES
			('schema_version', ?, ?),
			('created_at', ?, ?)
	`
	if _, err := tx.Exec(bootstrapSQL, SchemaVersion, now, now, now); err != nil {
		return fmt.Errorf("failed to bootstrap metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// GetSchemaVersion retrieves the schema version from metadata.
// Returns "0" if the table doesn't exist (new database).
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil
	}

	var version string
	err = db.QueryRow("SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("schema_version key not found in metadata")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    json_file TEXT NOT NULL,
    strategy TEXT NOT NULL,
    created_at TEXT NOT NULL,                    -- ISO 8601
    nodes_built INTEGER NOT NULL DEFAULT 0,
    nodes_skipped INTEGER NOT NULL DEFAULT 0,
    edges_queued INTEGER NOT NULL DEFAULT 0,
    edges_discarded INTEGER NOT NULL DEFAULT 0,
    sources_added INTEGER NOT NULL DEFAULT 0,
    sinks_added INTEGER NOT NULL DEFAULT 0,
    icc_links INTEGER NOT NULL DEFAULT 0
)`

const createMethodsTable = `
CREATE TABLE IF NOT EXISTS methods (
    run_id TEXT NOT NULL,
    signature TEXT NOT NULL,
    class_name TEXT NOT NULL,
    name TEXT NOT NULL,
    modifiers INTEGER NOT NULL DEFAULT 0,
    is_static INTEGER NOT NULL DEFAULT 0,
    phantom INTEGER NOT NULL DEFAULT 0,
    stmt_count INTEGER NOT NULL DEFAULT 0,
    body TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (run_id, signature),
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
)`

const createCallEdgesTable = `
CREATE TABLE IF NOT EXISTS call_edges (
    edge_id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    src TEXT NOT NULL,
    tgt TEXT NOT NULL,
    kind TEXT NOT NULL,
    stmt_index INTEGER,                          -- NULL when the call site is not in the caller body
    stmt TEXT NOT NULL DEFAULT '',
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
)`

const createIccLinksTable = `
CREATE TABLE IF NOT EXISTS icc_links (
    link_id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    from_method TEXT NOT NULL,
    stmt_index INTEGER NOT NULL,
    stmt TEXT NOT NULL DEFAULT '',
    to_class TEXT NOT NULL,
    exit_kind TEXT NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
)`

const createMetadataTable = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`

func getAllIndexes() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_methods_class ON methods(run_id, class_name)",
		"CREATE INDEX IF NOT EXISTS idx_call_edges_src ON call_edges(run_id, src)",
		"CREATE INDEX IF NOT EXISTS idx_call_edges_tgt ON call_edges(run_id, tgt)",
		"CREATE INDEX IF NOT EXISTS idx_icc_links_from ON icc_links(run_id, from_method)",
	}
}
