package storage

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// timeLayout is fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunWriter persists import runs to SQLite.
type RunWriter struct {
	db     *sql.DB
	ownsDB bool // true if we opened the connection, false if shared
}

// NewRunWriter opens (or creates) the database at dbPath, creates the schema
// if needed and returns a writer that owns the connection.
func NewRunWriter(dbPath string) (*RunWriter, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &RunWriter{db: db, ownsDB: true}, nil
}

// NewRunWriterWithDB creates a RunWriter using an existing database connection.
// The caller is responsible for the schema and for closing the connection.
func NewRunWriterWithDB(db *sql.DB) *RunWriter {
	return &RunWriter{db: db, ownsDB: false}
}

// Close closes the database connection if owned by this writer.
func (w *RunWriter) Close() error {
	if !w.ownsDB {
		return nil
	}
	if w.db != nil {
		return w.db.Close()
	}
	return nil
}

// WriteRun writes a complete run in a single transaction and returns its ID.
// A run ID is generated when data.Run.ID is empty.
func (w *RunWriter) WriteRun(data *RunData) (string, error) {
	if data == nil {
		return "", fmt.Errorf("run data cannot be nil")
	}

	run := data.Run
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := w.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	if err := w.writeRunRow(tx, run); err != nil {
		return "", err
	}
	if err := w.writeMethods(tx, run.ID, data.Methods); err != nil {
		return "", err
	}
	if err := w.writeEdges(tx, run.ID, data.Edges); err != nil {
		return "", err
	}
	if err := w.writeIccLinks(tx, run.ID, data.IccLinks); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return run.ID, nil
}

// DeleteRun removes a run and, through cascades, everything it wrote.
func (w *RunWriter) DeleteRun(runID string) error {
	_, err := sq.Delete("runs").
		Where(sq.Eq{"run_id": runID}).
		RunWith(w.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}
	return nil
}

func (w *RunWriter) writeRunRow(tx *sql.Tx, run Run) error {
	_, err := sq.Insert("runs").
		Columns("run_id", "json_file", "strategy", "created_at",
			"nodes_built", "nodes_skipped", "edges_queued", "edges_discarded",
			"sources_added", "sinks_added", "icc_links").
		Values(run.ID, run.JSONFile, run.Strategy, run.CreatedAt.UTC().Format(timeLayout),
			run.NodesBuilt, run.NodesSkipped, run.EdgesQueued, run.EdgesDiscarded,
			run.SourcesAdded, run.SinksAdded, run.IccLinks).
		RunWith(tx).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}
	return nil
}

func (w *RunWriter) writeMethods(tx *sql.Tx, runID string, methods []MethodRecord) error {
	for _, m := range methods {
		_, err := sq.Insert("methods").
			Columns("run_id", "signature", "class_name", "name", "modifiers",
				"is_static", "phantom", "stmt_count", "body").
			Values(runID, m.Signature, m.ClassName, m.Name, m.Modifiers,
				boolToInt(m.IsStatic), boolToInt(m.Phantom), m.StmtCount, m.Body).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to insert method %s: %w", m.Signature, err)
		}
	}
	return nil
}

func (w *RunWriter) writeEdges(tx *sql.Tx, runID string, edges []CallEdgeRecord) error {
	for _, e := range edges {
		id := e.ID
		if id == "" {
			id = uuid.New().String()
		}
		_, err := sq.Insert("call_edges").
			Columns("edge_id", "run_id", "src", "tgt", "kind", "stmt_index", "stmt").
			Values(id, runID, e.Src, e.Tgt, e.Kind, e.StmtIndex, e.Stmt).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to insert edge %s -> %s: %w", e.Src, e.Tgt, err)
		}
	}
	return nil
}

func (w *RunWriter) writeIccLinks(tx *sql.Tx, runID string, links []IccLinkRecord) error {
	for _, l := range links {
		id := l.ID
		if id == "" {
			id = uuid.New().String()
		}
		_, err := sq.Insert("icc_links").
			Columns("link_id", "run_id", "from_method", "stmt_index", "stmt", "to_class", "exit_kind").
			Values(id, runID, l.FromMethod, l.StmtIndex, l.Stmt, l.ToClass, l.ExitKind).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to insert icc link from %s: %w", l.FromMethod, err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
