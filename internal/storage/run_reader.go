package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// ErrNoRuns is returned by LatestRun on an empty database.
var ErrNoRuns = errors.New("no import runs recorded")

// RunReader reads persisted import runs from SQLite.
type RunReader struct {
	db     *sql.DB
	ownsDB bool
}

// NewRunReader opens the database at dbPath read-only.
func NewRunReader(dbPath string) (*RunReader, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &RunReader{db: db, ownsDB: true}, nil
}

// NewRunReaderWithDB creates a RunReader using an existing database connection.
func NewRunReaderWithDB(db *sql.DB) *RunReader {
	return &RunReader{db: db, ownsDB: false}
}

// Close closes the database connection if owned by this reader.
func (r *RunReader) Close() error {
	if !r.ownsDB {
		return nil
	}
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

var runColumns = []string{
	"run_id", "json_file", "strategy", "created_at",
	"nodes_built", "nodes_skipped", "edges_queued", "edges_discarded",
	"sources_added", "sinks_added", "icc_links",
}

// ReadRuns returns every run, newest first.
func (r *RunReader) ReadRuns() ([]Run, error) {
	rows, err := sq.Select(runColumns...).
		From("runs").
		OrderBy("created_at DESC", "run_id").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// LatestRun returns the most recent run.
func (r *RunReader) LatestRun() (Run, error) {
	rows, err := sq.Select(runColumns...).
		From("runs").
		OrderBy("created_at DESC", "run_id").
		Limit(1).
		RunWith(r.db).
		Query()
	if err != nil {
		return Run{}, fmt.Errorf("failed to query latest run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Run{}, fmt.Errorf("error iterating runs: %w", err)
		}
		return Run{}, ErrNoRuns
	}
	return scanRun(rows)
}

func scanRun(rows *sql.Rows) (Run, error) {
	var run Run
	var createdAt string
	err := rows.Scan(&run.ID, &run.JSONFile, &run.Strategy, &createdAt,
		&run.NodesBuilt, &run.NodesSkipped, &run.EdgesQueued, &run.EdgesDiscarded,
		&run.SourcesAdded, &run.SinksAdded, &run.IccLinks)
	if err != nil {
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}
	run.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("failed to parse created_at for run %s: %w", run.ID, err)
	}
	return run, nil
}

// ReadMethods returns the methods a run synthesized, ordered by signature.
func (r *RunReader) ReadMethods(runID string) ([]MethodRecord, error) {
	rows, err := sq.Select("signature", "class_name", "name", "modifiers",
		"is_static", "phantom", "stmt_count", "body").
		From("methods").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("signature").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query methods: %w", err)
	}
	defer rows.Close()

	var methods []MethodRecord
	for rows.Next() {
		var m MethodRecord
		var isStatic, phantom int
		if err := rows.Scan(&m.Signature, &m.ClassName, &m.Name, &m.Modifiers,
			&isStatic, &phantom, &m.StmtCount, &m.Body); err != nil {
			return nil, fmt.Errorf("failed to scan method: %w", err)
		}
		m.IsStatic = isStatic == 1
		m.Phantom = phantom == 1
		methods = append(methods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating methods: %w", err)
	}
	return methods, nil
}

// EdgeFilter narrows ReadEdges. Empty fields match everything.
type EdgeFilter struct {
	Src string
	Tgt string
}

// ReadEdges returns a run's call edges ordered by caller, call site and callee.
func (r *RunReader) ReadEdges(runID string, filter EdgeFilter) ([]CallEdgeRecord, error) {
	where := sq.Eq{"run_id": runID}
	if filter.Src != "" {
		where["src"] = filter.Src
	}
	if filter.Tgt != "" {
		where["tgt"] = filter.Tgt
	}

	rows, err := sq.Select("edge_id", "src", "tgt", "kind", "stmt_index", "stmt").
		From("call_edges").
		Where(where).
		OrderBy("src", "stmt_index", "tgt", "kind").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query call edges: %w", err)
	}
	defer rows.Close()

	var edges []CallEdgeRecord
	for rows.Next() {
		var e CallEdgeRecord
		var stmtIndex sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Src, &e.Tgt, &e.Kind, &stmtIndex, &e.Stmt); err != nil {
			return nil, fmt.Errorf("failed to scan call edge: %w", err)
		}
		if stmtIndex.Valid {
			idx := int(stmtIndex.Int64)
			e.StmtIndex = &idx
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating call edges: %w", err)
	}
	return edges, nil
}

// ReadIccLinks returns a run's ICC links ordered by source method and statement.
func (r *RunReader) ReadIccLinks(runID string) ([]IccLinkRecord, error) {
	rows, err := sq.Select("link_id", "from_method", "stmt_index", "stmt", "to_class", "exit_kind").
		From("icc_links").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("from_method", "stmt_index", "to_class").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query icc links: %w", err)
	}
	defer rows.Close()

	var links []IccLinkRecord
	for rows.Next() {
		var l IccLinkRecord
		if err := rows.Scan(&l.ID, &l.FromMethod, &l.StmtIndex, &l.Stmt, &l.ToClass, &l.ExitKind); err != nil {
			return nil, fmt.Errorf("failed to scan icc link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating icc links: %w", err)
	}
	return links, nil
}
