package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"ex2code/pkg/binder"
	"ex2code/pkg/spec"
)

// ErrNotFound is returned when no artifact has the requested ID.
var ErrNotFound = errors.New("artifact not found")

// Artifact is a stored generation: the prompt, the model's completion and,
// once bound, the snapshot needed to rebind it.
type Artifact struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Prompt      string    `json:"prompt"`
	Completion  string    `json:"completion"`
	Snapshot    []byte    `json:"-"`
	State       string    `json:"state"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// InitDB opens the SQLite database at path and creates tables if they don't exist.
func InitDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("could not create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)

	if err = createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	const createTableSQL = `
	CREATE TABLE IF NOT EXISTS artifacts (
		id TEXT NOT NULL PRIMARY KEY,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		prompt TEXT,
		completion TEXT,
		snapshot BLOB,
		state TEXT NOT NULL,
		error TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS artifacts_name ON artifacts(name);`

	_, err := db.Exec(createTableSQL)
	return err
}

// Reset drops every stored artifact.
func Reset(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS artifacts`); err != nil {
		return fmt.Errorf("could not drop artifacts: %w", err)
	}
	return createTables(db)
}

// FromGeneration records the outcome of g, bound or failed.
func FromGeneration(g *spec.Generation) (*Artifact, error) {
	s := g.Spec()
	a := &Artifact{
		Kind:        string(s.Kind()),
		Name:        s.Name(),
		Description: s.Description(),
		Prompt:      g.Prompt(),
		Completion:  g.Completion(),
		State:       g.State().String(),
	}
	if err := g.Err(); err != nil {
		a.Error = err.Error()
	}
	if art := g.Artifact(); art != nil {
		snap, err := art.Snapshot().MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("could not encode snapshot: %w", err)
		}
		a.Snapshot = snap
	}
	return a, nil
}

// Restore rebinds a stored artifact.
func (a *Artifact) Restore(ctx context.Context, b *binder.Binder) (binder.Artifact, error) {
	if len(a.Snapshot) == 0 {
		return nil, fmt.Errorf("artifact %s (%s) was never bound", a.ID, a.Name)
	}
	var snap binder.Snapshot
	if err := snap.UnmarshalBinary(a.Snapshot); err != nil {
		return nil, fmt.Errorf("could not decode snapshot: %w", err)
	}
	return b.Restore(ctx, snap)
}

// SaveArtifact inserts or replaces a. A missing ID or creation time is filled in.
func SaveArtifact(ctx context.Context, db *sql.DB, a *Artifact) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO artifacts (id, kind, name, description, prompt, completion, snapshot, state, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind=excluded.kind,
			name=excluded.name,
			description=excluded.description,
			prompt=excluded.prompt,
			completion=excluded.completion,
			snapshot=excluded.snapshot,
			state=excluded.state,
			error=excluded.error;
	`, a.ID, a.Kind, a.Name, a.Description, a.Prompt, a.Completion, a.Snapshot, a.State, a.Error, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not save artifact %s: %w", a.Name, err)
	}
	return nil
}

const selectColumns = `SELECT id, kind, name, description, prompt, completion, snapshot, state, error, created_at FROM artifacts`

type scanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row scanner) (*Artifact, error) {
	var (
		a                                    Artifact
		description, prompt, completion, msg sql.NullString
	)
	err := row.Scan(&a.ID, &a.Kind, &a.Name, &description, &prompt, &completion, &a.Snapshot, &a.State, &msg, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.Description = description.String
	a.Prompt = prompt.String
	a.Completion = completion.String
	a.Error = msg.String
	return &a, nil
}

// GetArtifact returns the artifact with the given ID.
func GetArtifact(ctx context.Context, db *sql.DB, id string) (*Artifact, error) {
	a, err := scanArtifact(db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("could not get artifact %s: %w", id, err)
	}
	return a, nil
}

// ListOptions filters ListArtifacts. Zero values match everything.
type ListOptions struct {
	Kind  string
	Name  string
	Limit int
}

// ListArtifacts returns stored artifacts, newest first.
func ListArtifacts(ctx context.Context, db *sql.DB, opts ListOptions) ([]Artifact, error) {
	var (
		where []string
		args  []any
	)
	if opts.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, opts.Kind)
	}
	if opts.Name != "" {
		where = append(where, "name = ?")
		args = append(args, opts.Name)
	}
	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not list artifacts: %w", err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan artifact: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// DeleteArtifact removes the artifact with the given ID.
func DeleteArtifact(ctx context.Context, db *sql.DB, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM artifacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete artifact %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not delete artifact %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
