// Package store is the local-first state store backed by an embedded SQLite
// database (.hmp/local.db).
//
// All reads and writes work offline. Every mutating method classifies itself
// into a sync category and reports it through the OnMutate hook, which the
// sync engine wires to its change tracker; pull/merge replaces state through
// ReplaceSnapshot under the engine's receiving guard so those writes are not
// echoed back out as pushes.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/model"
)

// Store wraps the local SQLite connection.
type Store struct {
	conn *sql.DB
	path string

	// onMutate is invoked after every successful local write with the
	// category that owns the mutated records. Nil disables notification.
	onMutate func(model.Category)
}

// Open creates or opens the local database at path.
//
// The database uses WAL mode so background saves can read snapshots while
// the CLI writes. The caller must Close() when done.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{conn: conn, path: path}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return s, nil
}

// OpenMemory opens a throwaway in-memory store, used by tests.
func OpenMemory() (*Store, error) {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// A single connection keeps every statement on the same in-memory DB.
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.conn = nil
	return nil
}

// SetOnMutate installs the mutation hook. Pass nil to disable.
func (s *Store) SetOnMutate(fn func(model.Category)) {
	s.onMutate = fn
}

func (s *Store) notify(cat model.Category) {
	if s.onMutate != nil {
		s.onMutate(cat)
	}
}

// InitSchema creates the local schema. Idempotent.
func (s *Store) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		owner_id TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		file_name TEXT,
		taken_at TEXT,
		storage_path TEXT,
		inline_data TEXT
	);

	CREATE TABLE IF NOT EXISTS scenes (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		scene_number TEXT NOT NULL,
		title TEXT,
		time_of_day TEXT,
		int_ext TEXT,
		script_day TEXT,
		sort_order INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS characters (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		actor_name TEXT,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scene_characters (
		scene_id TEXT NOT NULL REFERENCES scenes(id) ON DELETE CASCADE,
		character_id TEXT NOT NULL,
		PRIMARY KEY (scene_id, character_id)
	);

	CREATE TABLE IF NOT EXISTS looks (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		character_id TEXT NOT NULL,
		name TEXT NOT NULL,
		notes TEXT,
		master_photo_id TEXT REFERENCES assets(id),
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS look_scenes (
		look_id TEXT NOT NULL REFERENCES looks(id) ON DELETE CASCADE,
		scene_number TEXT NOT NULL,
		PRIMARY KEY (look_id, scene_number)
	);

	CREATE TABLE IF NOT EXISTS captures (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		scene_id TEXT NOT NULL,
		character_id TEXT NOT NULL,
		notes TEXT,
		front_id TEXT REFERENCES assets(id),
		back_id TEXT REFERENCES assets(id),
		left_id TEXT REFERENCES assets(id),
		right_id TEXT REFERENCES assets(id),
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS capture_extras (
		capture_id TEXT NOT NULL REFERENCES captures(id) ON DELETE CASCADE,
		asset_id TEXT NOT NULL REFERENCES assets(id),
		position INTEGER NOT NULL,
		PRIMARY KEY (capture_id, asset_id)
	);

	CREATE TABLE IF NOT EXISTS schedule_entries (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		shoot_day INTEGER NOT NULL,
		shoot_date TEXT,
		document_id TEXT REFERENCES assets(id),
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS call_sheets (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		day_label TEXT NOT NULL,
		call_time TEXT,
		document_id TEXT REFERENCES assets(id),
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS script_documents (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		file_name TEXT NOT NULL,
		document_id TEXT REFERENCES assets(id),
		uploaded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scenes_project ON scenes(project_id);
	CREATE INDEX IF NOT EXISTS idx_characters_project ON characters(project_id);
	CREATE INDEX IF NOT EXISTS idx_looks_project ON looks(project_id);
	CREATE INDEX IF NOT EXISTS idx_captures_project ON captures(project_id);
	CREATE INDEX IF NOT EXISTS idx_schedule_project ON schedule_entries(project_id);
	CREATE INDEX IF NOT EXISTS idx_call_sheets_project ON call_sheets(project_id);
	CREATE INDEX IF NOT EXISTS idx_script_project ON script_documents(project_id);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// CurrentProjectID returns the ID of the project the client is working on,
// or "" if none is selected.
func (s *Store) CurrentProjectID(ctx context.Context) (string, error) {
	var id string
	err := s.conn.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'current_project'`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read current project: %w", err)
	}
	return id, nil
}

// SetCurrentProject marks the project the client is working on.
func (s *Store) SetCurrentProject(ctx context.Context, projectID string) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES ('current_project', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, projectID)
	if err != nil {
		return fmt.Errorf("failed to set current project: %w", err)
	}
	return nil
}

// CreateProject inserts a new project.
func (s *Store) CreateProject(ctx context.Context, p *model.Project) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid project: %w", err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO projects (id, name, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.OwnerID,
		p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by ID. Returns sql.ErrNoRows if absent.
func (s *Store) GetProject(ctx context.Context, id string) (*model.Project, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, name, owner_id, created_at, updated_at
		FROM projects WHERE id = ?`, id)

	var p model.Project
	var ownerID sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(&p.ID, &p.Name, &ownerID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.OwnerID = ownerID.String
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// ListProjects returns all projects ordered by name.
func (s *Store) ListProjects(ctx context.Context) ([]*model.Project, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, name, owner_id, created_at, updated_at
		FROM projects ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*model.Project
	for rows.Next() {
		var p model.Project
		var ownerID sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &ownerID, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.OwnerID = ownerID.String
		p.CreatedAt = parseTime(createdAt)
		p.UpdatedAt = parseTime(updatedAt)
		projects = append(projects, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}

// parseTime parses an RFC3339 timestamp, returning the zero time on failure.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// formatTime renders t for storage, defaulting zero times to now.
func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.Format(time.RFC3339)
}

// nullStr converts "" to NULL for optional text columns.
func nullStr(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
