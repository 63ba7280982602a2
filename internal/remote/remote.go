// Package remote is the persistence adapter for the shared libSQL database.
//
// One save operation exists per sync category. Every save is an idempotent
// upsert keyed on the entity's stable identifier - except scenes, whose
// business uniqueness constraint is scoped to (project, scene number), so
// they are deduplicated and upserted on that composite key instead. Junction
// relationships (scene<->character, look<->scene, capture extras) are
// reconciled as replace-whole-set operations so removed links disappear
// remotely rather than lingering.
//
// The adapter never coordinates with other clients: contention on the shared
// database is resolved by these idempotent upserts, not by locking.
package remote

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/model"
)

// DB wraps the remote libSQL connection.
type DB struct {
	conn   *sql.DB
	logger *log.Logger
}

// Open connects to the shared database at url (libsql://... for a hosted
// endpoint, file:... for a local replica in tests and demos). authToken may
// be empty for unauthenticated endpoints.
//
// The caller must Close() when done.
func Open(url, authToken string, logger *log.Logger) (*DB, error) {
	if url == "" {
		return nil, fmt.Errorf("remote database url cannot be empty")
	}

	dsn := url
	if authToken != "" {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		dsn = url + sep + "authToken=" + authToken
	}

	conn, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping remote database: %w", err)
	}

	return NewWithConn(conn, logger), nil
}

// NewWithConn wraps an existing connection. Tests use this with an embedded
// SQLite database, which speaks the same dialect as the hosted endpoint.
func NewWithConn(conn *sql.DB, logger *log.Logger) *DB {
	if logger == nil {
		logger = log.New(os.Stderr, "[remote] ", log.LstdFlags)
	}
	return &DB{conn: conn, logger: logger}
}

// Close closes the remote connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close remote database: %w", err)
	}
	db.conn = nil
	return nil
}

// InitSchema creates the remote schema if it doesn't exist. Idempotent; every
// client runs it on first connect.
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		owner_id TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scenes (
		id TEXT NOT NULL,
		project_id TEXT NOT NULL,
		scene_number TEXT NOT NULL,
		title TEXT,
		time_of_day TEXT,
		int_ext TEXT,
		script_day TEXT,
		sort_order INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (id),
		UNIQUE (project_id, scene_number)
	);

	CREATE TABLE IF NOT EXISTS characters (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		name TEXT NOT NULL,
		actor_name TEXT,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scene_characters (
		scene_id TEXT NOT NULL,
		character_id TEXT NOT NULL,
		PRIMARY KEY (scene_id, character_id)
	);

	CREATE TABLE IF NOT EXISTS looks (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		character_id TEXT NOT NULL,
		name TEXT NOT NULL,
		notes TEXT,
		master_photo_path TEXT,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS look_scenes (
		look_id TEXT NOT NULL,
		scene_number TEXT NOT NULL,
		PRIMARY KEY (look_id, scene_number)
	);

	CREATE TABLE IF NOT EXISTS scene_captures (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		scene_id TEXT NOT NULL,
		character_id TEXT NOT NULL,
		notes TEXT,
		front_photo_path TEXT,
		back_photo_path TEXT,
		left_photo_path TEXT,
		right_photo_path TEXT,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS capture_photos (
		capture_id TEXT NOT NULL,
		photo_id TEXT NOT NULL,
		storage_path TEXT NOT NULL,
		taken_at TEXT,
		position INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (capture_id, photo_id)
	);

	CREATE TABLE IF NOT EXISTS schedules (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		shoot_day INTEGER NOT NULL,
		shoot_date TEXT,
		storage_path TEXT,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS call_sheets (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		day_label TEXT NOT NULL,
		call_time TEXT,
		storage_path TEXT,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS script_uploads (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		file_name TEXT NOT NULL,
		storage_path TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		uploaded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scenes_project ON scenes(project_id);
	CREATE INDEX IF NOT EXISTS idx_characters_project ON characters(project_id);
	CREATE INDEX IF NOT EXISTS idx_looks_project ON looks(project_id);
	CREATE INDEX IF NOT EXISTS idx_captures_project ON scene_captures(project_id);
	CREATE INDEX IF NOT EXISTS idx_schedules_project ON schedules(project_id);
	CREATE INDEX IF NOT EXISTS idx_call_sheets_project ON call_sheets(project_id);
	CREATE INDEX IF NOT EXISTS idx_script_active ON script_uploads(project_id, is_active);
	`

	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize remote schema: %w", err)
	}
	return nil
}

// UpsertProject pushes the project row itself.
func (db *DB) UpsertProject(ctx context.Context, p *model.Project) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid project: %w", err)
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO projects (id, name, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			owner_id = excluded.owner_id,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, nullStr(p.OwnerID), formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert project %s: %w", p.ID, err)
	}
	return nil
}

// assetIDFromPath recovers the asset ID from a deterministic storage path
// (the basename without extension). Used on the pull side, where the remote
// row carries only the path.
func assetIDFromPath(storagePath string) string {
	base := path.Base(storagePath)
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}

func nullStr(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

// formatTime renders t for storage, defaulting zero times to now.
func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.Format(time.RFC3339)
}

// parseTime parses an RFC3339 timestamp, returning the zero time on failure.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
