package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/model"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so entity writers can run
// standalone or inside ReplaceSnapshot's transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// UpsertScene inserts or updates a scene and replaces its character junction
// set. The local store upserts on the scene ID; the per-project scene-number
// uniqueness constraint is enforced on the remote side after deduplication.
func (s *Store) UpsertScene(ctx context.Context, sc *model.Scene) error {
	if err := s.upsertScene(ctx, s.conn, sc); err != nil {
		return err
	}
	s.notify(model.CategoryScenes)
	return nil
}

func (s *Store) upsertScene(ctx context.Context, q dbtx, sc *model.Scene) error {
	if err := sc.Validate(); err != nil {
		return fmt.Errorf("invalid scene: %w", err)
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO scenes (id, project_id, scene_number, title, time_of_day,
			int_ext, script_day, sort_order, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			scene_number = excluded.scene_number,
			title = excluded.title,
			time_of_day = excluded.time_of_day,
			int_ext = excluded.int_ext,
			script_day = excluded.script_day,
			sort_order = excluded.sort_order,
			updated_at = excluded.updated_at`,
		sc.ID, sc.ProjectID, sc.SceneNumber, nullStr(sc.Title), nullStr(sc.TimeOfDay),
		nullStr(sc.IntExt), nullStr(sc.ScriptDay), sc.SortOrder, formatTime(sc.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert scene %s: %w", sc.ID, err)
	}

	// Replace the junction set so removed links disappear.
	if _, err := q.ExecContext(ctx,
		`DELETE FROM scene_characters WHERE scene_id = ?`, sc.ID); err != nil {
		return fmt.Errorf("failed to clear scene characters for %s: %w", sc.ID, err)
	}
	for _, charID := range sc.CharacterIDs {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO scene_characters (scene_id, character_id) VALUES (?, ?)
			ON CONFLICT(scene_id, character_id) DO NOTHING`, sc.ID, charID); err != nil {
			return fmt.Errorf("failed to link scene %s to character %s: %w", sc.ID, charID, err)
		}
	}
	return nil
}

// DeleteScene removes a scene locally. The sync engine propagates the
// reduced set through the next scenes save, not an out-of-band delete.
func (s *Store) DeleteScene(ctx context.Context, id string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM scenes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete scene %s: %w", id, err)
	}
	s.notify(model.CategoryScenes)
	return nil
}

// ListScenes returns all scenes for a project ordered by sort order, with
// character junction sets populated.
func (s *Store) ListScenes(ctx context.Context, projectID string) ([]*model.Scene, error) {
	return s.listScenes(ctx, s.conn, projectID)
}

func (s *Store) listScenes(ctx context.Context, q dbtx, projectID string) ([]*model.Scene, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, project_id, scene_number, title, time_of_day, int_ext,
			script_day, sort_order, updated_at
		FROM scenes WHERE project_id = ?
		ORDER BY sort_order ASC, scene_number ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenes: %w", err)
	}
	defer rows.Close()

	var scenes []*model.Scene
	for rows.Next() {
		var sc model.Scene
		var title, timeOfDay, intExt, scriptDay sql.NullString
		var updatedAt string
		if err := rows.Scan(&sc.ID, &sc.ProjectID, &sc.SceneNumber, &title,
			&timeOfDay, &intExt, &scriptDay, &sc.SortOrder, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scene: %w", err)
		}
		sc.Title = title.String
		sc.TimeOfDay = timeOfDay.String
		sc.IntExt = intExt.String
		sc.ScriptDay = scriptDay.String
		sc.UpdatedAt = parseTime(updatedAt)
		scenes = append(scenes, &sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scenes: %w", err)
	}

	for _, sc := range scenes {
		charRows, err := q.QueryContext(ctx, `
			SELECT character_id FROM scene_characters
			WHERE scene_id = ? ORDER BY character_id ASC`, sc.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to query scene characters: %w", err)
		}
		for charRows.Next() {
			var charID string
			if err := charRows.Scan(&charID); err != nil {
				charRows.Close()
				return nil, fmt.Errorf("failed to scan scene character: %w", err)
			}
			sc.CharacterIDs = append(sc.CharacterIDs, charID)
		}
		if err := charRows.Err(); err != nil {
			charRows.Close()
			return nil, fmt.Errorf("error iterating scene characters: %w", err)
		}
		charRows.Close()
	}

	return scenes, nil
}

// UpsertCharacter inserts or updates a character.
func (s *Store) UpsertCharacter(ctx context.Context, c *model.Character) error {
	if err := s.upsertCharacter(ctx, s.conn, c); err != nil {
		return err
	}
	s.notify(model.CategoryCharacters)
	return nil
}

func (s *Store) upsertCharacter(ctx context.Context, q dbtx, c *model.Character) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid character: %w", err)
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO characters (id, project_id, name, actor_name, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			actor_name = excluded.actor_name,
			updated_at = excluded.updated_at`,
		c.ID, c.ProjectID, c.Name, nullStr(c.ActorName), formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert character %s: %w", c.ID, err)
	}
	return nil
}

// ListCharacters returns all characters for a project ordered by name.
func (s *Store) ListCharacters(ctx context.Context, projectID string) ([]*model.Character, error) {
	return s.listCharacters(ctx, s.conn, projectID)
}

func (s *Store) listCharacters(ctx context.Context, q dbtx, projectID string) ([]*model.Character, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, project_id, name, actor_name, updated_at
		FROM characters WHERE project_id = ? ORDER BY name ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query characters: %w", err)
	}
	defer rows.Close()

	var chars []*model.Character
	for rows.Next() {
		var c model.Character
		var actorName sql.NullString
		var updatedAt string
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Name, &actorName, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan character: %w", err)
		}
		c.ActorName = actorName.String
		c.UpdatedAt = parseTime(updatedAt)
		chars = append(chars, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating characters: %w", err)
	}
	return chars, nil
}

// UpsertLook inserts or updates a look, its master photo asset, and its
// scene-number junction set.
func (s *Store) UpsertLook(ctx context.Context, l *model.Look) error {
	if err := s.upsertLook(ctx, s.conn, l); err != nil {
		return err
	}
	s.notify(model.CategoryLooks)
	return nil
}

func (s *Store) upsertLook(ctx context.Context, q dbtx, l *model.Look) error {
	if err := l.Validate(); err != nil {
		return fmt.Errorf("invalid look: %w", err)
	}

	masterID, err := saveAssetRef(ctx, q, l.MasterPhoto)
	if err != nil {
		return fmt.Errorf("failed to save look master photo: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO looks (id, project_id, character_id, name, notes,
			master_photo_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			notes = excluded.notes,
			master_photo_id = excluded.master_photo_id,
			updated_at = excluded.updated_at`,
		l.ID, l.ProjectID, l.CharacterID, l.Name, nullStr(l.Notes),
		masterID, formatTime(l.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert look %s: %w", l.ID, err)
	}

	if _, err := q.ExecContext(ctx,
		`DELETE FROM look_scenes WHERE look_id = ?`, l.ID); err != nil {
		return fmt.Errorf("failed to clear look scenes for %s: %w", l.ID, err)
	}
	for _, num := range l.SceneNumbers {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO look_scenes (look_id, scene_number) VALUES (?, ?)
			ON CONFLICT(look_id, scene_number) DO NOTHING`, l.ID, num); err != nil {
			return fmt.Errorf("failed to link look %s to scene %s: %w", l.ID, num, err)
		}
	}
	return nil
}

// ListLooks returns all looks for a project with junction sets and master
// photos populated.
func (s *Store) ListLooks(ctx context.Context, projectID string) ([]*model.Look, error) {
	return s.listLooks(ctx, s.conn, projectID)
}

func (s *Store) listLooks(ctx context.Context, q dbtx, projectID string) ([]*model.Look, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, project_id, character_id, name, notes, master_photo_id, updated_at
		FROM looks WHERE project_id = ? ORDER BY name ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query looks: %w", err)
	}
	defer rows.Close()

	type lookRow struct {
		look     *model.Look
		masterID sql.NullString
	}
	var lookRows []lookRow
	for rows.Next() {
		var l model.Look
		var notes, masterID sql.NullString
		var updatedAt string
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.CharacterID, &l.Name,
			&notes, &masterID, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan look: %w", err)
		}
		l.Notes = notes.String
		l.UpdatedAt = parseTime(updatedAt)
		lookRows = append(lookRows, lookRow{look: &l, masterID: masterID})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating looks: %w", err)
	}

	var looks []*model.Look
	for _, lr := range lookRows {
		if lr.masterID.Valid {
			photo, err := getAsset(ctx, q, lr.masterID.String)
			if err != nil {
				return nil, fmt.Errorf("failed to load master photo for look %s: %w", lr.look.ID, err)
			}
			lr.look.MasterPhoto = photo
		}

		numRows, err := q.QueryContext(ctx, `
			SELECT scene_number FROM look_scenes
			WHERE look_id = ? ORDER BY scene_number ASC`, lr.look.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to query look scenes: %w", err)
		}
		for numRows.Next() {
			var num string
			if err := numRows.Scan(&num); err != nil {
				numRows.Close()
				return nil, fmt.Errorf("failed to scan look scene: %w", err)
			}
			lr.look.SceneNumbers = append(lr.look.SceneNumbers, num)
		}
		if err := numRows.Err(); err != nil {
			numRows.Close()
			return nil, fmt.Errorf("error iterating look scenes: %w", err)
		}
		numRows.Close()

		looks = append(looks, lr.look)
	}
	return looks, nil
}
