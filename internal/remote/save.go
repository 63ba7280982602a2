package remote

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/assets"
	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/dedupe"
	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/model"
)

// UploadedPaths maps asset IDs to the storage paths confirmed during a save.
// The engine records these back into the local store (under its receiving
// guard) so later saves short-circuit instead of re-uploading.
type UploadedPaths map[string]string

func (u UploadedPaths) record(asset *model.Asset, storagePath string) {
	if asset != nil && storagePath != "" && asset.StoragePath == "" {
		u[asset.ID] = storagePath
	}
}

// SaveScenes upserts the project's scenes and replaces each scene's character
// junction set.
//
// Scene numbers are deduplicated first: the remote store enforces uniqueness
// of (project_id, scene_number), and the upsert is keyed on that composite -
// not the bare ID - because that is the scope of the business constraint.
// Running the save twice with the same input is a no-op.
func (db *DB) SaveScenes(ctx context.Context, projectID string, scenes []*model.Scene) error {
	numbers := make([]string, len(scenes))
	for i, sc := range scenes {
		numbers[i] = sc.SceneNumber
	}
	numbers = dedupe.AssignUnique(numbers)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin scenes transaction: %w", err)
	}
	defer tx.Rollback()

	for i, sc := range scenes {
		if err := sc.Validate(); err != nil {
			return fmt.Errorf("invalid scene: %w", err)
		}
		// A renumbered scene would otherwise trip the id primary key: the
		// composite conflict target only catches rows holding the new number.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM scenes WHERE project_id = ? AND id = ? AND scene_number != ?`,
			projectID, sc.ID, numbers[i]); err != nil {
			return fmt.Errorf("failed to clear stale number for scene %s: %w", sc.ID, err)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO scenes (id, project_id, scene_number, title, time_of_day,
				int_ext, script_day, sort_order, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(project_id, scene_number) DO UPDATE SET
				id = excluded.id,
				title = excluded.title,
				time_of_day = excluded.time_of_day,
				int_ext = excluded.int_ext,
				script_day = excluded.script_day,
				sort_order = excluded.sort_order,
				updated_at = excluded.updated_at`,
			sc.ID, projectID, numbers[i], nullStr(sc.Title), nullStr(sc.TimeOfDay),
			nullStr(sc.IntExt), nullStr(sc.ScriptDay), sc.SortOrder, formatTime(sc.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to upsert scene %s: %w", sc.SceneNumber, err)
		}

		// Junction set is replaced wholesale so removed character links
		// disappear remotely, not just new ones appearing.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM scene_characters WHERE scene_id = ?`, sc.ID); err != nil {
			return fmt.Errorf("failed to clear characters for scene %s: %w", sc.ID, err)
		}
		for _, charID := range sc.CharacterIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO scene_characters (scene_id, character_id) VALUES (?, ?)
				ON CONFLICT(scene_id, character_id) DO NOTHING`, sc.ID, charID); err != nil {
				return fmt.Errorf("failed to link scene %s to character %s: %w", sc.ID, charID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scenes: %w", err)
	}
	return nil
}

// SaveCharacters upserts the project's characters, keyed on entity ID.
func (db *DB) SaveCharacters(ctx context.Context, projectID string, chars []*model.Character) error {
	for _, c := range chars {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid character: %w", err)
		}
		_, err := db.conn.ExecContext(ctx, `
			INSERT INTO characters (id, project_id, name, actor_name, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				actor_name = excluded.actor_name,
				updated_at = excluded.updated_at`,
			c.ID, projectID, c.Name, nullStr(c.ActorName), formatTime(c.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to upsert character %s: %w", c.ID, err)
		}
	}
	return nil
}

// SaveLooks upserts the project's looks, uploads any pending master photos,
// and replaces each look's scene-number junction set.
func (db *DB) SaveLooks(ctx context.Context, projectID string, looks []*model.Look, up *assets.Uploader) (UploadedPaths, error) {
	uploaded := make(UploadedPaths)

	for _, l := range looks {
		if err := l.Validate(); err != nil {
			return uploaded, fmt.Errorf("invalid look: %w", err)
		}

		var masterPath string
		if l.MasterPhoto != nil {
			dest := assets.LookPhotoPath(projectID, l.ID, l.MasterPhoto.ID)
			masterPath = up.Upload(ctx, dest, l.MasterPhoto)
			uploaded.record(l.MasterPhoto, masterPath)
		}

		_, err := db.conn.ExecContext(ctx, `
			INSERT INTO looks (id, project_id, character_id, name, notes,
				master_photo_path, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				notes = excluded.notes,
				master_photo_path = COALESCE(excluded.master_photo_path, looks.master_photo_path),
				updated_at = excluded.updated_at`,
			l.ID, projectID, l.CharacterID, l.Name, nullStr(l.Notes),
			nullStr(masterPath), formatTime(l.UpdatedAt))
		if err != nil {
			return uploaded, fmt.Errorf("failed to upsert look %s: %w", l.ID, err)
		}

		if _, err := db.conn.ExecContext(ctx,
			`DELETE FROM look_scenes WHERE look_id = ?`, l.ID); err != nil {
			return uploaded, fmt.Errorf("failed to clear scenes for look %s: %w", l.ID, err)
		}
		for _, num := range l.SceneNumbers {
			if _, err := db.conn.ExecContext(ctx, `
				INSERT INTO look_scenes (look_id, scene_number) VALUES (?, ?)
				ON CONFLICT(look_id, scene_number) DO NOTHING`, l.ID, num); err != nil {
				return uploaded, fmt.Errorf("failed to link look %s to scene %s: %w", l.ID, num, err)
			}
		}
	}

	return uploaded, nil
}

// SaveCaptures upserts the project's scene captures, uploading any pending
// angle photo and replacing each capture's extra-photo set. A photo that
// fails to upload is skipped (the uploader logs it); its slot stays NULL
// remotely until a later save succeeds.
func (db *DB) SaveCaptures(ctx context.Context, projectID string, captures []*model.SceneCapture, up *assets.Uploader) (UploadedPaths, error) {
	uploaded := make(UploadedPaths)

	for _, c := range captures {
		if err := c.Validate(); err != nil {
			return uploaded, fmt.Errorf("invalid capture: %w", err)
		}

		anglePaths := map[string]string{}
		for _, ap := range c.AnglePhotos() {
			dest := assets.CapturePhotoPath(projectID, c.ID, ap.Photo.ID)
			p := up.Upload(ctx, dest, ap.Photo)
			anglePaths[ap.Angle] = p
			uploaded.record(ap.Photo, p)
		}

		_, err := db.conn.ExecContext(ctx, `
			INSERT INTO scene_captures (id, project_id, scene_id, character_id,
				notes, front_photo_path, back_photo_path, left_photo_path,
				right_photo_path, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				notes = excluded.notes,
				front_photo_path = COALESCE(excluded.front_photo_path, scene_captures.front_photo_path),
				back_photo_path = COALESCE(excluded.back_photo_path, scene_captures.back_photo_path),
				left_photo_path = COALESCE(excluded.left_photo_path, scene_captures.left_photo_path),
				right_photo_path = COALESCE(excluded.right_photo_path, scene_captures.right_photo_path),
				updated_at = excluded.updated_at`,
			c.ID, projectID, c.SceneID, c.CharacterID, nullStr(c.Notes),
			nullStr(anglePaths["front"]), nullStr(anglePaths["back"]),
			nullStr(anglePaths["left"]), nullStr(anglePaths["right"]),
			formatTime(c.UpdatedAt))
		if err != nil {
			return uploaded, fmt.Errorf("failed to upsert capture %s: %w", c.ID, err)
		}

		// Extras are a junction set: replace it so removed photos disappear.
		if _, err := db.conn.ExecContext(ctx,
			`DELETE FROM capture_photos WHERE capture_id = ?`, c.ID); err != nil {
			return uploaded, fmt.Errorf("failed to clear extras for capture %s: %w", c.ID, err)
		}
		for i, extra := range c.Extras {
			dest := assets.CapturePhotoPath(projectID, c.ID, extra.ID)
			p := up.Upload(ctx, dest, extra)
			uploaded.record(extra, p)
			if p == "" {
				continue
			}

			var takenAt sql.NullString
			if !extra.TakenAt.IsZero() {
				takenAt = sql.NullString{String: extra.TakenAt.Format(time.RFC3339), Valid: true}
			}
			if _, err := db.conn.ExecContext(ctx, `
				INSERT INTO capture_photos (capture_id, photo_id, storage_path, taken_at, position)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(capture_id, photo_id) DO UPDATE SET
					storage_path = excluded.storage_path,
					taken_at = excluded.taken_at,
					position = excluded.position`,
				c.ID, extra.ID, p, takenAt, i); err != nil {
				return uploaded, fmt.Errorf("failed to upsert capture photo %s: %w", extra.ID, err)
			}
		}
	}

	return uploaded, nil
}

// SaveSchedule upserts the project's schedule days and patches each row with
// its document's storage path after a successful upload.
func (db *DB) SaveSchedule(ctx context.Context, projectID string, entries []*model.ScheduleEntry, up *assets.Uploader) (UploadedPaths, error) {
	uploaded := make(UploadedPaths)

	for _, e := range entries {
		if e.ID == "" {
			return uploaded, fmt.Errorf("invalid schedule entry: id is required")
		}
		_, err := db.conn.ExecContext(ctx, `
			INSERT INTO schedules (id, project_id, shoot_day, shoot_date, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				shoot_day = excluded.shoot_day,
				shoot_date = excluded.shoot_date,
				updated_at = excluded.updated_at`,
			e.ID, projectID, e.ShootDay, nullStr(e.ShootDate), formatTime(e.UpdatedAt))
		if err != nil {
			return uploaded, fmt.Errorf("failed to upsert schedule entry %s: %w", e.ID, err)
		}

		if e.Document == nil {
			continue
		}
		dest := assets.SchedulePath(projectID, e.Document.ID)
		p := up.Upload(ctx, dest, e.Document)
		uploaded.record(e.Document, p)
		if p == "" {
			continue
		}
		if _, err := db.conn.ExecContext(ctx,
			`UPDATE schedules SET storage_path = ? WHERE id = ?`, p, e.ID); err != nil {
			return uploaded, fmt.Errorf("failed to patch schedule entry %s: %w", e.ID, err)
		}
	}

	return uploaded, nil
}

// SaveCallSheets upserts the project's call sheets. Unlike the other
// categories, a failure on one sheet's row is logged and the loop continues:
// call sheets arrive in bursts from parsing and one malformed sheet must not
// hold the rest of the day's paperwork hostage.
func (db *DB) SaveCallSheets(ctx context.Context, projectID string, sheets []*model.CallSheet, up *assets.Uploader) (UploadedPaths, error) {
	uploaded := make(UploadedPaths)

	for _, cs := range sheets {
		if cs.ID == "" {
			db.logger.Printf("WARNING: skipping call sheet with empty id (day %q)", cs.DayLabel)
			continue
		}
		_, err := db.conn.ExecContext(ctx, `
			INSERT INTO call_sheets (id, project_id, day_label, call_time, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				day_label = excluded.day_label,
				call_time = excluded.call_time,
				updated_at = excluded.updated_at`,
			cs.ID, projectID, cs.DayLabel, nullStr(cs.CallTime), formatTime(cs.UpdatedAt))
		if err != nil {
			db.logger.Printf("WARNING: failed to upsert call sheet %s: %v", cs.ID, err)
			continue
		}

		if cs.Document == nil {
			continue
		}
		dest := assets.CallSheetPath(projectID, cs.Document.ID)
		p := up.Upload(ctx, dest, cs.Document)
		uploaded.record(cs.Document, p)
		if p == "" {
			continue
		}
		if _, err := db.conn.ExecContext(ctx,
			`UPDATE call_sheets SET storage_path = ? WHERE id = ?`, p, cs.ID); err != nil {
			db.logger.Printf("WARNING: failed to patch call sheet %s: %v", cs.ID, err)
		}
	}

	return uploaded, nil
}

// SaveScript pushes the project's script as an append-only upload row and
// then deactivates older rows.
//
// The insert happens before the deactivation: a crash between the two steps
// leaves a project with two active scripts (resolved by the next save), never
// with zero.
func (db *DB) SaveScript(ctx context.Context, projectID string, script *model.ScriptDocument, up *assets.Uploader) (UploadedPaths, error) {
	uploaded := make(UploadedPaths)
	if script == nil {
		return uploaded, nil
	}
	if script.ID == "" || script.FileName == "" {
		return uploaded, fmt.Errorf("invalid script document: id and file_name are required")
	}

	var storagePath string
	if script.Document != nil {
		dest := assets.ScriptPath(projectID, script.Document.ID)
		storagePath = up.Upload(ctx, dest, script.Document)
		uploaded.record(script.Document, storagePath)
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO script_uploads (id, project_id, file_name, storage_path, is_active, uploaded_at)
		VALUES (?, ?, ?, ?, 1, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_name = excluded.file_name,
			storage_path = COALESCE(excluded.storage_path, script_uploads.storage_path),
			is_active = 1,
			uploaded_at = excluded.uploaded_at`,
		script.ID, projectID, script.FileName, nullStr(storagePath),
		formatTime(script.UploadedAt))
	if err != nil {
		return uploaded, fmt.Errorf("failed to insert script upload %s: %w", script.ID, err)
	}

	if _, err := db.conn.ExecContext(ctx, `
		UPDATE script_uploads SET is_active = 0
		WHERE project_id = ? AND id != ?`, projectID, script.ID); err != nil {
		return uploaded, fmt.Errorf("failed to deactivate older scripts: %w", err)
	}

	return uploaded, nil
}
