package remote

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/model"
)

// FetchSnapshot reads the project and all of its collections from the remote
// database. Assets are reconstructed from storage paths alone (the path's
// basename is the asset ID); binary content stays remote until something
// needs it.
func (db *DB) FetchSnapshot(ctx context.Context, projectID string) (*model.Snapshot, error) {
	project, err := db.fetchProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	snap := &model.Snapshot{Project: project}

	if snap.Scenes, err = db.fetchScenes(ctx, projectID); err != nil {
		return nil, err
	}
	if snap.Characters, err = db.fetchCharacters(ctx, projectID); err != nil {
		return nil, err
	}
	if snap.Looks, err = db.fetchLooks(ctx, projectID); err != nil {
		return nil, err
	}
	if snap.Captures, err = db.fetchCaptures(ctx, projectID); err != nil {
		return nil, err
	}
	if snap.Schedule, err = db.fetchSchedule(ctx, projectID); err != nil {
		return nil, err
	}
	if snap.CallSheets, err = db.fetchCallSheets(ctx, projectID); err != nil {
		return nil, err
	}
	if snap.Script, err = db.fetchScript(ctx, projectID); err != nil {
		return nil, err
	}

	return snap, nil
}

func (db *DB) fetchProject(ctx context.Context, projectID string) (*model.Project, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, name, owner_id, created_at, updated_at FROM projects WHERE id = ?`,
		projectID)

	var p model.Project
	var owner sql.NullString
	var created, updated string
	if err := row.Scan(&p.ID, &p.Name, &owner, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("project %s not found remotely", projectID)
		}
		return nil, fmt.Errorf("failed to fetch project %s: %w", projectID, err)
	}
	p.OwnerID = owner.String
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	return &p, nil
}

func (db *DB) fetchScenes(ctx context.Context, projectID string) ([]*model.Scene, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, scene_number, title, time_of_day, int_ext, script_day,
			sort_order, updated_at
		FROM scenes WHERE project_id = ?
		ORDER BY sort_order, scene_number`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scenes: %w", err)
	}
	defer rows.Close()

	var scenes []*model.Scene
	for rows.Next() {
		sc := &model.Scene{ProjectID: projectID}
		var title, tod, intExt, scriptDay sql.NullString
		var updated string
		if err := rows.Scan(&sc.ID, &sc.SceneNumber, &title, &tod, &intExt,
			&scriptDay, &sc.SortOrder, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan scene: %w", err)
		}
		sc.Title = title.String
		sc.TimeOfDay = tod.String
		sc.IntExt = intExt.String
		sc.ScriptDay = scriptDay.String
		sc.UpdatedAt = parseTime(updated)
		scenes = append(scenes, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scenes: %w", err)
	}

	for _, sc := range scenes {
		if sc.CharacterIDs, err = db.fetchSceneCharacters(ctx, sc.ID); err != nil {
			return nil, err
		}
	}
	return scenes, nil
}

func (db *DB) fetchSceneCharacters(ctx context.Context, sceneID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT character_id FROM scene_characters WHERE scene_id = ? ORDER BY character_id`,
		sceneID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scene characters: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan scene character: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (db *DB) fetchCharacters(ctx context.Context, projectID string) ([]*model.Character, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, actor_name, updated_at
		FROM characters WHERE project_id = ? ORDER BY name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch characters: %w", err)
	}
	defer rows.Close()

	var chars []*model.Character
	for rows.Next() {
		c := &model.Character{ProjectID: projectID}
		var actor sql.NullString
		var updated string
		if err := rows.Scan(&c.ID, &c.Name, &actor, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan character: %w", err)
		}
		c.ActorName = actor.String
		c.UpdatedAt = parseTime(updated)
		chars = append(chars, c)
	}
	return chars, rows.Err()
}

func (db *DB) fetchLooks(ctx context.Context, projectID string) ([]*model.Look, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, character_id, name, notes, master_photo_path, updated_at
		FROM looks WHERE project_id = ? ORDER BY name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch looks: %w", err)
	}
	defer rows.Close()

	var looks []*model.Look
	for rows.Next() {
		l := &model.Look{ProjectID: projectID}
		var notes, masterPath sql.NullString
		var updated string
		if err := rows.Scan(&l.ID, &l.CharacterID, &l.Name, &notes, &masterPath, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan look: %w", err)
		}
		l.Notes = notes.String
		l.UpdatedAt = parseTime(updated)
		l.MasterPhoto = assetFromPath(masterPath.String)
		looks = append(looks, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate looks: %w", err)
	}

	for _, l := range looks {
		sceneRows, err := db.conn.QueryContext(ctx,
			`SELECT scene_number FROM look_scenes WHERE look_id = ? ORDER BY scene_number`, l.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch look scenes: %w", err)
		}
		for sceneRows.Next() {
			var num string
			if err := sceneRows.Scan(&num); err != nil {
				sceneRows.Close()
				return nil, fmt.Errorf("failed to scan look scene: %w", err)
			}
			l.SceneNumbers = append(l.SceneNumbers, num)
		}
		if err := sceneRows.Err(); err != nil {
			sceneRows.Close()
			return nil, fmt.Errorf("failed to iterate look scenes: %w", err)
		}
		sceneRows.Close()
	}
	return looks, nil
}

func (db *DB) fetchCaptures(ctx context.Context, projectID string) ([]*model.SceneCapture, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, scene_id, character_id, notes, front_photo_path,
			back_photo_path, left_photo_path, right_photo_path, updated_at
		FROM scene_captures WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch captures: %w", err)
	}
	defer rows.Close()

	var captures []*model.SceneCapture
	for rows.Next() {
		c := &model.SceneCapture{ProjectID: projectID}
		var notes, front, back, left, right sql.NullString
		var updated string
		if err := rows.Scan(&c.ID, &c.SceneID, &c.CharacterID, &notes,
			&front, &back, &left, &right, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan capture: %w", err)
		}
		c.Notes = notes.String
		c.Front = assetFromPath(front.String)
		c.Back = assetFromPath(back.String)
		c.Left = assetFromPath(left.String)
		c.Right = assetFromPath(right.String)
		c.UpdatedAt = parseTime(updated)
		captures = append(captures, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate captures: %w", err)
	}

	for _, c := range captures {
		extraRows, err := db.conn.QueryContext(ctx, `
			SELECT photo_id, storage_path, taken_at
			FROM capture_photos WHERE capture_id = ? ORDER BY position`, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch capture photos: %w", err)
		}
		for extraRows.Next() {
			var photoID, storagePath string
			var takenAt sql.NullString
			if err := extraRows.Scan(&photoID, &storagePath, &takenAt); err != nil {
				extraRows.Close()
				return nil, fmt.Errorf("failed to scan capture photo: %w", err)
			}
			c.Extras = append(c.Extras, &model.Asset{
				ID:          photoID,
				StoragePath: storagePath,
				TakenAt:     parseTime(takenAt.String),
			})
		}
		if err := extraRows.Err(); err != nil {
			extraRows.Close()
			return nil, fmt.Errorf("failed to iterate capture photos: %w", err)
		}
		extraRows.Close()
	}
	return captures, nil
}

func (db *DB) fetchSchedule(ctx context.Context, projectID string) ([]*model.ScheduleEntry, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, shoot_day, shoot_date, storage_path, updated_at
		FROM schedules WHERE project_id = ? ORDER BY shoot_day`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule: %w", err)
	}
	defer rows.Close()

	var entries []*model.ScheduleEntry
	for rows.Next() {
		e := &model.ScheduleEntry{ProjectID: projectID}
		var date, storagePath sql.NullString
		var updated string
		if err := rows.Scan(&e.ID, &e.ShootDay, &date, &storagePath, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan schedule entry: %w", err)
		}
		e.ShootDate = date.String
		e.Document = assetFromPath(storagePath.String)
		e.UpdatedAt = parseTime(updated)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (db *DB) fetchCallSheets(ctx context.Context, projectID string) ([]*model.CallSheet, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, day_label, call_time, storage_path, updated_at
		FROM call_sheets WHERE project_id = ? ORDER BY day_label`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch call sheets: %w", err)
	}
	defer rows.Close()

	var sheets []*model.CallSheet
	for rows.Next() {
		cs := &model.CallSheet{ProjectID: projectID}
		var callTime, storagePath sql.NullString
		var updated string
		if err := rows.Scan(&cs.ID, &cs.DayLabel, &callTime, &storagePath, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan call sheet: %w", err)
		}
		cs.CallTime = callTime.String
		cs.Document = assetFromPath(storagePath.String)
		cs.UpdatedAt = parseTime(updated)
		sheets = append(sheets, cs)
	}
	return sheets, rows.Err()
}

// fetchScript returns the single active script row, or nil if the project
// has no script yet.
func (db *DB) fetchScript(ctx context.Context, projectID string) (*model.ScriptDocument, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, file_name, storage_path, uploaded_at
		FROM script_uploads WHERE project_id = ? AND is_active = 1
		ORDER BY uploaded_at DESC LIMIT 1`, projectID)

	s := &model.ScriptDocument{ProjectID: projectID}
	var storagePath sql.NullString
	var uploaded string
	if err := row.Scan(&s.ID, &s.FileName, &storagePath, &uploaded); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch script: %w", err)
	}
	s.Document = assetFromPath(storagePath.String)
	s.UploadedAt = parseTime(uploaded)
	return s, nil
}

// assetFromPath rebuilds an asset reference from its storage path. Returns
// nil for an empty path.
func assetFromPath(storagePath string) *model.Asset {
	if storagePath == "" {
		return nil
	}
	return &model.Asset{
		ID:          assetIDFromPath(storagePath),
		StoragePath: storagePath,
	}
}
