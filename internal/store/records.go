package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/model"
)

// saveAssetRef upserts the asset row and returns its ID for the owning
// record's foreign key, or NULL when the asset is nil.
func saveAssetRef(ctx context.Context, q dbtx, a *model.Asset) (sql.NullString, error) {
	if a == nil {
		return sql.NullString{}, nil
	}
	if a.ID == "" {
		return sql.NullString{}, fmt.Errorf("asset id cannot be empty")
	}

	var takenAt sql.NullString
	if !a.TakenAt.IsZero() {
		takenAt = sql.NullString{String: a.TakenAt.Format(time.RFC3339), Valid: true}
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO assets (id, file_name, taken_at, storage_path, inline_data)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_name = excluded.file_name,
			taken_at = excluded.taken_at,
			storage_path = excluded.storage_path,
			inline_data = excluded.inline_data`,
		a.ID, nullStr(a.FileName), takenAt, nullStr(a.StoragePath), nullStr(a.InlineData))
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to upsert asset %s: %w", a.ID, err)
	}

	return sql.NullString{String: a.ID, Valid: true}, nil
}

// getAsset loads an asset by ID.
func getAsset(ctx context.Context, q dbtx, id string) (*model.Asset, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, file_name, taken_at, storage_path, inline_data
		FROM assets WHERE id = ?`, id)

	var a model.Asset
	var fileName, takenAt, storagePath, inlineData sql.NullString
	if err := row.Scan(&a.ID, &fileName, &takenAt, &storagePath, &inlineData); err != nil {
		return nil, err
	}
	a.FileName = fileName.String
	a.StoragePath = storagePath.String
	a.InlineData = inlineData.String
	if takenAt.Valid {
		a.TakenAt = parseTime(takenAt.String)
	}
	return &a, nil
}

// SetAssetStoragePath records the remote storage path for an uploaded asset.
// The sync engine calls this under its receiving guard after a confirmed
// upload, so the write is not re-queued as an outgoing change.
func (s *Store) SetAssetStoragePath(ctx context.Context, assetID, storagePath string) error {
	_, err := s.conn.ExecContext(ctx,
		`UPDATE assets SET storage_path = ? WHERE id = ?`, storagePath, assetID)
	if err != nil {
		return fmt.Errorf("failed to record storage path for asset %s: %w", assetID, err)
	}
	return nil
}

// UpsertCapture inserts or updates a scene capture along with its angle
// photos and extras list.
func (s *Store) UpsertCapture(ctx context.Context, c *model.SceneCapture) error {
	if err := s.upsertCapture(ctx, s.conn, c); err != nil {
		return err
	}
	s.notify(model.CategoryCaptures)
	return nil
}

func (s *Store) upsertCapture(ctx context.Context, q dbtx, c *model.SceneCapture) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid capture: %w", err)
	}

	frontID, err := saveAssetRef(ctx, q, c.Front)
	if err != nil {
		return err
	}
	backID, err := saveAssetRef(ctx, q, c.Back)
	if err != nil {
		return err
	}
	leftID, err := saveAssetRef(ctx, q, c.Left)
	if err != nil {
		return err
	}
	rightID, err := saveAssetRef(ctx, q, c.Right)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO captures (id, project_id, scene_id, character_id, notes,
			front_id, back_id, left_id, right_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			notes = excluded.notes,
			front_id = excluded.front_id,
			back_id = excluded.back_id,
			left_id = excluded.left_id,
			right_id = excluded.right_id,
			updated_at = excluded.updated_at`,
		c.ID, c.ProjectID, c.SceneID, c.CharacterID, nullStr(c.Notes),
		frontID, backID, leftID, rightID, formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert capture %s: %w", c.ID, err)
	}

	if _, err := q.ExecContext(ctx,
		`DELETE FROM capture_extras WHERE capture_id = ?`, c.ID); err != nil {
		return fmt.Errorf("failed to clear capture extras for %s: %w", c.ID, err)
	}
	for i, extra := range c.Extras {
		extraID, err := saveAssetRef(ctx, q, extra)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `
			INSERT INTO capture_extras (capture_id, asset_id, position)
			VALUES (?, ?, ?)
			ON CONFLICT(capture_id, asset_id) DO UPDATE SET position = excluded.position`,
			c.ID, extraID.String, i); err != nil {
			return fmt.Errorf("failed to link capture %s extra %s: %w", c.ID, extraID.String, err)
		}
	}
	return nil
}

// ListCaptures returns all scene captures for a project with photos loaded.
func (s *Store) ListCaptures(ctx context.Context, projectID string) ([]*model.SceneCapture, error) {
	return s.listCaptures(ctx, s.conn, projectID)
}

func (s *Store) listCaptures(ctx context.Context, q dbtx, projectID string) ([]*model.SceneCapture, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, project_id, scene_id, character_id, notes,
			front_id, back_id, left_id, right_id, updated_at
		FROM captures WHERE project_id = ? ORDER BY updated_at ASC, id ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query captures: %w", err)
	}
	defer rows.Close()

	type captureRow struct {
		capture                          *model.SceneCapture
		frontID, backID, leftID, rightID sql.NullString
	}
	var capRows []captureRow
	for rows.Next() {
		var c model.SceneCapture
		var notes sql.NullString
		var cr captureRow
		var updatedAt string
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.SceneID, &c.CharacterID, &notes,
			&cr.frontID, &cr.backID, &cr.leftID, &cr.rightID, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan capture: %w", err)
		}
		c.Notes = notes.String
		c.UpdatedAt = parseTime(updatedAt)
		cr.capture = &c
		capRows = append(capRows, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating captures: %w", err)
	}

	loadRef := func(id sql.NullString) (*model.Asset, error) {
		if !id.Valid {
			return nil, nil
		}
		return getAsset(ctx, q, id.String)
	}

	var captures []*model.SceneCapture
	for _, cr := range capRows {
		c := cr.capture
		if c.Front, err = loadRef(cr.frontID); err != nil {
			return nil, fmt.Errorf("failed to load front photo for capture %s: %w", c.ID, err)
		}
		if c.Back, err = loadRef(cr.backID); err != nil {
			return nil, fmt.Errorf("failed to load back photo for capture %s: %w", c.ID, err)
		}
		if c.Left, err = loadRef(cr.leftID); err != nil {
			return nil, fmt.Errorf("failed to load left photo for capture %s: %w", c.ID, err)
		}
		if c.Right, err = loadRef(cr.rightID); err != nil {
			return nil, fmt.Errorf("failed to load right photo for capture %s: %w", c.ID, err)
		}

		extraRows, err := q.QueryContext(ctx, `
			SELECT asset_id FROM capture_extras
			WHERE capture_id = ? ORDER BY position ASC`, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to query capture extras: %w", err)
		}
		var extraIDs []string
		for extraRows.Next() {
			var id string
			if err := extraRows.Scan(&id); err != nil {
				extraRows.Close()
				return nil, fmt.Errorf("failed to scan capture extra: %w", err)
			}
			extraIDs = append(extraIDs, id)
		}
		if err := extraRows.Err(); err != nil {
			extraRows.Close()
			return nil, fmt.Errorf("error iterating capture extras: %w", err)
		}
		extraRows.Close()

		for _, id := range extraIDs {
			extra, err := getAsset(ctx, q, id)
			if err != nil {
				return nil, fmt.Errorf("failed to load extra photo %s: %w", id, err)
			}
			c.Extras = append(c.Extras, extra)
		}

		captures = append(captures, c)
	}
	return captures, nil
}

// UpsertScheduleEntry inserts or updates a schedule day.
func (s *Store) UpsertScheduleEntry(ctx context.Context, e *model.ScheduleEntry) error {
	if err := s.upsertScheduleEntry(ctx, s.conn, e); err != nil {
		return err
	}
	s.notify(model.CategorySchedule)
	return nil
}

func (s *Store) upsertScheduleEntry(ctx context.Context, q dbtx, e *model.ScheduleEntry) error {
	if e.ID == "" {
		return fmt.Errorf("invalid schedule entry: id is required")
	}

	docID, err := saveAssetRef(ctx, q, e.Document)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO schedule_entries (id, project_id, shoot_day, shoot_date,
			document_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			shoot_day = excluded.shoot_day,
			shoot_date = excluded.shoot_date,
			document_id = excluded.document_id,
			updated_at = excluded.updated_at`,
		e.ID, e.ProjectID, e.ShootDay, nullStr(e.ShootDate), docID, formatTime(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert schedule entry %s: %w", e.ID, err)
	}
	return nil
}

// ListSchedule returns the project's schedule ordered by shoot day.
func (s *Store) ListSchedule(ctx context.Context, projectID string) ([]*model.ScheduleEntry, error) {
	return s.listSchedule(ctx, s.conn, projectID)
}

func (s *Store) listSchedule(ctx context.Context, q dbtx, projectID string) ([]*model.ScheduleEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, project_id, shoot_day, shoot_date, document_id, updated_at
		FROM schedule_entries WHERE project_id = ? ORDER BY shoot_day ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule: %w", err)
	}
	defer rows.Close()

	type entryRow struct {
		entry *model.ScheduleEntry
		docID sql.NullString
	}
	var entryRows []entryRow
	for rows.Next() {
		var e model.ScheduleEntry
		var shootDate, docID sql.NullString
		var updatedAt string
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.ShootDay, &shootDate, &docID, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule entry: %w", err)
		}
		e.ShootDate = shootDate.String
		e.UpdatedAt = parseTime(updatedAt)
		entryRows = append(entryRows, entryRow{entry: &e, docID: docID})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule: %w", err)
	}

	var entries []*model.ScheduleEntry
	for _, er := range entryRows {
		if er.docID.Valid {
			doc, err := getAsset(ctx, q, er.docID.String)
			if err != nil {
				return nil, fmt.Errorf("failed to load schedule document: %w", err)
			}
			er.entry.Document = doc
		}
		entries = append(entries, er.entry)
	}
	return entries, nil
}

// UpsertCallSheet inserts or updates a call sheet.
func (s *Store) UpsertCallSheet(ctx context.Context, cs *model.CallSheet) error {
	if err := s.upsertCallSheet(ctx, s.conn, cs); err != nil {
		return err
	}
	s.notify(model.CategoryCallSheets)
	return nil
}

func (s *Store) upsertCallSheet(ctx context.Context, q dbtx, cs *model.CallSheet) error {
	if cs.ID == "" {
		return fmt.Errorf("invalid call sheet: id is required")
	}

	docID, err := saveAssetRef(ctx, q, cs.Document)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO call_sheets (id, project_id, day_label, call_time,
			document_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			day_label = excluded.day_label,
			call_time = excluded.call_time,
			document_id = excluded.document_id,
			updated_at = excluded.updated_at`,
		cs.ID, cs.ProjectID, cs.DayLabel, nullStr(cs.CallTime), docID, formatTime(cs.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert call sheet %s: %w", cs.ID, err)
	}
	return nil
}

// ListCallSheets returns the project's call sheets ordered by day label.
func (s *Store) ListCallSheets(ctx context.Context, projectID string) ([]*model.CallSheet, error) {
	return s.listCallSheets(ctx, s.conn, projectID)
}

func (s *Store) listCallSheets(ctx context.Context, q dbtx, projectID string) ([]*model.CallSheet, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, project_id, day_label, call_time, document_id, updated_at
		FROM call_sheets WHERE project_id = ? ORDER BY day_label ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query call sheets: %w", err)
	}
	defer rows.Close()

	type sheetRow struct {
		sheet *model.CallSheet
		docID sql.NullString
	}
	var sheetRows []sheetRow
	for rows.Next() {
		var cs model.CallSheet
		var callTime, docID sql.NullString
		var updatedAt string
		if err := rows.Scan(&cs.ID, &cs.ProjectID, &cs.DayLabel, &callTime, &docID, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan call sheet: %w", err)
		}
		cs.CallTime = callTime.String
		cs.UpdatedAt = parseTime(updatedAt)
		sheetRows = append(sheetRows, sheetRow{sheet: &cs, docID: docID})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating call sheets: %w", err)
	}

	var sheets []*model.CallSheet
	for _, sr := range sheetRows {
		if sr.docID.Valid {
			doc, err := getAsset(ctx, q, sr.docID.String)
			if err != nil {
				return nil, fmt.Errorf("failed to load call sheet document: %w", err)
			}
			sr.sheet.Document = doc
		}
		sheets = append(sheets, sr.sheet)
	}
	return sheets, nil
}

// SetScript replaces the project's script document.
func (s *Store) SetScript(ctx context.Context, sd *model.ScriptDocument) error {
	if err := s.setScript(ctx, s.conn, sd); err != nil {
		return err
	}
	s.notify(model.CategoryScript)
	return nil
}

func (s *Store) setScript(ctx context.Context, q dbtx, sd *model.ScriptDocument) error {
	if sd.ID == "" {
		return fmt.Errorf("invalid script document: id is required")
	}
	if sd.FileName == "" {
		return fmt.Errorf("invalid script document: file_name is required")
	}

	docID, err := saveAssetRef(ctx, q, sd.Document)
	if err != nil {
		return err
	}

	uploadedAt := sd.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now().UTC()
	}

	// Locally only the latest script matters; replace rather than append.
	if _, err := q.ExecContext(ctx,
		`DELETE FROM script_documents WHERE project_id = ?`, sd.ProjectID); err != nil {
		return fmt.Errorf("failed to clear script documents: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO script_documents (id, project_id, file_name, document_id, uploaded_at)
		VALUES (?, ?, ?, ?, ?)`,
		sd.ID, sd.ProjectID, sd.FileName, docID, uploadedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert script document %s: %w", sd.ID, err)
	}
	return nil
}

// GetScript returns the project's script document, or nil if none is set.
func (s *Store) GetScript(ctx context.Context, projectID string) (*model.ScriptDocument, error) {
	return s.getScript(ctx, s.conn, projectID)
}

func (s *Store) getScript(ctx context.Context, q dbtx, projectID string) (*model.ScriptDocument, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, project_id, file_name, document_id, uploaded_at
		FROM script_documents WHERE project_id = ?
		ORDER BY uploaded_at DESC LIMIT 1`, projectID)

	var sd model.ScriptDocument
	var docID sql.NullString
	var uploadedAt string
	if err := row.Scan(&sd.ID, &sd.ProjectID, &sd.FileName, &docID, &uploadedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query script document: %w", err)
	}
	sd.UploadedAt = parseTime(uploadedAt)

	if docID.Valid {
		doc, err := getAsset(ctx, q, docID.String)
		if err != nil {
			return nil, fmt.Errorf("failed to load script asset: %w", err)
		}
		sd.Document = doc
	}
	return &sd, nil
}
