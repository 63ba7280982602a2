package store

import (
	"context"
	"fmt"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/model"
)

// Snapshot returns a point-in-time copy of the project and all of its owned
// collections. The sync engine snapshots a category immediately before
// pushing it, so an in-flight save never observes a half-applied mutation.
func (s *Store) Snapshot(ctx context.Context, projectID string) (*model.Snapshot, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project %s: %w", projectID, err)
	}

	snap := &model.Snapshot{Project: project}

	if snap.Scenes, err = s.listScenes(ctx, s.conn, projectID); err != nil {
		return nil, err
	}
	if snap.Characters, err = s.listCharacters(ctx, s.conn, projectID); err != nil {
		return nil, err
	}
	if snap.Looks, err = s.listLooks(ctx, s.conn, projectID); err != nil {
		return nil, err
	}
	if snap.Captures, err = s.listCaptures(ctx, s.conn, projectID); err != nil {
		return nil, err
	}
	if snap.Schedule, err = s.listSchedule(ctx, s.conn, projectID); err != nil {
		return nil, err
	}
	if snap.CallSheets, err = s.listCallSheets(ctx, s.conn, projectID); err != nil {
		return nil, err
	}
	if snap.Script, err = s.getScript(ctx, s.conn, projectID); err != nil {
		return nil, err
	}

	return snap, nil
}

// ReplaceSnapshot replaces the project's local state wholesale with the given
// snapshot - last-writer-wins at category granularity, matching the push
// side. The whole replace runs in one transaction.
//
// Mutation notifications fire for every category after the replace; the
// caller is expected to hold the engine's receiving guard so they are
// suppressed rather than echoed back out as pushes.
func (s *Store) ReplaceSnapshot(ctx context.Context, snap *model.Snapshot) error {
	if snap == nil || snap.Project == nil {
		return fmt.Errorf("snapshot must carry a project")
	}
	if err := snap.Project.Validate(); err != nil {
		return fmt.Errorf("invalid snapshot project: %w", err)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	p := snap.Project
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO projects (id, name, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			owner_id = excluded.owner_id,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, nullStr(p.OwnerID).String,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt)); err != nil {
		return fmt.Errorf("failed to upsert project %s: %w", p.ID, err)
	}

	// Clear owned collections, then re-insert from the snapshot.
	clears := []string{
		`DELETE FROM scenes WHERE project_id = ?`,
		`DELETE FROM characters WHERE project_id = ?`,
		`DELETE FROM looks WHERE project_id = ?`,
		`DELETE FROM captures WHERE project_id = ?`,
		`DELETE FROM schedule_entries WHERE project_id = ?`,
		`DELETE FROM call_sheets WHERE project_id = ?`,
		`DELETE FROM script_documents WHERE project_id = ?`,
	}
	for _, stmt := range clears {
		if _, err := tx.ExecContext(ctx, stmt, p.ID); err != nil {
			return fmt.Errorf("failed to clear project state: %w", err)
		}
	}

	for _, sc := range snap.Scenes {
		if err := s.upsertScene(ctx, tx, sc); err != nil {
			return err
		}
	}
	for _, c := range snap.Characters {
		if err := s.upsertCharacter(ctx, tx, c); err != nil {
			return err
		}
	}
	for _, l := range snap.Looks {
		if err := s.upsertLook(ctx, tx, l); err != nil {
			return err
		}
	}
	for _, c := range snap.Captures {
		if err := s.upsertCapture(ctx, tx, c); err != nil {
			return err
		}
	}
	for _, e := range snap.Schedule {
		if err := s.upsertScheduleEntry(ctx, tx, e); err != nil {
			return err
		}
	}
	for _, cs := range snap.CallSheets {
		if err := s.upsertCallSheet(ctx, tx, cs); err != nil {
			return err
		}
	}
	if snap.Script != nil {
		if err := s.setScript(ctx, tx, snap.Script); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot replace: %w", err)
	}

	for _, cat := range model.Categories() {
		s.notify(cat)
	}
	return nil
}
