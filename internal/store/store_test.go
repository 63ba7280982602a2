package store

import (
	"context"
	"testing"
	"time"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/model"
)

// setupStore creates an in-memory store with schema and a project.
func setupStore(t *testing.T) (*Store, *model.Project) {
	t.Helper()

	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	if err := s.InitSchema(ctx); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}

	p := &model.Project{ID: "proj-1", Name: "Night Shoot", OwnerID: "user-1"}
	if err := s.CreateProject(ctx, p); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return s, p
}

func TestCurrentProject(t *testing.T) {
	s, p := setupStore(t)
	ctx := context.Background()

	id, err := s.CurrentProjectID(ctx)
	if err != nil {
		t.Fatalf("CurrentProjectID: %v", err)
	}
	if id != "" {
		t.Errorf("expected no current project, got %q", id)
	}

	if err := s.SetCurrentProject(ctx, p.ID); err != nil {
		t.Fatalf("SetCurrentProject: %v", err)
	}
	id, err = s.CurrentProjectID(ctx)
	if err != nil {
		t.Fatalf("CurrentProjectID: %v", err)
	}
	if id != p.ID {
		t.Errorf("CurrentProjectID = %q, want %q", id, p.ID)
	}
}

func TestSceneRoundTrip(t *testing.T) {
	s, p := setupStore(t)
	ctx := context.Background()

	sc := &model.Scene{
		ID:           "scene-1",
		ProjectID:    p.ID,
		SceneNumber:  "12A",
		Title:        "Rooftop chase",
		TimeOfDay:    "NIGHT",
		IntExt:       "EXT",
		SortOrder:    3,
		CharacterIDs: []string{"char-1", "char-2"},
	}
	if err := s.UpsertScene(ctx, sc); err != nil {
		t.Fatalf("UpsertScene: %v", err)
	}

	// Upsert again with a reduced junction set; removed links must disappear.
	sc.CharacterIDs = []string{"char-2"}
	if err := s.UpsertScene(ctx, sc); err != nil {
		t.Fatalf("UpsertScene again: %v", err)
	}

	scenes, err := s.ListScenes(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListScenes: %v", err)
	}
	if len(scenes) != 1 {
		t.Fatalf("expected 1 scene, got %d", len(scenes))
	}
	got := scenes[0]
	if got.SceneNumber != "12A" || got.Title != "Rooftop chase" || got.TimeOfDay != "NIGHT" {
		t.Errorf("scene fields mismatch: %+v", got)
	}
	if len(got.CharacterIDs) != 1 || got.CharacterIDs[0] != "char-2" {
		t.Errorf("junction set not replaced: %v", got.CharacterIDs)
	}
}

func TestLookRoundTrip(t *testing.T) {
	s, p := setupStore(t)
	ctx := context.Background()

	l := &model.Look{
		ID:           "look-1",
		ProjectID:    p.ID,
		CharacterID:  "char-1",
		Name:         "Act 2 burn scar",
		Notes:        "prosthetic, 40min application",
		SceneNumbers: []string{"12", "14"},
		MasterPhoto:  &model.Asset{ID: "photo-1", TakenAt: time.Now().UTC()},
	}
	if err := s.UpsertLook(ctx, l); err != nil {
		t.Fatalf("UpsertLook: %v", err)
	}

	looks, err := s.ListLooks(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListLooks: %v", err)
	}
	if len(looks) != 1 {
		t.Fatalf("expected 1 look, got %d", len(looks))
	}
	got := looks[0]
	if got.MasterPhoto == nil || got.MasterPhoto.ID != "photo-1" {
		t.Errorf("master photo not loaded: %+v", got.MasterPhoto)
	}
	if len(got.SceneNumbers) != 2 {
		t.Errorf("scene numbers = %v, want 2 entries", got.SceneNumbers)
	}
}

func TestCaptureRoundTrip(t *testing.T) {
	s, p := setupStore(t)
	ctx := context.Background()

	c := &model.SceneCapture{
		ID:          "cap-1",
		ProjectID:   p.ID,
		SceneID:     "scene-1",
		CharacterID: "char-1",
		Notes:       "end of scene state",
		Front:       &model.Asset{ID: "photo-f"},
		Left:        &model.Asset{ID: "photo-l"},
		Extras:      []*model.Asset{{ID: "photo-x1"}, {ID: "photo-x2"}},
	}
	if err := s.UpsertCapture(ctx, c); err != nil {
		t.Fatalf("UpsertCapture: %v", err)
	}

	captures, err := s.ListCaptures(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListCaptures: %v", err)
	}
	if len(captures) != 1 {
		t.Fatalf("expected 1 capture, got %d", len(captures))
	}
	got := captures[0]
	if got.Front == nil || got.Front.ID != "photo-f" {
		t.Errorf("front photo not loaded: %+v", got.Front)
	}
	if got.Back != nil {
		t.Errorf("back photo should be nil, got %+v", got.Back)
	}
	if len(got.Extras) != 2 || got.Extras[0].ID != "photo-x1" {
		t.Errorf("extras mismatch: %+v", got.Extras)
	}
}

func TestSetAssetStoragePath(t *testing.T) {
	s, p := setupStore(t)
	ctx := context.Background()

	c := &model.SceneCapture{
		ID: "cap-1", ProjectID: p.ID, SceneID: "scene-1", CharacterID: "char-1",
		Front: &model.Asset{ID: "photo-f"},
	}
	if err := s.UpsertCapture(ctx, c); err != nil {
		t.Fatalf("UpsertCapture: %v", err)
	}

	if err := s.SetAssetStoragePath(ctx, "photo-f", "projects/proj-1/captures/cap-1/photo-f.jpg"); err != nil {
		t.Fatalf("SetAssetStoragePath: %v", err)
	}

	captures, err := s.ListCaptures(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListCaptures: %v", err)
	}
	if got := captures[0].Front.StoragePath; got != "projects/proj-1/captures/cap-1/photo-f.jpg" {
		t.Errorf("storage path = %q, want recorded path", got)
	}
}

func TestScriptReplacedLocally(t *testing.T) {
	s, p := setupStore(t)
	ctx := context.Background()

	first := &model.ScriptDocument{ID: "script-1", ProjectID: p.ID, FileName: "draft_v1.pdf"}
	second := &model.ScriptDocument{ID: "script-2", ProjectID: p.ID, FileName: "draft_v2.pdf"}

	if err := s.SetScript(ctx, first); err != nil {
		t.Fatalf("SetScript: %v", err)
	}
	if err := s.SetScript(ctx, second); err != nil {
		t.Fatalf("SetScript: %v", err)
	}

	got, err := s.GetScript(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetScript: %v", err)
	}
	if got == nil || got.ID != "script-2" {
		t.Errorf("GetScript = %+v, want script-2", got)
	}
}

func TestMutationNotifications(t *testing.T) {
	s, p := setupStore(t)
	ctx := context.Background()

	var got []model.Category
	s.SetOnMutate(func(cat model.Category) { got = append(got, cat) })

	if err := s.UpsertScene(ctx, &model.Scene{ID: "sc-1", ProjectID: p.ID, SceneNumber: "1"}); err != nil {
		t.Fatalf("UpsertScene: %v", err)
	}
	if err := s.UpsertCharacter(ctx, &model.Character{ID: "ch-1", ProjectID: p.ID, Name: "Ash"}); err != nil {
		t.Fatalf("UpsertCharacter: %v", err)
	}
	if err := s.UpsertCallSheet(ctx, &model.CallSheet{ID: "cs-1", ProjectID: p.ID, DayLabel: "Day 4"}); err != nil {
		t.Fatalf("UpsertCallSheet: %v", err)
	}

	want := []model.Category{model.CategoryScenes, model.CategoryCharacters, model.CategoryCallSheets}
	if len(got) != len(want) {
		t.Fatalf("notifications = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSnapshotReplace(t *testing.T) {
	s, p := setupStore(t)
	ctx := context.Background()

	if err := s.UpsertScene(ctx, &model.Scene{ID: "old-scene", ProjectID: p.ID, SceneNumber: "99"}); err != nil {
		t.Fatalf("UpsertScene: %v", err)
	}

	snap := &model.Snapshot{
		Project: p,
		Scenes: []*model.Scene{
			{ID: "scene-1", ProjectID: p.ID, SceneNumber: "1", CharacterIDs: []string{"char-1"}},
			{ID: "scene-2", ProjectID: p.ID, SceneNumber: "2"},
		},
		Characters: []*model.Character{{ID: "char-1", ProjectID: p.ID, Name: "Ash"}},
		Script:     &model.ScriptDocument{ID: "script-1", ProjectID: p.ID, FileName: "draft.pdf"},
	}

	var notified []model.Category
	s.SetOnMutate(func(cat model.Category) { notified = append(notified, cat) })

	if err := s.ReplaceSnapshot(ctx, snap); err != nil {
		t.Fatalf("ReplaceSnapshot: %v", err)
	}

	// Every category notifies exactly once so the engine's receiving guard
	// has something to suppress.
	if len(notified) != len(model.Categories()) {
		t.Errorf("notified %d categories, want %d", len(notified), len(model.Categories()))
	}

	scenes, err := s.ListScenes(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListScenes: %v", err)
	}
	if len(scenes) != 2 {
		t.Fatalf("expected 2 scenes after replace, got %d", len(scenes))
	}
	for _, sc := range scenes {
		if sc.ID == "old-scene" {
			t.Errorf("old scene survived wholesale replace")
		}
	}

	roundTrip, err := s.Snapshot(ctx, p.ID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(roundTrip.Scenes) != 2 || len(roundTrip.Characters) != 1 || roundTrip.Script == nil {
		t.Errorf("snapshot round trip mismatch: %+v", roundTrip)
	}
}
