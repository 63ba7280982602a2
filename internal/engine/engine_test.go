package engine

import (
	"context"
	"database/sql"
	"io"
	"log"
	"testing"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/assets"
	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/model"
	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/remote"
	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/store"
)

type nullBlobStore struct{ uploads int }

func (n *nullBlobStore) Upload(ctx context.Context, path, contentType string, content io.Reader) error {
	n.uploads++
	return nil
}

type nullCache struct{}

func (nullCache) Get(id string) ([]byte, error) { return nil, nil }

type testEnv struct {
	store     *store.Store
	remote    *remote.DB
	remoteSQL *sql.DB
	engine    *Engine
	clock     *fakeClock
	sessions  *stubSessions
}

func setupEngine(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	quiet := log.New(io.Discard, "", 0)

	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.InitSchema(ctx); err != nil {
		t.Fatalf("failed to init local schema: %v", err)
	}

	project := &model.Project{ID: "proj-1", Name: "Night Shoot"}
	if err := st.CreateProject(ctx, project); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	if err := st.SetCurrentProject(ctx, "proj-1"); err != nil {
		t.Fatalf("failed to set current project: %v", err)
	}

	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open remote database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	rdb := remote.NewWithConn(conn, quiet)
	if err := rdb.InitSchema(ctx); err != nil {
		t.Fatalf("failed to init remote schema: %v", err)
	}

	up := assets.NewUploader(&nullBlobStore{}, nullCache{}, quiet)
	clock := &fakeClock{}
	sessions := &stubSessions{active: true}

	eng := New(st, rdb, up, sessions, &Config{
		Scheduler: &SchedulerConfig{Debounce: time.Second, Clock: clock, Logger: quiet},
		Logger:    quiet,
	})

	return &testEnv{store: st, remote: rdb, remoteSQL: conn, engine: eng, clock: clock, sessions: sessions}
}

func remoteCount(t *testing.T, conn *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := conn.QueryRowContext(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	return n
}

func TestLocalMutationPushesAfterDebounce(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	err := env.store.UpsertScene(ctx, &model.Scene{
		ID: "sc-1", ProjectID: "proj-1", SceneNumber: "12", Title: "Alley",
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if pending := env.engine.Status().Pending; len(pending) != 1 || pending[0] != model.CategoryScenes {
		t.Fatalf("pending = %v, want [scenes]", pending)
	}

	env.clock.Advance(time.Second)

	if got := remoteCount(t, env.remoteSQL, `SELECT COUNT(*) FROM scenes`); got != 1 {
		t.Errorf("remote scene rows = %d, want 1", got)
	}
	if got := remoteCount(t, env.remoteSQL, `SELECT COUNT(*) FROM projects`); got != 1 {
		t.Errorf("remote project rows = %d, want 1", got)
	}
}

func TestRapidMutationsCoalesceToOnePush(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	saves := 0
	env.engine.AddListener(func(ev Event) {
		if ev.Kind == EventSaved && ev.Category == model.CategoryScenes {
			saves++
		}
	})

	for _, title := range []string{"v1", "v2", "v3"} {
		err := env.store.UpsertScene(ctx, &model.Scene{
			ID: "sc-1", ProjectID: "proj-1", SceneNumber: "12", Title: title,
		})
		if err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
		env.clock.Advance(200 * time.Millisecond)
	}
	env.clock.Advance(time.Second)

	if saves != 1 {
		t.Errorf("scene pushes = %d, want 1", saves)
	}

	var title string
	err := env.remoteSQL.QueryRowContext(ctx,
		`SELECT title FROM scenes WHERE id = ?`, "sc-1").Scan(&title)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if title != "v3" {
		t.Errorf("remote title = %q, want v3 (latest snapshot wins)", title)
	}
}

func TestRemoteApplySuppressesEcho(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	done := env.engine.BeginRemoteApply()
	err := env.store.UpsertScene(ctx, &model.Scene{
		ID: "sc-1", ProjectID: "proj-1", SceneNumber: "12",
	})
	done()
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if pending := env.engine.Status().Pending; len(pending) != 0 {
		t.Errorf("pending = %v, want none for suppressed mutation", pending)
	}

	// The guard is scoped: a mutation after release schedules normally.
	err = env.store.UpsertScene(ctx, &model.Scene{
		ID: "sc-2", ProjectID: "proj-1", SceneNumber: "13",
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if pending := env.engine.Status().Pending; len(pending) != 1 {
		t.Errorf("pending = %v, want [scenes] after guard release", pending)
	}
}

func TestPullReplacesLocalStateWithoutEcho(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	// Seed the remote with a different view of the project.
	if err := env.remote.UpsertProject(ctx, &model.Project{ID: "proj-1", Name: "Night Shoot"}); err != nil {
		t.Fatalf("remote project failed: %v", err)
	}
	if err := env.remote.SaveScenes(ctx, "proj-1", []*model.Scene{
		{ID: "sc-9", ProjectID: "proj-1", SceneNumber: "44", Title: "Bridge"},
	}); err != nil {
		t.Fatalf("remote scenes failed: %v", err)
	}

	// A stale local scene that the pull must wipe.
	if err := env.store.UpsertScene(ctx, &model.Scene{
		ID: "sc-old", ProjectID: "proj-1", SceneNumber: "1",
	}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	env.engine.sched.CancelAll()

	if err := env.engine.Pull(ctx, "proj-1"); err != nil {
		t.Fatalf("pull failed: %v", err)
	}

	scenes, err := env.store.ListScenes(ctx, "proj-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(scenes) != 1 || scenes[0].ID != "sc-9" {
		t.Fatalf("scenes after pull = %+v, want only sc-9", scenes)
	}

	if pending := env.engine.Status().Pending; len(pending) != 0 {
		t.Errorf("pending = %v, want none (pull must not echo)", pending)
	}
}

func TestSaveEverythingReportsPartialFailure(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	if err := env.store.UpsertScene(ctx, &model.Scene{
		ID: "sc-1", ProjectID: "proj-1", SceneNumber: "12",
	}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := env.store.UpsertCharacter(ctx, &model.Character{
		ID: "ch-1", ProjectID: "proj-1", Name: "Mara",
	}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	// Break only the characters category remotely.
	if _, err := env.remoteSQL.ExecContext(ctx, `DROP TABLE characters`); err != nil {
		t.Fatalf("drop failed: %v", err)
	}

	failed := env.engine.SaveEverything(ctx)

	if len(failed) != 1 || failed[0] != model.CategoryCharacters {
		t.Fatalf("failed = %v, want [characters]", failed)
	}
	if got := remoteCount(t, env.remoteSQL, `SELECT COUNT(*) FROM scenes`); got != 1 {
		t.Errorf("remote scene rows = %d, want 1 (other categories still saved)", got)
	}
	if pending := env.engine.Status().Pending; len(pending) != 0 {
		t.Errorf("pending = %v, want none after full save", pending)
	}
}

func TestSaveEverythingSkipsWithoutSession(t *testing.T) {
	env := setupEngine(t)
	env.sessions.active = false

	failed := env.engine.SaveEverything(context.Background())
	if len(failed) != 0 {
		t.Errorf("failed = %v, want none (no session is not an error)", failed)
	}
	if got := remoteCount(t, env.remoteSQL, `SELECT COUNT(*) FROM projects`); got != 0 {
		t.Errorf("remote project rows = %d, want 0", got)
	}
}

func TestFlushAutoSavePushesPendingCategories(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	if err := env.store.UpsertScene(ctx, &model.Scene{
		ID: "sc-1", ProjectID: "proj-1", SceneNumber: "12",
	}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := env.store.UpsertCharacter(ctx, &model.Character{
		ID: "ch-1", ProjectID: "proj-1", Name: "Mara",
	}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	env.engine.FlushAutoSave(ctx)

	if got := remoteCount(t, env.remoteSQL, `SELECT COUNT(*) FROM scenes`); got != 1 {
		t.Errorf("remote scene rows = %d, want 1", got)
	}
	if got := remoteCount(t, env.remoteSQL, `SELECT COUNT(*) FROM characters`); got != 1 {
		t.Errorf("remote character rows = %d, want 1", got)
	}
	if pending := env.engine.Status().Pending; len(pending) != 0 {
		t.Errorf("pending = %v, want none after flush", pending)
	}
}

func TestStatusReportsFailures(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	if err := env.store.UpsertCharacter(ctx, &model.Character{
		ID: "ch-1", ProjectID: "proj-1", Name: "Mara",
	}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if _, err := env.remoteSQL.ExecContext(ctx, `DROP TABLE characters`); err != nil {
		t.Fatalf("drop failed: %v", err)
	}

	env.clock.Advance(time.Second)

	st := env.engine.Status()
	if st.Failures[model.CategoryCharacters] != 1 {
		t.Errorf("failures = %v, want characters: 1", st.Failures)
	}
	if st.LastErrors[model.CategoryCharacters] == "" {
		t.Error("expected a last-error message for characters")
	}
}
