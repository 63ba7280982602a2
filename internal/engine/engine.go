// Package engine is the local-first sync engine. It tracks local mutations
// by category, debounces them into remote pushes, and pulls authoritative
// remote snapshots back into the local store without echoing them out again.
package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/assets"
	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/model"
	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/remote"
	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/store"
)

// EventKind classifies engine events for observers.
type EventKind string

const (
	EventScheduled  EventKind = "scheduled"
	EventSaved      EventKind = "saved"
	EventSaveFailed EventKind = "save_failed"
	EventPulled     EventKind = "pulled"
)

// Event is a sync lifecycle notification delivered to listeners.
type Event struct {
	Kind     EventKind      `json:"kind"`
	Category model.Category `json:"category,omitempty"`
	Error    string         `json:"error,omitempty"`
	At       time.Time      `json:"at"`
}

// Listener receives engine events. Listeners must not block; they are called
// synchronously on the engine's save path.
type Listener func(Event)

// Config holds engine configuration.
type Config struct {
	// Scheduler tunes the debounce behavior. Nil means defaults.
	Scheduler *SchedulerConfig

	// Logger for engine activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scheduler: DefaultSchedulerConfig(),
		Logger:    log.New(os.Stderr, "[engine] ", log.LstdFlags),
	}
}

// Engine coordinates the local store, the remote adapter, and the debounce
// scheduler. It registers itself as the store's mutation hook.
type Engine struct {
	store    *store.Store
	remote   *remote.DB
	uploader *assets.Uploader
	sessions SessionChecker
	sched    *Scheduler
	logger   *log.Logger

	mu        sync.Mutex
	receiving int
	listeners []Listener
}

// New creates an engine and hooks it into the store's mutation
// notifications.
func New(st *store.Store, rdb *remote.DB, up *assets.Uploader, sessions SessionChecker, config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[engine] ", log.LstdFlags)
	}
	e := &Engine{
		store:    st,
		remote:   rdb,
		uploader: up,
		sessions: sessions,
		sched:    NewScheduler(sessions, config.Scheduler),
		logger:   config.Logger,
	}
	st.SetOnMutate(e.NotifyMutation)
	return e
}

// AddListener registers an observer for engine events.
func (e *Engine) AddListener(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

func (e *Engine) emit(ev Event) {
	ev.At = time.Now()
	e.mu.Lock()
	ls := make([]Listener, len(e.listeners))
	copy(ls, e.listeners)
	e.mu.Unlock()
	for _, l := range ls {
		l(ev)
	}
}

// NotifyMutation records a local mutation to one category. If the engine is
// currently applying remote data, the mutation is an echo and is dropped;
// otherwise the category's debounced save is (re)scheduled.
func (e *Engine) NotifyMutation(cat model.Category) {
	if !cat.Valid() {
		e.logger.Printf("WARNING: mutation for unknown category %q ignored", cat)
		return
	}

	e.mu.Lock()
	suppressed := e.receiving > 0
	e.mu.Unlock()
	if suppressed {
		return
	}

	e.emit(Event{Kind: EventScheduled, Category: cat})
	e.sched.Schedule(cat, e.saveFunc(cat))
}

// BeginRemoteApply marks the start of a bulk write of remote-sourced data
// into the local store. Mutations observed until the returned function is
// called are treated as echoes and not scheduled for push. The returned
// function is idempotent and must be called on every exit path.
func (e *Engine) BeginRemoteApply() func() {
	e.mu.Lock()
	e.receiving++
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			e.receiving--
			e.mu.Unlock()
		})
	}
}

// saveFunc builds the push operation for one category. The local snapshot is
// taken when the save runs, not when it is scheduled, so the debounce window
// naturally coalesces to the latest state.
func (e *Engine) saveFunc(cat model.Category) SaveFunc {
	return func(ctx context.Context) error {
		err := e.saveCategory(ctx, cat)
		if err != nil {
			e.emit(Event{Kind: EventSaveFailed, Category: cat, Error: err.Error()})
			return err
		}
		e.emit(Event{Kind: EventSaved, Category: cat})
		return nil
	}
}

func (e *Engine) saveCategory(ctx context.Context, cat model.Category) error {
	projectID, err := e.store.CurrentProjectID(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve current project: %w", err)
	}
	if projectID == "" {
		return fmt.Errorf("no current project")
	}

	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to load project %s: %w", projectID, err)
	}
	if err := e.remote.UpsertProject(ctx, project); err != nil {
		return err
	}

	var uploaded remote.UploadedPaths
	switch cat {
	case model.CategoryScenes:
		scenes, err := e.store.ListScenes(ctx, projectID)
		if err != nil {
			return err
		}
		return e.remote.SaveScenes(ctx, projectID, scenes)

	case model.CategoryCharacters:
		chars, err := e.store.ListCharacters(ctx, projectID)
		if err != nil {
			return err
		}
		return e.remote.SaveCharacters(ctx, projectID, chars)

	case model.CategoryLooks:
		looks, err := e.store.ListLooks(ctx, projectID)
		if err != nil {
			return err
		}
		if uploaded, err = e.remote.SaveLooks(ctx, projectID, looks, e.uploader); err != nil {
			return err
		}

	case model.CategoryCaptures:
		captures, err := e.store.ListCaptures(ctx, projectID)
		if err != nil {
			return err
		}
		if uploaded, err = e.remote.SaveCaptures(ctx, projectID, captures, e.uploader); err != nil {
			return err
		}

	case model.CategorySchedule:
		entries, err := e.store.ListSchedule(ctx, projectID)
		if err != nil {
			return err
		}
		if uploaded, err = e.remote.SaveSchedule(ctx, projectID, entries, e.uploader); err != nil {
			return err
		}

	case model.CategoryCallSheets:
		sheets, err := e.store.ListCallSheets(ctx, projectID)
		if err != nil {
			return err
		}
		if uploaded, err = e.remote.SaveCallSheets(ctx, projectID, sheets, e.uploader); err != nil {
			return err
		}

	case model.CategoryScript:
		script, err := e.store.GetScript(ctx, projectID)
		if err != nil {
			return err
		}
		if uploaded, err = e.remote.SaveScript(ctx, projectID, script, e.uploader); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown category %q", cat)
	}

	e.recordUploadedPaths(ctx, uploaded)
	return nil
}

// recordUploadedPaths writes confirmed storage paths back into the local
// store so later saves short-circuit. The write is remote-sourced, so it
// runs under the receiving guard.
func (e *Engine) recordUploadedPaths(ctx context.Context, uploaded remote.UploadedPaths) {
	if len(uploaded) == 0 {
		return
	}
	done := e.BeginRemoteApply()
	defer done()

	for assetID, storagePath := range uploaded {
		if err := e.store.SetAssetStoragePath(ctx, assetID, storagePath); err != nil {
			e.logger.Printf("WARNING: failed to record storage path for asset %s: %v", assetID, err)
		}
	}
}

// SaveEverything cancels all pending debounce timers and pushes every
// category in sequence, returning the categories that failed. It never
// returns an error itself; with no active session it skips all writes and
// reports nothing failed.
func (e *Engine) SaveEverything(ctx context.Context) []model.Category {
	e.sched.CancelAll()

	if !e.sessions.HasActiveSession() {
		e.logger.Println("WARNING: skipping full save: no active session")
		return nil
	}

	var failed []model.Category
	for _, cat := range model.Categories() {
		if err := e.saveFunc(cat)(ctx); err != nil {
			e.logger.Printf("WARNING: full save: %s failed: %v", cat, err)
			failed = append(failed, cat)
		}
	}
	return failed
}

// FlushAutoSave runs every pending debounced save immediately. Call before
// process teardown.
func (e *Engine) FlushAutoSave(ctx context.Context) {
	e.sched.FlushAll(ctx)
}

// Pull fetches the authoritative remote snapshot for the project and
// replaces local state wholesale. The replacement runs under the receiving
// guard so none of it echoes back out as a push.
func (e *Engine) Pull(ctx context.Context, projectID string) error {
	if projectID == "" {
		id, err := e.store.CurrentProjectID(ctx)
		if err != nil {
			return fmt.Errorf("failed to resolve current project: %w", err)
		}
		if id == "" {
			return fmt.Errorf("no current project")
		}
		projectID = id
	}

	snap, err := e.remote.FetchSnapshot(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to fetch remote snapshot: %w", err)
	}

	done := e.BeginRemoteApply()
	defer done()

	if err := e.store.ReplaceSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("failed to apply remote snapshot: %w", err)
	}
	if err := e.store.SetCurrentProject(ctx, projectID); err != nil {
		return fmt.Errorf("failed to set current project: %w", err)
	}

	e.emit(Event{Kind: EventPulled})
	return nil
}

// Status is a point-in-time diagnostic view of the engine.
type Status struct {
	Pending    []model.Category          `json:"pending,omitempty"`
	Failures   map[model.Category]int    `json:"failures,omitempty"`
	LastErrors map[model.Category]string `json:"last_errors,omitempty"`
}

// Status reports pending categories and failure diagnostics for sync-status
// indicators.
func (e *Engine) Status() Status {
	st := Status{
		Pending:    e.sched.Pending(),
		Failures:   make(map[model.Category]int),
		LastErrors: make(map[model.Category]string),
	}
	for _, cat := range model.Categories() {
		if n := e.sched.FailureCount(cat); n > 0 {
			st.Failures[cat] = n
		}
		if msg := e.sched.LastError(cat); msg != "" {
			st.LastErrors[cat] = msg
		}
	}
	return st
}
