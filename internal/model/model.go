// Package model provides the data structures tracked by the hmp sync engine.
//
// Entities are local-first: they live in the local store and are pushed to
// the shared remote database by category. Fields are flat with last-write-wins
// semantics; UpdatedAt timestamps resolve conflicts at category granularity.
package model

import (
	"fmt"
	"time"
)

// Category identifies one of the data groupings the sync engine tracks and
// persists independently.
type Category string

const (
	CategoryScenes     Category = "scenes"
	CategoryCharacters Category = "characters"
	CategoryLooks      Category = "looks"
	CategoryCaptures   Category = "captures"
	CategorySchedule   Category = "schedule"
	CategoryCallSheets Category = "callsheets"
	CategoryScript     Category = "script"
)

// Categories returns all categories in the order full saves run them.
func Categories() []Category {
	return []Category{
		CategoryScenes,
		CategoryCharacters,
		CategoryLooks,
		CategoryCaptures,
		CategorySchedule,
		CategoryCallSheets,
		CategoryScript,
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryScenes, CategoryCharacters, CategoryLooks, CategoryCaptures,
		CategorySchedule, CategoryCallSheets, CategoryScript:
		return true
	}
	return false
}

// Asset is a binary attachment: a continuity photo or an out-of-band PDF
// (schedule, call sheet, script). Content is reachable either from the local
// binary cache keyed by ID, or from InlineData (base64). Once uploaded,
// StoragePath is the single source of truth for "already uploaded" -
// subsequent uploads of the same asset are a no-op.
type Asset struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name,omitempty"`
	TakenAt     time.Time `json:"taken_at,omitempty"`
	StoragePath string    `json:"storage_path,omitempty"`
	InlineData  string    `json:"inline_data,omitempty"` // base64-encoded fallback content
}

// Project is the root aggregate. Exactly one project is "current" in the
// client at a time.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks required project fields.
func (p *Project) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// Scene belongs to a project. Its ID is globally unique; its human-facing
// SceneNumber must be unique within the project, an invariant the remote
// store enforces and the client satisfies by deduplicating before upsert.
type Scene struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	SceneNumber string `json:"scene_number"`
	Title       string `json:"title,omitempty"`
	TimeOfDay   string `json:"time_of_day,omitempty"` // DAY, NIGHT, DUSK, DAWN
	IntExt      string `json:"int_ext,omitempty"`     // INT, EXT, INT/EXT
	ScriptDay   string `json:"script_day,omitempty"`
	SortOrder   int    `json:"sort_order"`

	// CharacterIDs is the scene<->character junction set, reconciled remotely
	// as a replace-whole-set operation, not as part of the scene row upsert.
	CharacterIDs []string `json:"character_ids,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks required scene fields.
func (s *Scene) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("id is required")
	}
	if s.ProjectID == "" {
		return fmt.Errorf("project_id is required")
	}
	if s.SceneNumber == "" {
		return fmt.Errorf("scene_number is required")
	}
	return nil
}

// Character belongs to a project.
type Character struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	ActorName string    `json:"actor_name,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks required character fields.
func (c *Character) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("id is required")
	}
	if c.ProjectID == "" {
		return fmt.Errorf("project_id is required")
	}
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// Look is a hair/makeup design for a character. SceneNumbers is the
// look<->scene junction set; MasterPhoto is an optional reference photo.
type Look struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	CharacterID  string    `json:"character_id"`
	Name         string    `json:"name"`
	Notes        string    `json:"notes,omitempty"`
	SceneNumbers []string  `json:"scene_numbers,omitempty"`
	MasterPhoto  *Asset    `json:"master_photo,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate checks required look fields.
func (l *Look) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("id is required")
	}
	if l.CharacterID == "" {
		return fmt.Errorf("character_id is required")
	}
	if l.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// SceneCapture is one continuity record per (scene, character) pair. It owns
// up to four fixed-angle photos plus an open-ended list of extra photos.
type SceneCapture struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	SceneID     string `json:"scene_id"`
	CharacterID string `json:"character_id"`
	Notes       string `json:"notes,omitempty"`

	Front *Asset `json:"front,omitempty"`
	Back  *Asset `json:"back,omitempty"`
	Left  *Asset `json:"left,omitempty"`
	Right *Asset `json:"right,omitempty"`

	Extras []*Asset `json:"extras,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks required capture fields.
func (sc *SceneCapture) Validate() error {
	if sc.ID == "" {
		return fmt.Errorf("id is required")
	}
	if sc.SceneID == "" {
		return fmt.Errorf("scene_id is required")
	}
	if sc.CharacterID == "" {
		return fmt.Errorf("character_id is required")
	}
	return nil
}

// AnglePhotos returns the fixed-angle photos that are set, keyed by angle
// name. Iteration order is fixed: front, back, left, right.
func (sc *SceneCapture) AnglePhotos() []AnglePhoto {
	var out []AnglePhoto
	for _, ap := range []AnglePhoto{
		{Angle: "front", Photo: sc.Front},
		{Angle: "back", Photo: sc.Back},
		{Angle: "left", Photo: sc.Left},
		{Angle: "right", Photo: sc.Right},
	} {
		if ap.Photo != nil {
			out = append(out, ap)
		}
	}
	return out
}

// AnglePhoto pairs a fixed angle name with its photo.
type AnglePhoto struct {
	Angle string
	Photo *Asset
}

// ScheduleEntry is one shooting day of the schedule, optionally carrying the
// schedule PDF for that day.
type ScheduleEntry struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	ShootDay  int       `json:"shoot_day"`
	ShootDate string    `json:"shoot_date,omitempty"` // YYYY-MM-DD
	Document  *Asset    `json:"document,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CallSheet is a per-day call sheet, optionally carrying its PDF.
type CallSheet struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	DayLabel  string    `json:"day_label"`
	CallTime  string    `json:"call_time,omitempty"`
	Document  *Asset    `json:"document,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScriptDocument is the project's script PDF. Remotely, script uploads are
// append-only rows with an is_active flag; exactly one row is active per
// project at steady state.
type ScriptDocument struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	FileName   string    `json:"file_name"`
	Document   *Asset    `json:"document,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Snapshot is a point-in-time copy of a project and all of its owned
// collections, as exchanged between the local store and the remote store.
type Snapshot struct {
	Project    *Project         `json:"project"`
	Scenes     []*Scene         `json:"scenes,omitempty"`
	Characters []*Character     `json:"characters,omitempty"`
	Looks      []*Look          `json:"looks,omitempty"`
	Captures   []*SceneCapture  `json:"captures,omitempty"`
	Schedule   []*ScheduleEntry `json:"schedule,omitempty"`
	CallSheets []*CallSheet     `json:"call_sheets,omitempty"`
	Script     *ScriptDocument  `json:"script,omitempty"`
}
