// Package snapshot exports and imports project snapshots as JSONL, one
// record per line with a type tag, for backups and moving a project between
// machines without going through the remote store.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/model"
)

// record kinds, one per line in the export.
const (
	kindProject   = "project"
	kindScene     = "scene"
	kindCharacter = "character"
	kindLook      = "look"
	kindCapture   = "capture"
	kindSchedule  = "schedule"
	kindCallSheet = "call_sheet"
	kindScript    = "script"
)

// line is the envelope for one JSONL record.
type line struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Export writes a snapshot as JSONL. The project record comes first so
// Import can validate before buffering collections.
func Export(w io.Writer, snap *model.Snapshot) error {
	if snap.Project == nil {
		return fmt.Errorf("snapshot has no project")
	}

	enc := json.NewEncoder(w)
	write := func(kind string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal %s record: %w", kind, err)
		}
		if err := enc.Encode(line{Kind: kind, Data: data}); err != nil {
			return fmt.Errorf("failed to write %s record: %w", kind, err)
		}
		return nil
	}

	if err := write(kindProject, snap.Project); err != nil {
		return err
	}
	for _, sc := range snap.Scenes {
		if err := write(kindScene, sc); err != nil {
			return err
		}
	}
	for _, c := range snap.Characters {
		if err := write(kindCharacter, c); err != nil {
			return err
		}
	}
	for _, l := range snap.Looks {
		if err := write(kindLook, l); err != nil {
			return err
		}
	}
	for _, c := range snap.Captures {
		if err := write(kindCapture, c); err != nil {
			return err
		}
	}
	for _, e := range snap.Schedule {
		if err := write(kindSchedule, e); err != nil {
			return err
		}
	}
	for _, cs := range snap.CallSheets {
		if err := write(kindCallSheet, cs); err != nil {
			return err
		}
	}
	if snap.Script != nil {
		if err := write(kindScript, snap.Script); err != nil {
			return err
		}
	}
	return nil
}

// ExportFile writes a snapshot to path, creating or truncating it.
func ExportFile(path string, snap *model.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := Export(f, snap); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to finish export file: %w", err)
	}
	return nil
}

// Import reads a JSONL stream back into a snapshot.
func Import(r io.Reader) (*model.Snapshot, error) {
	snap := &model.Snapshot{}
	dec := json.NewDecoder(r)
	lineNum := 0

	for {
		var ln line
		if err := dec.Decode(&ln); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("invalid JSON at line %d: %w", lineNum+1, err)
		}
		lineNum++

		switch ln.Kind {
		case kindProject:
			var p model.Project
			if err := json.Unmarshal(ln.Data, &p); err != nil {
				return nil, fmt.Errorf("bad project record at line %d: %w", lineNum, err)
			}
			snap.Project = &p
		case kindScene:
			var sc model.Scene
			if err := json.Unmarshal(ln.Data, &sc); err != nil {
				return nil, fmt.Errorf("bad scene record at line %d: %w", lineNum, err)
			}
			snap.Scenes = append(snap.Scenes, &sc)
		case kindCharacter:
			var c model.Character
			if err := json.Unmarshal(ln.Data, &c); err != nil {
				return nil, fmt.Errorf("bad character record at line %d: %w", lineNum, err)
			}
			snap.Characters = append(snap.Characters, &c)
		case kindLook:
			var l model.Look
			if err := json.Unmarshal(ln.Data, &l); err != nil {
				return nil, fmt.Errorf("bad look record at line %d: %w", lineNum, err)
			}
			snap.Looks = append(snap.Looks, &l)
		case kindCapture:
			var c model.SceneCapture
			if err := json.Unmarshal(ln.Data, &c); err != nil {
				return nil, fmt.Errorf("bad capture record at line %d: %w", lineNum, err)
			}
			snap.Captures = append(snap.Captures, &c)
		case kindSchedule:
			var e model.ScheduleEntry
			if err := json.Unmarshal(ln.Data, &e); err != nil {
				return nil, fmt.Errorf("bad schedule record at line %d: %w", lineNum, err)
			}
			snap.Schedule = append(snap.Schedule, &e)
		case kindCallSheet:
			var cs model.CallSheet
			if err := json.Unmarshal(ln.Data, &cs); err != nil {
				return nil, fmt.Errorf("bad call sheet record at line %d: %w", lineNum, err)
			}
			snap.CallSheets = append(snap.CallSheets, &cs)
		case kindScript:
			var sd model.ScriptDocument
			if err := json.Unmarshal(ln.Data, &sd); err != nil {
				return nil, fmt.Errorf("bad script record at line %d: %w", lineNum, err)
			}
			snap.Script = &sd
		default:
			return nil, fmt.Errorf("unknown record kind %q at line %d", ln.Kind, lineNum)
		}
	}

	if snap.Project == nil {
		return nil, fmt.Errorf("export contains no project record")
	}
	return snap, nil
}

// ImportFile reads a JSONL export from path.
func ImportFile(path string) (*model.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export file: %w", err)
	}
	defer f.Close()
	return Import(f)
}
