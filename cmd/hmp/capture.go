package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/model"
)

// cachePhoto loads a file into the local photo cache and returns the asset
// reference for it.
func cachePhoto(a *app, path string) (*model.Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	asset := &model.Asset{
		ID:       uuid.NewString(),
		FileName: filepath.Base(path),
		TakenAt:  time.Now().UTC(),
	}
	if err := a.cache.Put(asset.ID, data); err != nil {
		return nil, err
	}
	return asset, nil
}

var captureCmd = &cobra.Command{
	Use:     "capture",
	GroupID: "data",
	Short:   "Manage continuity captures",
}

var captureAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a continuity capture for a scene and character",
	RunE: func(cmd *cobra.Command, args []string) error {
		sceneID, _ := cmd.Flags().GetString("scene")
		characterID, _ := cmd.Flags().GetString("character")
		notes, _ := cmd.Flags().GetString("notes")
		if sceneID == "" || characterID == "" {
			return fmt.Errorf("--scene and --character are required")
		}

		a, err := openLocal(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		projectID, err := a.currentProject(ctx)
		if err != nil {
			return err
		}

		c := &model.SceneCapture{
			ID:          uuid.NewString(),
			ProjectID:   projectID,
			SceneID:     sceneID,
			CharacterID: characterID,
			Notes:       notes,
			UpdatedAt:   time.Now().UTC(),
		}

		for _, angle := range []struct {
			flag string
			dst  **model.Asset
		}{
			{"front", &c.Front},
			{"back", &c.Back},
			{"left", &c.Left},
			{"right", &c.Right},
		} {
			path, _ := cmd.Flags().GetString(angle.flag)
			if path == "" {
				continue
			}
			asset, err := cachePhoto(a, path)
			if err != nil {
				return err
			}
			*angle.dst = asset
		}

		extras, _ := cmd.Flags().GetStringSlice("extra")
		for _, path := range extras {
			asset, err := cachePhoto(a, path)
			if err != nil {
				return err
			}
			c.Extras = append(c.Extras, asset)
		}

		if err := a.store.UpsertCapture(ctx, c); err != nil {
			return err
		}
		fmt.Printf("Recorded capture %s\n", c.ID)
		return nil
	},
}

var captureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List captures in the current production",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openLocal(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		projectID, err := a.currentProject(ctx)
		if err != nil {
			return err
		}
		captures, err := a.store.ListCaptures(ctx, projectID)
		if err != nil {
			return err
		}
		for _, c := range captures {
			fmt.Printf("%s  scene %s / character %s  %d angles, %d extras\n",
				c.ID, c.SceneID, c.CharacterID, len(c.AnglePhotos()), len(c.Extras))
		}
		return nil
	},
}

var docCmd = &cobra.Command{
	Use:     "doc",
	GroupID: "data",
	Short:   "Attach production documents",
}

var docScheduleCmd = &cobra.Command{
	Use:   "schedule <pdf>",
	Short: "Attach a shooting-day schedule PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		day, _ := cmd.Flags().GetInt("day")
		date, _ := cmd.Flags().GetString("date")

		a, err := openLocal(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		projectID, err := a.currentProject(ctx)
		if err != nil {
			return err
		}
		asset, err := cachePhoto(a, args[0])
		if err != nil {
			return err
		}

		e := &model.ScheduleEntry{
			ID:        uuid.NewString(),
			ProjectID: projectID,
			ShootDay:  day,
			ShootDate: date,
			Document:  asset,
			UpdatedAt: time.Now().UTC(),
		}
		if err := a.store.UpsertScheduleEntry(ctx, e); err != nil {
			return err
		}
		fmt.Printf("Added schedule day %d (%s)\n", e.ShootDay, e.ID)
		return nil
	},
}

var docCallSheetCmd = &cobra.Command{
	Use:   "callsheet <pdf>",
	Short: "Attach a call sheet PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		day, _ := cmd.Flags().GetString("day")
		callTime, _ := cmd.Flags().GetString("call")
		if day == "" {
			return fmt.Errorf("--day is required")
		}

		a, err := openLocal(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		projectID, err := a.currentProject(ctx)
		if err != nil {
			return err
		}
		asset, err := cachePhoto(a, args[0])
		if err != nil {
			return err
		}

		cs := &model.CallSheet{
			ID:        uuid.NewString(),
			ProjectID: projectID,
			DayLabel:  day,
			CallTime:  callTime,
			Document:  asset,
			UpdatedAt: time.Now().UTC(),
		}
		if err := a.store.UpsertCallSheet(ctx, cs); err != nil {
			return err
		}
		fmt.Printf("Added call sheet %s (%s)\n", cs.DayLabel, cs.ID)
		return nil
	},
}

var docScriptCmd = &cobra.Command{
	Use:   "script <pdf>",
	Short: "Set the production script PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openLocal(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		projectID, err := a.currentProject(ctx)
		if err != nil {
			return err
		}
		asset, err := cachePhoto(a, args[0])
		if err != nil {
			return err
		}

		sd := &model.ScriptDocument{
			ID:         uuid.NewString(),
			ProjectID:  projectID,
			FileName:   filepath.Base(args[0]),
			Document:   asset,
			UploadedAt: time.Now().UTC(),
		}
		if err := a.store.SetScript(ctx, sd); err != nil {
			return err
		}
		fmt.Printf("Script set to %s (%s)\n", sd.FileName, sd.ID)
		return nil
	},
}

func init() {
	captureAddCmd.Flags().String("scene", "", "Scene ID (required)")
	captureAddCmd.Flags().String("character", "", "Character ID (required)")
	captureAddCmd.Flags().String("notes", "", "Continuity notes")
	captureAddCmd.Flags().String("front", "", "Front angle photo file")
	captureAddCmd.Flags().String("back", "", "Back angle photo file")
	captureAddCmd.Flags().String("left", "", "Left angle photo file")
	captureAddCmd.Flags().String("right", "", "Right angle photo file")
	captureAddCmd.Flags().StringSlice("extra", nil, "Extra photo files")
	captureCmd.AddCommand(captureAddCmd, captureListCmd)

	docScheduleCmd.Flags().Int("day", 0, "Shoot day number")
	docScheduleCmd.Flags().String("date", "", "Shoot date (YYYY-MM-DD)")
	docCallSheetCmd.Flags().String("day", "", "Day label, e.g. 'Day 3' (required)")
	docCallSheetCmd.Flags().String("call", "", "General call time")
	docCmd.AddCommand(docScheduleCmd, docCallSheetCmd, docScriptCmd)

	rootCmd.AddCommand(captureCmd, docCmd)
}
