package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/model"
)

var sceneCmd = &cobra.Command{
	Use:     "scene",
	GroupID: "data",
	Short:   "Manage scenes",
}

var sceneAddCmd = &cobra.Command{
	Use:   "add <number>",
	Short: "Add a scene to the current production",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		timeOfDay, _ := cmd.Flags().GetString("time")
		intExt, _ := cmd.Flags().GetString("int-ext")
		characters, _ := cmd.Flags().GetStringSlice("characters")
		order, _ := cmd.Flags().GetInt("order")

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

		sc := &model.Scene{
			ID:           uuid.NewString(),
			ProjectID:    projectID,
			SceneNumber:  args[0],
			Title:        title,
			TimeOfDay:    strings.ToUpper(timeOfDay),
			IntExt:       strings.ToUpper(intExt),
			SortOrder:    order,
			CharacterIDs: characters,
			UpdatedAt:    time.Now().UTC(),
		}
		if err := a.store.UpsertScene(ctx, sc); err != nil {
			return err
		}
		fmt.Printf("Added scene %s (%s)\n", sc.SceneNumber, sc.ID)
		return nil
	},
}

var sceneListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scenes in the current production",
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
		scenes, err := a.store.ListScenes(ctx, projectID)
		if err != nil {
			return err
		}
		for _, sc := range scenes {
			extra := ""
			if len(sc.CharacterIDs) > 0 {
				extra = fmt.Sprintf("  [%d characters]", len(sc.CharacterIDs))
			}
			fmt.Printf("%-8s %s%s\n", sc.SceneNumber, sc.Title, extra)
		}
		return nil
	},
}

var sceneRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a scene",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openLocal(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.DeleteScene(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Deleted")
		return nil
	},
}

var characterCmd = &cobra.Command{
	Use:     "character",
	GroupID: "data",
	Short:   "Manage characters",
}

var characterAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a character to the current production",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, _ := cmd.Flags().GetString("actor")

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

		c := &model.Character{
			ID:        uuid.NewString(),
			ProjectID: projectID,
			Name:      args[0],
			ActorName: actor,
			UpdatedAt: time.Now().UTC(),
		}
		if err := a.store.UpsertCharacter(ctx, c); err != nil {
			return err
		}
		fmt.Printf("Added character %s (%s)\n", c.Name, c.ID)
		return nil
	},
}

var characterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List characters in the current production",
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
		chars, err := a.store.ListCharacters(ctx, projectID)
		if err != nil {
			return err
		}
		for _, c := range chars {
			if c.ActorName != "" {
				fmt.Printf("%s  %s (%s)\n", c.ID, c.Name, c.ActorName)
				continue
			}
			fmt.Printf("%s  %s\n", c.ID, c.Name)
		}
		return nil
	},
}

var lookCmd = &cobra.Command{
	Use:     "look",
	GroupID: "data",
	Short:   "Manage hair/makeup looks",
}

var lookAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a look for a character",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		characterID, _ := cmd.Flags().GetString("character")
		notes, _ := cmd.Flags().GetString("notes")
		sceneNumbers, _ := cmd.Flags().GetStringSlice("scenes")
		photoPath, _ := cmd.Flags().GetString("photo")

		if characterID == "" {
			return fmt.Errorf("--character is required")
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

		l := &model.Look{
			ID:           uuid.NewString(),
			ProjectID:    projectID,
			CharacterID:  characterID,
			Name:         args[0],
			Notes:        notes,
			SceneNumbers: sceneNumbers,
			UpdatedAt:    time.Now().UTC(),
		}
		if photoPath != "" {
			asset, err := cachePhoto(a, photoPath)
			if err != nil {
				return err
			}
			l.MasterPhoto = asset
		}
		if err := a.store.UpsertLook(ctx, l); err != nil {
			return err
		}
		fmt.Printf("Added look %s (%s)\n", l.Name, l.ID)
		return nil
	},
}

var lookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List looks in the current production",
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
		looks, err := a.store.ListLooks(ctx, projectID)
		if err != nil {
			return err
		}
		for _, l := range looks {
			scenes := ""
			if len(l.SceneNumbers) > 0 {
				scenes = "  scenes " + strings.Join(l.SceneNumbers, ",")
			}
			fmt.Printf("%s  %s (character %s)%s\n", l.ID, l.Name, l.CharacterID, scenes)
		}
		return nil
	},
}

func init() {
	sceneAddCmd.Flags().String("title", "", "Scene title")
	sceneAddCmd.Flags().String("time", "", "Time of day (DAY, NIGHT, DUSK, DAWN)")
	sceneAddCmd.Flags().String("int-ext", "", "INT, EXT, or INT/EXT")
	sceneAddCmd.Flags().StringSlice("characters", nil, "Character IDs in this scene")
	sceneAddCmd.Flags().Int("order", 0, "Sort order")
	sceneCmd.AddCommand(sceneAddCmd, sceneListCmd, sceneRmCmd)

	characterAddCmd.Flags().String("actor", "", "Actor name")
	characterCmd.AddCommand(characterAddCmd, characterListCmd)

	lookAddCmd.Flags().String("character", "", "Character ID (required)")
	lookAddCmd.Flags().String("notes", "", "Application notes")
	lookAddCmd.Flags().StringSlice("scenes", nil, "Scene numbers this look covers")
	lookAddCmd.Flags().String("photo", "", "Master reference photo file")
	lookCmd.AddCommand(lookAddCmd, lookListCmd)

	rootCmd.AddCommand(sceneCmd, characterCmd, lookCmd)
}
