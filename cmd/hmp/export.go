package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/snapshot"
)

var exportCmd = &cobra.Command{
	Use:     "export <file>",
	GroupID: "data",
	Short:   "Export the current production as JSONL",
	Args:    cobra.ExactArgs(1),
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
		snap, err := a.store.Snapshot(ctx, projectID)
		if err != nil {
			return err
		}
		if err := snapshot.ExportFile(args[0], snap); err != nil {
			return err
		}
		fmt.Printf("Exported %s to %s\n", snap.Project.Name, args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:     "import <file>",
	GroupID: "data",
	Short:   "Import a JSONL export, replacing that project locally",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openLocal(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		snap, err := snapshot.ImportFile(args[0])
		if err != nil {
			return err
		}
		if err := a.store.ReplaceSnapshot(ctx, snap); err != nil {
			return err
		}
		if err := a.store.SetCurrentProject(ctx, snap.Project.ID); err != nil {
			return err
		}
		fmt.Printf("Imported %s (%s)\n", snap.Project.Name, snap.Project.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
}
