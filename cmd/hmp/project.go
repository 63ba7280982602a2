package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/model"
)

var projectCmd = &cobra.Command{
	Use:     "project",
	GroupID: "data",
	Short:   "Manage productions",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a production and make it current",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openLocal(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		p := &model.Project{
			ID:        uuid.NewString(),
			Name:      args[0],
			OwnerID:   a.guard.CurrentUserID(),
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		if err := a.store.CreateProject(ctx, p); err != nil {
			return err
		}
		if err := a.store.SetCurrentProject(ctx, p.ID); err != nil {
			return err
		}
		fmt.Printf("Created project %s (%s)\n", p.Name, p.ID)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List productions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openLocal(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		projects, err := a.store.ListProjects(ctx)
		if err != nil {
			return err
		}
		current, err := a.store.CurrentProjectID(ctx)
		if err != nil {
			return err
		}

		for _, p := range projects {
			marker := " "
			if p.ID == current {
				marker = "*"
			}
			fmt.Printf("%s %s  %s\n", marker, p.ID, p.Name)
		}
		return nil
	},
}

var projectUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Switch the current production",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openLocal(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		p, err := a.store.GetProject(ctx, args[0])
		if err != nil {
			return err
		}
		if err := a.store.SetCurrentProject(ctx, p.ID); err != nil {
			return err
		}
		fmt.Printf("Now using %s\n", p.Name)
		return nil
	},
}

func init() {
	projectCmd.AddCommand(projectCreateCmd, projectListCmd, projectUseCmd)
	rootCmd.AddCommand(projectCmd)
}
