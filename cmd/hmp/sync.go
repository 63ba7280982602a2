package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/dashboard"
	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/engine"
)

var pushCmd = &cobra.Command{
	Use:     "push",
	GroupID: "sync",
	Short:   "Push every category to the shared database now",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openSynced(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.guard.HasActiveSession() {
			return fmt.Errorf("not signed in; run 'hmp login' first")
		}

		failed := a.engine.SaveEverything(cmd.Context())
		if len(failed) > 0 {
			return fmt.Errorf("failed categories: %v", failed)
		}
		fmt.Println("All categories pushed")
		return nil
	},
}

var pullCmd = &cobra.Command{
	Use:     "pull [project-id]",
	GroupID: "sync",
	Short:   "Replace local state with the shared database's snapshot",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openSynced(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		projectID := ""
		if len(args) == 1 {
			projectID = args[0]
		}
		if err := a.engine.Pull(cmd.Context(), projectID); err != nil {
			return err
		}
		fmt.Println("Pulled")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "sync",
	Short:   "Show session and sync diagnostics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openLocal(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		if a.guard.HasActiveSession() {
			fmt.Printf("Signed in as %s\n", a.guard.CurrentUserID())
		} else {
			fmt.Println("Signed out")
		}

		projectID, err := a.store.CurrentProjectID(ctx)
		if err != nil {
			return err
		}
		if projectID == "" {
			fmt.Println("No current project")
			return nil
		}
		p, err := a.store.GetProject(ctx, projectID)
		if err != nil {
			return err
		}
		fmt.Printf("Project: %s (%s)\n", p.Name, p.ID)

		snap, err := a.store.Snapshot(ctx, projectID)
		if err != nil {
			return err
		}
		fmt.Printf("Local: %d scenes, %d characters, %d looks, %d captures, %d schedule days, %d call sheets\n",
			len(snap.Scenes), len(snap.Characters), len(snap.Looks),
			len(snap.Captures), len(snap.Schedule), len(snap.CallSheets))
		return nil
	},
}

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: "sync",
	Short:   "Run the background sync daemon",
	Long: `Run hmp as a long-lived process: watches the photo cache for new
files, pushes debounced changes to the shared database, and optionally
serves the WebSocket status dashboard.

On shutdown (SIGINT/SIGTERM) all pending saves are flushed before exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openSynced(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		watcher, err := engine.NewPhotoWatcher(a.engine, a.logger)
		if err != nil {
			return err
		}
		if err := watcher.Start(a.cfg.PhotoCacheDir()); err != nil {
			return err
		}
		defer watcher.Stop()

		if a.cfg.Dashboard.Enabled {
			srv := dashboard.NewServer(a.engine, &dashboard.Config{
				Port:   a.cfg.Dashboard.Port,
				Logger: a.logger,
			})
			if err := srv.Start(); err != nil {
				return err
			}
			defer srv.Stop()
			fmt.Printf("Dashboard: http://%s/\n", srv.GetAddr())
		}

		fmt.Println("Daemon running; Ctrl-C to stop")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			a.logger.Printf("Received %v, flushing pending saves", sig)
		case <-ctx.Done():
		}

		a.engine.FlushAutoSave(ctx)
		fmt.Println("Stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pushCmd, pullCmd, statusCmd, daemonCmd)
}
