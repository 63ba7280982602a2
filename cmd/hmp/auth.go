package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/session"
)

var loginCmd = &cobra.Command{
	Use:     "login",
	GroupID: "auth",
	Short:   "Save a session token for remote sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		userID, _ := cmd.Flags().GetString("user")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if token == "" || userID == "" {
			return fmt.Errorf("--token and --user are required")
		}

		a, err := openLocal(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		s := &session.Session{
			AccessToken: token,
			UserID:      userID,
		}
		if ttl > 0 {
			s.ExpiresAt = time.Now().Add(ttl)
		}

		src := &session.FileSource{Path: a.cfg.SessionPath()}
		if err := src.Save(s); err != nil {
			return err
		}
		fmt.Printf("Signed in as %s\n", userID)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	GroupID: "auth",
	Short:   "Flush pending saves and clear the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Push what we can before dropping the credential. A failure here
		// must not block signing out.
		if a, err := openSynced(cmd); err == nil {
			if failed := a.engine.SaveEverything(cmd.Context()); len(failed) > 0 {
				fmt.Printf("Warning: not pushed: %v\n", failed)
			}
			a.Close()
		}

		a, err := openLocal(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		src := &session.FileSource{Path: a.cfg.SessionPath()}
		if err := src.Clear(); err != nil {
			return err
		}
		fmt.Println("Signed out")
		return nil
	},
}

func init() {
	loginCmd.Flags().String("token", "", "Access token (required)")
	loginCmd.Flags().String("user", "", "User ID (required)")
	loginCmd.Flags().Duration("ttl", 0, "Session lifetime; 0 means no expiry")
	rootCmd.AddCommand(loginCmd, logoutCmd)
}
