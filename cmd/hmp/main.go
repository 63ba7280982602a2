// hmp is the production-tracking sync client: a local-first store for
// scenes, characters, looks, and continuity captures, pushed to a shared
// database with debounced background saves.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hmp",
	Short: "Hair and makeup continuity tracker",
	Long: `hmp tracks scenes, characters, looks, and continuity photo captures
for a film production, locally first. Changes sync to the shared project
database in the background; photos and PDFs upload to blob storage.

Data lives under the data directory (default ~/.hmp):
  local.db      local SQLite database
  photos/       local photo cache
  session.json  signed-in session
  config.yaml   remote endpoint and storage settings`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory (default ~/.hmp)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Mirror logs to stderr")

	rootCmd.AddGroup(
		&cobra.Group{ID: "data", Title: "Production data:"},
		&cobra.Group{ID: "sync", Title: "Synchronization:"},
		&cobra.Group{ID: "auth", Title: "Authentication:"},
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
