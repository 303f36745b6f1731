package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the driveway application
var rootCmd = &cobra.Command{
	Use:   "driveway",
	Short: "Browse and manage cloud drive folders through a backend proxy",
	Long: `driveway is a folder browser for a cloud drive accessed through a
backend proxy. It manages the OAuth session (one-time code redemption,
silent token refresh), folder navigation with breadcrumbs and back
history, folder creation and deletion, and sequential resumable uploads.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "driveway version %s\n" .Version}}`)

	// If no subcommand is provided, run the browser by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "browse")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newConnectCmd())
	rootCmd.AddCommand(newVersionCmd())
}
