// Package cli implements the quests command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/quest-tracker/internal/theme"
)

// Version is the command line version string.
const Version = "1.0.0"

type globalFlags struct {
	configPath string
	logLevel   string
}

// NewRootCmd builds the command tree. Output goes to the command's
// configured writers so tests can capture it.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "quests",
		Short:         "Local-first quest and habit tracker",
		Long:          "quests tracks one-time and repeating quests, streaks and completion photos, with an optional friends leaderboard.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.config/quests/config.yaml)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newAddCmd(flags),
		newTodayCmd(flags),
		newPendingCmd(flags),
		newMonthCmd(flags),
		newCompleteCmd(flags),
		newDeleteCmd(flags),
		newStreakCmd(flags),
		newStatsCmd(flags),
		newSettingsCmd(flags),
		newExportCmd(flags),
		newImportCmd(flags),
		newResetCmd(flags),
		newLoginCmd(flags),
		newLogoutCmd(flags),
		newFriendsCmd(flags),
		newSyncCmd(flags),
		newTUICmd(flags),
	)

	return root
}

// Execute runs the command line and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, theme.ErrorStyle.Render("✗ "+err.Error()))
}

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, theme.SuccessStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}
