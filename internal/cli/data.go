package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/quest-tracker/internal/backup"
	"github.com/nhle/quest-tracker/internal/ui/completeform"
)

func newSettingsCmd(flags *globalFlags) *cobra.Command {
	var maxPhotos int

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the photo limit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, flags, func(ctx context.Context, e *env) error {
				out := cmd.OutOrStdout()
				if !cmd.Flags().Changed("max-photos") {
					fmt.Fprintf(out, "max photos      %d\n", e.engine.MaxPhotos())
					fmt.Fprintf(out, "daily point cap %d\n", e.engine.DailyPointCap())
					fmt.Fprintf(out, "storage mode    %s\n", e.cfg.Storage.Mode)
					fmt.Fprintf(out, "config          %s\n", e.configPath)
					return nil
				}

				evicted, err := e.engine.SetMaxPhotos(ctx, maxPhotos)
				if err != nil {
					return err
				}
				success(out, "Photo limit set to %d", maxPhotos)
				if len(evicted) > 0 {
					fmt.Fprintf(out, "  removed %d oldest photo quests\n", len(evicted))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&maxPhotos, "max-photos", 0, "number of completion photos to keep (5-100)")
	return cmd
}

func newExportCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "export [path]",
		Short: "Write a backup of one-time quests and settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = completeform.ExpandPath(args[0])
			}
			return withEnv(cmd, flags, func(ctx context.Context, e *env) error {
				written, err := backup.ExportFile(e.engine, path, now())
				if err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Exported %d quests to %s", len(e.engine.Single()), written)
				return nil
			})
		},
	}
}

func newImportCmd(flags *globalFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "import <path>",
		Short: "Replace one-time quests with a backup",
		Args:  exactArgs(1, "path"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, flags, func(ctx context.Context, e *env) error {
				doc, err := backup.ReadFile(completeform.ExpandPath(args[0]))
				if err != nil {
					return err
				}

				ok, err := confirm(yes,
					fmt.Sprintf("Import %d quests from %s?", len(doc.Quests), doc.ExportDate.Local().Format("2006-01-02")),
					"All current one-time quests will be replaced.")
				if err != nil || !ok {
					return err
				}

				backup.Apply(ctx, e.engine, doc)
				success(cmd.OutOrStdout(), "Imported %d quests", len(doc.Quests))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func newResetCmd(flags *globalFlags) *cobra.Command {
	var all bool
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all one-time quests (--all also removes repeating quests and settings)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, flags, func(ctx context.Context, e *env) error {
				what := "all one-time quests"
				if all {
					what = "all quests and settings"
				}
				ok, err := confirm(yes, "Delete "+what+"?", "This cannot be undone. Export a backup first.")
				if err != nil || !ok {
					return err
				}
				if err := e.engine.Reset(ctx, all); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Deleted %s", what)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "also remove repeating quests and settings")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
