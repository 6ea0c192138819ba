package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/quest-tracker/internal/media"
	"github.com/nhle/quest-tracker/internal/model"
	"github.com/nhle/quest-tracker/internal/quest"
	"github.com/nhle/quest-tracker/internal/theme"
	"github.com/nhle/quest-tracker/internal/ui/completeform"
)

func exactArgs(n int, name string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

// confirm asks a yes/no question unless yes is already set. Closing the
// prompt counts as no.
func confirm(yes bool, title, description string) (bool, error) {
	if yes {
		return true, nil
	}
	ok := false
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

func newAddCmd(flags *globalFlags) *cobra.Command {
	var points int
	var date string
	var repeat string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a one-time quest (--date) or a repeating quest (--repeat)",
		Args:  exactArgs(1, "title"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, flags, func(ctx context.Context, e *env) error {
				out := cmd.OutOrStdout()
				if repeat != "" {
					days, err := model.ParseWeekdays(repeat)
					if err != nil {
						return err
					}
					q, err := e.engine.CreateRecurring(ctx, quest.RecurringInput{Title: args[0], Points: points, RepeatDays: days})
					if err != nil {
						return err
					}
					success(out, "Added %q (%d pts, %s) #%s", q.Title, q.Points, model.WeekdaysLabel(q.RepeatDays), q.ID)
					return nil
				}

				if date == "" {
					date = model.DateKey(now())
				}
				q, err := e.engine.CreateSingle(ctx, quest.SingleInput{Title: args[0], Points: points, Date: date})
				if err != nil {
					return err
				}
				success(out, "Added %q (%d pts) for %s #%s", q.Title, q.Points, q.Date, q.ID)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&points, "points", "p", model.MinPoints, "points awarded on completion")
	cmd.Flags().StringVarP(&date, "date", "d", "", "date YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&repeat, "repeat", "r", "", "repeat days, e.g. mon,wed,fri")
	cmd.MarkFlagsMutuallyExclusive("date", "repeat")
	return cmd
}

func newTodayCmd(flags *globalFlags) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "today",
		Short: "List the quests for a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, flags, func(ctx context.Context, e *env) error {
				if date == "" {
					date = model.DateKey(now())
				}
				quests, err := e.engine.QuestsForDateKey(date)
				if err != nil {
					return err
				}
				printDay(cmd.OutOrStdout(), date, quests, e.engine.DailyPoints(date), e.engine.DailyPointCap())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "date YYYY-MM-DD (default today)")
	return cmd
}

func printDay(w io.Writer, date string, quests []model.UnifiedQuest, scheduled, dailyCap int) {
	fmt.Fprintf(w, "%s  %s\n", theme.HeaderStyle.Render(date), theme.HelpStyle.Render(fmt.Sprintf("%d/%d pts scheduled", scheduled, dailyCap)))
	if len(quests) == 0 {
		fmt.Fprintln(w, theme.DimmedStyle.Render("  no quests"))
		return
	}
	for _, q := range quests {
		mark := "○"
		if q.Completed {
			mark = "✓"
		}
		line := fmt.Sprintf("  %s %-14s %s %s", mark, q.ID, theme.PointsStyle(q.Points).Render(fmt.Sprintf("+%-4d", q.Points)), theme.CompletionStyle(q.Completed).Render(q.Title))
		if q.Kind == model.KindRecurring {
			line += theme.DimmedStyle.Render("  (" + model.WeekdaysLabel(q.RepeatDays) + ")")
		}
		if q.HasPhoto() {
			line += theme.DimmedStyle.Render("  [photo]")
		}
		fmt.Fprintln(w, line)
	}
}

func newMonthCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "month [YYYY-MM]",
		Short: "Show completion per day for a month",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month := now()
			if len(args) == 1 {
				t, err := time.ParseInLocation("2006-01", args[0], time.Local)
				if err != nil {
					return fmt.Errorf("month must be YYYY-MM: %w", err)
				}
				month = t
			}
			return withEnv(cmd, flags, func(ctx context.Context, e *env) error {
				days := e.engine.QuestsForMonth(month.Year(), month.Month())
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, theme.HeaderStyle.Render(month.Format("January 2006")))

				first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.Local)
				for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
					key := model.DateKey(d)
					p := quest.Progress(days[key])
					if p.Total == 0 {
						continue
					}
					line := fmt.Sprintf("%s %s  %d/%d", key, d.Weekday().String()[:3], p.Completed, p.Total)
					if top, ok := quest.TopPhoto(days[key]); ok {
						line += fmt.Sprintf("  photo: %s", top.Title)
					}
					fmt.Fprintln(out, theme.DayStyle(p.Total, p.Completed, key == model.DateKey(now())).Render(line))
				}
				return nil
			})
		},
	}
}

func newCompleteCmd(flags *globalFlags) *cobra.Command {
	var photo string
	var maxWidth int
	var quality float64

	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Complete a quest, optionally with a photo",
		Args:  exactArgs(1, "id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, flags, func(ctx context.Context, e *env) error {
				q, ok := e.engine.Find(args[0])
				if !ok {
					return fmt.Errorf("quest %s: %w", args[0], quest.ErrNotFound)
				}
				kind := q.Kind()

				can, err := e.engine.CanComplete(q.GetID(), kind)
				if errors.Is(err, quest.ErrNotScheduled) {
					return fmt.Errorf("%q repeats on %s only: %w", q.GetTitle(), repeatLabel(q), err)
				}
				if err != nil {
					return err
				}
				if !can {
					return fmt.Errorf("%q is already completed", q.GetTitle())
				}

				var enc *media.Encoded
				if photo != "" {
					if kind == model.KindRecurring {
						return errors.New("repeating quests do not take photos")
					}
					opts := media.Options{
						MaxWidth:     e.cfg.Photos.MaxWidth,
						Quality:      e.cfg.Photos.Quality,
						MaxFileBytes: e.cfg.Photos.MaxFileBytes,
					}
					if cmd.Flags().Changed("max-width") {
						opts.MaxWidth = maxWidth
					}
					if cmd.Flags().Changed("quality") {
						opts.Quality = quality
					}
					compressed, err := media.CompressFile(completeform.ExpandPath(photo), opts)
					if err != nil {
						return err
					}
					enc = &compressed
				}

				before := len(e.engine.Single())
				if _, err := e.engine.CompleteQuest(ctx, q.GetID(), kind, enc); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				success(out, "Completed %q (+%d)", q.GetTitle(), q.GetPoints())
				if enc != nil {
					fmt.Fprintf(out, "  photo stored, %d KB\n", enc.Size()/1024)
				}
				if removed := before - len(e.engine.Single()); removed > 0 {
					fmt.Fprintf(out, "  %d oldest photo quests removed to stay within %d photos\n", removed, e.engine.MaxPhotos())
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&photo, "photo", "", "path to a JPEG, PNG or GIF")
	cmd.Flags().IntVar(&maxWidth, "max-width", media.DetailOptions().MaxWidth, "photo width limit in pixels")
	cmd.Flags().Float64Var(&quality, "quality", media.DetailOptions().Quality, "JPEG quality between 0 and 1")
	return cmd
}

func repeatLabel(q model.Quest) string {
	if r, ok := q.(model.RecurringQuest); ok {
		return model.WeekdaysLabel(r.RepeatDays)
	}
	return ""
}

func newDeleteCmd(flags *globalFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a quest",
		Args:  exactArgs(1, "id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, flags, func(ctx context.Context, e *env) error {
				q, ok := e.engine.Find(args[0])
				if !ok {
					return fmt.Errorf("quest %s: %w", args[0], quest.ErrNotFound)
				}
				ok, err := confirm(yes, fmt.Sprintf("Delete %q?", q.GetTitle()), "This cannot be undone.")
				if err != nil || !ok {
					return err
				}
				if err := e.engine.Delete(ctx, q.GetID(), q.Kind()); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Deleted %q", q.GetTitle())
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func newStreakCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "streak",
		Short: "Show the current streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, flags, func(ctx context.Context, e *env) error {
				streak := e.engine.CalculateStreak()
				unit := "days"
				if streak == 1 {
					unit = "day"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "🔥 %d %s\n", streak, unit)
				return nil
			})
		},
	}
}

func newStatsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show points, streak and storage usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, flags, func(ctx context.Context, e *env) error {
				info := e.engine.StorageInfo(ctx)
				out := cmd.OutOrStdout()
				rows := [][2]string{
					{"Total points", fmt.Sprint(info.TotalPoints)},
					{"Streak", fmt.Sprintf("%d days", info.Streak)},
					{"Completed", fmt.Sprintf("%d quests", info.CompletedCount)},
					{"Photos", fmt.Sprintf("%d / %d", info.PhotoCount, e.engine.MaxPhotos())},
					{"Storage", fmt.Sprintf("%d / %d bytes", info.UsedBytes, info.QuotaBytes)},
				}
				for _, r := range rows {
					fmt.Fprintf(out, "%-13s %s\n", r[0], r[1])
				}
				return nil
			})
		},
	}
}

func newPendingCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List unfinished one-time quests, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, flags, func(ctx context.Context, e *env) error {
				out := cmd.OutOrStdout()
				pending := e.engine.PendingSingle()
				if len(pending) == 0 {
					fmt.Fprintln(out, theme.DimmedStyle.Render("nothing pending"))
					return nil
				}
				today := model.DateKey(now())
				for _, q := range pending {
					date := q.Date
					if date < today {
						date = theme.ErrorStyle.Render(date)
					}
					fmt.Fprintf(out, "%s  %-14s +%-4d %s\n", date, q.ID, q.Points, q.Title)
				}
				return nil
			})
		},
	}
}
