package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/quest-tracker/internal/model"
	"github.com/nhle/quest-tracker/internal/remote"
	"github.com/nhle/quest-tracker/internal/theme"
)

// promptName asks for a display name with a huh input.
func promptName(ctx context.Context) (string, error) {
	var name string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Display name").
			Description("Friends see this name on the leaderboard.").
			Value(&name),
	))
	if err := form.RunWithContext(ctx); err != nil {
		return "", err
	}
	return name, nil
}

func newLoginCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "login [name]",
		Short: "Sign in to the friends leaderboard, creating a profile if needed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, flags, func(ctx context.Context, e *env) error {
				c, err := e.openRemote()
				if err != nil {
					return err
				}

				var p *model.Profile
				if len(args) == 1 {
					p, err = c.SignIn(ctx, args[0])
				} else {
					p, err = c.SignInWith(ctx, promptName)
				}
				if remote.IsSuppressed(err) {
					return nil
				}
				if err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Signed in as %s, friend code #%s", p.DisplayName, p.FriendCode)
				return nil
			})
		},
	}
}

func newLogoutCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out of the friends leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, flags, func(ctx context.Context, e *env) error {
				c, err := e.openRemote()
				if err != nil {
					return err
				}
				if err := c.SignOut(); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

// remoteCmd builds a friends subcommand that runs fn against the signed-in
// client.
func remoteCmd(flags *globalFlags, use, short string, args cobra.PositionalArgs, fn func(ctx context.Context, cmd *cobra.Command, c *remote.Client, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, a []string) error {
			return withEnv(cmd, flags, func(ctx context.Context, e *env) error {
				c, err := e.openRemote()
				if err != nil {
					return err
				}
				return fn(ctx, cmd, c, a)
			})
		},
	}
}

func newFriendsCmd(flags *globalFlags) *cobra.Command {
	cmd := remoteCmd(flags, "friends", "Show the friends leaderboard", cobra.NoArgs,
		func(ctx context.Context, cmd *cobra.Command, c *remote.Client, _ []string) error {
			board, err := c.Leaderboard(ctx)
			if err != nil {
				return err
			}
			printLeaderboard(cmd.OutOrStdout(), board)
			return nil
		})

	var limit int
	global := remoteCmd(flags, "global", "Show the top profiles across everyone", cobra.NoArgs,
		func(ctx context.Context, cmd *cobra.Command, c *remote.Client, _ []string) error {
			board, selfRank, err := c.GlobalLeaderboard(ctx, limit)
			if err != nil {
				return err
			}
			printLeaderboard(cmd.OutOrStdout(), board)
			fmt.Fprintf(cmd.OutOrStdout(), "\nYour global rank: #%d\n", selfRank)
			return nil
		})
	global.Flags().IntVarP(&limit, "limit", "n", 10, "number of profiles to show")

	cmd.AddCommand(
		remoteCmd(flags, "add <code>", "Send a friend request by friend code", exactArgs(1, "code"),
			func(ctx context.Context, cmd *cobra.Command, c *remote.Client, args []string) error {
				target, err := c.FindByFriendCode(ctx, args[0])
				if err != nil {
					return err
				}
				if err := c.SendFriendRequest(ctx, target.ID); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Request sent to %s", target.DisplayName)
				return nil
			}),
		remoteCmd(flags, "requests", "List incoming friend requests", cobra.NoArgs,
			func(ctx context.Context, cmd *cobra.Command, c *remote.Client, _ []string) error {
				reqs, err := c.ListPendingRequests(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(reqs) == 0 {
					fmt.Fprintln(out, theme.DimmedStyle.Render("no pending requests"))
				}
				for _, r := range reqs {
					fmt.Fprintf(out, "%s  %s  %s\n", r.ID, r.FromName, r.CreatedAt.Local().Format("2006-01-02"))
				}
				return nil
			}),
		remoteCmd(flags, "accept <request-id>", "Accept a friend request", exactArgs(1, "request-id"),
			func(ctx context.Context, cmd *cobra.Command, c *remote.Client, args []string) error {
				if err := c.AcceptRequest(ctx, args[0]); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Request accepted")
				return nil
			}),
		remoteCmd(flags, "reject <request-id>", "Decline a friend request", exactArgs(1, "request-id"),
			func(ctx context.Context, cmd *cobra.Command, c *remote.Client, args []string) error {
				if err := c.RejectRequest(ctx, args[0]); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Request declined")
				return nil
			}),
		remoteCmd(flags, "remove <profile-id>", "Remove a friend", exactArgs(1, "profile-id"),
			func(ctx context.Context, cmd *cobra.Command, c *remote.Client, args []string) error {
				if err := c.RemoveFriend(ctx, args[0]); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Friend removed")
				return nil
			}),
		remoteCmd(flags, "rank", "Show your rank among friends", cobra.NoArgs,
			func(ctx context.Context, cmd *cobra.Command, c *remote.Client, _ []string) error {
				rank, err := c.GetRankAmongFriends(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "#%d among friends\n", rank)
				return nil
			}),
		global,
	)
	return cmd
}

func printLeaderboard(w io.Writer, board []model.LeaderboardEntry) {
	for _, e := range board {
		line := fmt.Sprintf("%2d. %-20s %6d pts  streak %-3d %s", e.Rank, e.Profile.DisplayName, e.Profile.TotalPoints, e.Profile.Streak, e.Profile.ID)
		if e.IsSelf {
			line = theme.SuccessStyle.Render(line + " (you)")
		}
		fmt.Fprintln(w, line)
	}
}

func newSyncCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push points and streak, then show your rank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, flags, func(ctx context.Context, e *env) error {
				if _, err := e.openRemote(); err != nil {
					return err
				}
				res := e.poller().SyncNow(ctx)
				switch {
				case res.NotSignedIn:
					return fmt.Errorf("not signed in; run `quests login <name>`")
				case res.Error != nil:
					return res.Error
				case res.Profile == nil:
					return nil
				}
				success(cmd.OutOrStdout(), "Synced %+d points, total %d, streak %d, #%d among friends",
					res.Pushed, res.Profile.TotalPoints, res.Profile.Streak, res.Rank)
				return nil
			})
		},
	}
}
