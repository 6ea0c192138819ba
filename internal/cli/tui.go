package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/quest-tracker/internal/app"
)

func newTUICmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, flags, func(ctx context.Context, e *env) error {
				deps := app.Deps{Engine: e.engine, Config: e.cfg, Logger: e.logger}
				if e.cfg.Remote.Enabled {
					c, err := e.openRemote()
					if err != nil {
						return err
					}
					deps.Remote = c
					deps.Poller = e.poller()
				}

				p := tea.NewProgram(app.New(deps),
					tea.WithAltScreen(),
					tea.WithMouseCellMotion(),
					tea.WithContext(ctx),
				)
				if _, err := p.Run(); err != nil {
					return fmt.Errorf("running tui: %w", err)
				}
				return nil
			})
		},
	}
}
