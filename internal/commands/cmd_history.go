package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/PabloGalante/counsel-agent/internal/bootstrap"
	"github.com/PabloGalante/counsel-agent/internal/domain"
)

type HistoryCmd struct {
	flags *Flags
	app   *bootstrap.App

	// flags
	thread string
}

// NewHistoryCmd creates a new history command
func NewHistoryCmd(flags *Flags, app *bootstrap.App) *HistoryCmd {
	return &HistoryCmd{flags: flags, app: app}
}

// Register adds the history command to the application
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "history",
		Usage:     "Show the messages of a thread",
		UsageText: "counsel history [--thread ID]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "thread",
				Usage:       "thread id (defaults to the active thread)",
				Destination: &cmd.thread,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *HistoryCmd) run(ctx context.Context, c *cli.Command) error {
	id := domain.ThreadID(cmd.thread)
	if id == "" {
		id = cmd.app.Sessions.ActiveThread()
	}

	out := c.Root().Writer
	if id == "" {
		_, _ = fmt.Fprintln(out, "No active thread.")
		return nil
	}

	msgs, err := cmd.app.Sessions.Timeline(ctx, id)
	if err != nil {
		return fmt.Errorf("load thread %s: %w", id, err)
	}
	if len(msgs) == 0 {
		_, _ = fmt.Fprintln(out, mutedStyle.Render("No messages yet."))
		return nil
	}

	for _, m := range msgs {
		renderMessage(out, m)
	}
	return nil
}
