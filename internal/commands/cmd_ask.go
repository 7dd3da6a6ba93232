package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/PabloGalante/counsel-agent/internal/app/conversation"
	"github.com/PabloGalante/counsel-agent/internal/bootstrap"
	"github.com/PabloGalante/counsel-agent/internal/domain"
)

type AskCmd struct {
	flags *Flags
	app   *bootstrap.App

	// flags
	thread string
	file   string
	url    string
}

// NewAskCmd creates a new ask command
func NewAskCmd(flags *Flags, app *bootstrap.App) *AskCmd {
	return &AskCmd{flags: flags, app: app}
}

// Register adds the ask command to the application
func (cmd *AskCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ask",
		Usage:     "Ask the virtual lawyer a question",
		UsageText: "counsel ask [--thread ID] [--file PATH | --url URL] [question...]",
		Description: `Sends a question, an attachment, or both to the active thread and prints
the reply. Without an active thread a new one is created.

--file uploads a local file first and requires Cloudinary to be configured.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "thread",
				Usage:       "thread id (defaults to the active thread)",
				Destination: &cmd.thread,
			},
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "local file to attach",
				Destination: &cmd.file,
			},
			&cli.StringFlag{
				Name:        "url",
				Usage:       "remote file to attach",
				Destination: &cmd.url,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *AskCmd) run(ctx context.Context, c *cli.Command) error {
	if cmd.file != "" && cmd.url != "" {
		return errors.New("use either --file or --url, not both")
	}

	in := conversation.SubmitInput{
		ThreadID: domain.ThreadID(cmd.thread),
		Text:     strings.Join(c.Args().Slice(), " "),
	}

	switch {
	case cmd.url != "":
		in.Attachment = &domain.Attachment{URL: cmd.url}
	case cmd.file != "":
		f, err := os.Open(cmd.file)
		if err != nil {
			return fmt.Errorf("open attachment: %w", err)
		}
		defer func() { _ = f.Close() }()

		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("stat attachment: %w", err)
		}
		in.Attachment = &domain.Attachment{File: &domain.LocalFile{
			Name: filepath.Base(cmd.file),
			Size: info.Size(),
			Data: f,
		}}
	}

	out := c.Root().Writer
	res, err := cmd.app.Sessions.Submit(ctx, in)
	if res != nil {
		renderMessage(out, res.AssistantMessage)
	}
	if err != nil {
		if errors.Is(err, domain.ErrEmptyInput) {
			return errors.New("nothing to send: pass a question, --file or --url")
		}
		return err
	}
	return nil
}
