package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/PabloGalante/counsel-agent/internal/bootstrap"
	"github.com/PabloGalante/counsel-agent/internal/domain"
)

var errAudioDisabled = errors.New("audio recognition is not configured: set COUNSEL_ACRCLOUD_ACCESS_KEY and COUNSEL_ACRCLOUD_SECRET_KEY")

type AudioCmd struct {
	flags *Flags
	app   *bootstrap.App
}

// NewAudioCmd creates a new audio command
func NewAudioCmd(flags *Flags, app *bootstrap.App) *AudioCmd {
	return &AudioCmd{flags: flags, app: app}
}

// Register adds the audio command to the application
func (cmd *AudioCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "audio",
		Usage:     "Identify a known recording behind an audio URL",
		ArgsUsage: "<url>",
		Action:    cmd.run,
	})

	return app
}

func (cmd *AudioCmd) run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return errors.New("usage: counsel audio <url>")
	}
	if cmd.app.Recognizer == nil {
		return errAudioDisabled
	}

	rec, err := cmd.app.Recognizer.Identify(ctx, c.Args().First())
	if err != nil {
		return fmt.Errorf("identify audio: %w", err)
	}

	out := c.Root().Writer
	if !rec.Matched {
		_, _ = fmt.Fprintln(out, "No known recording matched.")
		return nil
	}

	_, _ = fmt.Fprintln(out, titleStyle.Render("Match found"))
	_, _ = fmt.Fprintf(out, "Title:   %s\n", rec.Title)
	_, _ = fmt.Fprintf(out, "Artists: %s\n", strings.Join(rec.Artists, ", "))
	if rec.YouTubeVideoID != "" {
		_, _ = fmt.Fprintf(out, "YouTube: https://www.youtube.com/watch?v=%s\n", rec.YouTubeVideoID)
	}
	_, _ = fmt.Fprintln(out, severityLabel(domain.SeverityWarn)+" Copyrighted recordings need a sync license before use.")
	return nil
}
