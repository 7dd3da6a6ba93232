package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/PabloGalante/counsel-agent/internal/app/wizard"
	"github.com/PabloGalante/counsel-agent/internal/bootstrap"
)

type CheckCmd struct {
	flags *Flags
	app   *bootstrap.App

	// flags
	contentType string
	source      string
	license     string
	subjects    string
	description string
	noInput     bool
	jsonOutput  bool
}

// NewCheckCmd creates a new check command
func NewCheckCmd(flags *Flags, app *bootstrap.App) *CheckCmd {
	return &CheckCmd{flags: flags, app: app}
}

// Register adds the check command to the application
func (cmd *CheckCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "check",
		Usage:     "Run the copyright risk check",
		UsageText: "counsel check [--content-type T] [--source S] [--license L] [--subjects yes|no] [--description TEXT] [--no-input] [--json]",
		Description: `Walks through the five fact questions and prints the risk findings.

Answers passed as flags skip the matching question. With --no-input every
required answer must come from flags.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "content-type",
				Usage:       "image, video, text, music or font",
				Destination: &cmd.contentType,
			},
			&cli.StringFlag{
				Name:        "source",
				Usage:       "where the content comes from",
				Destination: &cmd.source,
			},
			&cli.StringFlag{
				Name:        "license",
				Usage:       "yes, no or unknown",
				Destination: &cmd.license,
			},
			&cli.StringFlag{
				Name:        "subjects",
				Usage:       "identifiable people or brands: yes or no",
				Destination: &cmd.subjects,
			},
			&cli.StringFlag{
				Name:        "description",
				Aliases:     []string{"d"},
				Usage:       "free description of the intended use",
				Destination: &cmd.description,
			},
			&cli.BoolFlag{
				Name:        "no-input",
				Usage:       "never prompt",
				Destination: &cmd.noInput,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output findings as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *CheckCmd) run(ctx context.Context, c *cli.Command) error {
	answers := map[wizard.Step]*string{
		wizard.StepContentType: &cmd.contentType,
		wizard.StepSource:      &cmd.source,
		wizard.StepLicense:     &cmd.license,
		wizard.StepSubjects:    &cmd.subjects,
		wizard.StepFreeText:    &cmd.description,
	}

	if !cmd.noInput {
		if err := cmd.prompt(ctx, answers); err != nil {
			return err
		}
	}

	w := wizard.New(cmd.app.Evaluator)
	for !w.Done() {
		if err := w.Set(*answers[w.Step()]); err != nil {
			return err
		}
		if err := w.Next(); err != nil {
			return err
		}
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"facts": w.Facts(), "findings": w.Findings()}); err != nil {
			return fmt.Errorf("encode findings: %w", err)
		}
		return nil
	}

	renderFindings(out, w.Findings())
	return nil
}

// prompt asks for every answer not given as a flag, one group per step.
func (cmd *CheckCmd) prompt(ctx context.Context, answers map[wizard.Step]*string) error {
	var groups []*huh.Group
	for _, info := range wizard.Steps() {
		value := answers[info.Step]
		if *value != "" {
			continue
		}

		var field huh.Field
		if len(info.Options) == 0 {
			field = huh.NewText().
				Title(info.Prompt).
				Placeholder("e.g. a campaign inspired by a well known brand").
				Value(value)
		} else {
			field = huh.NewSelect[string]().
				Title(info.Prompt).
				Options(huh.NewOptions(info.Options...)...).
				Value(value)
		}
		groups = append(groups, huh.NewGroup(field))
	}

	if len(groups) == 0 {
		return nil
	}
	return huh.NewForm(groups...).RunWithContext(ctx)
}
