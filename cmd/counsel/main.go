package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/PabloGalante/counsel-agent/internal/bootstrap"
	"github.com/PabloGalante/counsel-agent/internal/commands"
	"github.com/PabloGalante/counsel-agent/internal/config"
	"github.com/PabloGalante/counsel-agent/internal/observability"
)

var version = "dev"

func main() {
	flags := &commands.Flags{}

	// Pre-allocated so commands can hold the pointer before Before runs.
	counselApp := &bootstrap.App{}
	var logCloser func()

	app := &cli.Command{
		Name:      "counsel",
		Usage:     "A virtual copyright lawyer for creative teams",
		UsageText: "counsel [global options] command [command options]",
		Description: `Checks whether a piece of content can be used safely and answers
copyright questions in persistent threads.

Configuration comes from COUNSEL_* environment variables; the flags below
override the matching ones.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("COUNSEL_LOG_LEVEL"),
				Value:       "warn",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (optional)",
				Value:       commands.DefaultLogFile(),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("COUNSEL_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			out, closer, err := openLogOutput(flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("open log file: %w", err)
			}
			logCloser = closer

			format := "json"
			if flags.LogFile == "" {
				format = "console"
			}
			if _, err := observability.New(flags.LogLevel, format, out); err != nil {
				return ctx, fmt.Errorf("init logger: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			cfg.DataDir = flags.DataDir

			built, err := bootstrap.New(ctx, cfg)
			if err != nil {
				return ctx, err
			}
			if err := built.Sessions.Load(ctx); err != nil {
				_ = built.Close()
				return ctx, fmt.Errorf("load session: %w", err)
			}

			// Populate the pre-allocated App (commands already hold a pointer to it)
			*counselApp = *built
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			var err error
			if counselApp.Sessions != nil {
				counselApp.Sessions.Wait()
				err = counselApp.Close()
			}
			if logCloser != nil {
				logCloser()
			}
			return err
		},
	}

	app = commands.NewCheckCmd(flags, counselApp).Register(app)
	app = commands.NewThreadsCmd(flags, counselApp).Register(app)
	app = commands.NewAskCmd(flags, counselApp).Register(app)
	app = commands.NewHistoryCmd(flags, counselApp).Register(app)
	app = commands.NewAudioCmd(flags, counselApp).Register(app)

	exitCode := 0
	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Println()
		fmt.Println(err.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}

// openLogOutput returns the log destination. Empty file means stderr.
func openLogOutput(file string) (io.Writer, func(), error) {
	if file == "" {
		return os.Stderr, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create logs dir: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
