package commands

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/PabloGalante/counsel-agent/internal/bootstrap"
	"github.com/PabloGalante/counsel-agent/internal/domain"
)

type ThreadsCmd struct {
	flags *Flags
	app   *bootstrap.App
}

// NewThreadsCmd creates a new threads command
func NewThreadsCmd(flags *Flags, app *bootstrap.App) *ThreadsCmd {
	return &ThreadsCmd{flags: flags, app: app}
}

// Register adds the threads command and its subcommands to the application
func (cmd *ThreadsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:    "threads",
		Aliases: []string{"t"},
		Usage:   "Manage conversation threads",
		Commands: []*cli.Command{
			{
				Name:   "ls",
				Usage:  "List threads, most recent first",
				Action: cmd.runList,
			},
			{
				Name:      "new",
				Usage:     "Create a thread and make it active",
				ArgsUsage: "[name]",
				Action:    cmd.runNew,
			},
			{
				Name:      "rename",
				Usage:     "Rename a thread",
				ArgsUsage: "<id> <name>",
				Action:    cmd.runRename,
			},
			{
				Name:      "rm",
				Usage:     "Delete a thread and its messages",
				ArgsUsage: "<id>",
				Action:    cmd.runRemove,
			},
			{
				Name:      "use",
				Usage:     "Select the active thread",
				ArgsUsage: "<id>",
				Action:    cmd.runUse,
			},
		},
	})

	return app
}

func (cmd *ThreadsCmd) runList(ctx context.Context, c *cli.Command) error {
	threads, err := cmd.app.Sessions.ListThreads(ctx)
	if err != nil {
		return fmt.Errorf("list threads: %w", err)
	}

	out := c.Root().Writer
	if len(threads) == 0 {
		_, _ = fmt.Fprintln(out, "No threads yet. Run 'counsel ask' or 'counsel threads new'.")
		return nil
	}

	active := cmd.app.Sessions.ActiveThread()
	slices.Reverse(threads)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, " \tID\tNAME\tCREATED")
	for _, t := range threads {
		marker := " "
		if t.ID == active {
			marker = "*"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, t.ID, t.Name, t.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func (cmd *ThreadsCmd) runNew(ctx context.Context, c *cli.Command) error {
	name := strings.Join(c.Args().Slice(), " ")
	th, err := cmd.app.Sessions.NewThread(ctx, name)
	if err != nil {
		return fmt.Errorf("create thread: %w", err)
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Created thread %s (%s)\n", th.ID, th.Name)
	return nil
}

func (cmd *ThreadsCmd) runRename(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() < 2 {
		return errors.New("usage: counsel threads rename <id> <name>")
	}
	id := domain.ThreadID(c.Args().First())
	name := strings.Join(c.Args().Tail(), " ")

	if err := cmd.app.Sessions.RenameThread(ctx, id, name); err != nil {
		return fmt.Errorf("rename thread: %w", err)
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Renamed %s to %q\n", id, strings.TrimSpace(name))
	return nil
}

func (cmd *ThreadsCmd) runRemove(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return errors.New("usage: counsel threads rm <id>")
	}
	id := domain.ThreadID(c.Args().First())

	if err := cmd.app.Sessions.DeleteThread(ctx, id); err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}

	out := c.Root().Writer
	_, _ = fmt.Fprintf(out, "Deleted %s\n", id)
	if active := cmd.app.Sessions.ActiveThread(); active != "" {
		_, _ = fmt.Fprintf(out, "Active thread is now %s\n", active)
	}
	return nil
}

func (cmd *ThreadsCmd) runUse(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return errors.New("usage: counsel threads use <id>")
	}
	id := domain.ThreadID(c.Args().First())

	if err := cmd.app.Sessions.SelectThread(ctx, id); err != nil {
		return fmt.Errorf("select thread: %w", err)
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Active thread is now %s\n", id)
	return nil
}
