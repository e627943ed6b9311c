package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"taskmgr/internal/exitcode"
	"taskmgr/internal/output"
	"taskmgr/internal/view"
	"taskmgr/internal/workflow"
)

func init() {
	Register(&ImportCmd{})
}

// ImportCmd asks the task service to turn the user's Google Calendar events
// into tasks, or with --preview lists the events without importing.
type ImportCmd struct {
	preview bool
	max     int64
}

func (c *ImportCmd) Name() string      { return "import" }
func (c *ImportCmd) Aliases() []string { return []string{"calendar"} }
func (c *ImportCmd) Synopsis() string  { return "Import tasks from Google Calendar" }
func (c *ImportCmd) Usage() string {
	return "taskmgr import [common flags] [--preview [--max <n>]]"
}
func (c *ImportCmd) NeedsAuth() bool { return true }

func (c *ImportCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.preview, "preview", false, "")
	fs.Int64Var(&c.max, "max", 0, "")
}

func (c *ImportCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if c.max < 0 {
		fmt.Fprintf(errOut, "error: invalid max: %d\n", c.max)
		return exitcode.UserError
	}

	if c.preview {
		return c.runPreview(ctx, env, out, errOut)
	}

	tasks, err := env.View.Switch(ctx, view.GoogleCalendar)
	if err != nil {
		return failImport(errOut, err)
	}
	printTasks(env, tasks, out)
	return exitcode.Success
}

func (c *ImportCmd) runPreview(ctx context.Context, env *Env, out, errOut io.Writer) int {
	sess, err := env.Session()
	if err != nil {
		return Fail(errOut, err)
	}
	if sess.AccessToken == "" {
		return failImport(errOut, &workflow.ValidationError{Field: "access token", Message: "access token required"})
	}

	cal, err := env.Calendar(ctx, sess.AccessToken)
	if err != nil {
		return Fail(errOut, err)
	}
	events, err := cal.UpcomingEvents(ctx, time.Now(), c.max)
	if err != nil {
		return Fail(errOut, err)
	}

	if len(events) == 0 {
		if !env.quiet() {
			fmt.Fprintln(out, "no upcoming events")
		}
		return exitcode.Success
	}
	for _, ev := range events {
		output.FormatEvent(out, ev)
	}
	return exitcode.Success
}

// failImport adds a sign-in hint when the Google access token is missing.
func failImport(errOut io.Writer, err error) int {
	var vErr *workflow.ValidationError
	if errors.As(err, &vErr) && vErr.Field == "access token" {
		fmt.Fprintf(errOut, "error: %v (run: taskmgr login --google)\n", err)
		return exitcode.UserError
	}
	return Fail(errOut, err)
}
