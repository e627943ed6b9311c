package commands

import (
	"context"
	"flag"
	"io"
	"strings"

	"go.uber.org/zap"

	"taskmgr/internal/exitcode"
)

func init() {
	Register(&CreateCmd{})
}

// CreateCmd implements the create command.
type CreateCmd struct {
	title       string
	description string
}

func (c *CreateCmd) Name() string      { return "create" }
func (c *CreateCmd) Aliases() []string { return []string{"add"} }
func (c *CreateCmd) Synopsis() string  { return "Create a task" }
func (c *CreateCmd) Usage() string {
	return "taskmgr create [common flags] --description <text> [--title <title> | <title...>]"
}
func (c *CreateCmd) NeedsAuth() bool { return true }

func (c *CreateCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.title, "title", "", "")
	fs.StringVar(&c.title, "t", "", "")
	fs.StringVar(&c.description, "description", "", "")
	fs.StringVar(&c.description, "d", "", "")
}

func (c *CreateCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	title := c.title
	if title == "" {
		// Join args to form title
		title = strings.Join(args, " ")
	} else if len(args) > 0 {
		return Fail(errOut, usageErrorf("unexpected argument: %s", args[0]))
	}

	task, tasks, err := env.View.CreateTask(ctx, title, c.description)
	if err != nil {
		return Fail(errOut, err)
	}
	env.Log.Debug("created task", zap.String("task_id", task.ID))

	printTasks(env, tasks, out)
	return exitcode.Success
}
