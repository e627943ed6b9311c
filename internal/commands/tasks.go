package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskmgr/internal/exitcode"
	"taskmgr/internal/output"
	"taskmgr/internal/service"
	"taskmgr/internal/view"
)

func init() {
	Register(&TasksCmd{})
}

// TasksCmd implements the tasks command.
// Handles both `taskmgr` (no args) and `taskmgr tasks`.
type TasksCmd struct{}

func (c *TasksCmd) Name() string      { return "tasks" }
func (c *TasksCmd) Aliases() []string { return []string{"list", "ls"} }
func (c *TasksCmd) Synopsis() string  { return "List your tasks" }
func (c *TasksCmd) Usage() string     { return "taskmgr tasks [common flags]" }
func (c *TasksCmd) NeedsAuth() bool   { return true }

func (c *TasksCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *TasksCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	tasks, err := env.View.Switch(ctx, view.ShowTasks)
	if err != nil {
		return Fail(errOut, err)
	}
	printTasks(env, tasks, out)
	return exitcode.Success
}

// printTasks writes the numbered task listing. Numbers match task
// references accepted by other commands.
func printTasks(env *Env, tasks []service.Task, out io.Writer) {
	if len(tasks) == 0 {
		if !env.quiet() {
			fmt.Fprintln(out, "no tasks found")
		}
		return
	}
	for i, task := range tasks {
		output.FormatTask(out, i+1, task)
	}
}
