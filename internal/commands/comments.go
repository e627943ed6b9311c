package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskmgr/internal/exitcode"
	"taskmgr/internal/output"
	"taskmgr/internal/service"
	"taskmgr/internal/workflow"
)

// errContentRequired is caught before any task lookup or request.
var errContentRequired = &workflow.ValidationError{Field: "comment content", Message: "comment content required"}

func init() {
	Register(&CommentsCmd{})
	Register(&CollapseCmd{})
	Register(&CommentCmd{})
	Register(&EditCmd{})
	Register(&UncommentCmd{})
}

// printComments writes a task's cached comments under a header.
func printComments(env *Env, task service.Task, out io.Writer) {
	comments, _ := env.Comments.Comments(task.ID)
	output.FormatCommentsHeader(out, task)
	if len(comments) == 0 {
		if !env.quiet() {
			fmt.Fprintln(out, "  no comments")
		}
		return
	}
	for _, c := range comments {
		output.FormatComment(out, c)
	}
}

// CommentsCmd expands a task's comment section.
type CommentsCmd struct{}

func (c *CommentsCmd) Name() string      { return "comments" }
func (c *CommentsCmd) Aliases() []string { return []string{"show"} }
func (c *CommentsCmd) Synopsis() string  { return "Show a task's comments" }
func (c *CommentsCmd) Usage() string     { return "taskmgr comments [common flags] <task-ref>" }
func (c *CommentsCmd) NeedsAuth() bool   { return true }

func (c *CommentsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *CommentsCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	task, code, ok := taskFromArgs(ctx, env, args, 1, errOut)
	if !ok {
		return code
	}
	if _, err := env.Comments.Expand(ctx, task.ID); err != nil {
		return Fail(errOut, err)
	}
	printComments(env, task, out)
	return exitcode.Success
}

// CollapseCmd hides a task's comment section; its comments stay cached.
type CollapseCmd struct{}

func (c *CollapseCmd) Name() string      { return "collapse" }
func (c *CollapseCmd) Aliases() []string { return []string{"hide"} }
func (c *CollapseCmd) Synopsis() string  { return "Hide a task's comments" }
func (c *CollapseCmd) Usage() string     { return "taskmgr collapse [common flags] <task-ref>" }
func (c *CollapseCmd) NeedsAuth() bool   { return true }

func (c *CollapseCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *CollapseCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	task, code, ok := taskFromArgs(ctx, env, args, 1, errOut)
	if !ok {
		return code
	}
	env.Comments.Collapse(task.ID)
	if !env.quiet() {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// CommentCmd adds a comment to a task.
type CommentCmd struct{}

func (c *CommentCmd) Name() string      { return "comment" }
func (c *CommentCmd) Aliases() []string { return nil }
func (c *CommentCmd) Synopsis() string  { return "Comment on a task" }
func (c *CommentCmd) Usage() string     { return "taskmgr comment [common flags] <task-ref> <content...>" }
func (c *CommentCmd) NeedsAuth() bool   { return true }

func (c *CommentCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *CommentCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	var content string
	if len(args) > 1 {
		content = strings.Join(args[1:], " ")
	}
	if len(args) > 0 && strings.TrimSpace(content) == "" {
		return Fail(errOut, errContentRequired)
	}
	task, code, ok := taskFromArgs(ctx, env, args, 1, errOut)
	if !ok {
		return code
	}

	if err := env.Comments.AddComment(ctx, task.ID, "", content); err != nil {
		return Fail(errOut, err)
	}
	printComments(env, task, out)
	return exitcode.Success
}

// EditCmd replaces a comment's content.
type EditCmd struct{}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Edit a comment" }
func (c *EditCmd) Usage() string {
	return "taskmgr edit [common flags] <task-ref> <comment-id> <content...>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *EditCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	var content string
	if len(args) > 2 {
		content = strings.Join(args[2:], " ")
	}
	if len(args) > 1 && strings.TrimSpace(content) == "" {
		return Fail(errOut, errContentRequired)
	}
	task, code, ok := taskFromArgs(ctx, env, args, 2, errOut)
	if !ok {
		return code
	}
	commentID := args[1]

	comment, err := findComment(ctx, env, task.ID, commentID)
	if err != nil {
		return Fail(errOut, err)
	}

	env.Comments.BeginEdit(comment.ID)
	if err := env.Comments.UpdateComment(ctx, comment, content); err != nil {
		env.Comments.CancelEdit(comment.ID)
		return Fail(errOut, err)
	}
	printComments(env, task, out)
	return exitcode.Success
}

// UncommentCmd deletes a comment after confirmation.
type UncommentCmd struct {
	yes bool
}

func (c *UncommentCmd) Name() string      { return "uncomment" }
func (c *UncommentCmd) Aliases() []string { return []string{"rm"} }
func (c *UncommentCmd) Synopsis() string  { return "Delete a comment" }
func (c *UncommentCmd) Usage() string {
	return "taskmgr uncomment [common flags] [--yes] <task-ref> <comment-id>"
}
func (c *UncommentCmd) NeedsAuth() bool { return true }

func (c *UncommentCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
}

func (c *UncommentCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	task, code, ok := taskFromArgs(ctx, env, args, 2, errOut)
	if !ok {
		return code
	}
	commentID := args[1]

	env.confirmWith(c.yes, errOut)
	deleted, err := env.Comments.DeleteComment(ctx, commentID, task.ID)
	if err != nil {
		return Fail(errOut, err)
	}
	if !deleted {
		// Declined: nothing sent, nothing printed
		return exitcode.Success
	}
	printComments(env, task, out)
	return exitcode.Success
}

// taskFromArgs resolves args[0] as a task reference after checking that at
// least want positional args are present.
func taskFromArgs(ctx context.Context, env *Env, args []string, want int, errOut io.Writer) (service.Task, int, bool) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return service.Task{}, Fail(errOut, err), false
	}
	if want > 1 && len(args) < 2 {
		return service.Task{}, Fail(errOut, usageErrorf("comment id required")), false
	}
	task, err := resolveTask(ctx, env, ref)
	if err != nil {
		return service.Task{}, Fail(errOut, err), false
	}
	return task, exitcode.Success, true
}
