package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"taskmgr/internal/exitcode"
	"taskmgr/internal/view"
)

func init() {
	Register(&ShellCmd{})
}

// ShellCmd reads commands line by line against one Env, so the task
// listing, the current view and the comment cache carry over between lines.
type ShellCmd struct{}

func (c *ShellCmd) Name() string      { return "shell" }
func (c *ShellCmd) Aliases() []string { return []string{"repl"} }
func (c *ShellCmd) Synopsis() string  { return "Run commands interactively" }
func (c *ShellCmd) Usage() string     { return "taskmgr shell [common flags]" }
func (c *ShellCmd) NeedsAuth() bool   { return false }

func (c *ShellCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShellCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	last := exitcode.Success
	for {
		if ctx.Err() != nil {
			return last
		}
		fmt.Fprintf(out, "taskmgr [%s]> ", env.View.Current())

		line, err := env.in.ReadString('\n')
		if line == "" && err != nil {
			fmt.Fprintln(out)
			return last
		}

		words, perr := splitLine(line)
		if perr != nil {
			fmt.Fprintf(errOut, "error: %v\n", perr)
			last = exitcode.UserError
			continue
		}
		if len(words) == 0 {
			continue
		}
		if words[0] == "exit" || words[0] == "quit" {
			return last
		}

		last = c.runLine(ctx, env, words, out, errOut)
		env.Log.Debug("shell command finished", zap.String("command", words[0]), zap.Int("exit_code", last))
	}
}

func (c *ShellCmd) runLine(ctx context.Context, env *Env, words []string, out, errOut io.Writer) int {
	cmd, ok := env.Registry.Find(words[0])
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", words[0])
		if names := env.Registry.Suggest(words[0]); len(names) > 0 {
			fmt.Fprintf(errOut, "did you mean: %s\n", strings.Join(names, ", "))
		}
		return exitcode.UserError
	}
	if cmd.Name() == c.Name() {
		fmt.Fprintln(errOut, "error: already in a shell")
		return exitcode.UserError
	}

	fs, _ := NewFlagSet(cmd)
	positional, err := ParseArgs(fs, words[1:])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if cmd.NeedsAuth() {
		if _, err := env.Session(); err != nil {
			return Fail(errOut, err)
		}
	}

	code := cmd.Run(ctx, env, positional, out, errOut)

	// A fresh login lands on the task listing
	if cmd.Name() == "login" && code == exitcode.Success {
		tasks, err := env.View.Switch(ctx, view.ShowTasks)
		if err != nil {
			return Fail(errOut, err)
		}
		printTasks(env, tasks, out)
	}
	return code
}

// splitLine splits a shell line into words. Single and double quotes group
// words; a backslash escapes the next character outside single quotes.
func splitLine(line string) ([]string, error) {
	var (
		words   []string
		current strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range strings.TrimRight(line, "\r\n") {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				words = append(words, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote")
	}
	if escaped {
		return nil, fmt.Errorf("trailing backslash")
	}
	if inWord {
		words = append(words, current.String())
	}
	return words, nil
}
