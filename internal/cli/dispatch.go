// Package cli parses the command line and runs commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"taskmgr/internal/backend/rest"
	"taskmgr/internal/commands"
	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/httpclient"
	"taskmgr/internal/logger"
	"taskmgr/internal/service"
	"taskmgr/internal/session"
)

// DefaultCommand runs when no command is given.
const DefaultCommand = "tasks"

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config, store session.Store, log *zap.Logger) (service.Service, error)

// StoreFactory opens the session store for a config.
type StoreFactory func(cfg *config.Config) (session.Store, error)

// RESTService talks to the three backend services over HTTP.
func RESTService(ctx context.Context, cfg *config.Config, store session.Store, log *zap.Logger) (service.Service, error) {
	hc := httpclient.New(httpclient.Options{
		AuthURL:         cfg.Services.AuthURL,
		TaskURL:         cfg.Services.TaskURL,
		CommentURL:      cfg.Services.CommentURL,
		AuthenticateAll: cfg.Services.AuthenticateAll,
		Timeout:         cfg.HTTP.Timeout,
		Logger:          log,
	}, store)
	return rest.New(hc), nil
}

// BoltSessions opens the session database in the config directory.
func BoltSessions(cfg *config.Config) (session.Store, error) {
	return session.OpenBolt(cfg.SessionPath())
}

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
	stores   StoreFactory
	in       io.Reader
}

// NewDispatcher creates a new dispatcher. A nil factory or stores uses the
// REST backend and the bbolt session file.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory, stores StoreFactory) *Dispatcher {
	if factory == nil {
		factory = RESTService
	}
	if stores == nil {
		stores = BoltSessions
	}
	return &Dispatcher{
		registry: registry,
		factory:  factory,
		stores:   stores,
		in:       os.Stdin,
	}
}

// SetInput replaces stdin for prompts and the shell.
func (d *Dispatcher) SetInput(in io.Reader) {
	d.in = in
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to the task listing
	if len(args) == 0 {
		args = []string{DefaultCommand}
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatchCommand(ctx, cmd, args[1:], out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs, common := commands.NewFlagSet(cmd)
	positionalArgs, err := commands.ParseArgs(fs, args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	cfg, err := config.New(common.ConfigDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = common.Quiet
	cfg.Debug = common.Debug

	log := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Debug:    cfg.Debug,
		Output:   errOut,
	})
	defer func() { _ = log.Sync() }()

	store, err := d.stores(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to open session store: %v\n", err)
		return exitcode.AuthError
	}
	defer store.Close()

	svc, err := d.factory(ctx, cfg, store, log)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	env, err := commands.NewEnv(cfg, svc, store, log, d.in)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	env.Registry = d.registry

	// Check auth requirements
	if cmd.NeedsAuth() {
		if _, err := env.Session(); err != nil {
			return commands.Fail(errOut, err)
		}
	}

	log.Debug("running command", zap.String("command", cmd.Name()), zap.Strings("args", positionalArgs))
	return cmd.Run(ctx, env, positionalArgs, out, errOut)
}
