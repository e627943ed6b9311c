package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskmgr/internal/backend/gcal"
	"taskmgr/internal/config"
	"taskmgr/internal/service"
	"taskmgr/internal/session"
	"taskmgr/internal/view"
	"taskmgr/internal/workflow"
)

// EventLister lists upcoming calendar events.
type EventLister interface {
	UpcomingEvents(ctx context.Context, from time.Time, max int64) ([]gcal.Event, error)
}

// CalendarFactory opens a calendar client for a Google access token.
type CalendarFactory func(ctx context.Context, accessToken string) (EventLister, error)

// GoogleCredentials are the results of a browser sign-in.
type GoogleCredentials struct {
	// IDToken is posted to the auth service.
	IDToken string

	// AccessToken is kept in the session for calendar access.
	AccessToken string
}

// GoogleSignIn runs an interactive Google sign-in.
type GoogleSignIn func(ctx context.Context, cfg *config.Config, errOut io.Writer) (GoogleCredentials, error)

// Env is everything a command runs against.
type Env struct {
	Config  *config.Config
	Store   session.Store
	Service service.Service
	Log     *zap.Logger

	Tasks    *workflow.TaskWorkflow
	Comments *workflow.CommentWorkflow
	View     *view.Controller

	// Registry is consulted by the interactive shell.
	Registry *Registry

	Calendar     CalendarFactory
	GoogleSignIn GoogleSignIn

	in      *bufio.Reader
	confirm *promptConfirmer
}

// NewEnv wires the workflows and view controller for one process. in is
// read for prompts and shell input.
func NewEnv(cfg *config.Config, svc service.Service, store session.Store, log *zap.Logger, in io.Reader) (*Env, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if in == nil {
		in = strings.NewReader("")
	}
	reader := bufio.NewReader(in)
	confirm := &promptConfirmer{in: reader, out: io.Discard}

	cacheSize := 0
	if cfg != nil {
		cacheSize = cfg.Comments.CacheSize
	}
	comments, err := workflow.NewCommentWorkflow(svc, store, confirm, cacheSize, log)
	if err != nil {
		return nil, err
	}
	tasks := workflow.NewTaskWorkflow(svc, store, log)

	return &Env{
		Config:       cfg,
		Store:        store,
		Service:      svc,
		Log:          log,
		Tasks:        tasks,
		Comments:     comments,
		View:         view.NewController(tasks, store, log),
		Registry:     DefaultRegistry,
		Calendar:     openCalendar,
		GoogleSignIn: loopbackSignIn,
		in:           reader,
		confirm:      confirm,
	}, nil
}

func openCalendar(ctx context.Context, accessToken string) (EventLister, error) {
	client, err := gcal.New(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Session returns the stored session, or workflow.ErrNotLoggedIn.
func (e *Env) Session() (session.Session, error) {
	sess, err := e.Store.Load()
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	if sess.Anonymous() || sess.UserID == "" {
		return session.Session{}, workflow.ErrNotLoggedIn
	}
	return sess, nil
}

func (e *Env) quiet() bool {
	return e.Config != nil && e.Config.Quiet
}

// readLine prompts on w and reads one line of input. io.EOF with no
// input yields an empty string.
func (e *Env) readLine(w io.Writer, prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(w, prompt)
	}
	line, err := e.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// confirmWith configures the deletion prompt for one command run.
func (e *Env) confirmWith(assumeYes bool, out io.Writer) {
	e.confirm.assumeYes = assumeYes
	e.confirm.out = out
}

// promptConfirmer asks on out and reads a y/N answer from in.
type promptConfirmer struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

func (p *promptConfirmer) Confirm(prompt string) bool {
	if p.assumeYes {
		return true
	}
	fmt.Fprintf(p.out, "%s [y/N] ", prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
