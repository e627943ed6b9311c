// Package view tracks which screen of the task manager is active and runs
// the workflow each screen needs when it is entered.
package view

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"taskmgr/internal/service"
	"taskmgr/internal/session"
	"taskmgr/internal/workflow"
)

// View identifies a screen.
type View int

const (
	Landing View = iota
	CreateTask
	ShowTasks
	GoogleCalendar
)

func (v View) String() string {
	switch v {
	case Landing:
		return "landing"
	case CreateTask:
		return "create-task"
	case ShowTasks:
		return "show-tasks"
	case GoogleCalendar:
		return "google-calendar"
	default:
		return fmt.Sprintf("view(%d)", int(v))
	}
}

// Controller switches between views. The session is read from the store on
// every switch.
type Controller struct {
	tasks *workflow.TaskWorkflow
	store session.Store
	log   *zap.Logger

	mu      sync.Mutex
	current View
}

// NewController creates a Controller on the landing view.
func NewController(tasks *workflow.TaskWorkflow, store session.Store, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		tasks: tasks,
		store: store,
		log:   log.Named("view"),
	}
}

// Current returns the active view.
func (c *Controller) Current() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Controller) set(v View) {
	c.mu.Lock()
	prev := c.current
	c.current = v
	c.mu.Unlock()
	if prev != v {
		c.log.Debug("view changed", zap.Stringer("from", prev), zap.Stringer("to", v))
	}
}

// Switch makes v the active view. ShowTasks lists the session user's tasks
// once; GoogleCalendar imports calendar events and then lists. Every view
// except Landing needs a session. If the view's workflow fails the view is
// still switched and the error is returned.
func (c *Controller) Switch(ctx context.Context, v View) ([]service.Task, error) {
	if v == Landing {
		c.set(Landing)
		return nil, nil
	}

	sess, err := c.session()
	if err != nil {
		return nil, err
	}
	c.set(v)

	switch v {
	case ShowTasks:
		return c.tasks.ListTasks(ctx, sess.UserID)
	case GoogleCalendar:
		if err := c.tasks.ImportFromGoogleCalendar(ctx, sess.AccessToken, sess.UserID); err != nil {
			return nil, err
		}
		return c.tasks.ListTasks(ctx, sess.UserID)
	default:
		return nil, nil
	}
}

// CreateTask creates a task from the create-task view and then switches to
// ShowTasks. On failure the view stays on CreateTask.
func (c *Controller) CreateTask(ctx context.Context, title, description string) (service.Task, []service.Task, error) {
	sess, err := c.session()
	if err != nil {
		return service.Task{}, nil, err
	}
	c.set(CreateTask)

	task, err := c.tasks.CreateTask(ctx, title, description, sess.UserID)
	if err != nil {
		return service.Task{}, nil, err
	}
	tasks, err := c.Switch(ctx, ShowTasks)
	return task, tasks, err
}

// Logout clears the session and returns to Landing. The view changes even
// if clearing fails.
func (c *Controller) Logout() error {
	c.set(Landing)
	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (c *Controller) session() (session.Session, error) {
	sess, err := c.store.Load()
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	if sess.Anonymous() || sess.UserID == "" {
		return session.Session{}, workflow.ErrNotLoggedIn
	}
	return sess, nil
}
