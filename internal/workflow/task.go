// Package workflow implements the client-side task and comment workflows:
// login, task listing and creation, calendar import, and the per-task
// comment cache.
//
// Workflows receive their session store and backend explicitly and are safe
// for concurrent use. Overlapping fetches of the same data are ordered by
// sequence number; a response older than the last applied one is dropped and
// reported as ErrStale.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"taskmgr/internal/service"
	"taskmgr/internal/session"
)

const tasksKey = "tasks"

// TaskWorkflow covers login, task listing, task creation and calendar import.
type TaskWorkflow struct {
	svc   service.Service
	store session.Store
	log   *zap.Logger
	seq   *sequencer

	mu    sync.RWMutex
	tasks []service.Task
}

// NewTaskWorkflow creates a TaskWorkflow.
func NewTaskWorkflow(svc service.Service, store session.Store, log *zap.Logger) *TaskWorkflow {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskWorkflow{
		svc:   svc,
		store: store,
		log:   log.Named("tasks"),
		seq:   newSequencer(),
	}
}

// Session returns the stored session.
func (w *TaskWorkflow) Session() (session.Session, error) {
	return w.store.Load()
}

// Login authenticates with email and password. On success the returned
// token and user id are stored and any previous Google access token is
// dropped. On failure the session is left untouched.
func (w *TaskWorkflow) Login(ctx context.Context, email, password string) (session.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return session.Session{}, required("email")
	}
	if password == "" {
		return session.Session{}, required("password")
	}

	res, err := w.svc.Login(ctx, email, password)
	if err != nil {
		w.log.Debug("login failed", zap.Error(err))
		return session.Session{}, err
	}
	return w.establish(res, "")
}

// LoginWithGoogle authenticates with a Google ID token credential. The
// Google OAuth access token, when given, is stored for calendar import.
func (w *TaskWorkflow) LoginWithGoogle(ctx context.Context, credential, accessToken string) (session.Session, error) {
	if credential == "" {
		return session.Session{}, required("google credential")
	}

	res, err := w.svc.GoogleLogin(ctx, credential)
	if err != nil {
		w.log.Debug("google login failed", zap.Error(err))
		return session.Session{}, err
	}
	return w.establish(res, accessToken)
}

func (w *TaskWorkflow) establish(res service.LoginResult, accessToken string) (session.Session, error) {
	if res.Token == "" || res.User.ID == "" {
		return session.Session{}, fmt.Errorf("login response is missing token or user id")
	}
	sess := session.Session{
		AuthToken:   res.Token,
		UserID:      res.User.ID,
		AccessToken: accessToken,
	}
	if err := w.store.Save(sess); err != nil {
		return session.Session{}, fmt.Errorf("failed to save session: %w", err)
	}

	w.mu.Lock()
	w.tasks = nil
	w.mu.Unlock()

	w.log.Debug("session established", zap.String("user_id", sess.UserID))
	return sess, nil
}

// ListTasks fetches every task owned by userID and makes it the displayed
// list. A user with no tasks yields an empty, non-nil slice.
func (w *TaskWorkflow) ListTasks(ctx context.Context, userID string) ([]service.Task, error) {
	if userID == "" {
		return nil, required("user ID")
	}

	ticket := w.seq.ticket(tasksKey)
	tasks, err := w.svc.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []service.Task{}
	}

	applied := w.seq.apply(tasksKey, ticket, func() {
		w.mu.Lock()
		w.tasks = tasks
		w.mu.Unlock()
	})
	if !applied {
		w.log.Debug("discarding stale task list", zap.Uint64("ticket", ticket))
		return nil, ErrStale
	}
	return tasks, nil
}

// Tasks returns the displayed task list from the last applied ListTasks.
func (w *TaskWorkflow) Tasks() []service.Task {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]service.Task, len(w.tasks))
	copy(out, w.tasks)
	return out
}

// CreateTask creates a task. Title and description must not be blank.
// The displayed list is not changed; callers refresh it.
func (w *TaskWorkflow) CreateTask(ctx context.Context, title, description, userID string) (service.Task, error) {
	if strings.TrimSpace(title) == "" {
		return service.Task{}, required("title")
	}
	if strings.TrimSpace(description) == "" {
		return service.Task{}, required("description")
	}
	if userID == "" {
		return service.Task{}, required("user ID")
	}

	task, err := w.svc.CreateTask(ctx, title, description, userID)
	if err != nil {
		return service.Task{}, err
	}
	w.log.Debug("task created", zap.String("task_id", task.ID))
	return task, nil
}

// ImportFromGoogleCalendar asks the task service to import the user's
// calendar events. Both values are checked before any request is sent.
func (w *TaskWorkflow) ImportFromGoogleCalendar(ctx context.Context, accessToken, userID string) error {
	if accessToken == "" {
		return required("access token")
	}
	if userID == "" {
		return required("user ID")
	}

	if err := w.svc.ImportGoogleCalendar(ctx, accessToken, userID); err != nil {
		return err
	}
	w.log.Debug("calendar import requested", zap.String("user_id", userID))
	return nil
}
