// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"taskmgr/internal/service"
)

// ErrNotFound is returned when a resource is not found.
var ErrNotFound = errors.New("not found")

// ErrInvalidCredentials is returned by Login for an unknown email or wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu       sync.RWMutex
	users    map[string]fakeUser // email -> user
	google   map[string]string   // credential -> user id
	tasks    []service.Task
	comments []service.Comment
	imports  []Import
	nextID   int
	calls    map[string]int
	now      func() time.Time

	// Error injection for testing
	LoginErr         error
	GoogleLoginErr   error
	ListTasksErr     error
	CreateTaskErr    error
	ImportErr        error
	ListCommentsErr  error
	AddCommentErr    error
	UpdateCommentErr error
	DeleteCommentErr error

	// CalendarEvents are turned into tasks by ImportGoogleCalendar, keyed by
	// Google event id.
	CalendarEvents map[string]string

	// BeforeListTasks, when set, runs at the start of ListTasks outside the
	// lock. Tests use it to interleave overlapping calls.
	BeforeListTasks func(userID string)
}

type fakeUser struct {
	id       string
	password string
}

// Import records one ImportGoogleCalendar call.
type Import struct {
	AccessToken string
	UserID      string
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		users:  make(map[string]fakeUser),
		google: make(map[string]string),
		calls:  make(map[string]int),
		now:    func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) },
	}
}

// AddUser registers a password user.
func (f *FakeService) AddUser(id, email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[email] = fakeUser{id: id, password: password}
}

// AddGoogleUser registers a Google credential for a user id.
func (f *FakeService) AddGoogleUser(credential, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.google[credential] = userID
}

// AddTask adds a task.
func (f *FakeService) AddTask(id, userID, title, description string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, service.Task{
		ID:          id,
		Title:       title,
		Description: description,
		Status:      "Pending",
		UserID:      userID,
		CreatedAt:   service.Timestamp{Time: f.now()},
	})
}

// SeedComment adds a comment without counting a call.
func (f *FakeService) SeedComment(id, taskID, userID, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments = append(f.comments, service.Comment{
		ID:        id,
		TaskID:    taskID,
		UserID:    userID,
		Content:   content,
		CreatedAt: service.Timestamp{Time: f.now()},
	})
}

// Calls returns how many times a method was invoked.
func (f *FakeService) Calls(method string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.calls[method]
}

// TotalCalls returns the number of calls across all methods.
func (f *FakeService) TotalCalls() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// Imports returns the recorded ImportGoogleCalendar calls.
func (f *FakeService) Imports() []Import {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Import, len(f.imports))
	copy(out, f.imports)
	return out
}

func (f *FakeService) count(method string) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
}

func (f *FakeService) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, email, password string) (service.LoginResult, error) {
	f.count("Login")
	if f.LoginErr != nil {
		return service.LoginResult{}, f.LoginErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	u, ok := f.users[email]
	if !ok || u.password != password {
		return service.LoginResult{}, ErrInvalidCredentials
	}
	return service.LoginResult{
		Token: "token-" + u.id,
		User:  service.User{ID: u.id, Email: email},
	}, nil
}

// GoogleLogin implements service.Service.
func (f *FakeService) GoogleLogin(ctx context.Context, credential string) (service.LoginResult, error) {
	f.count("GoogleLogin")
	if f.GoogleLoginErr != nil {
		return service.LoginResult{}, f.GoogleLoginErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	userID, ok := f.google[credential]
	if !ok {
		return service.LoginResult{}, ErrInvalidCredentials
	}
	return service.LoginResult{
		Token: "google-token-" + userID,
		User:  service.User{ID: userID},
	}, nil
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context, userID string) ([]service.Task, error) {
	f.count("ListTasks")
	if f.BeforeListTasks != nil {
		f.BeforeListTasks(userID)
	}
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := []service.Task{}
	for _, t := range f.tasks {
		if t.UserID == userID {
			result = append(result, t)
		}
	}
	return result, nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, title, description, userID string) (service.Task, error) {
	f.count("CreateTask")
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	task := service.Task{
		ID:          f.id("task-"),
		Title:       title,
		Description: description,
		Status:      "Pending",
		UserID:      userID,
		CreatedAt:   service.Timestamp{Time: f.now()},
	}
	f.tasks = append(f.tasks, task)
	return task, nil
}

// ImportGoogleCalendar implements service.Service. Events already imported
// (same Google event id) are skipped.
func (f *FakeService) ImportGoogleCalendar(ctx context.Context, accessToken, userID string) error {
	f.count("ImportGoogleCalendar")
	if f.ImportErr != nil {
		return f.ImportErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imports = append(f.imports, Import{AccessToken: accessToken, UserID: userID})

	for eventID, summary := range f.CalendarEvents {
		exists := false
		for _, t := range f.tasks {
			if t.GoogleEventID == eventID {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		f.tasks = append(f.tasks, service.Task{
			ID:            f.id("task-"),
			Title:         summary,
			Description:   "No description",
			Status:        "Pending",
			UserID:        userID,
			CreatedAt:     service.Timestamp{Time: f.now()},
			GoogleEventID: eventID,
		})
	}
	return nil
}

// ListComments implements service.Service.
func (f *FakeService) ListComments(ctx context.Context, taskID string) ([]service.Comment, error) {
	f.count("ListComments")
	if f.ListCommentsErr != nil {
		return nil, f.ListCommentsErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := []service.Comment{}
	for _, c := range f.comments {
		if c.TaskID == taskID {
			result = append(result, c)
		}
	}
	return result, nil
}

// AddComment implements service.Service.
func (f *FakeService) AddComment(ctx context.Context, taskID, userID, content string) (service.Comment, error) {
	f.count("AddComment")
	if f.AddCommentErr != nil {
		return service.Comment{}, f.AddCommentErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := service.Comment{
		ID:        f.id("comment-"),
		TaskID:    taskID,
		UserID:    userID,
		Content:   content,
		CreatedAt: service.Timestamp{Time: f.now()},
	}
	f.comments = append(f.comments, c)
	return c, nil
}

// UpdateComment implements service.Service.
func (f *FakeService) UpdateComment(ctx context.Context, comment service.Comment, content string) (service.Comment, error) {
	f.count("UpdateComment")
	if f.UpdateCommentErr != nil {
		return service.Comment{}, f.UpdateCommentErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.comments {
		if c.ID == comment.ID {
			f.comments[i].Content = content
			return f.comments[i], nil
		}
	}
	return service.Comment{}, ErrNotFound
}

// DeleteComment implements service.Service.
func (f *FakeService) DeleteComment(ctx context.Context, commentID string) error {
	f.count("DeleteComment")
	if f.DeleteCommentErr != nil {
		return f.DeleteCommentErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.comments {
		if c.ID == commentID {
			f.comments = append(f.comments[:i], f.comments[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

var _ service.Service = (*FakeService)(nil)
