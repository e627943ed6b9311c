// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the interface for the auth, task and comment backends.
// All backend calls go through this interface.
// Workflows and commands never build HTTP requests directly.
type Service interface {
	// Login exchanges email and password for a backend token.
	Login(ctx context.Context, email, password string) (LoginResult, error)

	// GoogleLogin exchanges a Google ID token credential for a backend token.
	GoogleLogin(ctx context.Context, credential string) (LoginResult, error)

	// ListTasks returns all tasks owned by userID in API order.
	// Returns an empty slice when the user has no tasks.
	ListTasks(ctx context.Context, userID string) ([]Task, error)

	// CreateTask creates a new task for userID.
	CreateTask(ctx context.Context, title, description, userID string) (Task, error)

	// ImportGoogleCalendar asks the task service to import the user's
	// Google Calendar events as tasks.
	ImportGoogleCalendar(ctx context.Context, accessToken, userID string) error

	// ListComments returns all comments on a task in API order.
	ListComments(ctx context.Context, taskID string) ([]Comment, error)

	// AddComment creates a comment on a task.
	AddComment(ctx context.Context, taskID, userID, content string) (Comment, error)

	// UpdateComment replaces the content of an existing comment.
	UpdateComment(ctx context.Context, comment Comment, content string) (Comment, error)

	// DeleteComment deletes a comment by ID.
	DeleteComment(ctx context.Context, commentID string) error
}
