// Package rest implements the service.Service interface over the auth, task
// and comment REST services.
package rest

import (
	"context"
	"net/http"
	"net/url"

	"taskmgr/internal/httpclient"
	"taskmgr/internal/service"
)

// Client implements service.Service using the three REST backends.
type Client struct {
	http *httpclient.Client
}

// New creates a REST client on top of an httpclient.Client.
func New(hc *httpclient.Client) *Client {
	return &Client{http: hc}
}

// Login posts credentials to POST /users/login.
func (c *Client) Login(ctx context.Context, email, password string) (service.LoginResult, error) {
	var res service.LoginResult
	err := c.http.Do(ctx, httpclient.Request{
		Base:   httpclient.Auth,
		Method: http.MethodPost,
		Path:   "/users/login",
		Body:   map[string]string{"email": email, "password": password},
	}, &res)
	if err != nil {
		return service.LoginResult{}, err
	}
	return res, nil
}

// GoogleLogin posts a Google ID token to POST /users/google-login.
func (c *Client) GoogleLogin(ctx context.Context, credential string) (service.LoginResult, error) {
	var res service.LoginResult
	err := c.http.Do(ctx, httpclient.Request{
		Base:   httpclient.Auth,
		Method: http.MethodPost,
		Path:   "/users/google-login",
		Body:   map[string]string{"token": credential},
	}, &res)
	if err != nil {
		return service.LoginResult{}, err
	}
	return res, nil
}

// ListTasks fetches GET /tasks/user/{userId}.
func (c *Client) ListTasks(ctx context.Context, userID string) ([]service.Task, error) {
	var tasks []service.Task
	err := c.http.Do(ctx, httpclient.Request{
		Base:   httpclient.Task,
		Method: http.MethodGet,
		Path:   "/tasks/user/" + url.PathEscape(userID),
	}, &tasks)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	return tasks, nil
}

// CreateTask posts to POST /tasks.
func (c *Client) CreateTask(ctx context.Context, title, description, userID string) (service.Task, error) {
	var task service.Task
	err := c.http.Do(ctx, httpclient.Request{
		Base:   httpclient.Task,
		Method: http.MethodPost,
		Path:   "/tasks",
		Body: map[string]string{
			"title":       title,
			"description": description,
			"userId":      userID,
		},
	}, &task)
	if err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// ImportGoogleCalendar triggers GET /tasks/fetch-google-calendar.
// The acknowledgement body is plain text and is discarded.
func (c *Client) ImportGoogleCalendar(ctx context.Context, accessToken, userID string) error {
	return c.http.Do(ctx, httpclient.Request{
		Base:   httpclient.Task,
		Method: http.MethodGet,
		Path:   "/tasks/fetch-google-calendar",
		Query:  url.Values{"accessToken": {accessToken}, "userId": {userID}},
	}, nil)
}

// ListComments fetches GET /comments/task/{taskId}.
func (c *Client) ListComments(ctx context.Context, taskID string) ([]service.Comment, error) {
	var comments []service.Comment
	err := c.http.Do(ctx, httpclient.Request{
		Base:   httpclient.Comment,
		Method: http.MethodGet,
		Path:   "/comments/task/" + url.PathEscape(taskID),
	}, &comments)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []service.Comment{}
	}
	return comments, nil
}

// AddComment posts to POST /comments.
func (c *Client) AddComment(ctx context.Context, taskID, userID, content string) (service.Comment, error) {
	var comment service.Comment
	err := c.http.Do(ctx, httpclient.Request{
		Base:   httpclient.Comment,
		Method: http.MethodPost,
		Path:   "/comments",
		Body: map[string]string{
			"taskId":  taskID,
			"userId":  userID,
			"content": content,
		},
	}, &comment)
	if err != nil {
		return service.Comment{}, err
	}
	return comment, nil
}

// UpdateComment sends the full comment with new content to PUT /comments/{id}.
func (c *Client) UpdateComment(ctx context.Context, comment service.Comment, content string) (service.Comment, error) {
	comment.Content = content
	var updated service.Comment
	err := c.http.Do(ctx, httpclient.Request{
		Base:   httpclient.Comment,
		Method: http.MethodPut,
		Path:   "/comments/" + url.PathEscape(comment.ID),
		Body:   comment,
	}, &updated)
	if err != nil {
		return service.Comment{}, err
	}
	return updated, nil
}

// DeleteComment sends DELETE /comments/{id}.
func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	return c.http.Do(ctx, httpclient.Request{
		Base:   httpclient.Comment,
		Method: http.MethodDelete,
		Path:   "/comments/" + url.PathEscape(commentID),
	}, nil)
}

var _ service.Service = (*Client)(nil)
