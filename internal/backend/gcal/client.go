// Package gcal reads upcoming Google Calendar events with the session's
// Google access token. It backs the import preview; the import itself runs
// server-side.
package gcal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	// PrimaryCalendarID is the calendar the task service imports from.
	PrimaryCalendarID = "primary"

	// APITimeout is the timeout for a single listing.
	APITimeout = 10 * time.Second

	// DefaultMaxResults bounds a preview listing.
	DefaultMaxResults = 50
)

// ErrAccessTokenRejected is returned when Google refuses the access token.
var ErrAccessTokenRejected = errors.New("google access token expired or revoked (run: taskmgr login --google)")

// Event is a simplified Google Calendar event.
type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	AllDay      bool
}

// Client wraps the Google Calendar service.
type Client struct {
	svc *calendar.Service
}

// New creates a client authenticated with a bare OAuth access token.
// Extra options (such as option.WithEndpoint) are appended.
func New(ctx context.Context, accessToken string, opts ...option.ClientOption) (*Client, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("google access token is required")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	all := append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)

	svc, err := calendar.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// UpcomingEvents lists events on the primary calendar starting from now.
// Events without an ID are skipped, as the importer cannot deduplicate them.
func (c *Client) UpcomingEvents(ctx context.Context, from time.Time, max int64) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	if max <= 0 {
		max = DefaultMaxResults
	}

	resp, err := c.svc.Events.List(PrimaryCalendarID).
		TimeMin(from.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(max).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapError(err)
	}

	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == "" {
			continue
		}
		ev := Event{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
		}
		if item.Start != nil {
			switch {
			case item.Start.DateTime != "":
				ev.Start, _ = time.Parse(time.RFC3339, item.Start.DateTime)
			case item.Start.Date != "":
				ev.Start, _ = time.Parse("2006-01-02", item.Start.Date)
				ev.AllDay = true
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	// Check for timeout
	if strings.Contains(errStr, "context deadline exceeded") {
		return fmt.Errorf("request timed out")
	}

	// Check for auth errors
	if strings.Contains(errStr, "401") || strings.Contains(errStr, "403") {
		return ErrAccessTokenRejected
	}

	return err
}
