// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Task represents a single task owned by one user.
type Task struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Status        string    `json:"status,omitempty"`
	UserID        string    `json:"userId"`
	CreatedAt     Timestamp `json:"createdAt,omitempty"`
	GoogleEventID string    `json:"googleEventId,omitempty"`
}

// Comment is a note attached to a task.
type Comment struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"createdAt,omitempty"`
}

// User is the subset of the user record returned at login.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// LoginResult is returned by both login endpoints.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Java backends emit either RFC 3339 or a zone offset without a colon.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05",
}

// Timestamp decodes the creation times sent by the backends: RFC 3339
// strings, epoch milliseconds, Jackson local date-time arrays
// ([year, month, day, hour, minute, second, nanos], read as UTC) or null.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		var err error
		for _, layout := range timestampLayouts {
			var parsed time.Time
			if parsed, err = time.Parse(layout, s); err == nil {
				t.Time = parsed
				return nil
			}
		}
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	if data[0] == '[' {
		return t.unmarshalParts(data)
	}
	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	t.Time = time.UnixMilli(ms).UTC()
	return nil
}

func (t *Timestamp) unmarshalParts(data []byte) error {
	var parts []int
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	if len(parts) < 3 || len(parts) > 7 {
		return fmt.Errorf("invalid timestamp %s: want 3 to 7 fields", data)
	}
	var f [7]int
	copy(f[:], parts)
	if f[1] < 1 || f[1] > 12 {
		return fmt.Errorf("invalid timestamp %s: month out of range", data)
	}
	t.Time = time.Date(f[0], time.Month(f[1]), f[2], f[3], f[4], f[5], f[6], time.UTC)
	return nil
}

// MarshalJSON implements json.Marshaler. Zero times encode as null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}
