package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Kind classifies a failed call.
type Kind string

const (
	// KindTransport is a network failure: no response was received.
	KindTransport Kind = "transport"

	// KindBackend is a non-success response.
	KindBackend Kind = "backend"
)

// Error is returned for every failed call. Message is what the user sees.
type Error struct {
	Kind       Kind
	Base       Base
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StatusCode returns the HTTP status of a backend failure, or 0.
func StatusCode(err error) int {
	var hErr *Error
	if errors.As(err, &hErr) {
		return hErr.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether the backend rejected the credentials.
func IsUnauthorized(err error) bool {
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// IsTransport reports whether err is a network failure.
func IsTransport(err error) bool {
	var hErr *Error
	return errors.As(err, &hErr) && hErr.Kind == KindTransport
}

// backendMessage extracts the message a backend put in an error body.
// JSON bodies use their message or error field; plain text is used as is.
func backendMessage(status int, raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return genericMessage(status)
	}

	if strings.HasPrefix(text, "{") {
		var body struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal([]byte(text), &body); err == nil {
			switch {
			case body.Message != "":
				return body.Message
			case body.Error != "":
				return body.Error
			default:
				return genericMessage(status)
			}
		}
	}

	if strings.HasPrefix(text, "\"") {
		var s string
		if err := json.Unmarshal([]byte(text), &s); err == nil && s != "" {
			return s
		}
	}

	return text
}

func genericMessage(status int) string {
	return fmt.Sprintf("request failed with status %d", status)
}

func transportMessage(err error) string {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return "request timed out"
	}
	if errors.Is(err, context.Canceled) {
		return "request cancelled"
	}
	return "network error: " + err.Error()
}
