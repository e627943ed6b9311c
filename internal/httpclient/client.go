// Package httpclient issues JSON requests to the auth, task and comment
// services and reports failures uniformly.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"taskmgr/internal/logger"
	"taskmgr/internal/session"
)

// Base selects one of the three backend services.
type Base int

const (
	Auth Base = iota
	Task
	Comment
)

func (b Base) String() string {
	switch b {
	case Auth:
		return "auth"
	case Task:
		return "task"
	case Comment:
		return "comment"
	default:
		return fmt.Sprintf("base(%d)", int(b))
	}
}

// RequestIDHeader carries the per-call request id.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Options configures a Client.
type Options struct {
	AuthURL    string
	TaskURL    string
	CommentURL string

	// AuthenticateAll attaches the bearer token to task and comment
	// requests too. When false only auth requests carry it.
	AuthenticateAll bool

	// Timeout of zero leaves the transport default in place.
	Timeout time.Duration

	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper

	Logger *zap.Logger
}

// Client wraps outbound calls to the three services.
// Every call is attempted exactly once.
type Client struct {
	bases           map[Base]string
	authenticateAll bool
	store           session.Store
	timeout         time.Duration
	transport       http.RoundTripper
	log             *zap.Logger
}

// New creates a Client reading the bearer token from store on every call.
func New(opts Options, store session.Store) *Client {
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		bases: map[Base]string{
			Auth:    strings.TrimRight(opts.AuthURL, "/"),
			Task:    strings.TrimRight(opts.TaskURL, "/"),
			Comment: strings.TrimRight(opts.CommentURL, "/"),
		},
		authenticateAll: opts.AuthenticateAll,
		store:           store,
		timeout:         opts.Timeout,
		transport:       transport,
		log:             log,
	}
}

// Request describes one outbound call.
type Request struct {
	Base   Base
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Do sends req and decodes a JSON response into out. A nil out discards the
// response body. Non-2xx responses and network failures return *Error.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	base, ok := c.bases[req.Base]
	if !ok || base == "" {
		return fmt.Errorf("no base address configured for %s service", req.Base)
	}

	target := base + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", req.Path, err)
		}
		body = bytes.NewReader(payload)
	}

	requestID := uuid.NewString()
	ctx = logger.ContextWithRequestID(ctx, requestID)
	log := logger.WithRequestID(ctx, c.log).With(
		zap.String("service", req.Base.String()),
		zap.String("method", req.Method),
		zap.String("path", req.Path),
	)

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", req.Path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set(RequestIDHeader, requestID)

	httpClient, err := c.httpClient(req.Base)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		log.Debug("request failed", zap.Error(err))
		return &Error{Kind: KindTransport, Base: req.Base, Message: transportMessage(err), Err: err}
	}
	defer resp.Body.Close()

	log.Debug("response received",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{
			Kind:       KindBackend,
			Base:       req.Base,
			StatusCode: resp.StatusCode,
			Message:    backendMessage(resp.StatusCode, raw),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return &Error{
			Kind:       KindBackend,
			Base:       req.Base,
			StatusCode: resp.StatusCode,
			Message:    "invalid response from " + req.Base.String() + " service",
			Err:        err,
		}
	}
	return nil
}

// httpClient returns a client that attaches the session token when base
// requires it and one is stored.
func (c *Client) httpClient(base Base) (*http.Client, error) {
	client := &http.Client{Transport: c.transport, Timeout: c.timeout}
	if base != Auth && !c.authenticateAll {
		return client, nil
	}
	if c.store == nil {
		return client, nil
	}
	sess, err := c.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess.AuthToken == "" {
		return client, nil
	}
	client.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: sess.AuthToken,
			TokenType:   "Bearer",
		}),
		Base: c.transport,
	}
	return client, nil
}
