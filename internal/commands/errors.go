package commands

import (
	"errors"
	"fmt"
	"io"

	"taskmgr/internal/backend/gcal"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/httpclient"
	"taskmgr/internal/workflow"
)

// UsageError is a problem with the command line itself.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string { return e.Message }

func usageErrorf(format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// Fail prints err to errOut and returns the matching exit code. A
// superseded response is not a failure and prints nothing.
func Fail(errOut io.Writer, err error) int {
	var usage *UsageError
	switch {
	case errors.Is(err, workflow.ErrStale):
		// A newer request already replaced the result
		return exitcode.Success
	case errors.As(err, &usage), errors.Is(err, workflow.ErrValidation):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case errors.Is(err, workflow.ErrNotLoggedIn):
		fmt.Fprintln(errOut, "error: not logged in (run: taskmgr login)")
		return exitcode.AuthError
	case errors.Is(err, gcal.ErrAccessTokenRejected):
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	case httpclient.IsUnauthorized(err):
		fmt.Fprintf(errOut, "error: auth error: %v (run: taskmgr login)\n", err)
		return exitcode.AuthError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}
