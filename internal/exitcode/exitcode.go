// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion. A declined confirmation
	// also exits with Success.
	Success = 0

	// UserError indicates a user error (bad args, failed local validation,
	// unknown task reference).
	UserError = 1

	// AuthError indicates a missing session or credentials the backend
	// rejected (401/403).
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)
