package commands

import (
	"strconv"
	"strings"
	"unicode"
)

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Num int    // 1-based position in the current listing, 0 if ID is set
	ID  string // backend task id
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = &UsageError{Message: "task reference required"}

// ParseTaskRef parses the task reference in args[0].
//
// Parsing rules:
// 1. If the arg is all digits, it is a position in the current listing
// 2. Position 0 is invalid
// 3. Anything else non-blank is a task id
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}

	ref := strings.TrimSpace(args[0])
	if ref == "" {
		return TaskRef{}, ErrTaskRefRequired
	}

	if isAllDigits(ref) {
		num, err := strconv.Atoi(ref)
		if err != nil || num < 1 {
			return TaskRef{}, usageErrorf("invalid task reference: %s", ref)
		}
		return TaskRef{Num: num}, nil
	}

	return TaskRef{ID: ref}, nil
}

// String returns the reference as typed.
func (r TaskRef) String() string {
	if r.ID != "" {
		return r.ID
	}
	return strconv.Itoa(r.Num)
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
