// Package werr defines the small typed-error taxonomy shared by the
// orchestrator and both workers, so callers can branch on failure kind
// (e.g. retry a WorkerFault, but surface a LoadFailure as fatal) without
// string-matching error messages.
package werr

import "fmt"

type Kind string

const (
	LoadFailure   Kind = "load_failure"
	SessionAbsent Kind = "session_absent"
	ProtocolError Kind = "protocol_error"
	WorkerFault   Kind = "worker_fault"
	Terminated    Kind = "terminated"
)

// Error wraps an underlying cause with a Kind, so errors.Is/As and
// %w-wrapping both keep working while still exposing the kind via As.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err is a *Error of the given kind, unwrapping
// through any chain of wrapped errors.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == kind {
				return true
			}
			err = e.Err
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
