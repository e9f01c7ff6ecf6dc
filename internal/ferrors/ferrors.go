// Package ferrors defines the error kinds named in spec.md §7, as wrapped
// error values rather than exception classes — callers distinguish kinds
// with ferrors.Is (or errors.As to *Error) the way the teacher wraps driver errors with
// fmt.Errorf("...: %w", err) throughout internal/config and internal/store.
package ferrors

import "fmt"

// Kind is one of the error kinds spec.md §7 names.
type Kind string

const (
	KindConfig      Kind = "ConfigError"
	KindInput       Kind = "InputError"
	KindInvalidGroup Kind = "InvalidGroup"
	KindInvalidInput Kind = "InvalidInput"
	KindPersistence  Kind = "PersistenceError"
)

// Error wraps an underlying cause with a Kind, so the orchestrator and CLI
// can distinguish fatal configuration/persistence errors from recoverable
// per-row issues without string-matching messages.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, cause error) error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ae, ok := err.(*Error); ok {
			e = ae
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}
