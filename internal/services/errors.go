package services

import "errors"

// Error kinds. Every error returned by the services wraps exactly one of them.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrUserNotFound      = errors.New("user not found")
	ErrNoMatch           = errors.New("no matching exercises")
	ErrPersistence       = errors.New("persistence failure")
)

// Error carries a user-facing message alongside its kind and optional cause.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func newError(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind error, message string, cause error) error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Kind returns the error kind wrapped by err, or nil when err is not a service error.
func Kind(err error) error {
	for _, kind := range []error{ErrInvalidInput, ErrDuplicateUsername, ErrUserNotFound, ErrNoMatch, ErrPersistence} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
