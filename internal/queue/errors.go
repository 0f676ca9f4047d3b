package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure taxonomy shared by every component.
var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrUpstreamUnavailable    = errors.New("upstream unavailable")
	ErrValidation             = errors.New("validation failed")
	ErrNotFound               = errors.New("not found")
)

// ErrorClassifier allows errors to declare their classification.
type ErrorClassifier interface {
	// ErrorKind returns one of the Kind* strings.
	ErrorKind() string
}

// Error kinds reported through ErrorClassifier.
const (
	KindAuthentication = "authentication"
	KindUpstream       = "upstream"
	KindValidation     = "validation"
	KindNotFound       = "not_found"
)

// Error carries a taxonomy kind together with the failing operation.
type Error struct {
	// Kind is one of the sentinel errors above.
	Kind   error
	Op     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("error")
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is matches the error's kind so errors.Is(err, ErrNotFound) works.
func (e *Error) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorKind implements ErrorClassifier.
func (e *Error) ErrorKind() string {
	switch e.Kind {
	case ErrAuthenticationRequired:
		return KindAuthentication
	case ErrValidation:
		return KindValidation
	case ErrNotFound:
		return KindNotFound
	default:
		return KindUpstream
	}
}

// KindOf classifies any error. Unknown errors are treated as upstream
// failures; nil yields "".
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	switch {
	case errors.Is(err, ErrAuthenticationRequired):
		return KindAuthentication
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindUpstream
	}
}

// Validation reports rejected input.
func Validation(op, detail string) error {
	return &Error{Kind: ErrValidation, Op: op, Detail: detail}
}

// ValidationErr wraps a validation library error.
func ValidationErr(op string, err error) error {
	return &Error{Kind: ErrValidation, Op: op, Err: err}
}

// NotFound reports a missing item.
func NotFound(op, id string) error {
	return &Error{Kind: ErrNotFound, Op: op, Detail: fmt.Sprintf("item %q", id)}
}

// Upstream wraps a store or transport failure. Errors that already carry a
// taxonomy kind are returned unchanged.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: ErrUpstreamUnavailable, Op: op, Detail: "request aborted", Err: err}
	}
	return &Error{Kind: ErrUpstreamUnavailable, Op: op, Err: err}
}

// ForceUpstream reclassifies a failed store call as upstream unavailable.
// Authentication failures keep their kind. Any other taxonomy kind the store
// reported (a rejected body, a missing route) is kept only as text so
// errors.Is no longer matches it.
func ForceUpstream(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAuthenticationRequired) {
		return err
	}
	var typed *Error
	if errors.As(err, &typed) {
		if typed.Kind == ErrUpstreamUnavailable {
			return err
		}
		return &Error{Kind: ErrUpstreamUnavailable, Op: op, Detail: err.Error()}
	}
	return Upstream(op, err)
}

// AuthRequired reports a missing or rejected credential.
func AuthRequired(op string) error {
	return &Error{Kind: ErrAuthenticationRequired, Op: op}
}
