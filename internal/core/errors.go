package core

import (
	"context"
	"errors"
)

// Step failures. Engine code wraps these with context; callers match with errors.Is.
var (
	ErrNavigation            = errors.New("navigation failed")
	ErrNoNavigation          = errors.New("no navigation observed")
	ErrLoginFormMissing      = errors.New("login form controls not found")
	ErrLoginRejected         = errors.New("still on login page after submitting credentials")
	ErrActionControlNotFound = errors.New("no action control matched")
	ErrFatalAuth             = errors.New("chat platform rejected credentials")
)

// ErrorKind is the taxonomy label recorded with a failed outcome
type ErrorKind string

const (
	KindNone                  ErrorKind = ""
	KindNavigation            ErrorKind = "navigation"
	KindLoginFormMissing      ErrorKind = "login-form-missing"
	KindLoginRejected         ErrorKind = "login-rejected"
	KindActionControlNotFound ErrorKind = "action-control-not-found"
	KindFatalAuth             ErrorKind = "fatal-auth"
	KindCancelled             ErrorKind = "cancelled"
	KindUnknown               ErrorKind = "unknown"
)

// KindOf classifies an error into the taxonomy
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrLoginFormMissing):
		return KindLoginFormMissing
	case errors.Is(err, ErrLoginRejected):
		return KindLoginRejected
	case errors.Is(err, ErrActionControlNotFound):
		return KindActionControlNotFound
	case errors.Is(err, ErrFatalAuth):
		return KindFatalAuth
	case errors.Is(err, ErrNavigation), errors.Is(err, ErrNoNavigation):
		return KindNavigation
	case errors.Is(err, context.Canceled):
		return KindCancelled
	default:
		return KindUnknown
	}
}
