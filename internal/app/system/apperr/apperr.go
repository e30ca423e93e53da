// internal/app/system/apperr/apperr.go
//
// Package apperr defines the error taxonomy shared by the desk, the HTTP
// features, and the ops CLI. Handlers map each kind to a status code.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports input that was rejected before anything changed.
type ValidationError struct {
	Msg     string
	Details []string
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Msg
	}
	return e.Msg + ": " + strings.Join(e.Details, "; ")
}

// NotFoundError reports a missing room, closure, or other keyed item.
type NotFoundError struct {
	What string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.What, e.Key)
}

// PersistenceError wraps a repository failure. The in-memory state is left
// unchanged whenever one is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Validation builds a *ValidationError.
func Validation(msg string, details ...string) error {
	return &ValidationError{Msg: msg, Details: details}
}

// NotFound builds a *NotFoundError.
func NotFound(what, key string) error {
	return &NotFoundError{What: what, Key: key}
}

// Persistence wraps err as a *PersistenceError. It returns nil for a nil err
// and leaves existing PersistenceErrors alone.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// IsPersistence reports whether err is or wraps a *PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
