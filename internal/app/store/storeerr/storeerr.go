// internal/app/store/storeerr/storeerr.go
//
// Package storeerr holds sentinel errors shared by every room and closure
// backend so callers can test for them without knowing the driver.
package storeerr

import "errors"

// ErrNotFound is returned when no current room record or no closure for the
// requested date exists.
var ErrNotFound = errors.New("store: not found")
