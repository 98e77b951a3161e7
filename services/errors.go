package services

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart   = errors.New("add at least one item")
	ErrMissingRoom = errors.New("select a room")
	ErrUnknownRoom = errors.New("unknown room")

	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrEmailTaken   = errors.New("email already registered")
)

// CatalogLoadError is logged and swallowed by the catalog; callers see an empty menu.
type CatalogLoadError struct {
	Table string
	Err   error
}

func (e *CatalogLoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Table, e.Err)
}

func (e *CatalogLoadError) Unwrap() error { return e.Err }

// UploadError aborts an item save so no broken image reference is stored.
type UploadError struct {
	Path string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Path, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// ThrottledError carries the remaining sign-in cooldown.
type ThrottledError struct {
	WaitSeconds int
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("too many attempts, try again in %d seconds", e.WaitSeconds)
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
