package recommend

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested title has no row in the index map.
	ErrNotFound = errors.New("talk not found")

	// ErrInvalidArgument indicates a malformed query (empty title, k < 1).
	ErrInvalidArgument = errors.New("invalid argument")
)

// NotFoundError is returned when a title is not in the catalog.
type NotFoundError struct {
	Title string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("talk %q not found in the index", e.Title)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidArgumentError is returned for malformed query arguments.
type InvalidArgumentError struct {
	Arg    string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Arg, e.Reason)
}

func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }
