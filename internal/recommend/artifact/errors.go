package artifact

import (
	"errors"
	"fmt"
)

// ErrIntegrity indicates that artifacts are missing, corrupt or inconsistent with each other.
var ErrIntegrity = errors.New("artifact integrity violation")

// ErrVectorLengthMismatch indicates two vectors have different dimensions.
var ErrVectorLengthMismatch = errors.New("vector length mismatch")

// IntegrityError reports why an artifact set cannot be served.
type IntegrityError struct {
	Path   string // offending file, empty for cross-artifact checks
	Reason string
	Err    error
}

func (e *IntegrityError) Error() string {
	msg := e.Reason
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return "artifact integrity: " + msg
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

func integrityErr(path, reason string, err error) error {
	return &IntegrityError{Path: path, Reason: reason, Err: err}
}
