// Package domain holds the error vocabulary shared by the data preparation
// packages.
package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is a coarse-grained categorization for errors.
type ErrorKind string

const (
	KindNotFound      ErrorKind = "not_found"
	KindTransport     ErrorKind = "transport"
	KindArchive       ErrorKind = "archive"
	KindReproject     ErrorKind = "reproject"
	KindLayer         ErrorKind = "layer"
	KindCopy          ErrorKind = "copy"
	KindInvalidConfig ErrorKind = "invalid_config"
	KindInvalidInput  ErrorKind = "invalid_input"
)

// OpError wraps an underlying error with operation context and a kind.
type OpError struct {
	Op   string
	Kind ErrorKind
	Path string // Optional: relevant file path or URL
	Err  error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind reports whether any OpError in err's chain has the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var oe *OpError
	for errors.As(err, &oe) {
		if oe.Kind == kind {
			return true
		}
		err = oe.Err
		oe = nil
	}
	return false
}
