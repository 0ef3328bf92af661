package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedStatement is wrapped by every MalformedStatementError
	ErrMalformedStatement = errors.New("malformed statement")

	// ErrUnsupportedFormat is returned for catalog files with an unknown extension
	ErrUnsupportedFormat = errors.New("unsupported catalog format")
)

// MalformedStatementError identifies the first invalid record of a catalog.
// Index is the 1-based position of the record.
type MalformedStatementError struct {
	ID     string
	Index  int
	Reason string
}

func (e *MalformedStatementError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("malformed statement #%d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("malformed statement #%d (%s): %s", e.Index, e.ID, e.Reason)
}

func (e *MalformedStatementError) Unwrap() error { return ErrMalformedStatement }
