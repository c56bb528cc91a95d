package types

import (
	"errors"
	"fmt"
)

var (
	// ErrRecordNotFound indicates that no loan with the requested id exists
	ErrRecordNotFound = errors.New("record not found")

	// ErrInvalidRecord indicates that a loan record violates its invariants
	ErrInvalidRecord = errors.New("invalid record")
)

// LoadError reports why a bulk load was rejected. Row is the zero-based position of the
// offending record in the input, or -1 when the input could not be decoded at all.
type LoadError struct {
	Row    int
	LoanID string
	Err    error
}

func (e *LoadError) Error() string {
	switch {
	case e.Row < 0:
		return fmt.Sprintf("failed to load records: %v", e.Err)
	case e.LoanID != "":
		return fmt.Sprintf("failed to load record %d (%s): %v", e.Row, e.LoanID, e.Err)
	default:
		return fmt.Sprintf("failed to load record %d: %v", e.Row, e.Err)
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
