package prove

import (
	"errors"
	"fmt"
)

var (
	// ErrProofTimeout marks a statement whose simplification exceeded the
	// per-statement budget.
	ErrProofTimeout = errors.New("proof timed out")

	// ErrInconclusive marks a residual the kernel cannot decide.
	ErrInconclusive = errors.New("prover could not decide")
)

// InternalProverError is a panic recovered while proving one statement
type InternalProverError struct {
	ID    string
	Value any
	Stack []byte
}

func (e *InternalProverError) Error() string {
	return fmt.Sprintf("internal prover error on %s: %v", e.ID, e.Value)
}
