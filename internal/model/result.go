package model

// Outcome is the classification of one statement
type Outcome string

const (
	OutcomeProved       Outcome = "proved"       // Residual simplified to exactly zero
	OutcomeDisproved    Outcome = "disproved"    // Residual is a manifestly nonzero closed form
	OutcomeInconclusive Outcome = "inconclusive" // Simplifier could not decide (or ran out of time)
	OutcomeAssertion    Outcome = "assertion"    // Axiom, definition or regime claim: recorded, not proved
	OutcomeError        Outcome = "error"        // Malformed expression or prover failure
)

// Outcomes lists every outcome in report order
var Outcomes = []Outcome{OutcomeProved, OutcomeDisproved, OutcomeInconclusive, OutcomeAssertion, OutcomeError}

// ErrorKind classifies error outcomes
type ErrorKind string

const (
	ErrorKindMalformedExpression ErrorKind = "malformed_expression"
	ErrorKindInternal            ErrorKind = "internal_prover_error"
)

// NumericCheck tags the result of floating-point sampling. It is evidence, never a proof.
type NumericCheck string

const (
	NumericPlausible   NumericCheck = "numerically_plausible"
	NumericImplausible NumericCheck = "numerically_implausible"
)

// AssertionKind explains why a statement was recorded without proof
type AssertionKind string

const (
	AssertionAxiom      AssertionKind = "axiom"
	AssertionDefinition AssertionKind = "definition"
	AssertionRegime     AssertionKind = "regime"
)

// VerificationResult is the verdict for one statement
type VerificationResult struct {
	ID            string        `json:"id" yaml:"id"`
	Family        string        `json:"family" yaml:"family"`
	Relation      Relation      `json:"relation" yaml:"relation"`
	Outcome       Outcome       `json:"outcome" yaml:"outcome"`
	Residual      string        `json:"residual,omitempty" yaml:"residual,omitempty"`             // Simplified left - right
	Difference    string        `json:"difference,omitempty" yaml:"difference,omitempty"`         // Unsimplified left - right
	AssertionKind AssertionKind `json:"assertion_kind,omitempty" yaml:"assertion_kind,omitempty"` // Set for assertion outcomes
	Numeric       NumericCheck  `json:"numeric,omitempty" yaml:"numeric,omitempty"`               // Sampling tag for inconclusive outcomes
	TimedOut      bool          `json:"timed_out,omitempty" yaml:"timed_out,omitempty"`
	Canceled      bool          `json:"canceled,omitempty" yaml:"canceled,omitempty"`
	Reasons       []string      `json:"reasons,omitempty" yaml:"reasons,omitempty"` // Why the prover could not decide
	ErrorKind     ErrorKind     `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Error         string        `json:"error,omitempty" yaml:"error,omitempty"`
	Steps         []string      `json:"steps,omitempty" yaml:"steps,omitempty"` // Proof trace

	// Cached is set when the verdict came from the in-process cache. It is not
	// rendered so cache hits do not change the report.
	Cached bool `json:"-" yaml:"-"`
}

// Counts reports whether the result belongs to the proved/disproved tally
func (r VerificationResult) Counts() bool {
	return r.Outcome == OutcomeProved || r.Outcome == OutcomeDisproved
}
