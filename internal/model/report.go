package model

// Report represents the complete verification report for one catalog.
// It carries no timestamps or durations so repeated runs render identically.
type Report struct {
	Catalog  string               `json:"catalog" yaml:"catalog"`   // Catalog name
	Source   string               `json:"source" yaml:"source"`     // Catalog path
	Complete bool                 `json:"complete" yaml:"complete"` // False when the run was canceled part way
	Results  []VerificationResult `json:"results" yaml:"results"`   // One per statement, input order

	Overall  Tally         `json:"overall" yaml:"overall"`   // Counts over all statements
	Families []FamilyTally `json:"families" yaml:"families"` // Counts per family, sorted by family name

	Signals     []Signal    `json:"signals,omitempty" yaml:"signals,omitempty"` // Diagnostic notes
	Methodology Methodology `json:"methodology" yaml:"methodology"`             // Rules applied when classifying
}

// Tally counts outcomes. Total always equals Proved + Disproved + Inconclusive + Assertion + Error.
type Tally struct {
	Total        int `json:"total" yaml:"total"`
	Proved       int `json:"proved" yaml:"proved"`
	Disproved    int `json:"disproved" yaml:"disproved"`
	Inconclusive int `json:"inconclusive" yaml:"inconclusive"`
	Assertion    int `json:"assertion" yaml:"assertion"`
	Error        int `json:"error" yaml:"error"`

	// Sub-counts of Inconclusive
	TimedOut             int `json:"timed_out" yaml:"timed_out"`
	NumericallyPlausible int `json:"numerically_plausible" yaml:"numerically_plausible"`
}

// Balanced reports whether the outcome counts sum to the total
func (t Tally) Balanced() bool {
	return t.Total == t.Proved+t.Disproved+t.Inconclusive+t.Assertion+t.Error
}

// Add counts one result
func (t *Tally) Add(r VerificationResult) {
	t.Total++
	switch r.Outcome {
	case OutcomeProved:
		t.Proved++
	case OutcomeDisproved:
		t.Disproved++
	case OutcomeAssertion:
		t.Assertion++
	case OutcomeError:
		t.Error++
	default:
		t.Inconclusive++
		if r.TimedOut {
			t.TimedOut++
		}
		if r.Numeric == NumericPlausible {
			t.NumericallyPlausible++
		}
	}
}

// FamilyTally is the tally of one family
type FamilyTally struct {
	Family string `json:"family" yaml:"family"`
	Tally  `yaml:",inline"`
}

// Signal is a diagnostic note attached to the report
type Signal struct {
	Type        SignalType     `json:"type" yaml:"type"`
	Severity    SignalSeverity `json:"severity" yaml:"severity"`
	Description string         `json:"description" yaml:"description"`
	Data        map[string]int `json:"data,omitempty" yaml:"data,omitempty"`
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalAssertionsExcluded SignalType = "assertions_excluded" // Axioms and regime claims left out of proof counts
	SignalNumericOnly        SignalType = "numeric_only"        // Statements supported only by sampling
	SignalTimeouts           SignalType = "timeouts"            // Statements that hit the proof timeout
	SignalDisproved          SignalType = "disproved"           // Identities that do not hold
	SignalErrors             SignalType = "errors"              // Malformed expressions or prover failures
	SignalPartialRun         SignalType = "partial_run"         // Run canceled before all statements finished
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// Methodology documents the classification rules that produced the report
type Methodology struct {
	ExactArithmetic    bool `json:"exact_arithmetic" yaml:"exact_arithmetic"`       // Proofs use exact rationals only
	NumericIsProof     bool `json:"numeric_is_proof" yaml:"numeric_is_proof"`       // Always false
	AssertionsSeparate bool `json:"assertions_separate" yaml:"assertions_separate"` // Assertions excluded from proof counts
}

// DefaultMethodology returns the rules every report is produced under
func DefaultMethodology() Methodology {
	return Methodology{
		ExactArithmetic:    true,
		NumericIsProof:     false,
		AssertionsSeparate: true,
	}
}
