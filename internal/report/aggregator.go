package report

import (
	"fmt"
	"sort"

	"github.com/ppiankov/eqverify/internal/model"
)

// Aggregator folds verification results into a report. It is a pure
// function of its input and keeps no counters between calls.
type Aggregator struct{}

// NewAggregator creates a new aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Aggregate builds the report for one catalog. Results keep their order;
// complete is false when the run was canceled before every statement finished.
func (a *Aggregator) Aggregate(cat model.Catalog, results []model.VerificationResult, complete bool) model.Report {
	report := model.Report{
		Catalog:     cat.Name,
		Source:      cat.Path,
		Complete:    complete,
		Results:     append([]model.VerificationResult(nil), results...),
		Methodology: model.DefaultMethodology(),
	}
	if report.Results == nil {
		report.Results = []model.VerificationResult{}
	}

	families := make(map[string]*model.Tally)
	for _, r := range results {
		report.Overall.Add(r)
		family := r.Family
		if family == "" {
			family = model.DefaultFamily
		}
		t, ok := families[family]
		if !ok {
			t = &model.Tally{}
			families[family] = t
		}
		t.Add(r)
	}

	names := make([]string, 0, len(families))
	for name := range families {
		names = append(names, name)
	}
	sort.Strings(names)
	report.Families = make([]model.FamilyTally, 0, len(names))
	for _, name := range names {
		report.Families = append(report.Families, model.FamilyTally{Family: name, Tally: *families[name]})
	}

	report.Signals = a.signals(results, report.Overall, complete)
	return report
}

// signals derives the diagnostic notes in a fixed order
func (a *Aggregator) signals(results []model.VerificationResult, overall model.Tally, complete bool) []model.Signal {
	var signals []model.Signal

	if overall.Assertion > 0 {
		kinds := map[string]int{"assertions": overall.Assertion}
		for _, r := range results {
			if r.Outcome == model.OutcomeAssertion {
				kinds[string(r.AssertionKind)]++
			}
		}
		signals = append(signals, model.Signal{
			Type:        model.SignalAssertionsExcluded,
			Severity:    model.SeverityInfo,
			Description: fmt.Sprintf("%d axioms, definitions and regime claims are recorded without proof and excluded from proof counts", overall.Assertion),
			Data:        kinds,
		})
	}

	implausible := 0
	for _, r := range results {
		if r.Numeric == model.NumericImplausible {
			implausible++
		}
	}
	if overall.NumericallyPlausible > 0 || implausible > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalNumericOnly,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d inconclusive statements are supported only by numerical sampling, which is not a proof", overall.NumericallyPlausible),
			Data: map[string]int{
				"numerically_plausible":   overall.NumericallyPlausible,
				"numerically_implausible": implausible,
			},
		})
	}

	if overall.TimedOut > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalTimeouts,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d statements hit the proof timeout", overall.TimedOut),
			Data:        map[string]int{"timed_out": overall.TimedOut},
		})
	}

	if overall.Disproved > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalDisproved,
			Severity:    model.SeverityCritical,
			Description: fmt.Sprintf("%d claimed identities do not hold", overall.Disproved),
			Data:        map[string]int{"disproved": overall.Disproved},
		})
	}

	if overall.Error > 0 {
		data := map[string]int{"errors": overall.Error}
		for _, r := range results {
			if r.Outcome == model.OutcomeError {
				data[string(r.ErrorKind)]++
			}
		}
		signals = append(signals, model.Signal{
			Type:        model.SignalErrors,
			Severity:    model.SeverityCritical,
			Description: fmt.Sprintf("%d statements could not be checked", overall.Error),
			Data:        data,
		})
	}

	if !complete {
		canceled := 0
		for _, r := range results {
			if r.Canceled {
				canceled++
			}
		}
		signals = append(signals, model.Signal{
			Type:        model.SignalPartialRun,
			Severity:    model.SeverityCritical,
			Description: fmt.Sprintf("run canceled: %d of %d statements did not finish", canceled, overall.Total),
			Data:        map[string]int{"canceled": canceled, "finished": overall.Total - canceled},
		})
	}

	return signals
}
