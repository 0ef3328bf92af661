package worker

import (
	"testing"
	"time"
)

func TestProgress_ReportsFirstAndLast(t *testing.T) {
	var reports [][2]int
	p := NewProgress(5, time.Hour, func(done, total int) {
		reports = append(reports, [2]int{done, total})
	})

	for i := 0; i < 5; i++ {
		p.Step()
	}

	if p.Done() != 5 {
		t.Errorf("Done() = %d, want 5", p.Done())
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports with a long interval, got %v", reports)
	}
	if reports[0] != [2]int{1, 5} || reports[1] != [2]int{5, 5} {
		t.Errorf("reports = %v", reports)
	}
}

func TestProgress_ReportsEveryStepWithoutInterval(t *testing.T) {
	calls := 0
	p := NewProgress(3, 0, func(done, total int) { calls++ })
	for i := 0; i < 3; i++ {
		p.Step()
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}
