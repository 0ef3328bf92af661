package worker

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Progress counts finished jobs and reports at most once per interval. The
// first job and the last job are always reported.
type Progress struct {
	total  int
	done   atomic.Int64
	every  rate.Sometimes
	report func(done, total int)
}

// NewProgress creates a progress counter for total jobs
func NewProgress(total int, interval time.Duration, report func(done, total int)) *Progress {
	p := &Progress{
		total:  total,
		every:  rate.Sometimes{First: 1, Interval: interval},
		report: report,
	}
	if interval <= 0 {
		p.every = rate.Sometimes{Every: 1}
	}
	return p
}

// Step records one finished job
func (p *Progress) Step() {
	n := int(p.done.Add(1))
	if n == p.total {
		p.report(n, p.total)
		return
	}
	p.every.Do(func() { p.report(n, p.total) })
}

// Done returns the number of finished jobs
func (p *Progress) Done() int {
	return int(p.done.Load())
}
