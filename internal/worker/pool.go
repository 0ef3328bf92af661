package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

type task struct {
	index int
	job   Job
}

type slot struct {
	index  int
	result Result
}

// Pool runs jobs on a fixed set of workers and gathers the results by
// submission index. A collector goroutine drains the results channel, so
// Submit never waits on a full results buffer.
type Pool struct {
	workers    int
	jobQueue   chan task
	results    chan slot
	collected  []Result
	drained    chan struct{}
	onResult   func(index int, result Result)
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc

	mu        sync.Mutex
	submitted int
	closed    bool
	closeOnce sync.Once
}

// NewPool creates a new worker pool with the specified number of workers.
// Jobs run under a context derived from ctx.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan task, workers*2),
		results:    make(chan slot, workers*2),
		drained:    make(chan struct{}),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// OnResult registers a callback run on the collector goroutine for every
// finished job. It must be set before Start.
func (p *Pool) OnResult(fn func(index int, result Result)) {
	p.onResult = fn
}

// Start starts the workers and the collector
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	go p.collect()
}

// worker drains the queue. Jobs submitted before a cancellation still run and
// see the canceled context, so every submitted job yields a result.
func (p *Pool) worker() {
	defer p.wg.Done()

	for t := range p.jobQueue {
		p.results <- slot{index: t.index, result: t.job.Execute(p.ctx)}
	}
}

func (p *Pool) collect() {
	defer close(p.drained)

	for s := range p.results {
		for len(p.collected) <= s.index {
			p.collected = append(p.collected, nil)
		}
		p.collected[s.index] = s.result
		if p.onResult != nil {
			p.onResult(s.index, s.result)
		}
	}
}

// Submit queues a job and reports whether it was accepted. Jobs are refused
// once Wait or Shutdown has been called.
func (p *Pool) Submit(job Job) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	p.jobQueue <- task{index: p.submitted, job: job}
	p.submitted++
	return true
}

// Wait waits for all jobs to complete and returns the results in submission
// order
func (p *Pool) Wait() []Result {
	p.closeQueue()
	p.wg.Wait()
	p.closeResults()
	<-p.drained
	p.cancelFunc()

	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Result, p.submitted)
	copy(out, p.collected)
	return out
}

// Shutdown cancels running jobs and stops the pool. Results gathered so far
// remain available from Wait.
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.closeQueue()
	p.wg.Wait()
	p.closeResults()
	<-p.drained
}

func (p *Pool) closeQueue() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.closed = true
		close(p.jobQueue)
	}
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
