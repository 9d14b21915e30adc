// Package pool provides a fixed set of workers that execute jobs and
// report results to a single consumer.
package pool

import (
	"errors"
	"fmt"
	"sync"
)

// ErrPanic is returned in result when job panics.
var ErrPanic = errors.New("job panic")

// Logger is used by workers to report their lifecycle.
type Logger interface {
	Debug(...interface{})
}

type (
	// Job is a unit of work identified by key.
	Job[K, V any] struct {
		Key K
		Fn  func() (V, error)
	}

	// Result is sent to results channel when job is done.
	Result[K, V any] struct {
		Key   K
		Value V
		Err   error
	}
)

// Pool is a fixed set of workers. Jobs and results are buffered by the
// pool size: a consumer that keeps no more than Size jobs in flight never
// blocks on Submit and workers never block on sending results.
type Pool[K, V any] struct {
	size    int
	jobs    chan Job[K, V]
	results chan Result[K, V]
	wg      sync.WaitGroup
	once    sync.Once
	log     Logger
}

// New starts size workers.
func New[K, V any](size int, log Logger) *Pool[K, V] {
	if size <= 0 {
		panic(fmt.Sprintf("pool: invalid size %d", size))
	}
	p := &Pool[K, V]{
		size:    size,
		jobs:    make(chan Job[K, V], size),
		results: make(chan Result[K, V], size),
		log:     log,
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.work(i)
	}
	return p
}

// Size returns number of workers.
func (p *Pool[K, V]) Size() int {
	return p.size
}

// Submit puts job into the queue. Calling it after Close causes a panic.
func (p *Pool[K, V]) Submit(job Job[K, V]) {
	p.jobs <- job
}

// Results returns the channel of completed jobs.
func (p *Pool[K, V]) Results() <-chan Result[K, V] {
	return p.results
}

// Close stops workers after queued jobs are done. Results channel is
// closed once all workers exit.
func (p *Pool[K, V]) Close() {
	p.once.Do(func() {
		close(p.jobs)
		p.wg.Wait()
		close(p.results)
	})
}

func (p *Pool[K, V]) work(id int) {
	defer p.wg.Done()
	p.debug("worker ", id, " started")
	for job := range p.jobs {
		p.results <- execute(job)
	}
	p.debug("worker ", id, " stopped")
}

// execute runs the job and recovers a panic into result error.
func execute[K, V any](job Job[K, V]) (r Result[K, V]) {
	r.Key = job.Key
	defer func() {
		if v := recover(); v != nil {
			var zero V
			r.Value = zero
			r.Err = fmt.Errorf("%w: %v", ErrPanic, v)
		}
	}()
	r.Value, r.Err = job.Fn()
	return r
}

func (p *Pool[K, V]) debug(args ...interface{}) {
	if p.log != nil {
		p.log.Debug(args...)
	}
}
