// Package mock provides mocks for flow blocks and allows to execute
// integration tests.
package mock

import (
	"sync/atomic"
	"time"

	"github.com/dudk/musiforge"
	"github.com/dudk/musiforge/mutable"
)

// Source mocks a block without inputs. It fills every output port with
// Value.
type Source struct {
	mutable.Context
	counter
	Value       float32
	Delay       time.Duration
	ErrorOnCall error
	PanicOnCall interface{}
	Tracker     *Tracker
}

// ValueParam pushes new signal value for source.
func (m *Source) ValueParam(v float32) mutable.Mutation {
	return m.Mutate(func() {
		m.Value = v
	})
}

// Process implements musiforge.Processor.
func (m *Source) Process(clock musiforge.Clock, _, out musiforge.IOData, _ int) error {
	defer m.Tracker.enter()()
	m.record(clock, out.BufferLen())
	if err := m.fail(); err != nil {
		return err
	}
	time.Sleep(m.Delay)
	for i := range out {
		musiforge.FillLane(out[i], m.Value)
	}
	return nil
}

// Processor mocks a block that copies inputs to outputs and optionally
// adds Offset.
type Processor struct {
	counter
	Offset      float32
	Delay       time.Duration
	ErrorOnCall error
	PanicOnCall interface{}
	Tracker     *Tracker
	inputs      musiforge.IOData
}

// Process implements musiforge.Processor.
func (m *Processor) Process(clock musiforge.Clock, in, out musiforge.IOData, _ int) error {
	defer m.Tracker.enter()()
	m.record(clock, out.BufferLen())
	m.inputs = in.Clone()
	if err := m.fail(); err != nil {
		return err
	}
	time.Sleep(m.Delay)
	for i := range out {
		copy(out[i], in[i])
		for j := range out[i] {
			out[i][j] += m.Offset
		}
	}
	return nil
}

// Inputs returns a copy of the latest inputs.
func (m *Processor) Inputs() musiforge.IOData {
	return m.inputs
}

func (m *Source) fail() error {
	if m.PanicOnCall != nil {
		panic(m.PanicOnCall)
	}
	return m.ErrorOnCall
}

func (m *Processor) fail() error {
	if m.PanicOnCall != nil {
		panic(m.PanicOnCall)
	}
	return m.ErrorOnCall
}

// Tracker counts concurrently executing mocks. It's shared across
// mocks, so it's safe for concurrent use.
type Tracker struct {
	current int32
	max     int32
	calls   int32
}

func (t *Tracker) enter() func() {
	if t == nil {
		return func() {}
	}
	n := atomic.AddInt32(&t.current, 1)
	for {
		m := atomic.LoadInt32(&t.max)
		if n <= m || atomic.CompareAndSwapInt32(&t.max, m, n) {
			break
		}
	}
	atomic.AddInt32(&t.calls, 1)
	return func() {
		atomic.AddInt32(&t.current, -1)
	}
}

// Max returns the maximum number of mocks executed at the same time.
func (t *Tracker) Max() int {
	return int(atomic.LoadInt32(&t.max))
}

// Calls returns total number of tracked calls.
func (t *Tracker) Calls() int {
	return int(atomic.LoadInt32(&t.calls))
}

// counter counts calls and samples and keeps the clock of the latest
// call. It's accessed by one job at a time.
type counter struct {
	Calls   int
	Samples int
	Clock   musiforge.Clock
}

func (c *counter) record(clock musiforge.Clock, samples int) {
	c.Calls++
	c.Samples += samples
	c.Clock = clock
}

// Reset resets counter's metrics.
func (c *counter) Reset() {
	c.Calls, c.Samples = 0, 0
}
