// Package metric publishes block counters with expvar. Counters are
// aggregated per processor type, so all blocks of the same kind share
// them.
package metric

import (
	"expvar"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dudk/musiforge/signal"
)

const prefix = "musiforge.blocks"

const (
	// BlockCounter counts number of metered blocks.
	BlockCounter = "Blocks"
	// RunCounter counts successfully processed buffers.
	RunCounter = "Runs"
	// FailureCounter counts buffers where processing failed.
	FailureCounter = "Failures"
	// FrameCounter counts processed frames.
	FrameCounter = "Frames"
	// SignalCounter sums duration of processed signal.
	SignalCounter = "Signal"
	// ProcessingCounter sums time spent in processing calls.
	ProcessingCounter = "Processing"
	// IntervalCounter is the time between last two processing calls.
	IntervalCounter = "Interval"
)

var (
	kinds = registry{
		m: make(map[string]*counters),
	}

	names = []string{
		BlockCounter,
		RunCounter,
		FailureCounter,
		FrameCounter,
		SignalCounter,
		ProcessingCounter,
		IntervalCounter,
	}
)

// Get returns counter values for the type of provided processor.
func Get(processor interface{}) map[string]string {
	return values(kind(processor))
}

// GetAll returns counter values for all metered processor types.
func GetAll() map[string]map[string]string {
	kinds.Lock()
	defer kinds.Unlock()
	m := make(map[string]map[string]string, len(kinds.m))
	for k := range kinds.m {
		m[k] = values(k)
	}
	return m
}

func values(k string) map[string]string {
	m := make(map[string]string)
	for _, name := range names {
		if v := expvar.Get(key(k, name)); v != nil {
			m[name] = v.String()
		}
	}
	return m
}

// MeasureFunc captures a single processing call of the block: number of
// frames in the buffer, time spent and the error returned. It must not be
// called concurrently for the same block.
type MeasureFunc func(frames int64, spent time.Duration, err error)

// Meter registers a new block of the processor type and returns the
// closure to capture its counters.
func Meter(processor interface{}, sampleRate int) MeasureFunc {
	c := kinds.get(kind(processor))
	c.blocks.Add(1)
	var (
		calledAt time.Time
		frames   int64
		buffer   time.Duration
	)
	return func(n int64, spent time.Duration, err error) {
		now := time.Now()
		if !calledAt.IsZero() {
			c.interval.set(now.Sub(calledAt))
		}
		calledAt = now
		c.processing.add(spent)
		if err != nil {
			c.failures.Add(1)
			return
		}
		c.runs.Add(1)
		c.frames.Add(n)
		if frames != n {
			frames = n
			buffer = signal.DurationOf(sampleRate, n)
		}
		c.signal.add(buffer)
	}
}

type registry struct {
	sync.Mutex
	m map[string]*counters
}

func (r *registry) get(k string) *counters {
	r.Lock()
	defer r.Unlock()
	if c, ok := r.m[k]; ok {
		return c
	}
	c := newCounters(k)
	r.m[k] = c
	return c
}

type counters struct {
	blocks     *expvar.Int
	runs       *expvar.Int
	failures   *expvar.Int
	frames     *expvar.Int
	signal     *duration
	processing *duration
	interval   *duration
}

func newCounters(k string) *counters {
	c := counters{
		blocks:     expvar.NewInt(key(k, BlockCounter)),
		runs:       expvar.NewInt(key(k, RunCounter)),
		failures:   expvar.NewInt(key(k, FailureCounter)),
		frames:     expvar.NewInt(key(k, FrameCounter)),
		signal:     &duration{},
		processing: &duration{},
		interval:   &duration{},
	}
	expvar.Publish(key(k, SignalCounter), c.signal)
	expvar.Publish(key(k, ProcessingCounter), c.processing)
	expvar.Publish(key(k, IntervalCounter), c.interval)
	return &c
}

func key(k, name string) string {
	return fmt.Sprintf("%s.%s.%s", prefix, k, name)
}

// kind returns the name of dereferenced type, e.g. dsp.Oscillator.
func kind(processor interface{}) string {
	rv := reflect.ValueOf(processor)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv.Type().String()
}

// duration formats time.Duration as expvar value.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(atomic.LoadInt64(&v.d)).String())
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}

func (v *duration) set(value time.Duration) {
	atomic.StoreInt64(&v.d, int64(value))
}
