package musiforge

import (
	"fmt"
	"math"
	"time"
)

// Clock is a sample-accurate time source. It's a value type: every job
// receives its own copy, so processors may tick it freely.
type Clock struct {
	sampleRate uint32
	elapsed    uint64
}

// NewClock returns a clock at zero for provided sample rate.
func NewClock(sampleRate uint32) (Clock, error) {
	if sampleRate == 0 {
		return Clock{}, fmt.Errorf("%w: zero sample rate", ErrInvalidConfig)
	}
	return Clock{sampleRate: sampleRate}, nil
}

// Tick advances the clock by a single sample.
func (c *Clock) Tick() {
	c.elapsed++
}

// AdvanceByBuffer advances the clock by number of frames in interleaved
// buffer of bufferLen samples.
func (c *Clock) AdvanceByBuffer(bufferLen, channels int) {
	if channels <= 0 || bufferLen <= 0 {
		return
	}
	c.elapsed += uint64(bufferLen / channels)
}

// SampleRate of the clock.
func (c Clock) SampleRate() uint32 {
	return c.sampleRate
}

// Elapsed returns number of samples elapsed since start.
func (c Clock) Elapsed() uint64 {
	return c.elapsed
}

// Seconds returns elapsed time in seconds.
func (c Clock) Seconds() float32 {
	return float32(c.seconds())
}

// Duration returns elapsed time.
func (c Clock) Duration() time.Duration {
	return time.Duration(c.seconds() * float64(time.Second))
}

// Phase returns phase of a sinusoid with frequency freq at the current
// time: 2π * seconds * freq.
func (c Clock) Phase(freq float32) float32 {
	return float32(2 * math.Pi * c.seconds() * float64(freq))
}

func (c Clock) seconds() float64 {
	if c.sampleRate == 0 {
		return 0
	}
	return float64(c.elapsed) / float64(c.sampleRate)
}
