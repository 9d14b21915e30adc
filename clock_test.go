package musiforge_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/musiforge"
)

func TestClock(t *testing.T) {
	_, err := musiforge.NewClock(0)
	assert.ErrorIs(t, err, musiforge.ErrInvalidConfig)

	clock, err := musiforge.NewClock(48000)
	assert.NoError(t, err)
	assert.Equal(t, uint32(48000), clock.SampleRate())
	assert.Equal(t, uint64(0), clock.Elapsed())

	clock.Tick()
	assert.Equal(t, uint64(1), clock.Elapsed())

	clock.AdvanceByBuffer(1024, 2)
	assert.Equal(t, uint64(513), clock.Elapsed())

	// invalid values are ignored.
	clock.AdvanceByBuffer(1024, 0)
	clock.AdvanceByBuffer(-1, 2)
	assert.Equal(t, uint64(513), clock.Elapsed())
}

func TestClockTime(t *testing.T) {
	tests := []struct {
		sampleRate uint32
		elapsed    int
		seconds    float32
		duration   time.Duration
	}{
		{
			sampleRate: 44100,
			elapsed:    0,
			seconds:    0,
			duration:   0,
		},
		{
			sampleRate: 44100,
			elapsed:    44100,
			seconds:    1,
			duration:   time.Second,
		},
		{
			sampleRate: 48000,
			elapsed:    24000,
			seconds:    0.5,
			duration:   500 * time.Millisecond,
		},
	}
	for _, test := range tests {
		clock, _ := musiforge.NewClock(test.sampleRate)
		clock.AdvanceByBuffer(test.elapsed, 1)
		assert.Equal(t, test.seconds, clock.Seconds())
		assert.Equal(t, test.duration, clock.Duration())
	}
}

func TestClockPhase(t *testing.T) {
	clock, _ := musiforge.NewClock(44100)
	assert.Equal(t, float32(0), clock.Phase(440))

	clock.AdvanceByBuffer(11025, 1)
	// quarter of a second: a quarter turn for 1 Hz.
	assert.InDelta(t, math.Pi/2, clock.Phase(1), 1e-6)
	assert.InDelta(t, 2*math.Pi*110, clock.Phase(440), 1e-3)
}
