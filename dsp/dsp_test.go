package dsp_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/musiforge"
	"github.com/dudk/musiforge/dsp"
	"github.com/dudk/musiforge/log"
	"github.com/dudk/musiforge/mutable"
)

const (
	sampleRate = 48000
	channels   = 2
	bufferSize = 480
)

func newFlow(t *testing.T) *musiforge.Flow {
	t.Helper()
	f, err := musiforge.NewBuilder(sampleRate, bufferSize, channels,
		musiforge.WithLogger(log.Silent()),
	).Build()
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func add(t *testing.T, f *musiforge.Flow, p musiforge.Processor, ports int) musiforge.BlockID {
	t.Helper()
	id, err := f.AddBlock(musiforge.NewBlock(p, ports))
	require.NoError(t, err)
	return id
}

func sine(elapsed uint64, freq float64) float64 {
	return math.Sin(2 * math.Pi * freq * float64(elapsed) / sampleRate)
}

func TestTwoOscillatorsIntoFilter(t *testing.T) {
	f := newFlow(t)
	var (
		osc1   = add(t, f, &dsp.Oscillator{Frequency: 440, Amplitude: 1}, 1)
		osc2   = add(t, f, &dsp.Oscillator{Frequency: 660, Amplitude: 1}, 1)
		filter = add(t, f, &dsp.Filter{}, 1)
	)
	require.NoError(t, f.Connect(osc1.Port(0), filter.Port(0)))
	require.NoError(t, f.Connect(osc2.Port(0), filter.Port(0)))
	require.NoError(t, f.ToOutput(filter.Port(0)))

	output := make([]float32, bufferSize)
	for run := 0; run < 3; run++ {
		start := f.Clock().Elapsed()
		require.NoError(t, f.Run(bufferSize, output))
		for i := 0; i < bufferSize; i += channels {
			elapsed := start + uint64(i/channels)
			expected := sine(elapsed, 440) + sine(elapsed, 660)
			assert.InDelta(t, expected, output[i], 1e-4)
			assert.Equal(t, output[i], output[i+1])
		}
	}
}

func TestOscillatorControl(t *testing.T) {
	f := newFlow(t)
	osc := &dsp.Oscillator{Context: mutable.Mutable(), Frequency: 440, Amplitude: 0.5}
	id := add(t, f, osc, 1)
	require.NoError(t, f.ToOutput(id.Port(0)))
	listener, err := f.AddListener(id.Port(0))
	require.NoError(t, err)

	output := make([]float32, bufferSize)
	require.NoError(t, f.Run(bufferSize, output))
	assert.InDelta(t, 0.5*sine(1, 440), output[2], 1e-5)

	// listener value overrides frequency.
	listener.Send(1000)
	start := f.Clock().Elapsed()
	require.NoError(t, f.Run(bufferSize, output))
	assert.InDelta(t, 0.5*sine(start+1, 1000), output[2], 1e-5)

	listener.Send(0)
	f.Push(osc.FrequencyParam(220), osc.AmplitudeParam(1))
	start = f.Clock().Elapsed()
	require.NoError(t, f.Run(bufferSize, output))
	assert.InDelta(t, sine(start+1, 220), output[2], 1e-5)
}

func TestWave(t *testing.T) {
	clock, _ := musiforge.NewClock(sampleRate)
	tests := []struct {
		waveform dsp.Waveform
		// value at a quarter of the period.
		quarter float64
	}{
		{waveform: dsp.Sine, quarter: 1},
		{waveform: dsp.Square, quarter: 1},
		{waveform: dsp.Triangle, quarter: 1},
		{waveform: dsp.Saw, quarter: 0.5},
	}
	for _, test := range tests {
		t.Run(test.waveform.String(), func(t *testing.T) {
			// 100 Hz period is 480 samples.
			c := clock
			assert.InDelta(t, 0, dsp.Wave(test.waveform, c, 100), 1e-5)
			c.AdvanceByBuffer(120, 1)
			assert.InDelta(t, test.quarter, dsp.Wave(test.waveform, c, 100), 0.05)
			for i := 0; i < 480; i++ {
				v := dsp.Wave(test.waveform, c, 100)
				assert.LessOrEqual(t, math.Abs(float64(v)), 1.25)
				c.Tick()
			}
		})
	}
}

func TestParseWaveform(t *testing.T) {
	w, err := dsp.ParseWaveform("Square")
	assert.NoError(t, err)
	assert.Equal(t, dsp.Square, w)
	_, err = dsp.ParseWaveform("noise")
	assert.ErrorIs(t, err, dsp.ErrUnknownWaveform)
}

func TestPhase(t *testing.T) {
	clock, _ := musiforge.NewClock(sampleRate)
	clock.AdvanceByBuffer(sampleRate*100+sampleRate/4, 1)
	// whole cycles are dropped.
	assert.InDelta(t, math.Pi/2, dsp.Phase(clock, 1), 1e-9)
	assert.InDelta(t, math.Pi/2, dsp.Phase(clock, 441), 1e-6)
	assert.Equal(t, 0.0, dsp.Phase(musiforge.Clock{}, 440))
}

func TestEffects(t *testing.T) {
	clock, _ := musiforge.NewClock(sampleRate)
	tests := []struct {
		name      string
		processor musiforge.Processor
		in        musiforge.IOData
		expected  musiforge.IOData
	}{
		{
			name:      "constant",
			processor: &dsp.Constant{Value: 0.5},
			in:        musiforge.IOData{{0, 0}, {1, 1}},
			expected:  musiforge.IOData{{0.5, 0.5}, {0.5, 0.5}},
		},
		{
			name:      "gain",
			processor: &dsp.Gain{Gain: 0.5},
			in:        musiforge.IOData{{1, 2}, {-2, 4}},
			expected:  musiforge.IOData{{0.5, 1}, {-1, 2}},
		},
		{
			name:      "mixer",
			processor: dsp.Mixer{},
			in:        musiforge.IOData{{1, 2}, {3, 4}},
			expected:  musiforge.IOData{{2, 3}, {0, 0}},
		},
		{
			name:      "filter pass",
			processor: &dsp.Filter{},
			in:        musiforge.IOData{{1, -1}},
			expected:  musiforge.IOData{{1, -1}},
		},
		{
			name:      "convolver",
			processor: &dsp.Convolver{IR: []float32{1, 0.5}},
			in:        musiforge.IOData{{1, 2, 0, 0}},
			expected:  musiforge.IOData{{1, 2, 0.5, 1}},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out := musiforge.NewIOData(test.in.Lanes(), test.in.BufferLen())
			require.NoError(t, test.processor.Process(clock, test.in, out, channels))
			assert.Equal(t, test.expected, out)
		})
	}
}

func TestFilterConverges(t *testing.T) {
	clock, _ := musiforge.NewClock(sampleRate)
	filter := &dsp.Filter{Cutoff: 1000}
	in := musiforge.NewIOData(1, bufferSize)
	musiforge.FillLane(in[0], 1)
	out := musiforge.NewIOData(1, bufferSize)

	require.NoError(t, filter.Process(clock, in, out, channels))
	// smoothed from zero.
	assert.Less(t, out[0][0], float32(0.5))
	assert.Equal(t, out[0][0], out[0][1])
	for i := 0; i < 10; i++ {
		require.NoError(t, filter.Process(clock, in, out, channels))
	}
	assert.InDelta(t, 1, out[0][bufferSize-1], 1e-4)
}

func TestConvolverKeepsTail(t *testing.T) {
	clock, _ := musiforge.NewClock(sampleRate)
	cv := &dsp.Convolver{IR: []float32{0, 0, 1}}
	in := musiforge.IOData{{1, 10, 2, 20}}
	out := musiforge.NewIOData(1, 4)
	require.NoError(t, cv.Process(clock, in, out, channels))
	assert.Equal(t, []float32{0, 0, 0, 0}, out[0])

	// delayed by two frames.
	in = musiforge.IOData{{3, 30, 4, 40}}
	require.NoError(t, cv.Process(clock, in, out, channels))
	assert.Equal(t, []float32{1, 10, 2, 20}, out[0])
}

func TestNoteFrequency(t *testing.T) {
	tests := []struct {
		note     string
		expected float64
		err      error
	}{
		{note: "A4", expected: 440},
		{note: "a5", expected: 880},
		{note: "A3", expected: 220},
		{note: "C4", expected: 261.6256},
		{note: "C#4", expected: 277.1826},
		{note: "Db4", expected: 277.1826},
		{note: "E-1", expected: 10.30086},
		{note: "H4", err: dsp.ErrInvalidNote},
		{note: "4", err: dsp.ErrInvalidNote},
		{note: "A", err: dsp.ErrInvalidNote},
		{note: "A4x", err: dsp.ErrInvalidNote},
	}
	for _, test := range tests {
		freq, err := dsp.NoteFrequency(test.note)
		if test.err != nil {
			assert.ErrorIs(t, err, test.err, test.note)
			continue
		}
		assert.NoError(t, err)
		assert.InDelta(t, test.expected, freq, 1e-3, test.note)
	}
}

func TestSampler(t *testing.T) {
	clock, _ := musiforge.NewClock(sampleRate)
	// mono sample of three frames.
	sampler := dsp.NewSampler([]float32{1, 2, 3}, 1, sampleRate)
	assert.Equal(t, 3, sampler.Frames())
	assert.Equal(t, []float32{1, 2, 3}, sampler.Mono())

	out := musiforge.NewIOData(1, 4)
	require.NoError(t, sampler.Process(clock, nil, out, channels))
	assert.Equal(t, []float32{1, 1, 2, 2}, out[0])

	out = musiforge.NewIOData(1, 4)
	require.NoError(t, sampler.Process(clock, nil, out, channels))
	assert.Equal(t, []float32{3, 3, 0, 0}, out[0])

	sampler.Loop = true
	out = musiforge.NewIOData(1, 4)
	require.NoError(t, sampler.Process(clock, nil, out, channels))
	assert.Equal(t, []float32{1, 1, 2, 2}, out[0])

	stereo := dsp.NewSampler([]float32{1, -1, 3, -3}, 2, sampleRate)
	assert.Equal(t, []float32{0, 0}, stereo.Mono())
	assert.Equal(t, 0, dsp.NewSampler(nil, 0, sampleRate).Frames())
}
