package mp3_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/musiforge"
	"github.com/dudk/musiforge/dsp"
	"github.com/dudk/musiforge/log"
	"github.com/dudk/musiforge/mp3"
)

const (
	sampleRate = 44100
	bufferSize = 1152
	channels   = 2
)

func TestSinkAndSampler(t *testing.T) {
	f, err := musiforge.NewBuilder(sampleRate, bufferSize, channels,
		musiforge.WithLogger(log.Silent()),
	).Build()
	require.NoError(t, err)
	defer f.Close()
	id, err := f.AddBlock(musiforge.NewBlock(&dsp.Oscillator{Frequency: 440, Amplitude: 0.5}, 1))
	require.NoError(t, err)
	require.NoError(t, f.ToOutput(id.Port(0)))

	path := filepath.Join(t.TempDir(), "out.mp3")
	sink, err := mp3.NewSink(path, sampleRate, channels, 192, 2)
	require.NoError(t, err)
	output := make([]float32, bufferSize)
	for i := 0; i < 50; i++ {
		require.NoError(t, f.Run(bufferSize, output))
		require.NoError(t, sink.Write(output))
	}
	require.NoError(t, sink.Close())

	sampler, err := mp3.NewSampler(path)
	require.NoError(t, err)
	assert.Equal(t, 2, sampler.Channels())
	assert.Equal(t, sampleRate, sampler.SampleRate())
	// encoder adds padding frames.
	assert.GreaterOrEqual(t, sampler.Frames(), 50*bufferSize/channels)

	var peak float32
	for _, v := range sampler.Mono() {
		if v > peak {
			peak = v
		}
	}
	assert.InDelta(t, 0.5, peak, 0.1)
}

func TestSamplerErrors(t *testing.T) {
	_, err := mp3.NewSampler(filepath.Join(t.TempDir(), "missing.mp3"))
	assert.Error(t, err)
}
