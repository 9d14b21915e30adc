package dsp

import (
	"github.com/dudk/musiforge"
	"github.com/dudk/musiforge/mutable"
	"github.com/dudk/musiforge/signal"
)

// Sampler is a source block that plays decoded sample into port 0. When
// sample and flow channels differ, sample channels are repeated. Sample is
// not resampled: one sample frame is played per flow frame, so a sample
// with different sample rate plays at a different pitch.
type Sampler struct {
	mutable.Context
	// Loop restarts playback when the end of sample is reached.
	Loop bool

	data       []float32
	channels   int
	sampleRate int
	pos        int
}

// NewSampler returns sampler for interleaved data.
func NewSampler(data []float32, channels, sampleRate int) *Sampler {
	return &Sampler{
		Context:    mutable.Mutable(),
		data:       data,
		channels:   channels,
		sampleRate: sampleRate,
	}
}

// Channels returns number of channels in the sample.
func (s *Sampler) Channels() int {
	return s.channels
}

// SampleRate returns sample rate of the sample.
func (s *Sampler) SampleRate() int {
	return s.sampleRate
}

// Frames returns length of the sample in frames.
func (s *Sampler) Frames() int {
	if s.channels <= 0 {
		return 0
	}
	return len(s.data) / s.channels
}

// Mono returns the sample mixed down to a single channel.
func (s *Sampler) Mono() []float32 {
	mono := make([]float32, s.Frames())
	if len(mono) == 0 {
		return mono
	}
	lanes := signal.Deinterleave(s.data, s.channels)
	for i := range mono {
		for c := range lanes {
			mono[i] += lanes[c][i]
		}
		mono[i] /= float32(s.channels)
	}
	return mono
}

// RestartParam pushes playback restart.
func (s *Sampler) RestartParam() mutable.Mutation {
	return s.Mutate(func() {
		s.pos = 0
	})
}

// Process implements musiforge.Processor.
func (s *Sampler) Process(_ musiforge.Clock, _, out musiforge.IOData, channels int) error {
	frames := s.Frames()
	if frames == 0 || channels <= 0 {
		return nil
	}
	lane := out[0]
	for i := 0; i+channels <= len(lane); i += channels {
		if s.pos >= frames {
			if !s.Loop {
				return nil
			}
			s.pos = 0
		}
		frame := s.data[s.pos*s.channels : (s.pos+1)*s.channels]
		for c := 0; c < channels; c++ {
			lane[i+c] = frame[c%s.channels]
		}
		s.pos++
	}
	return nil
}
