package dsp

import (
	"math"

	"github.com/dudk/musiforge"
	"github.com/dudk/musiforge/mutable"
)

// Constant fills every output port with Value.
type Constant struct {
	mutable.Context
	Value float32
}

// ValueParam pushes new value for constant.
func (c *Constant) ValueParam(v float32) mutable.Mutation {
	return c.Mutate(func() {
		c.Value = v
	})
}

// Process implements musiforge.Processor.
func (c *Constant) Process(_ musiforge.Clock, _, out musiforge.IOData, _ int) error {
	for i := range out {
		musiforge.FillLane(out[i], c.Value)
	}
	return nil
}

// Gain multiplies every input port by Gain.
type Gain struct {
	mutable.Context
	Gain float32
}

// GainParam pushes new gain value.
func (g *Gain) GainParam(v float32) mutable.Mutation {
	return g.Mutate(func() {
		g.Gain = v
	})
}

// Process implements musiforge.Processor.
func (g *Gain) Process(_ musiforge.Clock, in, out musiforge.IOData, _ int) error {
	for i := range out {
		for j, v := range in[i] {
			out[i][j] = v * g.Gain
		}
	}
	return nil
}

// Mixer averages all input ports into output port 0.
type Mixer struct{}

// Process implements musiforge.Processor.
func (Mixer) Process(_ musiforge.Clock, in, out musiforge.IOData, _ int) error {
	if in.Lanes() == 0 {
		return nil
	}
	signals := float32(in.Lanes())
	lane := out[0]
	for i := range lane {
		var sum float32
		for p := range in {
			sum += in[p][i]
		}
		lane[i] = sum / signals
	}
	return nil
}

// Filter is a one-pole low-pass filter applied to every channel of every
// port. Its state is kept between buffers.
type Filter struct {
	mutable.Context
	Cutoff float32
	state  [][]float64
}

// CutoffParam pushes new cutoff frequency.
func (f *Filter) CutoffParam(cutoff float32) mutable.Mutation {
	return f.Mutate(func() {
		f.Cutoff = cutoff
	})
}

// Process implements musiforge.Processor.
func (f *Filter) Process(clock musiforge.Clock, in, out musiforge.IOData, channels int) error {
	if len(f.state) != in.Lanes() || (len(f.state) > 0 && len(f.state[0]) != channels) {
		f.state = make([][]float64, in.Lanes())
		for i := range f.state {
			f.state[i] = make([]float64, channels)
		}
	}
	a := f.coefficient(clock.SampleRate())
	for p := range out {
		y := f.state[p]
		for i, x := range in[p] {
			c := i % channels
			y[c] += a * (float64(x) - y[c])
			out[p][i] = float32(y[c])
		}
	}
	return nil
}

// coefficient returns the smoothing factor for the cutoff. Non-positive
// cutoff or cutoff above Nyquist passes the signal unchanged.
func (f *Filter) coefficient(sampleRate uint32) float64 {
	if f.Cutoff <= 0 || float64(f.Cutoff) >= float64(sampleRate)/2 {
		return 1
	}
	return 1 - math.Exp(-2*math.Pi*float64(f.Cutoff)/float64(sampleRate))
}

// Convolver convolves every channel of every port with the impulse
// response. The tail of the input is kept between buffers, so the result
// is the same as convolution of the whole stream.
type Convolver struct {
	IR      []float32
	history [][][]float32
}

// Process implements musiforge.Processor.
func (cv *Convolver) Process(_ musiforge.Clock, in, out musiforge.IOData, channels int) error {
	tail := len(cv.IR) - 1
	if tail < 0 {
		return nil
	}
	if len(cv.history) != in.Lanes() {
		cv.history = make([][][]float32, in.Lanes())
	}
	for p := range in {
		if len(cv.history[p]) != channels {
			cv.history[p] = make([][]float32, channels)
			for c := range cv.history[p] {
				cv.history[p][c] = make([]float32, tail)
			}
		}
		for c := 0; c < channels; c++ {
			cv.convolve(cv.history[p][c], in[p], out[p], c, channels)
		}
	}
	return nil
}

// convolve processes a single channel of interleaved lane.
func (cv *Convolver) convolve(history, in, out []float32, channel, channels int) {
	tail := len(history)
	// signal is history followed by the current channel samples.
	frames := len(in) / channels
	signal := make([]float32, tail+frames)
	copy(signal, history)
	for i := 0; i < frames; i++ {
		signal[tail+i] = in[i*channels+channel]
	}
	for i := 0; i < frames; i++ {
		var sum float32
		for k, h := range cv.IR {
			sum += h * signal[tail+i-k]
		}
		out[i*channels+channel] = sum
	}
	copy(history, signal[len(signal)-tail:])
}
