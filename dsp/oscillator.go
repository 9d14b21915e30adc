// Package dsp provides processors for common synthesis and effect blocks.
//
// Parameters of processors are changed with mutations, so they can be
// adjusted while flow is running:
//
//	osc := &dsp.Oscillator{Context: mutable.Mutable(), Frequency: 440, Amplitude: 1}
//	...
//	flow.Push(osc.FrequencyParam(660))
package dsp

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dudk/musiforge"
	"github.com/dudk/musiforge/mutable"
)

// maxHarmonics limits additive synthesis of non-sine waveforms.
const maxHarmonics = 64

// ErrUnknownWaveform is returned when waveform name is not recognized.
var ErrUnknownWaveform = errors.New("unknown waveform")

// Waveform defines the shape of the oscillator signal.
type Waveform int

const (
	// Sine is a pure tone.
	Sine Waveform = iota
	// Square contains odd harmonics with 1/n amplitudes.
	Square
	// Saw contains all harmonics with 1/n amplitudes.
	Saw
	// Triangle contains odd harmonics with 1/n² amplitudes.
	Triangle
)

var waveforms = map[string]Waveform{
	"sine":     Sine,
	"square":   Square,
	"saw":      Saw,
	"triangle": Triangle,
}

// ParseWaveform returns waveform by its name.
func ParseWaveform(s string) (Waveform, error) {
	if w, ok := waveforms[strings.ToLower(s)]; ok {
		return w, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownWaveform, s)
}

func (w Waveform) String() string {
	for name, v := range waveforms {
		if v == w {
			return name
		}
	}
	return fmt.Sprintf("waveform(%d)", int(w))
}

// Oscillator generates a periodic signal into port 0. If input port 0
// carries a non-zero value at the start of the frame, it's used as
// frequency for that frame. Every channel of the frame gets the same value.
type Oscillator struct {
	mutable.Context
	Waveform  Waveform
	Frequency float32
	Amplitude float32
}

// FrequencyParam pushes new frequency value for oscillator.
func (o *Oscillator) FrequencyParam(freq float32) mutable.Mutation {
	return o.Mutate(func() {
		o.Frequency = freq
	})
}

// AmplitudeParam pushes new amplitude value for oscillator.
func (o *Oscillator) AmplitudeParam(amp float32) mutable.Mutation {
	return o.Mutate(func() {
		o.Amplitude = amp
	})
}

// Process implements musiforge.Processor.
func (o *Oscillator) Process(clock musiforge.Clock, in, out musiforge.IOData, channels int) error {
	if channels <= 0 {
		return fmt.Errorf("%w: %d channels", musiforge.ErrInvalidConfig, channels)
	}
	var control []float32
	if in.Lanes() > 0 {
		control = in[0]
	}
	lane := out[0]
	for i := 0; i+channels <= len(lane); i += channels {
		freq := o.Frequency
		if i < len(control) && control[i] != 0 {
			freq = control[i]
		}
		v := o.Amplitude * Wave(o.Waveform, clock, freq)
		for c := 0; c < channels; c++ {
			lane[i+c] = v
		}
		clock.Tick()
	}
	return nil
}

// Wave returns value of the unit waveform at the clock time. Harmonics
// above Nyquist frequency are omitted.
func Wave(w Waveform, clock musiforge.Clock, freq float32) float32 {
	phase := Phase(clock, freq)
	if w == Sine {
		return float32(math.Sin(phase))
	}
	nyquist := float64(clock.SampleRate()) / 2
	f := math.Abs(float64(freq))
	var v float64
	for n := 1; n <= maxHarmonics && float64(n)*f < nyquist; n++ {
		h := float64(n)
		switch w {
		case Square:
			if n%2 == 1 {
				v += math.Sin(h*phase) / h
			}
		case Saw:
			if n%2 == 1 {
				v += math.Sin(h*phase) / h
			} else {
				v -= math.Sin(h*phase) / h
			}
		case Triangle:
			switch n % 4 {
			case 1:
				v += math.Sin(h*phase) / (h * h)
			case 3:
				v -= math.Sin(h*phase) / (h * h)
			}
		}
	}
	switch w {
	case Square:
		v *= 4 / math.Pi
	case Saw:
		v *= 2 / math.Pi
	case Triangle:
		v *= 8 / (math.Pi * math.Pi)
	}
	return float32(v)
}

// Phase returns the phase in radians of the signal with frequency freq at
// the clock time, wrapped to [0, 2π).
func Phase(clock musiforge.Clock, freq float32) float64 {
	if clock.SampleRate() == 0 {
		return 0
	}
	cycles := float64(clock.Elapsed()) * float64(freq) / float64(clock.SampleRate())
	_, frac := math.Modf(cycles)
	if frac < 0 {
		frac++
	}
	return 2 * math.Pi * frac
}
