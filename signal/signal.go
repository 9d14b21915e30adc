// Package signal converts interleaved float buffers produced by a flow to
// the formats expected by encoders and devices:
//	- interleaved float32 to non-interleaved lanes and back
//	- float32 to int of provided bit depth and back
package signal

import (
	"math"
	"time"
)

const (
	// BitDepth8 is 8 bit depth.
	BitDepth8 = BitDepth(8)
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth24 is 24 bit depth.
	BitDepth24 = BitDepth(24)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// BitDepth contains values required for int-to-float and backward conversion.
type BitDepth int

// devider is used when int to float conversion is done.
func (bitDepth BitDepth) devider() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8
	case BitDepth16:
		return math.MaxInt16
	case BitDepth24:
		return 1<<23 - 1
	case BitDepth32:
		return math.MaxInt32
	default:
		return 1
	}
}

// multiplier is used when float to int conversion is done.
func (bitDepth BitDepth) multiplier() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8 - 1
	case BitDepth16:
		return math.MaxInt16 - 1
	case BitDepth24:
		return 1<<23 - 2
	case BitDepth32:
		return math.MaxInt32 - 1
	default:
		return 1
	}
}

// DurationOf returns time duration of passed samples for this sample rate.
func DurationOf(sampleRate int, samples int64) time.Duration {
	if sampleRate == 0 {
		return 0
	}
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}

// FloatsAsInts converts float samples to ints of provided bit depth.
// Samples are clipped to [-1, 1] range first.
func FloatsAsInts(floats []float32, bitDepth BitDepth) []int {
	if floats == nil {
		return nil
	}
	multiplier := float64(bitDepth.multiplier())
	ints := make([]int, len(floats))
	for i, v := range floats {
		if bitDepth != 0 {
			v = clip(v)
		}
		ints[i] = int(float64(v) * multiplier)
	}
	return ints
}

// IntsAsFloats converts ints of provided bit depth to float samples.
func IntsAsFloats(ints []int, bitDepth BitDepth) []float32 {
	if ints == nil {
		return nil
	}
	devider := float64(bitDepth.devider())
	floats := make([]float32, len(ints))
	for i, v := range ints {
		floats[i] = float32(float64(v) / devider)
	}
	return floats
}

// Deinterleave splits interleaved data into lanes per channel. Incomplete
// trailing frame is padded with zeros.
func Deinterleave(data []float32, numChannels int) [][]float32 {
	if data == nil || numChannels <= 0 {
		return nil
	}
	size := int(math.Ceil(float64(len(data)) / float64(numChannels)))
	lanes := make([][]float32, numChannels)
	for i := range lanes {
		lanes[i] = make([]float32, size)
		pos := 0
		for j := i; j < len(data); j = j + numChannels {
			lanes[i][pos] = data[j]
			pos++
		}
	}
	return lanes
}

// Interleave merges lanes into interleaved data. Shorter lanes are padded
// with zeros up to the first lane length.
func Interleave(lanes [][]float32) []float32 {
	numChannels := len(lanes)
	if numChannels == 0 {
		return nil
	}
	size := len(lanes[0])
	data := make([]float32, size*numChannels)
	for c := range lanes {
		for i := 0; i < size && i < len(lanes[c]); i++ {
			data[i*numChannels+c] = lanes[c][i]
		}
	}
	return data
}

func clip(v float32) float32 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
