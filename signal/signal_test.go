package signal_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/musiforge/signal"
)

func TestIntsAsFloats(t *testing.T) {
	tests := []struct {
		ints     []int
		bitDepth signal.BitDepth
		expected []float32
	}{
		{
			ints:     []int{1, 2, 1, 2},
			expected: []float32{1, 2, 1, 2},
		},
		{
			ints:     []int{math.MaxInt16, -math.MaxInt16},
			bitDepth: signal.BitDepth16,
			expected: []float32{1, -1},
		},
		{
			ints:     []int{math.MaxInt8},
			bitDepth: signal.BitDepth8,
			expected: []float32{1},
		},
		{
			ints:     nil,
			expected: nil,
		},
	}

	for _, test := range tests {
		result := signal.IntsAsFloats(test.ints, test.bitDepth)
		assert.Equal(t, test.expected, result)
	}
}

func TestFloatsAsInts(t *testing.T) {
	tests := []struct {
		floats   []float32
		bitDepth signal.BitDepth
		expected []int
	}{
		{
			floats:   []float32{1, 2, 3},
			expected: []int{1, 2, 3},
		},
		{
			floats:   []float32{1, -1, 0},
			bitDepth: signal.BitDepth16,
			expected: []int{math.MaxInt16 - 1, -(math.MaxInt16 - 1), 0},
		},
		{
			floats:   []float32{2, -3},
			bitDepth: signal.BitDepth16,
			expected: []int{math.MaxInt16 - 1, -(math.MaxInt16 - 1)},
		},
		{
			floats:   nil,
			expected: nil,
		},
	}

	for _, test := range tests {
		result := signal.FloatsAsInts(test.floats, test.bitDepth)
		assert.Equal(t, test.expected, result)
	}
}

func TestInterleave(t *testing.T) {
	tests := []struct {
		data        []float32
		numChannels int
		lanes       [][]float32
	}{
		{
			data:        []float32{1, 2, 1, 2, 1, 2},
			numChannels: 2,
			lanes:       [][]float32{{1, 1, 1}, {2, 2, 2}},
		},
		{
			data:        []float32{1, 2, 3},
			numChannels: 1,
			lanes:       [][]float32{{1, 2, 3}},
		},
		{
			data:        []float32{1, 2, 3, 4},
			numChannels: 3,
			lanes:       [][]float32{{1, 4}, {2, 0}, {3, 0}},
		},
	}

	for _, test := range tests {
		lanes := signal.Deinterleave(test.data, test.numChannels)
		assert.Equal(t, test.lanes, lanes)
		data := signal.Interleave(lanes)
		assert.Equal(t, test.data, data[:len(test.data)])
	}
	assert.Nil(t, signal.Deinterleave(nil, 2))
	assert.Nil(t, signal.Deinterleave([]float32{1}, 0))
	assert.Nil(t, signal.Interleave(nil))
}

func TestDurationOf(t *testing.T) {
	assert.Equal(t, time.Second, signal.DurationOf(44100, 44100))
	assert.Equal(t, 500*time.Millisecond, signal.DurationOf(48000, 24000))
	assert.Equal(t, time.Duration(0), signal.DurationOf(0, 100))
}
