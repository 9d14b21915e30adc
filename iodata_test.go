package musiforge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/musiforge"
)

func TestIOData(t *testing.T) {
	d := musiforge.NewIOData(3, 4)
	assert.Equal(t, 3, d.Lanes())
	assert.Equal(t, 4, d.BufferLen())
	assert.Equal(t, 0, musiforge.IOData(nil).BufferLen())

	musiforge.FillLane(d.Lane(0), 1)
	// lanes don't overlap.
	d[1] = append(d[1], 5)
	assert.Equal(t, []float32{0, 0, 0, 0}, d[2])
	assert.Equal(t, []float32{1, 1, 1, 1}, d[0])

	c := d.Clone()
	d.Clear()
	assert.Equal(t, []float32{0, 0, 0, 0}, d[0])
	assert.Equal(t, []float32{1, 1, 1, 1}, c[0])
	assert.Nil(t, musiforge.IOData(nil).Clone())

	assert.Panics(t, func() { d.Lane(3) })
	assert.Panics(t, func() { d.Lane(-1) })
}

func TestAddLane(t *testing.T) {
	tests := []struct {
		dst      []float32
		src      []float32
		expected []float32
	}{
		{
			dst:      []float32{1, 2, 3},
			src:      []float32{1, 1, 1},
			expected: []float32{2, 3, 4},
		},
		{
			dst:      []float32{1, 2, 3},
			src:      []float32{1},
			expected: []float32{2, 2, 3},
		},
		{
			dst:      []float32{1},
			src:      []float32{1, 1, 1},
			expected: []float32{2},
		},
		{
			dst:      []float32{},
			src:      nil,
			expected: []float32{},
		},
	}
	for _, test := range tests {
		musiforge.AddLane(test.dst, test.src)
		assert.Equal(t, test.expected, test.dst)
	}
}
