package musiforge

import "fmt"

// IOData is a fixed set of lanes, one per port. All lanes have the same
// length and their number doesn't change after allocation.
type IOData [][]float32

// NewIOData allocates zero-filled lanes of bufferLen samples.
func NewIOData(lanes, bufferLen int) IOData {
	d := make([][]float32, lanes)
	// single backing array keeps lanes adjacent.
	data := make([]float32, lanes*bufferLen)
	for i := range d {
		d[i] = data[i*bufferLen : (i+1)*bufferLen : (i+1)*bufferLen]
	}
	return d
}

// Lanes returns number of lanes.
func (d IOData) Lanes() int {
	return len(d)
}

// BufferLen returns number of samples in every lane.
func (d IOData) BufferLen() int {
	if len(d) == 0 {
		return 0
	}
	return len(d[0])
}

// Lane returns the lane for port i. It panics if i is out of range.
func (d IOData) Lane(i int) []float32 {
	if i < 0 || i >= len(d) {
		panic(fmt.Sprintf("%v: lane %d of %d", ErrPortOutOfRange, i, len(d)))
	}
	return d[i]
}

// Clear zeroes all lanes.
func (d IOData) Clear() {
	for i := range d {
		for j := range d[i] {
			d[i][j] = 0
		}
	}
}

// Clone returns a deep copy.
func (d IOData) Clone() IOData {
	if d == nil {
		return nil
	}
	c := NewIOData(d.Lanes(), d.BufferLen())
	for i := range d {
		copy(c[i], d[i])
	}
	return c
}

// AddLane sums src into dst elementwise. Only the common length is summed.
func AddLane(dst, src []float32) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] += src[i]
	}
}

// FillLane sets every sample of the lane to v.
func FillLane(lane []float32, v float32) {
	for i := range lane {
		lane[i] = v
	}
}
