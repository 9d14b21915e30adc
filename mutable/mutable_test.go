package mutable_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/musiforge/mutable"
)

// mutableMock used to set up test cases for mutators
type mutableMock struct {
	mutable.Context
	value      int
	operations int
	expected   int
}

// AddDelta closure to mutable.value
func (m *mutableMock) AddDelta(delta int) mutable.Mutation {
	return m.Mutate(func() {
		m.value += delta
	})
}

func TestPutMutations(t *testing.T) {
	var tests = []struct {
		mocks []*mutableMock
	}{
		{
			mocks: []*mutableMock{
				{Context: mutable.Mutable(), operations: 1, expected: 10},
			},
		},
		{
			mocks: []*mutableMock{
				{Context: mutable.Mutable(), operations: 3, expected: 30},
				{Context: mutable.Mutable(), operations: 4, expected: 40},
			},
		},
	}

	for _, c := range tests {
		var mutations mutable.Mutations
		delta := 10
		for _, m := range c.mocks {
			for j := 0; j < m.operations; j++ {
				mutations = mutations.Put(m.AddDelta(delta))
			}
		}
		for _, m := range c.mocks {
			mutations.ApplyTo(m.Context)
			assert.Equal(t, m.expected, m.value)
			assert.True(t, m.IsMutable())
		}
		assert.Empty(t, mutations)
	}
}

func TestAppendMutations(t *testing.T) {
	m1 := &mutableMock{Context: mutable.Mutable()}
	m2 := &mutableMock{Context: mutable.Mutable()}

	var ms mutable.Mutations
	ms = ms.Put(m1.AddDelta(1))
	other := mutable.Mutations(nil).Put(m1.AddDelta(2)).Put(m2.AddDelta(3))
	ms = ms.Append(other)

	ms.ApplyTo(m1.Context)
	ms.ApplyTo(m2.Context)
	assert.Equal(t, 3, m1.value)
	assert.Equal(t, 3, m2.value)
}

func TestLen(t *testing.T) {
	m1 := &mutableMock{Context: mutable.Mutable()}
	m2 := &mutableMock{Context: mutable.Mutable()}
	ms := mutable.Mutations(nil).
		Put(m1.AddDelta(10)).
		Put(m1.AddDelta(10)).
		Put(m2.AddDelta(20)).
		Put(mutable.Mutation{})
	assert.Equal(t, 3, ms.Len())

	ms.ApplyTo(m1.Context)
	assert.Equal(t, 20, m1.value)
	assert.Equal(t, 1, ms.Len())
	// applied mutators are removed.
	ms.ApplyTo(m1.Context)
	assert.Equal(t, 20, m1.value)
}

func TestMutability(t *testing.T) {
	var zero mutable.Context
	assert.False(t, zero.IsMutable())
	assert.True(t, mutable.Mutable().IsMutable())
	assert.NotEqual(t, mutable.Mutable(), mutable.Mutable())
	assert.Panics(t, func() {
		zero.Mutate(func() {})
	})

	var ms mutable.Mutations
	ms = ms.Put(mutable.Mutation{})
	assert.Nil(t, ms)

	// embedding types are mutators of their own context.
	mock := &mutableMock{Context: mutable.Mutable()}
	var m mutable.Mutator = mock
	assert.Equal(t, mock.Context, m.Mutability())
	ms = ms.Put(mock.AddDelta(10))
	ms.ApplyTo(m.Mutability())
	assert.Equal(t, 10, mock.value)
}

func TestDestination(t *testing.T) {
	d := mutable.NewDestination()
	_, ok := d.Receive()
	assert.False(t, ok)

	m := &mutableMock{Context: mutable.Mutable()}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Push(m.AddDelta(1))
		}()
	}
	wg.Wait()
	// empty push is ignored
	d.Push()

	ms, ok := d.Receive()
	assert.True(t, ok)
	ms.ApplyTo(m.Context)
	assert.Equal(t, 10, m.value)

	_, ok = d.Receive()
	assert.False(t, ok)
}
