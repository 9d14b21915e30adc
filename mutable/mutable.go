// Package mutable allows to change state of running blocks without data
// races. Mutations are created on any goroutine, delivered through a
// Destination and applied by the flow coordinator between two runs, when no
// job of the block is executing.
package mutable

import (
	"github.com/google/uuid"
)

type (
	// Context identifies a mutable object. Embed it to make the object
	// accept mutations. Zero value is immutable.
	Context uuid.UUID

	// Mutator is implemented by processors that accept mutations.
	Mutator interface {
		Mutability() Context
	}

	// MutatorFunc changes the state of mutable object.
	MutatorFunc func()

	// Mutation is a mutator addressed to a certain context.
	Mutation struct {
		Context
		mutator MutatorFunc
	}

	// Mutations are pending mutators grouped by context. Mutators of the
	// same context keep the order they were put in.
	Mutations map[Context][]MutatorFunc
)

// Mutable returns a new unique context.
func Mutable() Context {
	return Context(uuid.New())
}

// Mutability implements Mutator, so embedding types satisfy it.
func (c Context) Mutability() Context {
	return c
}

// IsMutable returns true if context is not zero.
func (c Context) IsMutable() bool {
	return c != Context{}
}

// Mutate addresses the mutator to the context. It panics if context is
// immutable.
func (c Context) Mutate(fn MutatorFunc) Mutation {
	if !c.IsMutable() {
		panic("mutable: mutation of immutable context")
	}
	return Mutation{
		Context: c,
		mutator: fn,
	}
}

// Put adds the mutation to the set. Mutations without context or mutator
// are ignored.
func (ms Mutations) Put(m Mutation) Mutations {
	if !m.IsMutable() || m.mutator == nil {
		return ms
	}
	if ms == nil {
		ms = make(Mutations)
	}
	ms[m.Context] = append(ms[m.Context], m.mutator)
	return ms
}

// Append moves all mutators of source to the end of the set.
func (ms Mutations) Append(source Mutations) Mutations {
	if len(source) == 0 {
		return ms
	}
	if ms == nil {
		ms = make(Mutations, len(source))
	}
	for c, fns := range source {
		ms[c] = append(ms[c], fns...)
	}
	return ms
}

// ApplyTo calls all mutators of the context and removes them from the
// set.
func (ms Mutations) ApplyTo(c Context) {
	fns, ok := ms[c]
	if !ok {
		return
	}
	delete(ms, c)
	for _, fn := range fns {
		fn()
	}
}

// Len returns number of pending mutators.
func (ms Mutations) Len() int {
	var n int
	for _, fns := range ms {
		n += len(fns)
	}
	return n
}
