package mutable

import "sync"

// Destination delivers mutations from any number of producers to a single
// consumer. Pending mutations are accumulated until consumer receives
// them, so Push never blocks on a consumer that doesn't run.
type Destination struct {
	mu sync.Mutex
	c  chan Mutations
}

// NewDestination returns ready to use destination.
func NewDestination() *Destination {
	return &Destination{
		c: make(chan Mutations, 1),
	}
}

// Push mutations to the destination.
func (d *Destination) Push(mutations ...Mutation) {
	var ms Mutations
	for _, m := range mutations {
		ms = ms.Put(m)
	}
	if len(ms) == 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	select {
	case pending := <-d.c:
		d.c <- pending.Append(ms)
	default:
		d.c <- ms
	}
}

// Receive returns pending mutations if there are any. It doesn't block.
func (d *Destination) Receive() (Mutations, bool) {
	select {
	case ms := <-d.c:
		return ms, true
	default:
		return nil, false
	}
}
