package musiforge

import (
	"fmt"

	"github.com/dudk/musiforge/mutable"
)

// Listener sends a constant value to the block input port. The value is
// added to every sample of the port lane, starting from the next run,
// until another value is sent.
type Listener struct {
	id   string
	port Port
	ctx  mutable.Context
	b    *Block
	dest *mutable.Destination
}

// AddListener returns a listener attached to the input port.
func (f *Flow) AddListener(to Port) (*Listener, error) {
	b, err := f.port(to)
	if err != nil {
		return nil, fmt.Errorf("listener: %w", err)
	}
	return &Listener{
		id:   newUID(),
		port: to,
		ctx:  b.listenable,
		b:    b,
		dest: f.mutations,
	}, nil
}

// Port returns the port listener is attached to.
func (l *Listener) Port() Port {
	return l.port
}

// Send value to the port. It's safe to call Send from any goroutine.
func (l *Listener) Send(v float32) {
	l.dest.Push(l.ctx.Mutate(func() {
		if v == 0 {
			delete(l.b.listened, l.port.Index)
			return
		}
		l.b.listened[l.port.Index] = v
	}))
}

func (l *Listener) String() string {
	return fmt.Sprintf("listener %s %v", l.id, l.port)
}
