package musiforge

import "fmt"

// Option provides a way to set functional parameters to flow.
type Option func(f *Flow) error

// WithWorkers sets the number of workers.
func WithWorkers(n int) Option {
	return func(f *Flow) error {
		if n <= 0 {
			return fmt.Errorf("%w: %d workers", ErrInvalidConfig, n)
		}
		f.workers = n
		return nil
	}
}

// WithLogger sets logger to flow. If this option is not provided, logrus
// logger is used.
func WithLogger(logger Logger) Option {
	return func(f *Flow) error {
		f.log = logger
		return nil
	}
}

// WithName sets name to flow.
func WithName(n string) Option {
	return func(f *Flow) error {
		f.name = n
		return nil
	}
}

// WithMetric enables block metrics. Metrics are published with expvar.
func WithMetric() Option {
	return func(f *Flow) error {
		f.metered = true
		return nil
	}
}

// WithEagerDispatch makes flow dispatch every ready block, not only the
// next one in topological order.
func WithEagerDispatch() Option {
	return func(f *Flow) error {
		f.eager = true
		return nil
	}
}
