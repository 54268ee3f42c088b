package grid3d

import (
	"runtime"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// DefaultRayCapacity bounds the number of keys one traversal may produce.
const DefaultRayCapacity = 100000

type options struct {
	maxVal      int
	rayWorkers  int
	rayCapacity int
}

func defaultOptions() options {
	return options{
		maxVal:      DefaultMaxVal,
		rayWorkers:  runtime.GOMAXPROCS(0),
		rayCapacity: DefaultRayCapacity,
	}
}

// Option configures a Store at construction.
type Option func(*options)

// WithMaxVal sets grid_max_val, half the key range of one axis. It bounds the
// representable coordinates to ±maxVal*resolution.
func WithMaxVal(v int) Option {
	return func(o *options) {
		o.maxVal = v
	}
}

// WithRayWorkers sets the number of KeyRay buffers in the store's pool.
func WithRayWorkers(n int) Option {
	return func(o *options) {
		o.rayWorkers = n
	}
}

// WithRayCapacity sets the maximum number of keys per traversal.
func WithRayCapacity(n int) Option {
	return func(o *options) {
		o.rayCapacity = n
	}
}

func (o options) validate() error {
	if o.rayWorkers <= 0 {
		return errors.New("ray worker count must be positive").
			WithType(ErrTypeInvalidConfig).
			WithTag("ray_workers", o.rayWorkers)
	}
	if o.rayCapacity <= 0 {
		return errors.New("ray capacity must be positive").
			WithType(ErrTypeInvalidConfig).
			WithTag("ray_capacity", o.rayCapacity)
	}
	return nil
}
