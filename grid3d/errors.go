package grid3d

// Error types attached to the errors returned by this package. Check them with
// errors.IsType from github.com/aukilabs/go-tooling/pkg/errors.
const (
	// ErrTypeOutOfRange is returned when a coordinate quantizes outside the
	// key lattice.
	ErrTypeOutOfRange = "out_of_range"

	// ErrTypeCorruptStream is returned when ReadData cannot decode a complete
	// entry. The store may hold the entries read before the failure.
	ErrTypeCorruptStream = "corrupt_stream"

	// ErrTypeRayOverflow is returned when a traversal visits more voxels than
	// the KeyRay can hold.
	ErrTypeRayOverflow = "ray_overflow"

	// ErrTypeInvalidConfig is returned by New for bad resolution or options.
	ErrTypeInvalidConfig = "invalid_config"
)
