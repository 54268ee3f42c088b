package grid3d

import "io"

// Node is what a Store holds per voxel. N is the concrete node type, usually
// a pointer, so that *T implements Node[*T].
type Node[N any] interface {
	// Clone returns a deep copy that shares nothing with the receiver.
	Clone() N
	// ByteSize is the in-memory size of one node, for memory accounting.
	ByteSize() int
	// WriteBinary and ReadBinary are the node's own stream encoding.
	WriteBinary(w io.Writer) error
	ReadBinary(r io.Reader) error
}
