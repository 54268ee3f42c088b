package grid3d

import (
	"encoding/binary"
	"io"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// WriteData writes the raw entries of the store, without any header:
//
//	uint64 count
//	count × { uint16 x, uint16 y, uint16 z, node }
//
// Integers are little endian and nodes use their own WriteBinary encoding.
// Entries come in map order, which differs between runs.
func (s *Store[N]) WriteData(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(s.nodes))); err != nil {
		return err
	}
	for k, n := range s.nodes {
		if err := binary.Write(w, binary.LittleEndian, k); err != nil {
			return err
		}
		if err := n.WriteBinary(w); err != nil {
			return errors.New("writing node failed").
				WithTag("key", k.String()).
				Wrap(err)
		}
	}
	return nil
}

// ReadData reads entries written by WriteData into the store. The resolution
// and grid max value must already match those of the writer. A key component
// at or above 2*maxVal is a corrupt stream.
//
// Entries read before a failure stay in the store; after an error the store
// should be cleared or discarded.
func (s *Store[N]) ReadData(r io.Reader) error {
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return errors.New("reading entry count failed").
			WithType(ErrTypeCorruptStream).
			Wrap(unexpectedEOF(err))
	}
	for i := uint64(0); i < count; i++ {
		var k Key
		if err := binary.Read(r, binary.LittleEndian, &k); err != nil {
			return errors.New("reading key failed").
				WithType(ErrTypeCorruptStream).
				WithTag("entry", i).
				WithTag("count", count).
				Wrap(unexpectedEOF(err))
		}
		if !s.codec.validKey(k) {
			return errors.New("key outside the grid").
				WithType(ErrTypeCorruptStream).
				WithTag("entry", i).
				WithTag("key", k.String()).
				WithTag("max_val", s.codec.maxVal)
		}
		n := s.alloc()
		if err := n.ReadBinary(r); err != nil {
			return errors.New("reading node failed").
				WithType(ErrTypeCorruptStream).
				WithTag("entry", i).
				WithTag("key", k.String()).
				Wrap(unexpectedEOF(err))
		}
		s.SetNode(k, n)
	}
	return nil
}

// unexpectedEOF reports a stream that ends inside an entry as truncated.
func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
