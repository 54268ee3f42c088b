// Package gridfile frames the raw grid3d entry stream with a header naming
// the node type, grid geometry, payload codec and checksum.
//
// Layout, little endian:
//
//	"G3DGRID\x00"
//	uint8   version
//	uint16  node type length, followed by the node type
//	float64 resolution
//	uint32  max value
//	uint8   compression
//	uint64  payload length
//	uint64  xxhash64 of the uncompressed payload
//	payload
package gridfile

import (
	"bytes"
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
	xxhash "github.com/cespare/xxhash/v2"
	"github.com/voxelsplace/gridmap3d/grid3d"
)

// Options controls how Marshal encodes the payload.
type Options struct {
	Compression Compression

	// Level is the zlib level, or the zstd level for CompressionZstd. Zero
	// picks the codec default.
	Level int
}

// Marshal encodes the store as a grid file.
func Marshal[N grid3d.Node[N]](s *grid3d.Store[N], nodeType string, opts Options) ([]byte, error) {
	var raw bytes.Buffer
	if err := s.WriteData(&raw); err != nil {
		return nil, err
	}
	payload, comp, err := compress(raw.Bytes(), opts.Compression, opts.Level)
	if err != nil {
		return nil, err
	}

	h := Header{
		Version:     Version,
		NodeType:    nodeType,
		Resolution:  s.Resolution(),
		MaxVal:      uint32(s.Codec().MaxVal()),
		Compression: comp,
		PayloadLen:  uint64(len(payload)),
		Checksum:    xxhash.Sum64(raw.Bytes()),
	}
	var out bytes.Buffer
	out.Grow(h.size() + len(payload))
	if err := h.write(&out); err != nil {
		return nil, err
	}
	out.Write(payload)
	return out.Bytes(), nil
}

// Unmarshal decodes a grid file into a new store. nodeType must match the
// type recorded in the file. The resolution and max value come from the
// header; opts may only set the remaining store options.
func Unmarshal[N grid3d.Node[N]](data []byte, nodeType string, alloc func() N, opts ...grid3d.Option) (*grid3d.Store[N], Header, error) {
	h, stored, err := ReadHeader(data)
	if err != nil {
		return nil, h, err
	}
	if h.NodeType != nodeType {
		return nil, h, errors.New("node type mismatch").
			WithType(ErrTypeNodeTypeMismatch).
			WithTag("expected", nodeType).
			WithTag("actual", h.NodeType)
	}

	raw, err := decompress(stored, h.Compression)
	if err != nil {
		return nil, h, errors.New("decompressing payload failed").
			WithType(grid3d.ErrTypeCorruptStream).
			WithTag("compression", h.Compression.String()).
			Wrap(err)
	}
	if sum := xxhash.Sum64(raw); sum != h.Checksum {
		return nil, h, errors.New("payload checksum mismatch").
			WithType(ErrTypeChecksum).
			WithTag("expected", h.Checksum).
			WithTag("actual", sum)
	}

	opts = append(opts, grid3d.WithMaxVal(int(h.MaxVal)))
	s, err := grid3d.New(h.Resolution, alloc, opts...)
	if err != nil {
		return nil, h, err
	}
	r := bytes.NewReader(raw)
	if err := s.ReadData(r); err != nil {
		return nil, h, err
	}
	if r.Len() != 0 {
		return nil, h, errors.New("trailing bytes after entries").
			WithType(grid3d.ErrTypeCorruptStream).
			WithTag("bytes", r.Len())
	}
	return s, h, nil
}

// Save writes the store to a grid file at path.
func Save[N grid3d.Node[N]](path string, s *grid3d.Store[N], nodeType string, opts Options) error {
	data, err := Marshal(s, nodeType, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads the grid file at path.
func Load[N grid3d.Node[N]](path, nodeType string, alloc func() N, opts ...grid3d.Option) (*grid3d.Store[N], Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Header{}, err
	}
	return Unmarshal(data, nodeType, alloc, opts...)
}
