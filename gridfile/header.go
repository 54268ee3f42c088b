package gridfile

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

const (
	magic = "G3DGRID\x00"

	// Version is the header version written by this package.
	Version uint8 = 1

	maxNodeTypeLen = 0xFFFF
)

const (
	ErrTypeInvalidHeader    = "invalid_header"
	ErrTypeChecksum         = "checksum_mismatch"
	ErrTypeNodeTypeMismatch = "node_type_mismatch"
)

// Header holds the fixed fields in front of a grid file payload.
type Header struct {
	Version     uint8
	NodeType    string
	Resolution  float64
	MaxVal      uint32
	Compression Compression
	PayloadLen  uint64 // stored, possibly compressed, payload length
	Checksum    uint64 // xxhash64 of the uncompressed payload
}

func (h Header) size() int {
	return len(magic) + 1 + 2 + len(h.NodeType) + 8 + 4 + 1 + 8 + 8
}

func (h Header) write(w *bytes.Buffer) error {
	if len(h.NodeType) > maxNodeTypeLen {
		return errors.New("node type too long").
			WithType(ErrTypeInvalidHeader).
			WithTag("length", len(h.NodeType))
	}
	w.WriteString(magic)
	_ = binary.Write(w, binary.LittleEndian, h.Version)
	_ = binary.Write(w, binary.LittleEndian, uint16(len(h.NodeType)))
	w.WriteString(h.NodeType)
	_ = binary.Write(w, binary.LittleEndian, math.Float64bits(h.Resolution))
	_ = binary.Write(w, binary.LittleEndian, h.MaxVal)
	_ = binary.Write(w, binary.LittleEndian, uint8(h.Compression))
	_ = binary.Write(w, binary.LittleEndian, h.PayloadLen)
	_ = binary.Write(w, binary.LittleEndian, h.Checksum)
	return nil
}

// ReadHeader parses the header of a grid file and returns it with the stored
// payload that follows.
func ReadHeader(data []byte) (Header, []byte, error) {
	var h Header
	if len(data) < len(magic) || string(data[:len(magic)]) != magic {
		return h, nil, errors.New("not a grid file").
			WithType(ErrTypeInvalidHeader)
	}
	r := bytes.NewReader(data[len(magic):])
	if err := binary.Read(r, binary.LittleEndian, &h.Version); err != nil {
		return h, nil, truncatedHeader(err)
	}
	if h.Version != Version {
		return h, nil, errors.New("unsupported grid file version").
			WithType(ErrTypeInvalidHeader).
			WithTag("version", h.Version)
	}

	var nameLen uint16
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return h, nil, truncatedHeader(err)
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return h, nil, truncatedHeader(err)
	}
	h.NodeType = string(name)

	var resBits uint64
	if err := binary.Read(r, binary.LittleEndian, &resBits); err != nil {
		return h, nil, truncatedHeader(err)
	}
	h.Resolution = math.Float64frombits(resBits)
	if err := binary.Read(r, binary.LittleEndian, &h.MaxVal); err != nil {
		return h, nil, truncatedHeader(err)
	}
	var comp uint8
	if err := binary.Read(r, binary.LittleEndian, &comp); err != nil {
		return h, nil, truncatedHeader(err)
	}
	h.Compression = Compression(comp)
	if !h.Compression.valid() {
		return h, nil, errors.New("unknown compression").
			WithType(ErrTypeInvalidHeader).
			WithTag("compression", comp)
	}
	if err := binary.Read(r, binary.LittleEndian, &h.PayloadLen); err != nil {
		return h, nil, truncatedHeader(err)
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Checksum); err != nil {
		return h, nil, truncatedHeader(err)
	}

	payload := data[h.size():]
	if uint64(len(payload)) != h.PayloadLen {
		return h, nil, errors.New("payload length mismatch").
			WithType(ErrTypeInvalidHeader).
			WithTag("expected", h.PayloadLen).
			WithTag("actual", len(payload))
	}
	return h, payload, nil
}

func truncatedHeader(err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return errors.New("truncated header").
		WithType(ErrTypeInvalidHeader).
		Wrap(err)
}
