package gridfile

import (
	"bytes"
	"io"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// Compression is the codec applied to the payload.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionZlib Compression = 1
	CompressionZstd Compression = 2

	// CompressionAuto tries every codec and keeps the smallest output. It is
	// only an option: files always record the codec actually used.
	CompressionAuto Compression = 0xFF
)

func (c Compression) valid() bool {
	return c <= CompressionZstd
}

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZlib:
		return "zlib"
	case CompressionZstd:
		return "zstd"
	case CompressionAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// ParseCompression parses a codec name as printed by String.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "zlib":
		return CompressionZlib, nil
	case "zstd":
		return CompressionZstd, nil
	case "auto":
		return CompressionAuto, nil
	default:
		return 0, errors.New("unknown compression").
			WithType(ErrTypeInvalidHeader).
			WithTag("name", s)
	}
}

// compress encodes b and returns the codec actually used, which differs from
// c only for CompressionAuto.
func compress(b []byte, c Compression, level int) ([]byte, Compression, error) {
	switch c {
	case CompressionNone:
		return b, c, nil

	case CompressionZlib:
		if level == 0 {
			level = zlib.BestCompression
		}
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, level)
		if err != nil {
			return nil, c, err
		}
		if _, err := zw.Write(b); err != nil {
			return nil, c, err
		}
		if err := zw.Close(); err != nil {
			return nil, c, err
		}
		return buf.Bytes(), c, nil

	case CompressionZstd:
		encLevel := zstd.SpeedDefault
		if level != 0 {
			encLevel = zstd.EncoderLevelFromZstd(level)
		}
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encLevel))
		if err != nil {
			return nil, c, err
		}
		defer enc.Close()
		return enc.EncodeAll(b, nil), c, nil

	case CompressionAuto:
		best, bestComp := b, CompressionNone
		for _, candidate := range []Compression{CompressionZlib, CompressionZstd} {
			out, _, err := compress(b, candidate, 0)
			if err != nil {
				return nil, c, err
			}
			if len(out) < len(best) {
				best, bestComp = out, candidate
			}
		}
		return best, bestComp, nil

	default:
		return nil, c, errors.New("unsupported compression").
			WithType(ErrTypeInvalidHeader).
			WithTag("compression", uint8(c))
	}
}

func decompress(b []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return b, nil

	case CompressionZlib:
		zr, err := zlib.NewReader(bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)

	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(b, nil)

	default:
		return nil, errors.New("unsupported compression").
			WithType(ErrTypeInvalidHeader).
			WithTag("compression", uint8(c))
	}
}
