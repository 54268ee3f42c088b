package grid3d

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestWriteReadData(t *testing.T) {
	s := newTestStore(t, 0.05)
	for i := 0; i < 100; i++ {
		s.SetNode(Key{uint16(i), uint16(3 * i), uint16(65535 - i)}, &testNode{value: int32(i - 50)})
	}

	var buf bytes.Buffer
	require.NoError(t, s.WriteData(&buf))
	require.Equal(t, 8+100*(6+4), buf.Len())

	r := newTestStore(t, 0.05)
	require.NoError(t, r.ReadData(&buf))
	require.Equal(t, s.Size(), r.Size())
	s.Range(func(k Key, n *testNode) bool {
		got, ok := r.SearchKey(k)
		require.True(t, ok, "key %v", k)
		require.Equal(t, n.value, got.value)
		return true
	})
	require.Equal(t, s.Bounds(), r.Bounds())
}

func TestWriteDataEmpty(t *testing.T) {
	s := newTestStore(t, 0.1)
	var buf bytes.Buffer
	require.NoError(t, s.WriteData(&buf))
	require.Equal(t, make([]byte, 8), buf.Bytes())

	r := newTestStore(t, 0.1)
	require.NoError(t, r.ReadData(&buf))
	require.Zero(t, r.Size())
}

func TestWriteDataLayout(t *testing.T) {
	s := newTestStore(t, 1)
	s.SetNode(Key{0x0102, 0x0304, 0x0506}, &testNode{value: -2})

	var buf bytes.Buffer
	require.NoError(t, s.WriteData(&buf))
	require.Equal(t, []byte{
		1, 0, 0, 0, 0, 0, 0, 0,
		0x02, 0x01, 0x04, 0x03, 0x06, 0x05,
		0xfe, 0xff, 0xff, 0xff,
	}, buf.Bytes())
}

func TestReadDataTruncated(t *testing.T) {
	s := newTestStore(t, 1)
	for i := 0; i < 3; i++ {
		s.SetNode(Key{uint16(i)}, &testNode{value: int32(i)})
	}
	var buf bytes.Buffer
	require.NoError(t, s.WriteData(&buf))
	data := buf.Bytes()

	tests := []struct {
		name string
		size int
	}{
		{name: "empty stream", size: 0},
		{name: "partial count", size: 5},
		{name: "partial key", size: 8 + 10 + 3},
		{name: "partial node", size: 8 + 10 + 6 + 2},
		{name: "missing entry", size: 8 + 2*10},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := newTestStore(t, 1)
			err := r.ReadData(bytes.NewReader(data[:test.size]))
			require.Error(t, err)
			require.True(t, errors.IsType(err, ErrTypeCorruptStream))
		})
	}
}

func TestReadDataHugeCount(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(1<<40)))

	s := newTestStore(t, 1)
	err := s.ReadData(&buf)
	require.True(t, errors.IsType(err, ErrTypeCorruptStream))
}

func TestReadDataKeyOutsideGrid(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(2)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, Key{199, 0, 150}))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, int32(1)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, Key{60000, 100, 100}))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, int32(2)))

	s := newTestStore(t, 0.1, WithMaxVal(100))
	err := s.ReadData(&buf)
	require.Error(t, err)
	require.True(t, errors.IsType(err, ErrTypeCorruptStream))

	_, ok := s.SearchKey(Key{60000, 100, 100})
	require.False(t, ok)
	require.InDelta(t, s.Codec().Extent(), s.MetricMax().X, 1e-9)

	// The last valid key of every axis is accepted.
	buf.Reset()
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(1)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, Key{199, 199, 199}))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, int32(3)))
	require.NoError(t, newTestStore(t, 0.1, WithMaxVal(100)).ReadData(&buf))
}
