package avro_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Meesho/BharatMLStack/fds-decoder/internal/avro"
	"github.com/Meesho/BharatMLStack/fds-decoder/internal/avro/avrotest"
)

func TestBinaryDecoderPrimitives(t *testing.T) {
	e := avrotest.NewEncoder()
	e.Int(-5).Long(123456789).Float(3.5).Double(-2.25).Bool(true).String("hi")
	dec := avro.NewBinaryDecoder(bytes.NewReader(e.Bytes()))

	v, err := dec.DecodeInt()
	require.NoError(t, err)
	require.Equal(t, int32(-5), v)

	l, err := dec.DecodeLong()
	require.NoError(t, err)
	require.Equal(t, int64(123456789), l)

	f, err := dec.DecodeFloat()
	require.NoError(t, err)
	require.Equal(t, float32(3.5), f)

	d, err := dec.DecodeDouble()
	require.NoError(t, err)
	require.Equal(t, float64(-2.25), d)

	b, err := dec.DecodeBool()
	require.NoError(t, err)
	require.True(t, b)

	s, err := dec.DecodeString()
	require.NoError(t, err)
	require.Equal(t, []byte("hi"), s)
}

func TestBinaryDecoderArrayMultiBlock(t *testing.T) {
	e := avrotest.NewEncoder()
	e.ArrayBlocks([]int{2, 3}, func(i int) { e.Int(int32(i)) })
	dec := avro.NewBinaryDecoder(bytes.NewReader(e.Bytes()))

	var got []int32
	m, err := dec.ArrayStart()
	require.NoError(t, err)
	for m != 0 {
		for i := int64(0); i < m; i++ {
			v, err := dec.DecodeInt()
			require.NoError(t, err)
			got = append(got, v)
		}
		m, err = dec.ArrayNext()
		require.NoError(t, err)
	}
	require.Equal(t, []int32{0, 1, 2, 3, 4}, got)
}

func TestBinaryDecoderUnionIndex(t *testing.T) {
	e := avrotest.NewEncoder().UnionIndex(1)
	dec := avro.NewBinaryDecoder(bytes.NewReader(e.Bytes()))
	idx, err := dec.DecodeUnionIndex()
	require.NoError(t, err)
	require.Equal(t, 1, idx)
}

func TestBinaryDecoderShortRead(t *testing.T) {
	dec := avro.NewBinaryDecoder(bytes.NewReader(nil))
	_, err := dec.DecodeInt()
	require.Error(t, err)
}
