package avro_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Meesho/BharatMLStack/fds-decoder/internal/avro"
	"github.com/Meesho/BharatMLStack/fds-decoder/internal/avro/avrotest"
)

func TestDecodeDatumRecordWithArrayAndUnion(t *testing.T) {
	node, err := avro.ParseSchema([]byte(`{
		"type": "record",
		"name": "r",
		"fields": [
			{"name": "a", "type": {"type": "array", "items": "int"}},
			{"name": "b", "type": ["null", "string"]}
		]
	}`))
	require.NoError(t, err)

	e := avrotest.NewEncoder()
	e.ArrayBlock(2, func(i int) { e.Int(int32(i + 1)) })
	e.UnionIndex(1).String("x")

	dec := avro.NewBinaryDecoder(bytes.NewReader(e.Bytes()))
	datum, err := avro.DecodeDatum(dec, node)
	require.NoError(t, err)

	require.Equal(t, avro.KindRecord, datum.Kind)
	require.Len(t, datum.Fields, 2)
	require.Equal(t, avro.KindArray, datum.Fields[0].Kind)
	require.Len(t, datum.Fields[0].Items, 2)
	require.Equal(t, int32(1), datum.Fields[0].Items[0].Scalar)
	require.Equal(t, avro.KindUnion, datum.Fields[1].Kind)
	require.Equal(t, 1, datum.Fields[1].Branch)
	require.Equal(t, []byte("x"), datum.Fields[1].Items[0].Scalar)
}
