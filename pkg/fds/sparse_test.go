package fds_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Meesho/BharatMLStack/fds-decoder/internal/avro"
	"github.com/Meesho/BharatMLStack/fds-decoder/internal/avro/avrotest"
	"github.com/Meesho/BharatMLStack/fds-decoder/pkg/fds"
)

func TestSparseRoundTrip(t *testing.T) {
	schema := mustSchema(t, avrotest.NewSchemaBuilder().AddSparseFieldOrdered("s0", "int", []string{"values", "indices0"}))
	dec := fds.NewDecoder(nil, []fds.SparseMetadata{
		{Name: "s0", DType: fds.DataTypeInt32, Shape: fds.PartialShape{-1}, IndicesIndex: 0, ValuesIndex: 0},
	}, nil)
	require.NoError(t, dec.Initialize(schema))

	buf := fds.NewValueBuffer(1, 1)
	e := avrotest.NewEncoder()
	e.ArrayBlock(3, func(i int) { e.Int([]int32{10, 20, 30}[i]) })
	e.ArrayBlock(3, func(i int) { e.Long([]int64{0, 2, 5}[i]) })

	byteDec := avro.NewBinaryDecoder(bytes.NewReader(e.Bytes()))
	require.NoError(t, dec.DecodeRecord(byteDec, nil, buf, dec.SkippedData(), 0))

	require.Equal(t, []int32{10, 20, 30}, buf.Int32Values[0])
	require.Equal(t, []int64{0, 0, 0, 2, 0, 5}, buf.Indices[0])
	require.Equal(t, 3, buf.NumOfElements[0])
}

// permutations of a small slice, used to exercise index-field order
// invariance for rank-2 sparse columns.
func permutations(items []string) [][]string {
	if len(items) <= 1 {
		return [][]string{append([]string{}, items...)}
	}
	var out [][]string
	for i := range items {
		rest := make([]string, 0, len(items)-1)
		rest = append(rest, items[:i]...)
		rest = append(rest, items[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]string{items[i]}, p...))
		}
	}
	return out
}

func TestSparseIndexFieldPermutationInvariance(t *testing.T) {
	fields := []string{"values", "indices0", "indices1"}
	values := []int32{7, 8}
	idx0 := []int64{1, 4}
	idx1 := []int64{2, 9}
	wantIndices := []int64{0, 1, 2, 0, 4, 9}

	for _, order := range permutations(fields) {
		schema := mustSchema(t, avrotest.NewSchemaBuilder().AddSparseFieldOrdered("s0", "int", order))
		dec := fds.NewDecoder(nil, []fds.SparseMetadata{
			{Name: "s0", DType: fds.DataTypeInt32, Shape: fds.PartialShape{-1, -1}, IndicesIndex: 0, ValuesIndex: 0},
		}, nil)
		require.NoError(t, dec.Initialize(schema))

		buf := fds.NewValueBuffer(1, 1)
		e := avrotest.NewEncoder()
		for _, f := range order {
			switch f {
			case "values":
				e.ArrayBlock(2, func(i int) { e.Int(values[i]) })
			case "indices0":
				e.ArrayBlock(2, func(i int) { e.Long(idx0[i]) })
			case "indices1":
				e.ArrayBlock(2, func(i int) { e.Long(idx1[i]) })
			}
		}
		byteDec := avro.NewBinaryDecoder(bytes.NewReader(e.Bytes()))
		require.NoError(t, dec.DecodeRecord(byteDec, nil, buf, dec.SkippedData(), 0), "order=%v", order)

		require.Equal(t, []int32{7, 8}, buf.Int32Values[0], "order=%v", order)
		require.Equal(t, wantIndices, buf.Indices[0], "order=%v", order)
	}
}

func TestVarlenWithEmptyMiddleRow(t *testing.T) {
	schema := mustSchema(t, avrotest.NewSchemaBuilder().AddVarlenField("v0", "string", 2))
	dec := fds.NewDecoder(nil, nil, []fds.VarlenMetadata{
		{Name: "v0", DType: fds.DataTypeString, Shape: fds.PartialShape{-1, -1}, IndicesIndex: 0, ValuesIndex: 0},
	})
	require.NoError(t, dec.Initialize(schema))

	buf := fds.NewValueBuffer(1, 1)
	e := avrotest.NewEncoder()
	// outer array of 3 rows: ["ABC"], [], ["DEF"]
	e.ArrayBlock(3, func(i int) {
		switch i {
		case 0:
			e.ArrayBlock(1, func(int) { e.String("ABC") })
		case 1:
			e.ArrayBlock(0, func(int) {})
		case 2:
			e.ArrayBlock(1, func(int) { e.String("DEF") })
		}
	})

	byteDec := avro.NewBinaryDecoder(bytes.NewReader(e.Bytes()))
	require.NoError(t, dec.DecodeRecord(byteDec, nil, buf, dec.SkippedData(), 0))

	require.Equal(t, [][]byte{[]byte("ABC"), []byte("DEF")}, buf.StringValues[0])
	require.Equal(t, []int64{0, 0, 0, 0, 2, 0}, buf.Indices[0])
	require.Equal(t, 2, buf.NumOfElements[0])
}

func TestSparseNonContiguousIndicesRejected(t *testing.T) {
	// rank 2 declared, but the carrier only supplies indices0 and
	// indices2 (a gap at 1, and nothing ever claims dimension 1).
	schema := mustSchema(t, avrotest.NewSchemaBuilder().AddSparseFieldOrdered("s0", "int", []string{"values", "indices0", "indices2"}))
	dec := fds.NewDecoder(nil, []fds.SparseMetadata{
		{Name: "s0", DType: fds.DataTypeInt32, Shape: fds.PartialShape{-1, -1}, IndicesIndex: 0, ValuesIndex: 0},
	}, nil)
	err := dec.Initialize(schema)
	require.Error(t, err)
	var sme *fds.SchemaMismatchError
	require.ErrorAs(t, err, &sme)
}

func TestSparseDuplicateIndicesRejected(t *testing.T) {
	// rank 2 so LeafCount (3) matches rank+1, but both indices fields
	// claim dimension 0, leaving dimension 1 unclaimed.
	schema := mustSchema(t, avrotest.NewSchemaBuilder().AddSparseFieldOrdered("s0", "int", []string{"values", "indices0", "indices0"}))
	dec := fds.NewDecoder(nil, []fds.SparseMetadata{
		{Name: "s0", DType: fds.DataTypeInt32, Shape: fds.PartialShape{-1, -1}, IndicesIndex: 0, ValuesIndex: 0},
	}, nil)
	err := dec.Initialize(schema)
	require.Error(t, err)
	var sme *fds.SchemaMismatchError
	require.ErrorAs(t, err, &sme)
}

func TestSparseRecordSchemaMismatch(t *testing.T) {
	schema := mustSchema(t, avrotest.NewSchemaBuilder().AddDenseField("s0", "int", 0))
	dec := fds.NewDecoder(nil, []fds.SparseMetadata{
		{Name: "s0", DType: fds.DataTypeInt32, Shape: fds.PartialShape{-1}, IndicesIndex: 0, ValuesIndex: 0},
	}, nil)
	err := dec.Initialize(schema)
	require.Error(t, err)
	var sme *fds.SchemaMismatchError
	require.ErrorAs(t, err, &sme)
}
