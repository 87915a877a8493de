package fds_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Meesho/BharatMLStack/fds-decoder/internal/avro"
	"github.com/Meesho/BharatMLStack/fds-decoder/internal/avro/avrotest"
	"github.com/Meesho/BharatMLStack/fds-decoder/internal/tensorsink"
	"github.com/Meesho/BharatMLStack/fds-decoder/pkg/fds"
)

func mustSchema(t *testing.T, b *avrotest.SchemaBuilder) *avro.Node {
	t.Helper()
	js, err := b.JSON()
	require.NoError(t, err)
	node, err := avro.ParseSchema(js)
	require.NoError(t, err)
	return node
}

func TestDenseRoundTripScalar(t *testing.T) {
	schema := mustSchema(t, avrotest.NewSchemaBuilder().AddDenseField("f0", "int", 0))
	dec := fds.NewDecoder([]fds.DenseMetadata{{Name: "f0", DType: fds.DataTypeInt32, Shape: fds.PartialShape{}, TensorIndex: 0}}, nil, nil)
	require.NoError(t, dec.Initialize(schema))

	tensors := []*tensorsink.DenseTensor{tensorsink.NewDenseTensor(tensorsink.DTypeInt32, nil, 2)}
	buf := fds.NewValueBuffer(0, 0)

	wire := avrotest.NewEncoder().Int(42).Bytes()
	byteDec := avro.NewBinaryDecoder(bytes.NewReader(wire))
	require.NoError(t, dec.DecodeRecord(byteDec, tensors, buf, dec.SkippedData(), 0))
	require.Equal(t, int32(42), tensors[0].Int32Data[0])
}

func TestDenseRoundTripRank2RowOffset(t *testing.T) {
	schema := mustSchema(t, avrotest.NewSchemaBuilder().AddDenseField("f0", "float", 2))
	dec := fds.NewDecoder([]fds.DenseMetadata{
		{Name: "f0", DType: fds.DataTypeFloat32, Shape: fds.PartialShape{2, 3}, TensorIndex: 0},
	}, nil, nil)
	require.NoError(t, dec.Initialize(schema))

	tensors := []*tensorsink.DenseTensor{tensorsink.NewDenseTensor(tensorsink.DTypeFloat32, []int64{2, 3}, 2)}
	buf := fds.NewValueBuffer(0, 0)

	row0 := make([]float32, 6)
	for i := range row0 {
		row0[i] = float32(i)
	}
	row1 := make([]float32, 6)
	for i := range row1 {
		row1[i] = float32(i) + 100
	}

	encodeRow := func(row []float32) []byte {
		e := avrotest.NewEncoder()
		e.ArrayBlock(2, func(i int) {
			e.ArrayBlock(3, func(j int) {
				e.Float(row[i*3+j])
			})
		})
		return e.Bytes()
	}

	byteDec0 := avro.NewBinaryDecoder(bytes.NewReader(encodeRow(row0)))
	require.NoError(t, dec.DecodeRecord(byteDec0, tensors, buf, dec.SkippedData(), 0))
	byteDec1 := avro.NewBinaryDecoder(bytes.NewReader(encodeRow(row1)))
	require.NoError(t, dec.DecodeRecord(byteDec1, tensors, buf, dec.SkippedData(), 1))

	require.Equal(t, append(append([]float32{}, row0...), row1...), tensors[0].FloatData)
}

func TestNullableTolerance(t *testing.T) {
	schema := mustSchema(t, avrotest.NewSchemaBuilder().AddNullableDenseField("f0", "int", 0))
	dec := fds.NewDecoder([]fds.DenseMetadata{{Name: "f0", DType: fds.DataTypeInt32, Shape: fds.PartialShape{}, TensorIndex: 0}}, nil, nil)
	require.NoError(t, dec.Initialize(schema))

	tensors := []*tensorsink.DenseTensor{tensorsink.NewDenseTensor(tensorsink.DTypeInt32, nil, 2)}
	buf := fds.NewValueBuffer(0, 0)

	// branch 1 is the non-null carrier (schema is ["null", "int"]).
	nonNull := avrotest.NewEncoder().UnionIndex(1).Int(7).Bytes()
	byteDec := avro.NewBinaryDecoder(bytes.NewReader(nonNull))
	require.NoError(t, dec.DecodeRecord(byteDec, tensors, buf, dec.SkippedData(), 0))
	require.Equal(t, int32(7), tensors[0].Int32Data[0])

	null := avrotest.NewEncoder().UnionIndex(0).Bytes()
	byteDec2 := avro.NewBinaryDecoder(bytes.NewReader(null))
	err := dec.DecodeRecord(byteDec2, tensors, buf, dec.SkippedData(), 1)
	require.Error(t, err)
	var fde *fds.FeatureDecodeError
	require.ErrorAs(t, err, &fde)
	var nve *fds.NullValueError
	require.ErrorAs(t, err, &nve)
	require.Equal(t, "f0", nve.Name)
}

func TestBytesStringEquivalence(t *testing.T) {
	schema := mustSchema(t, avrotest.NewSchemaBuilder().AddDenseField("f0", "bytes", 0))
	dec := fds.NewDecoder([]fds.DenseMetadata{{Name: "f0", DType: fds.DataTypeBytes, Shape: fds.PartialShape{}, TensorIndex: 0}}, nil, nil)
	require.NoError(t, dec.Initialize(schema))

	tensors := []*tensorsink.DenseTensor{tensorsink.NewDenseTensor(tensorsink.DTypeBytes, nil, 1)}
	buf := fds.NewValueBuffer(0, 0)

	wire := avrotest.NewEncoder().String("hello").Bytes()
	byteDec := avro.NewBinaryDecoder(bytes.NewReader(wire))
	require.NoError(t, dec.DecodeRecord(byteDec, tensors, buf, dec.SkippedData(), 0))
	require.Equal(t, []byte("hello"), tensors[0].BytesData[0])
}

func TestMixedRecordWithSkippedColumns(t *testing.T) {
	b := avrotest.NewSchemaBuilder().
		AddDenseField("dense0", "int", 0).
		AddUnusedField("unused0", "string").
		AddSparseFieldOrdered("sparse0", "int", []string{"values", "indices0"}).
		AddUnusedField("unused1", "long").
		AddVarlenField("varlen0", "double", 1).
		AddUnusedField("unused2", "boolean")
	schema := mustSchema(t, b)

	dec := fds.NewDecoder(
		[]fds.DenseMetadata{{Name: "dense0", DType: fds.DataTypeInt32, Shape: fds.PartialShape{}, TensorIndex: 0}},
		[]fds.SparseMetadata{{Name: "sparse0", DType: fds.DataTypeInt32, Shape: fds.PartialShape{-1}, IndicesIndex: 0, ValuesIndex: 0}},
		[]fds.VarlenMetadata{{Name: "varlen0", DType: fds.DataTypeFloat64, Shape: fds.PartialShape{-1}, IndicesIndex: 1, ValuesIndex: 1}},
	)
	require.NoError(t, dec.Initialize(schema))
	require.Len(t, dec.SkippedData(), 3)

	tensors := []*tensorsink.DenseTensor{tensorsink.NewDenseTensor(tensorsink.DTypeInt32, nil, 1)}
	buf := fds.NewValueBuffer(2, 2)

	e := avrotest.NewEncoder()
	e.Int(5)                          // dense0
	e.String("ignored")               // unused0
	e.ArrayBlock(2, func(i int) { e.Int([]int32{1, 2}[i]) })   // sparse0.values
	e.ArrayBlock(2, func(i int) { e.Long([]int64{0, 1}[i]) })  // sparse0.indices0
	e.Long(99)                        // unused1
	e.ArrayBlock(2, func(i int) { e.Double([]float64{1.5, 2.5}[i]) }) // varlen0
	e.Bool(true)                      // unused2

	byteDec := avro.NewBinaryDecoder(bytes.NewReader(e.Bytes()))
	require.NoError(t, dec.DecodeRecord(byteDec, tensors, buf, dec.SkippedData(), 0))

	require.Equal(t, int32(5), tensors[0].Int32Data[0])
	require.Equal(t, []int32{1, 2}, buf.Int32Values[0])
	require.Equal(t, []int64{0, 0, 0, 1}, buf.Indices[0])
	require.Equal(t, []float64{1.5, 2.5}, buf.DoubleValues[1])
	require.Equal(t, []int64{0, 0, 0, 1}, buf.Indices[1])
	require.Len(t, dec.SkippedData(), 3)
}

func TestFeatureNotFound(t *testing.T) {
	schema := mustSchema(t, avrotest.NewSchemaBuilder().AddDenseField("f0", "int", 0))
	dec := fds.NewDecoder([]fds.DenseMetadata{{Name: "missing", DType: fds.DataTypeInt32, TensorIndex: 0}}, nil, nil)
	err := dec.Initialize(schema)
	require.Error(t, err)
	var fe *fds.FeatureNotFoundError
	require.ErrorAs(t, err, &fe)
}

func TestNotRecordRoot(t *testing.T) {
	node, err := avro.ParseSchema([]byte(`"int"`))
	require.NoError(t, err)
	dec := fds.NewDecoder(nil, nil, nil)
	err = dec.Initialize(node)
	require.Error(t, err)
	var nre *fds.NotRecordError
	require.ErrorAs(t, err, &nre)
}
