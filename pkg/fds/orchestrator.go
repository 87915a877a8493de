package fds

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Meesho/BharatMLStack/fds-decoder/internal/avro"
	"github.com/Meesho/BharatMLStack/fds-decoder/internal/tensorsink"
	"github.com/Meesho/BharatMLStack/fds-decoder/internal/utils"
)

type columnPlan struct {
	kind    FeatureKind
	name    string
	decoder featureDecoder
}

// Decoder holds the ordered slice of feature decoders, one per column in
// the record schema, compiled once at Initialize and then replayed for
// every record in DecodeRecord.
type Decoder struct {
	denseFeatures  []DenseMetadata
	sparseFeatures []SparseMetadata
	varlenFeatures []VarlenMetadata

	plan         []columnPlan
	schema       *avro.Node
	skippedData  []avro.Datum
}

// NewDecoder builds an uninitialized orchestrator for the given declared
// features. Initialize must be called with a schema before DecodeRecord.
func NewDecoder(dense []DenseMetadata, sparse []SparseMetadata, varlen []VarlenMetadata) *Decoder {
	return &Decoder{
		denseFeatures:  dense,
		sparseFeatures: sparse,
		varlenFeatures: varlen,
	}
}

// Initialize binds every declared feature to a position in schema and
// compiles a per-column decoder plan. It is idempotent only if called
// again with a structurally identical schema; a differing schema returns
// SchemaMismatchError and leaves the existing plan untouched.
func (d *Decoder) Initialize(schema *avro.Node) error {
	if d.schema != nil {
		if !schemaEqual(d.schema, schema) {
			return &SchemaMismatchError{Name: "<root>", Expected: d.schema.JSON(), Actual: schema.JSON()}
		}
		return nil
	}
	if schema.Kind != avro.KindRecord {
		return &NotRecordError{Kind: schema.Kind.String(), SchemaText: schema.JSON()}
	}

	plan := make([]columnPlan, schema.LeafCount())
	occupied := make([]bool, len(plan))

	for _, m := range d.denseFeatures {
		pos, err := d.bindDense(schema, m)
		if err != nil {
			return err
		}
		if err := claim(occupied, pos, m.Name); err != nil {
			return err
		}
		decoder, err := d.buildDense(schema, pos, m)
		if err != nil {
			return err
		}
		plan[pos] = columnPlan{kind: FeatureKindDense, name: m.Name, decoder: decoder}
	}
	for _, m := range d.sparseFeatures {
		pos, err := d.bindSparse(schema, m)
		if err != nil {
			return err
		}
		if err := claim(occupied, pos, m.Name); err != nil {
			return err
		}
		decoder, err := d.buildSparse(schema, pos, m)
		if err != nil {
			return err
		}
		plan[pos] = columnPlan{kind: FeatureKindSparse, name: m.Name, decoder: decoder}
	}
	for _, m := range d.varlenFeatures {
		pos, err := d.bindVarlen(schema, m)
		if err != nil {
			return err
		}
		if err := claim(occupied, pos, m.Name); err != nil {
			return err
		}
		decoder, err := d.buildVarlen(schema, pos, m)
		if err != nil {
			return err
		}
		plan[pos] = columnPlan{kind: FeatureKindVarlen, name: m.Name, decoder: decoder}
	}

	var skipped []avro.Datum
	for i := range plan {
		if occupied[i] {
			continue
		}
		node := schema.LeafAt(i)
		idx := len(skipped)
		skipped = append(skipped, avro.Datum{})
		fname := schema.FieldName(i)
		plan[i] = columnPlan{kind: FeatureKindSkipped, name: fname, decoder: &skipDecoder{node: node, sinkIndex: idx}}
		if fname != "" {
			log.Warn().Msgf("column %q is not a declared feature; parsing an unused column is not free, consider dropping it from the schema", fname)
		}
	}

	d.plan = plan
	d.schema = schema
	d.skippedData = skipped
	return nil
}

func claim(occupied []bool, pos int, name string) error {
	if occupied[pos] {
		return &SchemaMismatchError{Name: name, Expected: "a column position not already claimed by another declared feature", Actual: fmt.Sprintf("position %d already bound", pos)}
	}
	occupied[pos] = true
	return nil
}

// resolveCarrier unwraps a feature's schema node through its union shape
// (if any), returning the non-null carrier node plus the union branch
// index that is not null. nullable is false when the node was not a
// union at all.
func resolveCarrier(node *avro.Node, name string) (carrier *avro.Node, nonNullIndex int, nullable bool, err error) {
	if node.Kind != avro.KindUnion {
		return node, 0, false, nil
	}
	switch len(node.Leaves) {
	case 1:
		return node.Leaves[0], 0, true, nil
	case 2:
		a, b := node.Leaves[0], node.Leaves[1]
		if a.Kind == avro.KindNull && b.Kind != avro.KindNull {
			return b, 1, true, nil
		}
		if b.Kind == avro.KindNull && a.Kind != avro.KindNull {
			return a, 0, true, nil
		}
		return nil, 0, false, &InvalidUnionTypeError{Name: name, NodeJSON: node.JSON()}
	default:
		return nil, 0, false, &InvalidUnionTypeError{Name: name, NodeJSON: node.JSON()}
	}
}

func unwrapArrays(node *avro.Node, rank int) (*avro.Node, error) {
	cur := node
	for i := 0; i < rank; i++ {
		if cur.Kind != avro.KindArray {
			return nil, fmt.Errorf("expected array at nesting level %d, got %s", i, cur.Kind)
		}
		cur = cur.Leaves[0]
	}
	return cur, nil
}

func primitiveMatches(k avro.Kind, dt DataType) bool {
	switch dt {
	case DataTypeInt32:
		return k == avro.KindInt
	case DataTypeInt64:
		return k == avro.KindLong
	case DataTypeFloat32:
		return k == avro.KindFloat
	case DataTypeFloat64:
		return k == avro.KindDouble
	case DataTypeBool:
		return k == avro.KindBool
	case DataTypeString, DataTypeBytes:
		return k == avro.KindString || k == avro.KindBytes
	default:
		return false
	}
}

func (d *Decoder) bindDense(schema *avro.Node, m DenseMetadata) (int, error) {
	pos, ok := schema.NameIndex(m.Name)
	if !ok {
		return 0, &FeatureNotFoundError{Name: m.Name, SchemaText: schema.JSON()}
	}
	return pos, nil
}

func (d *Decoder) buildDense(schema *avro.Node, pos int, m DenseMetadata) (featureDecoder, error) {
	featureNode := schema.LeafAt(pos)
	carrier, nonNullIdx, nullable, err := resolveCarrier(featureNode, m.Name)
	if err != nil {
		return nil, err
	}
	rank := m.Shape.Rank()
	prim, err := unwrapArrays(carrier, rank)
	if err != nil {
		return nil, &SchemaMismatchError{Name: m.Name, Expected: fmt.Sprintf("rank-%d array of %s", rank, m.DType), Actual: carrier.JSON()}
	}
	if !primitiveMatches(prim.Kind, m.DType) {
		return nil, &SchemaMismatchError{Name: m.Name, Expected: m.DType.String(), Actual: prim.Kind.String()}
	}
	flatSize, known := m.Shape.KnownSize()
	if !known {
		return nil, &SchemaMismatchError{Name: m.Name, Expected: "a fully-known dense shape", Actual: m.Shape.String()}
	}
	inner := &denseDecoder{dtype: m.DType, tensorIndex: m.TensorIndex, rank: rank, flatSize: flatSize}
	if nullable {
		return &nullableDecoder{inner: inner, nonNullIndex: nonNullIdx, name: m.Name}, nil
	}
	return inner, nil
}

func (d *Decoder) bindVarlen(schema *avro.Node, m VarlenMetadata) (int, error) {
	pos, ok := schema.NameIndex(m.Name)
	if !ok {
		return 0, &FeatureNotFoundError{Name: m.Name, SchemaText: schema.JSON()}
	}
	return pos, nil
}

func (d *Decoder) buildVarlen(schema *avro.Node, pos int, m VarlenMetadata) (featureDecoder, error) {
	featureNode := schema.LeafAt(pos)
	carrier, nonNullIdx, nullable, err := resolveCarrier(featureNode, m.Name)
	if err != nil {
		return nil, err
	}
	rank := m.Shape.Rank()
	prim, err := unwrapArrays(carrier, rank)
	if err != nil {
		return nil, &SchemaMismatchError{Name: m.Name, Expected: fmt.Sprintf("rank-%d array of %s", rank, m.DType), Actual: carrier.JSON()}
	}
	if !primitiveMatches(prim.Kind, m.DType) {
		return nil, &SchemaMismatchError{Name: m.Name, Expected: m.DType.String(), Actual: prim.Kind.String()}
	}
	inner := &varlenDecoder{dtype: m.DType, rank: rank, indicesIndex: m.IndicesIndex, valuesIndex: m.ValuesIndex}
	if nullable {
		return &nullableDecoder{inner: inner, nonNullIndex: nonNullIdx, name: m.Name}, nil
	}
	return inner, nil
}

func (d *Decoder) bindSparse(schema *avro.Node, m SparseMetadata) (int, error) {
	pos, ok := schema.NameIndex(m.Name)
	if !ok {
		return 0, &FeatureNotFoundError{Name: m.Name, SchemaText: schema.JSON()}
	}
	return pos, nil
}

func (d *Decoder) buildSparse(schema *avro.Node, pos int, m SparseMetadata) (featureDecoder, error) {
	featureNode := schema.LeafAt(pos)
	carrier, nonNullIdx, nullable, err := resolveCarrier(featureNode, m.Name)
	if err != nil {
		return nil, err
	}
	rank := m.Shape.Rank()
	if carrier.Kind != avro.KindRecord || carrier.LeafCount() != rank+1 {
		return nil, &SchemaMismatchError{Name: m.Name, Expected: fmt.Sprintf("sparse record with %d fields", rank+1), Actual: carrier.JSON()}
	}

	internal := make([]sparseInternalDecoder, 0, rank+1)
	seenValues := false
	seenDims := make(utils.Set[int])
	rankAfterBatch := rank + 1
	for j := 0; j < carrier.LeafCount(); j++ {
		fname := carrier.FieldName(j)
		leaf := carrier.LeafAt(j)
		if fname == "values" {
			prim, err := unwrapArrays(leaf, 1)
			if err != nil || !primitiveMatches(prim.Kind, m.DType) {
				return nil, &SchemaMismatchError{Name: m.Name, Expected: "a 1-D array of " + m.DType.String(), Actual: leaf.JSON()}
			}
			internal = append(internal, &valuesInternalDecoder{dtype: m.DType, valuesIndex: m.ValuesIndex})
			seenValues = true
			continue
		}
		if !strings.HasPrefix(fname, "indices") {
			return nil, &SchemaMismatchError{Name: m.Name, Expected: `a "values" or "indicesK" field`, Actual: fname}
		}
		k, err := strconv.Atoi(strings.TrimPrefix(fname, "indices"))
		if err != nil {
			return nil, &SchemaMismatchError{Name: m.Name, Expected: `"indicesK" with a decimal K`, Actual: fname}
		}
		prim, err := unwrapArrays(leaf, 1)
		if err != nil || prim.Kind != avro.KindLong {
			return nil, &SchemaMismatchError{Name: m.Name, Expected: "a 1-D array of long", Actual: leaf.JSON()}
		}
		seenDims.Add(k)
		internal = append(internal, &indicesInternalDecoder{indicesIndex: m.IndicesIndex, dim: k + 1, rankAfterBatch: rankAfterBatch})
	}
	if !seenValues {
		return nil, &SchemaMismatchError{Name: m.Name, Expected: `a "values" field`, Actual: carrier.JSON()}
	}
	// the indicesK suffixes must form exactly {0, ..., rank-1}: a gap or
	// duplicate would leave a coordinate dimension unwritten or
	// overwritten, silently corrupting every row in the batch.
	if len(seenDims) != rank {
		return nil, &SchemaMismatchError{Name: m.Name, Expected: fmt.Sprintf("indices0..indices%d covering every dimension exactly once", rank-1), Actual: carrier.JSON()}
	}
	for k := 0; k < rank; k++ {
		if !seenDims.Has(k) {
			return nil, &SchemaMismatchError{Name: m.Name, Expected: fmt.Sprintf("indices%d present", k), Actual: carrier.JSON()}
		}
	}

	inner := &sparseDecoder{internal: internal, indicesIndex: m.IndicesIndex}
	if nullable {
		return &nullableDecoder{inner: inner, nonNullIndex: nonNullIdx, name: m.Name}, nil
	}
	return inner, nil
}

// DecodeRecord runs every column decoder, in schema order, against dec.
// On the first column failure it stops, annotates the error with the
// column name, and returns; it does not itself attempt to resynchronize
// the stream or unwind partial writes.
func (d *Decoder) DecodeRecord(dec avro.Decoder, tensors []*tensorsink.DenseTensor, buf *ValueBuffer, skipped []avro.Datum, rowOffset int) error {
	for i := range d.plan {
		if err := d.plan[i].decoder.Decode(dec, tensors, buf, skipped, rowOffset); err != nil {
			return &FeatureDecodeError{Name: d.plan[i].name, Err: err}
		}
	}
	return nil
}

// SkippedData returns the decoder's generic-datum sink, sized at
// Initialize time to the number of unused schema columns. Its contents
// are overwritten every DecodeRecord call; it is exposed mainly so tests
// can assert on skipped-column counts and values.
func (d *Decoder) SkippedData() []avro.Datum { return d.skippedData }

// Schema returns the schema this decoder was initialized against.
func (d *Decoder) Schema() *avro.Node { return d.schema }

func schemaEqual(a, b *avro.Node) bool {
	if a.Kind != b.Kind {
		return false
	}
	if len(a.Leaves) != len(b.Leaves) {
		return false
	}
	for i := range a.Leaves {
		if a.FieldName(i) != b.FieldName(i) {
			return false
		}
		if !schemaEqual(a.Leaves[i], b.Leaves[i]) {
			return false
		}
	}
	return true
}
