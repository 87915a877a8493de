// Package tensorsink gives the core decoder's dense writes an observable,
// testable destination and an optional Apache Arrow export path. It owns
// no decoding logic; pkg/fds writes flat elements into a DenseTensor at
// offsets it computes, and a driver decides when (and whether) to call
// ToArrow.
package tensorsink

import (
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// DType is tensorsink's own primitive tag, kept independent of pkg/fds's
// DataType so this package never needs to import the core (the core
// imports this package, not the other way around).
type DType int

const (
	DTypeInt32 DType = iota
	DTypeInt64
	DTypeFloat32
	DTypeFloat64
	DTypeBool
	DTypeBytes
)

// DenseTensor is a flat, pre-sized destination for one dense column
// across a batch. Shape is the per-row shape (rank entries, all
// known); the backing slice has length BatchSize * product(Shape).
type DenseTensor struct {
	DType     DType
	Shape     []int64
	BatchSize int

	Int32Data  []int32
	Int64Data  []int64
	FloatData  []float32
	DoubleData []float64
	BoolData   []bool
	BytesData  [][]byte
}

// NewDenseTensor allocates a tensor sized for batchSize rows of the given
// per-row shape. flatSize is batchSize * product(shape); for a scalar
// column pass an empty shape (product is 1).
func NewDenseTensor(dtype DType, shape []int64, batchSize int) *DenseTensor {
	flat := int64(batchSize)
	for _, d := range shape {
		flat *= d
	}
	t := &DenseTensor{DType: dtype, Shape: shape, BatchSize: batchSize}
	switch dtype {
	case DTypeInt32:
		t.Int32Data = make([]int32, flat)
	case DTypeInt64:
		t.Int64Data = make([]int64, flat)
	case DTypeFloat32:
		t.FloatData = make([]float32, flat)
	case DTypeFloat64:
		t.DoubleData = make([]float64, flat)
	case DTypeBool:
		t.BoolData = make([]bool, flat)
	case DTypeBytes:
		t.BytesData = make([][]byte, flat)
	}
	return t
}

func (t *DenseTensor) SetInt32(pos int64, v int32)    { t.Int32Data[pos] = v }
func (t *DenseTensor) SetInt64(pos int64, v int64)    { t.Int64Data[pos] = v }
func (t *DenseTensor) SetFloat32(pos int64, v float32) { t.FloatData[pos] = v }
func (t *DenseTensor) SetFloat64(pos int64, v float64) { t.DoubleData[pos] = v }
func (t *DenseTensor) SetBool(pos int64, v bool)       { t.BoolData[pos] = v }
func (t *DenseTensor) SetBytes(pos int64, v []byte)    { t.BytesData[pos] = v }

// ToArrow copies the flat buffer into an arrow.Array via the matching
// array.Builder. Driver-triggered only, at batch flush; the core decoder
// never calls this.
func (t *DenseTensor) ToArrow(mem memory.Allocator) (arrow.Array, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	switch t.DType {
	case DTypeInt32:
		b := array.NewInt32Builder(mem)
		defer b.Release()
		b.AppendValues(t.Int32Data, nil)
		return b.NewArray(), nil
	case DTypeInt64:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		b.AppendValues(t.Int64Data, nil)
		return b.NewArray(), nil
	case DTypeFloat32:
		b := array.NewFloat32Builder(mem)
		defer b.Release()
		b.AppendValues(t.FloatData, nil)
		return b.NewArray(), nil
	case DTypeFloat64:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		b.AppendValues(t.DoubleData, nil)
		return b.NewArray(), nil
	case DTypeBool:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		b.AppendValues(t.BoolData, nil)
		return b.NewArray(), nil
	case DTypeBytes:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		for _, v := range t.BytesData {
			b.Append(string(v))
		}
		return b.NewArray(), nil
	default:
		return nil, fmt.Errorf("tensorsink: unsupported dtype %d", t.DType)
	}
}
