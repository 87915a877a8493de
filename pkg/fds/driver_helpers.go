package fds

import "github.com/Meesho/BharatMLStack/fds-decoder/internal/tensorsink"

// tensorDType maps the core's closed DataType enum onto tensorsink's
// independent DType tag; String and Bytes share tensorsink's one
// variable-length representation.
func tensorDType(dt DataType) tensorsink.DType {
	switch dt {
	case DataTypeInt32:
		return tensorsink.DTypeInt32
	case DataTypeInt64:
		return tensorsink.DTypeInt64
	case DataTypeFloat32:
		return tensorsink.DTypeFloat32
	case DataTypeFloat64:
		return tensorsink.DTypeFloat64
	case DataTypeBool:
		return tensorsink.DTypeBool
	default:
		return tensorsink.DTypeBytes
	}
}

// NewTensors allocates one tensorsink.DenseTensor per declared dense
// column, sized for batchSize rows, indexed by TensorIndex. This is a
// driver convenience, not part of the core decode path: DecodeRecord
// only ever writes into tensors a driver already built.
func NewTensors(dense []DenseMetadata, batchSize int) []*tensorsink.DenseTensor {
	maxIndex := -1
	for _, m := range dense {
		if m.TensorIndex > maxIndex {
			maxIndex = m.TensorIndex
		}
	}
	tensors := make([]*tensorsink.DenseTensor, maxIndex+1)
	for _, m := range dense {
		tensors[m.TensorIndex] = tensorsink.NewDenseTensor(tensorDType(m.DType), []int64(m.Shape), batchSize)
	}
	return tensors
}

// SlotCounts returns the number of per-dtype value-slot groups and
// indices/count slots a ValueBuffer needs to hold every declared
// sparse/varlen column's output.
func SlotCounts(sparse []SparseMetadata, varlen []VarlenMetadata) (numValues, numIndices int) {
	for _, m := range sparse {
		if m.ValuesIndex+1 > numValues {
			numValues = m.ValuesIndex + 1
		}
		if m.IndicesIndex+1 > numIndices {
			numIndices = m.IndicesIndex + 1
		}
	}
	for _, m := range varlen {
		if m.ValuesIndex+1 > numValues {
			numValues = m.ValuesIndex + 1
		}
		if m.IndicesIndex+1 > numIndices {
			numIndices = m.IndicesIndex + 1
		}
	}
	return
}
