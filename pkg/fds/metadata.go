package fds

// DenseMetadata declares a column that should materialize as a dense
// tensor. TensorIndex identifies the destination tensor in the driver's
// tensor slice. Rank 0 (an empty Shape) means a scalar column. All
// dimensions are expected to be fixed; Initialize rejects an unknown
// dimension with SchemaMismatchError.
type DenseMetadata struct {
	Name        string
	DType       DataType
	Shape       PartialShape
	TensorIndex int
}

// SparseMetadata declares a column that should materialize as a
// coordinate-list (COO) sparse tensor. IndicesIndex selects the buffer
// slot that receives coordinate rows; ValuesIndex selects the per-dtype
// value slot. Two sparse columns may share a ValuesIndex only if they
// have identical dtype and the caller intends the aggregation.
type SparseMetadata struct {
	Name         string
	DType        DataType
	Shape        PartialShape // rank >= 1
	IndicesIndex int
	ValuesIndex  int
}

// VarlenMetadata declares a column that is wire-identical to a dense
// nested array but whose element counts are not fixed; it materializes
// like a sparse column whose coordinates are derived from nested-array
// traversal order. TensorIndex is retained only for symmetry with dense
// metadata and is never consulted by the varlen decoder.
type VarlenMetadata struct {
	Name         string
	DType        DataType
	Shape        PartialShape
	TensorIndex  int
	IndicesIndex int
	ValuesIndex  int
}
