package fds_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Meesho/BharatMLStack/fds-decoder/internal/tensorsink"
	"github.com/Meesho/BharatMLStack/fds-decoder/pkg/fds"
)

func TestNewTensorsSizesAndOrdersByTensorIndex(t *testing.T) {
	dense := []fds.DenseMetadata{
		{Name: "b", DType: fds.DataTypeFloat32, Shape: fds.PartialShape{2}, TensorIndex: 1},
		{Name: "a", DType: fds.DataTypeInt32, Shape: fds.PartialShape{}, TensorIndex: 0},
	}
	tensors := fds.NewTensors(dense, 3)
	require.Len(t, tensors, 2)
	require.Equal(t, tensorsink.DTypeInt32, tensors[0].DType)
	require.Len(t, tensors[0].Int32Data, 3)
	require.Equal(t, tensorsink.DTypeFloat32, tensors[1].DType)
	require.Len(t, tensors[1].FloatData, 6)
}

func TestSlotCountsCombinesSparseAndVarlen(t *testing.T) {
	sparse := []fds.SparseMetadata{{Name: "s0", ValuesIndex: 0, IndicesIndex: 1}}
	varlen := []fds.VarlenMetadata{{Name: "v0", ValuesIndex: 2, IndicesIndex: 0}}
	numValues, numIndices := fds.SlotCounts(sparse, varlen)
	require.Equal(t, 3, numValues)
	require.Equal(t, 2, numIndices)
}
