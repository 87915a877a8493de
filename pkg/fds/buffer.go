package fds

import "github.com/Meesho/BharatMLStack/fds-decoder/internal/avro"

// ValueBuffer is the process-local scratch area that accumulates
// sparse/ragged output across records within a batch. It holds one
// per-dtype value slot group, indexed by ValuesIndex, and one indices/
// count slot group, indexed by IndicesIndex.
//
// Invariant: for a column c with rank r, after decoding k records,
// len(Indices[c]) == (r+1) * sum of elements written for c across those
// k records; column 0 of every (r+1)-tuple is the batch row index at the
// time the element was written. NumOfElements[c] tracks that running sum
// directly.
type ValueBuffer struct {
	BoolValues   [][]bool
	Int32Values  [][]int32
	Int64Values  [][]int64
	FloatValues  [][]float32
	DoubleValues [][]float64
	StringValues [][][]byte

	Indices       [][]int64
	NumOfElements []int
}

// NewValueBuffer allocates a buffer with numValuesSlots value slots
// (indexed by ValuesIndex) and numIndicesSlots indices/count slots
// (indexed by IndicesIndex).
func NewValueBuffer(numValuesSlots, numIndicesSlots int) *ValueBuffer {
	return &ValueBuffer{
		BoolValues:    make([][]bool, numValuesSlots),
		Int32Values:   make([][]int32, numValuesSlots),
		Int64Values:   make([][]int64, numValuesSlots),
		FloatValues:   make([][]float32, numValuesSlots),
		DoubleValues:  make([][]float64, numValuesSlots),
		StringValues:  make([][][]byte, numValuesSlots),
		Indices:       make([][]int64, numIndicesSlots),
		NumOfElements: make([]int, numIndicesSlots),
	}
}

func appendValue(buf *ValueBuffer, dtype DataType, idx int, dec avro.Decoder) error {
	switch dtype {
	case DataTypeInt32:
		v, err := dec.DecodeInt()
		if err != nil {
			return err
		}
		buf.Int32Values[idx] = append(buf.Int32Values[idx], v)
	case DataTypeInt64:
		v, err := dec.DecodeLong()
		if err != nil {
			return err
		}
		buf.Int64Values[idx] = append(buf.Int64Values[idx], v)
	case DataTypeFloat32:
		v, err := dec.DecodeFloat()
		if err != nil {
			return err
		}
		buf.FloatValues[idx] = append(buf.FloatValues[idx], v)
	case DataTypeFloat64:
		v, err := dec.DecodeDouble()
		if err != nil {
			return err
		}
		buf.DoubleValues[idx] = append(buf.DoubleValues[idx], v)
	case DataTypeBool:
		v, err := dec.DecodeBool()
		if err != nil {
			return err
		}
		buf.BoolValues[idx] = append(buf.BoolValues[idx], v)
	case DataTypeString, DataTypeBytes:
		v, err := dec.DecodeString()
		if err != nil {
			return err
		}
		buf.StringValues[idx] = append(buf.StringValues[idx], v)
	default:
		return &SchemaMismatchError{Name: "<values>", Expected: "a supported dtype", Actual: dtype.String()}
	}
	return nil
}

// ensureIndicesRows grows buf.Indices[idx] to newLen (a multiple of
// rankAfterBatch), pre-filling column 0 of every newly appended row with
// rowOffset. Growth doubles capacity, mirroring the teacher's
// append(slice, make([]byte, n)...) idiom for buffers that grow across a
// batch rather than being resized per element.
func ensureIndicesRows(buf *ValueBuffer, idx, newLen, rankAfterBatch, rowOffset int) {
	v := buf.Indices[idx]
	oldLen := len(v)
	if newLen <= oldLen {
		return
	}
	if cap(v) < newLen {
		newCap := cap(v) * 2
		if newCap < newLen {
			newCap = newLen
		}
		nv := make([]int64, oldLen, newCap)
		copy(nv, v)
		v = nv
	}
	v = v[:newLen]
	for i := oldLen; i < newLen; i += rankAfterBatch {
		v[i] = int64(rowOffset)
	}
	buf.Indices[idx] = v
}
