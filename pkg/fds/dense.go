package fds

import (
	"fmt"

	"github.com/Meesho/BharatMLStack/fds-decoder/internal/avro"
	"github.com/Meesho/BharatMLStack/fds-decoder/internal/tensorsink"
)

// denseDecoder writes a dense column's elements directly into its
// destination tensor's flat backing slice.
type denseDecoder struct {
	dtype       DataType
	tensorIndex int
	rank        int
	flatSize    int64 // product of the declared shape; 1 for a scalar
}

func (d *denseDecoder) Decode(dec avro.Decoder, tensors []*tensorsink.DenseTensor, buf *ValueBuffer, skipped []avro.Datum, rowOffset int) error {
	t := tensors[d.tensorIndex]
	start := int64(rowOffset) * d.flatSize
	pos := start
	n, err := decodeDenseLevel(dec, d.dtype, d.rank, t, &pos, start+d.flatSize)
	if err != nil {
		return err
	}
	if n != d.flatSize {
		return &SchemaMismatchError{Name: "<dense>", Expected: fmt.Sprintf("%d elements", d.flatSize), Actual: fmt.Sprintf("%d elements", n)}
	}
	return nil
}

// decodeDenseLevel recursively traverses depth nested array levels,
// writing a leaf primitive at *pos (and advancing it) once depth reaches
// zero. It returns the number of leaves written; a leaf that would land
// at or beyond end (the end of this row's slice) is an error, so a row
// never writes into the next row's elements.
func decodeDenseLevel(dec avro.Decoder, dtype DataType, depth int, t *tensorsink.DenseTensor, pos *int64, end int64) (int64, error) {
	if depth == 0 {
		if *pos >= end {
			return 0, &SchemaMismatchError{Name: "<dense>", Expected: "no more elements than the declared shape", Actual: "extra elements"}
		}
		if err := writeDenseScalar(dec, dtype, t, *pos); err != nil {
			return 0, err
		}
		*pos++
		return 1, nil
	}
	var total int64
	m, err := dec.ArrayStart()
	if err != nil {
		return 0, err
	}
	for m != 0 {
		for i := int64(0); i < m; i++ {
			n, err := decodeDenseLevel(dec, dtype, depth-1, t, pos, end)
			if err != nil {
				return 0, err
			}
			total += n
		}
		m, err = dec.ArrayNext()
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

func writeDenseScalar(dec avro.Decoder, dtype DataType, t *tensorsink.DenseTensor, pos int64) error {
	switch dtype {
	case DataTypeInt32:
		v, err := dec.DecodeInt()
		if err != nil {
			return err
		}
		t.SetInt32(pos, v)
	case DataTypeInt64:
		v, err := dec.DecodeLong()
		if err != nil {
			return err
		}
		t.SetInt64(pos, v)
	case DataTypeFloat32:
		v, err := dec.DecodeFloat()
		if err != nil {
			return err
		}
		t.SetFloat32(pos, v)
	case DataTypeFloat64:
		v, err := dec.DecodeDouble()
		if err != nil {
			return err
		}
		t.SetFloat64(pos, v)
	case DataTypeBool:
		v, err := dec.DecodeBool()
		if err != nil {
			return err
		}
		t.SetBool(pos, v)
	case DataTypeString, DataTypeBytes:
		v, err := dec.DecodeString()
		if err != nil {
			return err
		}
		t.SetBytes(pos, v)
	default:
		return &SchemaMismatchError{Name: "<dense>", Expected: "a supported dtype", Actual: dtype.String()}
	}
	return nil
}
