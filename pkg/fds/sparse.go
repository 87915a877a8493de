package fds

import (
	"fmt"

	"github.com/Meesho/BharatMLStack/fds-decoder/internal/avro"
	"github.com/Meesho/BharatMLStack/fds-decoder/internal/tensorsink"
)

// sparseInternalDecoder is one field of a sparse sub-record: either the
// single "values" field or one of the r "indicesK" fields. Because field
// order is schema-driven and only known at Initialize time, Initialize
// compiles an ordered slice of these matching schema position;
// DecodeRecord never dispatches by field name again.
type sparseInternalDecoder interface {
	decode(dec avro.Decoder, buf *ValueBuffer, indicesStart, rowOffset int) (int, error)
}

type valuesInternalDecoder struct {
	dtype       DataType
	valuesIndex int
}

func (v *valuesInternalDecoder) decode(dec avro.Decoder, buf *ValueBuffer, indicesStart, rowOffset int) (int, error) {
	count := 0
	m, err := dec.ArrayStart()
	if err != nil {
		return 0, err
	}
	for m != 0 {
		for i := int64(0); i < m; i++ {
			if err := appendValue(buf, v.dtype, v.valuesIndex, dec); err != nil {
				return 0, err
			}
		}
		count += int(m)
		m, err = dec.ArrayNext()
		if err != nil {
			return 0, err
		}
	}
	return count, nil
}

// indicesInternalDecoder reads one "indicesK" field: a 1-D array of longs
// that fill logical dimension dim (1..rank, since dimension 0 is the
// batch row) of every coordinate row for this record.
type indicesInternalDecoder struct {
	indicesIndex   int
	dim            int
	rankAfterBatch int
}

func (x *indicesInternalDecoder) decode(dec avro.Decoder, buf *ValueBuffer, indicesStart, rowOffset int) (int, error) {
	count := 0
	pos := indicesStart + x.dim
	m, err := dec.ArrayStart()
	if err != nil {
		return 0, err
	}
	for m != 0 {
		end := indicesStart + (count+int(m))*x.rankAfterBatch
		ensureIndicesRows(buf, x.indicesIndex, end, x.rankAfterBatch, rowOffset)
		for i := int64(0); i < m; i++ {
			val, err := dec.DecodeLong()
			if err != nil {
				return 0, err
			}
			buf.Indices[x.indicesIndex][pos] = val
			pos += x.rankAfterBatch
		}
		count += int(m)
		m, err = dec.ArrayNext()
		if err != nil {
			return 0, err
		}
	}
	return count, nil
}

// sparseDecoder runs every internal decoder of a sparse column in schema
// order, checks that every field of the record carried the same number of
// elements, then updates the column's running element count once.
type sparseDecoder struct {
	internal     []sparseInternalDecoder
	indicesIndex int
}

func (s *sparseDecoder) Decode(dec avro.Decoder, tensors []*tensorsink.DenseTensor, buf *ValueBuffer, skipped []avro.Datum, rowOffset int) error {
	indicesStart := len(buf.Indices[s.indicesIndex])
	count := 0
	firstN := 0
	for i, id := range s.internal {
		n, err := id.decode(dec, buf, indicesStart, rowOffset)
		if err != nil {
			return err
		}
		if i == 0 {
			firstN = n
		} else if n != firstN {
			return &SchemaMismatchError{Name: "<sparse>", Expected: fmt.Sprintf("%d elements in every field", firstN), Actual: fmt.Sprintf("%d elements", n)}
		}
		if _, ok := id.(*valuesInternalDecoder); ok {
			count = n
		}
	}
	buf.NumOfElements[s.indicesIndex] += count
	return nil
}
