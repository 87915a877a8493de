package fds

import (
	"github.com/Meesho/BharatMLStack/fds-decoder/internal/avro"
	"github.com/Meesho/BharatMLStack/fds-decoder/internal/tensorsink"
)

// varlenDecoder is wire-identical to a dense nested array of rank r, but
// materializes as a sparse column whose coordinates are the tuple of
// nested positions reached while traversing the array. An empty inner
// array produces no elements and no rows.
type varlenDecoder struct {
	dtype        DataType
	rank         int
	indicesIndex int
	valuesIndex  int
}

func (v *varlenDecoder) Decode(dec avro.Decoder, tensors []*tensorsink.DenseTensor, buf *ValueBuffer, skipped []avro.Datum, rowOffset int) error {
	rankAfterBatch := v.rank + 1
	pos := make([]int64, v.rank)
	count := 0

	var walk func(depth int) error
	walk = func(depth int) error {
		if depth == v.rank {
			if err := appendValue(buf, v.dtype, v.valuesIndex, dec); err != nil {
				return err
			}
			row := make([]int64, rankAfterBatch)
			row[0] = int64(rowOffset)
			copy(row[1:], pos)
			buf.Indices[v.indicesIndex] = append(buf.Indices[v.indicesIndex], row...)
			count++
			return nil
		}
		m, err := dec.ArrayStart()
		if err != nil {
			return err
		}
		for m != 0 {
			for i := int64(0); i < m; i++ {
				pos[depth] = i
				if err := walk(depth + 1); err != nil {
					return err
				}
			}
			m, err = dec.ArrayNext()
			if err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(0); err != nil {
		return err
	}
	buf.NumOfElements[v.indicesIndex] += count
	return nil
}
