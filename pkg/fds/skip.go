package fds

import (
	"github.com/Meesho/BharatMLStack/fds-decoder/internal/avro"
	"github.com/Meesho/BharatMLStack/fds-decoder/internal/tensorsink"
)

// skipDecoder consumes a column's bytes into a generic destination so
// the byte stream stays aligned for later columns, then discards it: the
// sink slot is overwritten on the next record.
type skipDecoder struct {
	node      *avro.Node
	sinkIndex int
}

func (s *skipDecoder) Decode(dec avro.Decoder, tensors []*tensorsink.DenseTensor, buf *ValueBuffer, skipped []avro.Datum, rowOffset int) error {
	d, err := avro.DecodeDatum(dec, s.node)
	if err != nil {
		return &UnderlyingDecodeError{Err: err}
	}
	skipped[s.sinkIndex] = d
	return nil
}
