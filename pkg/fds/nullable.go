package fds

import (
	"github.com/Meesho/BharatMLStack/fds-decoder/internal/avro"
	"github.com/Meesho/BharatMLStack/fds-decoder/internal/tensorsink"
)

// nullableDecoder wraps any inner decoder for a column whose schema node
// was a nullable union. It is a concrete struct holding the wrapped
// featureDecoder and the carrier branch index directly - one extra
// struct, one extra interface dispatch, no deeper indirection.
type nullableDecoder struct {
	inner        featureDecoder
	nonNullIndex int
	name         string
}

func (n *nullableDecoder) Decode(dec avro.Decoder, tensors []*tensorsink.DenseTensor, buf *ValueBuffer, skipped []avro.Datum, rowOffset int) error {
	idx, err := dec.DecodeUnionIndex()
	if err != nil {
		return &UnderlyingDecodeError{Err: err}
	}
	if idx != n.nonNullIndex {
		return &NullValueError{Name: n.name}
	}
	return n.inner.Decode(dec, tensors, buf, skipped, rowOffset)
}
