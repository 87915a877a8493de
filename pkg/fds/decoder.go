package fds

import (
	"github.com/Meesho/BharatMLStack/fds-decoder/internal/avro"
	"github.com/Meesho/BharatMLStack/fds-decoder/internal/tensorsink"
)

// featureDecoder is bound to exactly one schema column at Initialize
// time. On every record it consumes that column's bytes and writes the
// result into either a destination tensor (dense) or the shared value
// buffer (sparse, varlen) or a generic sink (skipped).
//
// Concrete types (denseDecoder, sparseDecoder, varlenDecoder,
// nullableDecoder, skipDecoder) implement this directly; there is no
// inheritance chain.
type featureDecoder interface {
	Decode(dec avro.Decoder, tensors []*tensorsink.DenseTensor, buf *ValueBuffer, skipped []avro.Datum, rowOffset int) error
}
