package avrotest

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Encoder accumulates Avro binary-encoded bytes for a single test record.
// It mirrors the wire format internal/avro.BinaryDecoder reads, so
// fixtures built here round-trip through the real decoder.
type Encoder struct {
	buf bytes.Buffer
}

func NewEncoder() *Encoder { return &Encoder{} }

func (e *Encoder) Bytes() []byte { return e.buf.Bytes() }

func zigzag(v int64) uint64 { return uint64(v<<1) ^ uint64(v>>63) }

func (e *Encoder) Long(v int64) *Encoder {
	u := zigzag(v)
	for u >= 0x80 {
		e.buf.WriteByte(byte(u) | 0x80)
		u >>= 7
	}
	e.buf.WriteByte(byte(u))
	return e
}

func (e *Encoder) Int(v int32) *Encoder { return e.Long(int64(v)) }

func (e *Encoder) Float(v float32) *Encoder {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	e.buf.Write(b[:])
	return e
}

func (e *Encoder) Double(v float64) *Encoder {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	e.buf.Write(b[:])
	return e
}

func (e *Encoder) Bool(v bool) *Encoder {
	if v {
		e.buf.WriteByte(1)
	} else {
		e.buf.WriteByte(0)
	}
	return e
}

func (e *Encoder) Bytes_(v []byte) *Encoder {
	e.Long(int64(len(v)))
	e.buf.Write(v)
	return e
}

func (e *Encoder) String(v string) *Encoder { return e.Bytes_([]byte(v)) }

func (e *Encoder) UnionIndex(idx int) *Encoder { return e.Long(int64(idx)) }

// ArrayBlock writes a single-block array of count elements, invoking emit
// once per element, then the terminating zero-count block. Most test
// fixtures need only one block; ArrayBlocks below supports multi-block
// fixtures for exercising ArrayNext.
func (e *Encoder) ArrayBlock(count int, emit func(i int)) *Encoder {
	return e.ArrayBlocks([]int{count}, emit)
}

// ArrayBlocks writes one block per entry in counts (skipping zero-length
// blocks, which are never emitted on the wire), then the terminator.
func (e *Encoder) ArrayBlocks(counts []int, emit func(i int)) *Encoder {
	emitted := 0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		e.Long(int64(c))
		for i := 0; i < c; i++ {
			emit(emitted)
			emitted++
		}
	}
	e.Long(0)
	return e
}
