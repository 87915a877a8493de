// Package fds implements the core of a columnar feature decoder: binding
// a user-declared set of dense/sparse/varlen columns to positions in an
// Avro-binary-encoded record schema, then executing that binding,
// record by record, against a byte-stream decoder.
package fds

import "fmt"

// FeatureKind tags how a schema column is materialized.
type FeatureKind int

const (
	// FeatureKindSkipped is never declared by a caller; it is the default
	// assigned to every schema column not matched by a declared feature.
	FeatureKindSkipped FeatureKind = iota
	FeatureKindDense
	FeatureKindSparse
	FeatureKindVarlen
)

func (k FeatureKind) String() string {
	switch k {
	case FeatureKindDense:
		return "dense"
	case FeatureKindSparse:
		return "sparse"
	case FeatureKindVarlen:
		return "varlen"
	default:
		return "skipped"
	}
}

// DataType is the closed set of primitive types a declared feature may
// carry. Bytes and String share the same on-wire read path (a length
// prefix followed by raw bytes); they are distinguished only by intent.
type DataType int

const (
	DataTypeInt32 DataType = iota
	DataTypeInt64
	DataTypeFloat32
	DataTypeFloat64
	DataTypeBool
	DataTypeString
	DataTypeBytes
)

func (d DataType) String() string {
	switch d {
	case DataTypeInt32:
		return "int32"
	case DataTypeInt64:
		return "int64"
	case DataTypeFloat32:
		return "float32"
	case DataTypeFloat64:
		return "float64"
	case DataTypeBool:
		return "bool"
	case DataTypeString:
		return "string"
	case DataTypeBytes:
		return "bytes"
	default:
		return fmt.Sprintf("DataType(%d)", int(d))
	}
}

// PartialShape is an ordered sequence of dimension sizes. A dimension of
// -1 means "unknown"; rank is simply the sequence length.
type PartialShape []int64

func (s PartialShape) Rank() int { return len(s) }

// KnownSize returns the product of all dimensions, and false if any
// dimension is unknown (-1).
func (s PartialShape) KnownSize() (int64, bool) {
	total := int64(1)
	for _, d := range s {
		if d < 0 {
			return 0, false
		}
		total *= d
	}
	return total, true
}

func (s PartialShape) String() string {
	out := "["
	for i, d := range s {
		if i > 0 {
			out += ","
		}
		if d < 0 {
			out += "?"
		} else {
			out += fmt.Sprintf("%d", d)
		}
	}
	return out + "]"
}
