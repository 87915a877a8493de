package avro

// Kind tags the shape of a schema node. The FDS dialect only ever produces
// these eleven kinds; anything else fails to parse in ParseSchema.
type Kind int

const (
	KindRecord Kind = iota
	KindArray
	KindUnion
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindBool
	KindString
	KindBytes
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindRecord:
		return "record"
	case KindArray:
		return "array"
	case KindUnion:
		return "union"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindBool:
		return "boolean"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindNull:
		return "null"
	default:
		return "unknown"
	}
}

var primitiveKinds = map[string]Kind{
	"int":     KindInt,
	"long":    KindLong,
	"float":   KindFloat,
	"double":  KindDouble,
	"boolean": KindBool,
	"string":  KindString,
	"bytes":   KindBytes,
	"null":    KindNull,
}
