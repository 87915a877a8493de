package avro

import "fmt"

// Datum is a generic, schema-shaped decode destination. It exists for one
// reason: a column the caller did not declare must still be fully
// consumed from the wire so later columns stay aligned, but its value has
// nowhere typed to go. DecodeDatum walks the node tree and fills one of
// these, mirroring the shape of whatever primitive/array/union/record it
// was pointed at.
type Datum struct {
	Kind   Kind
	Scalar interface{} // set for Int/Long/Float/Double/Bool/String/Bytes
	Items  []Datum     // set for Array, and holds exactly one entry for Union
	Branch int         // set for Union: the decoded branch index
	Fields []Datum     // set for Record, one per leaf in schema order
}

// DecodeDatum decodes one value of shape node from dec, discarding nothing
// and performing no dtype validation: the generic sink has no declared
// dtype to validate against.
func DecodeDatum(dec Decoder, node *Node) (Datum, error) {
	switch node.Kind {
	case KindNull:
		return Datum{Kind: KindNull}, nil
	case KindInt:
		v, err := dec.DecodeInt()
		if err != nil {
			return Datum{}, err
		}
		return Datum{Kind: KindInt, Scalar: v}, nil
	case KindLong:
		v, err := dec.DecodeLong()
		if err != nil {
			return Datum{}, err
		}
		return Datum{Kind: KindLong, Scalar: v}, nil
	case KindFloat:
		v, err := dec.DecodeFloat()
		if err != nil {
			return Datum{}, err
		}
		return Datum{Kind: KindFloat, Scalar: v}, nil
	case KindDouble:
		v, err := dec.DecodeDouble()
		if err != nil {
			return Datum{}, err
		}
		return Datum{Kind: KindDouble, Scalar: v}, nil
	case KindBool:
		v, err := dec.DecodeBool()
		if err != nil {
			return Datum{}, err
		}
		return Datum{Kind: KindBool, Scalar: v}, nil
	case KindString, KindBytes:
		v, err := dec.DecodeString()
		if err != nil {
			return Datum{}, err
		}
		return Datum{Kind: node.Kind, Scalar: v}, nil
	case KindArray:
		return decodeArrayDatum(dec, node)
	case KindUnion:
		return decodeUnionDatum(dec, node)
	case KindRecord:
		return decodeRecordDatum(dec, node)
	default:
		return Datum{}, fmt.Errorf("avro: cannot decode generic datum of kind %s", node.Kind)
	}
}

func decodeArrayDatum(dec Decoder, node *Node) (Datum, error) {
	var items []Datum
	m, err := dec.ArrayStart()
	if err != nil {
		return Datum{}, err
	}
	for m != 0 {
		for i := int64(0); i < m; i++ {
			item, err := DecodeDatum(dec, node.Leaves[0])
			if err != nil {
				return Datum{}, err
			}
			items = append(items, item)
		}
		m, err = dec.ArrayNext()
		if err != nil {
			return Datum{}, err
		}
	}
	return Datum{Kind: KindArray, Items: items}, nil
}

func decodeUnionDatum(dec Decoder, node *Node) (Datum, error) {
	idx, err := dec.DecodeUnionIndex()
	if err != nil {
		return Datum{}, err
	}
	if idx < 0 || idx >= len(node.Leaves) {
		return Datum{}, fmt.Errorf("avro: union branch %d out of range [0,%d)", idx, len(node.Leaves))
	}
	inner, err := DecodeDatum(dec, node.Leaves[idx])
	if err != nil {
		return Datum{}, err
	}
	return Datum{Kind: KindUnion, Branch: idx, Items: []Datum{inner}}, nil
}

func decodeRecordDatum(dec Decoder, node *Node) (Datum, error) {
	fields := make([]Datum, len(node.Leaves))
	for i, leaf := range node.Leaves {
		f, err := DecodeDatum(dec, leaf)
		if err != nil {
			return Datum{}, err
		}
		fields[i] = f
	}
	return Datum{Kind: KindRecord, Fields: fields}, nil
}
