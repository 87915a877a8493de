// Package avrotest builds FDS schema JSON and matching wire bytes for
// tests. It has no opinion on dtype semantics beyond the Avro primitive
// names themselves, so it can be shared by pkg/fds tests without creating
// an import cycle back into that package.
package avrotest

import "encoding/json"

type jschema = interface{}

// Field is one record field: a declared name plus its JSON-shaped type.
type Field struct {
	Name string
	Type jschema
}

func Prim(name string) jschema { return name }

func Array(item jschema) jschema {
	return map[string]jschema{"type": "array", "items": item}
}

// NestedArray wraps item in rank levels of array, outermost first.
func NestedArray(rank int, item jschema) jschema {
	s := item
	for i := 0; i < rank; i++ {
		s = Array(s)
	}
	return s
}

func Nullable(inner jschema) jschema {
	return []jschema{"null", inner}
}

func SingleBranchUnion(inner jschema) jschema {
	return []jschema{inner}
}

func Record(name string, fields []Field) jschema {
	fl := make([]map[string]jschema, len(fields))
	for i, f := range fields {
		fl[i] = map[string]jschema{"name": f.Name, "type": f.Type}
	}
	return map[string]jschema{"type": "record", "name": name, "fields": fl}
}

// SchemaBuilder accumulates top-level record fields for a root "fds_record".
type SchemaBuilder struct {
	fields []Field
}

func NewSchemaBuilder() *SchemaBuilder { return &SchemaBuilder{} }

func (b *SchemaBuilder) AddField(name string, typ jschema) *SchemaBuilder {
	b.fields = append(b.fields, Field{Name: name, Type: typ})
	return b
}

func (b *SchemaBuilder) AddDenseField(name, prim string, rank int) *SchemaBuilder {
	return b.AddField(name, NestedArray(rank, Prim(prim)))
}

func (b *SchemaBuilder) AddNullableDenseField(name, prim string, rank int) *SchemaBuilder {
	return b.AddField(name, Nullable(NestedArray(rank, Prim(prim))))
}

// AddSparseFieldOrdered builds a sparse sub-record whose fields appear in
// exactly the given order. Use "values" for the values slot and any
// "indicesK" string for an indices slot.
func (b *SchemaBuilder) AddSparseFieldOrdered(name, valuesPrim string, order []string) *SchemaBuilder {
	fields := make([]Field, len(order))
	for i, fname := range order {
		if fname == "values" {
			fields[i] = Field{Name: "values", Type: Array(Prim(valuesPrim))}
		} else {
			fields[i] = Field{Name: fname, Type: Array(Prim("long"))}
		}
	}
	return b.AddField(name, Record(name+"_sparse", fields))
}

func (b *SchemaBuilder) AddNullableSparseFieldOrdered(name, valuesPrim string, order []string) *SchemaBuilder {
	fields := make([]Field, len(order))
	for i, fname := range order {
		if fname == "values" {
			fields[i] = Field{Name: "values", Type: Array(Prim(valuesPrim))}
		} else {
			fields[i] = Field{Name: fname, Type: Array(Prim("long"))}
		}
	}
	return b.AddField(name, Nullable(Record(name+"_sparse", fields)))
}

func (b *SchemaBuilder) AddVarlenField(name, prim string, rank int) *SchemaBuilder {
	return b.AddDenseField(name, prim, rank)
}

func (b *SchemaBuilder) AddUnusedField(name, prim string) *SchemaBuilder {
	return b.AddField(name, Prim(prim))
}

func (b *SchemaBuilder) JSON() ([]byte, error) {
	root := Record("fds_record", b.fields)
	return json.Marshal(root)
}
