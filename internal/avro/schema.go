package avro

import (
	"encoding/json"
	"fmt"
)

// Node is one node of a parsed FDS schema tree. Record nodes carry a
// name->position index so callers can resolve a declared feature name to
// its column position in O(1); every other node is only ever addressed
// positionally through its parent's Leaves.
//
// Name is the node's own type name (meaningful only for named types such
// as the root record or a sparse sub-record); it is distinct from the
// declared field name under a parent record, which lives in the parent's
// fieldNames slice and is fetched through FieldName.
type Node struct {
	Kind   Kind
	Name   string
	Leaves []*Node

	fieldNames []string
	byName     map[string]int
}

func (n *Node) LeafCount() int { return len(n.Leaves) }

func (n *Node) LeafAt(i int) *Node { return n.Leaves[i] }

// FieldName returns the declared field name at leaf position i. Only
// meaningful when n.Kind == KindRecord.
func (n *Node) FieldName(i int) string {
	if i < 0 || i >= len(n.fieldNames) {
		return ""
	}
	return n.fieldNames[i]
}

// NameIndex resolves a declared field name to its leaf position. Only
// meaningful when n.Kind == KindRecord.
func (n *Node) NameIndex(name string) (int, bool) {
	i, ok := n.byName[name]
	return i, ok
}

// JSON renders the node back to a schema-like JSON string, used only to
// put useful context into error messages.
func (n *Node) JSON() string {
	b, err := json.Marshal(n.toJSONValue())
	if err != nil {
		return fmt.Sprintf("<unrenderable schema node: %v>", err)
	}
	return string(b)
}

func (n *Node) toJSONValue() interface{} {
	switch n.Kind {
	case KindRecord:
		fields := make([]map[string]interface{}, len(n.Leaves))
		for i, l := range n.Leaves {
			fields[i] = map[string]interface{}{
				"name": n.fieldNames[i],
				"type": l.toJSONValue(),
			}
		}
		return map[string]interface{}{"type": "record", "name": n.Name, "fields": fields}
	case KindArray:
		return map[string]interface{}{"type": "array", "items": n.Leaves[0].toJSONValue()}
	case KindUnion:
		u := make([]interface{}, len(n.Leaves))
		for i, l := range n.Leaves {
			u[i] = l.toJSONValue()
		}
		return u
	default:
		return n.Kind.String()
	}
}

// ParseSchema parses the FDS JSON schema dialect: record, array, union
// (null+T, or a single branch), and the primitive scalars. Anything else
// (enum, fixed, map, decimal/logical types) is rejected.
func ParseSchema(data []byte) (*Node, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("avro: invalid schema json: %w", err)
	}
	return parseNode(raw)
}

func parseNode(raw interface{}) (*Node, error) {
	switch v := raw.(type) {
	case string:
		k, ok := primitiveKinds[v]
		if !ok {
			return nil, fmt.Errorf("avro: unsupported schema type %q", v)
		}
		return &Node{Kind: k}, nil
	case []interface{}:
		leaves := make([]*Node, 0, len(v))
		for _, item := range v {
			n, err := parseNode(item)
			if err != nil {
				return nil, err
			}
			leaves = append(leaves, n)
		}
		return &Node{Kind: KindUnion, Leaves: leaves}, nil
	case map[string]interface{}:
		return parseObjectNode(v)
	default:
		return nil, fmt.Errorf("avro: unexpected schema node of type %T", raw)
	}
}

func parseObjectNode(v map[string]interface{}) (*Node, error) {
	t, _ := v["type"].(string)
	switch t {
	case "":
		return nil, fmt.Errorf("avro: schema object missing \"type\"")
	case "record":
		return parseRecordNode(v)
	case "array":
		item, err := parseNode(v["items"])
		if err != nil {
			return nil, fmt.Errorf("avro: record array items: %w", err)
		}
		return &Node{Kind: KindArray, Leaves: []*Node{item}}, nil
	default:
		k, ok := primitiveKinds[t]
		if !ok {
			return nil, fmt.Errorf("avro: unsupported schema construct %q", t)
		}
		return &Node{Kind: k}, nil
	}
}

func parseRecordNode(v map[string]interface{}) (*Node, error) {
	name, _ := v["name"].(string)
	rawFields, _ := v["fields"].([]interface{})
	leaves := make([]*Node, 0, len(rawFields))
	fieldNames := make([]string, 0, len(rawFields))
	byName := make(map[string]int, len(rawFields))
	for i, rf := range rawFields {
		fm, ok := rf.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("avro: record %q: field %d is not an object", name, i)
		}
		fname, _ := fm["name"].(string)
		if fname == "" {
			return nil, fmt.Errorf("avro: record %q: field %d missing a name", name, i)
		}
		child, err := parseNode(fm["type"])
		if err != nil {
			return nil, fmt.Errorf("avro: record %q field %q: %w", name, fname, err)
		}
		leaves = append(leaves, child)
		fieldNames = append(fieldNames, fname)
		byName[fname] = i
	}
	return &Node{Kind: KindRecord, Name: name, Leaves: leaves, fieldNames: fieldNames, byName: byName}, nil
}
