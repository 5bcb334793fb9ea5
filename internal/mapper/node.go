package mapper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Ref points at another node by identity, e.g. a rich-text side node.
type Ref struct {
	NodeID string `json:"nodeId"`
}

// Node is one normalized output record. Field order follows the originating
// schema's attribute order, so marshaling is deterministic.
type Node struct {
	ID   string
	Type string

	names  []string
	fields map[string]any
}

func NewNode(id, typ string) *Node {
	return &Node{ID: id, Type: typ, fields: map[string]any{}}
}

func (n *Node) Set(name string, value any) {
	if _, ok := n.fields[name]; !ok {
		n.names = append(n.names, name)
	}
	n.fields[name] = value
}

func (n *Node) Get(name string) (any, bool) {
	v, ok := n.fields[name]
	return v, ok
}

func (n *Node) FieldNames() []string {
	return append([]string(nil), n.names...)
}

// MarshalJSON writes id and type first, then the fields in schema order.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	buf.WriteString(`"id":`)
	buf.WriteString(strconv.Quote(n.ID))
	buf.WriteString(`,"type":`)
	buf.WriteString(strconv.Quote(n.Type))
	for _, name := range n.names {
		raw, err := marshalNoEscape(n.fields[name])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		buf.WriteByte(',')
		buf.WriteString(strconv.Quote(name))
		buf.WriteByte(':')
		buf.Write(raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
