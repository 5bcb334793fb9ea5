package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type TypeKind string

const (
	KindCollection TypeKind = "collection"
	KindSingle     TypeKind = "single"
)

type Category string

const (
	CategoryContentType Category = "contentType"
	CategoryComponent   Category = "component"
)

// EntityType describes one content type or reusable component.
type EntityType struct {
	Key         string
	DisplayName string
	Kind        TypeKind
	Category    Category
	Attributes  Attributes
}

// NamedAttribute pairs an attribute with its schema name.
type NamedAttribute struct {
	Name string
	Attr Attribute
}

// Attributes preserves the schema's insertion order so mapped records and
// generated declarations come out deterministically.
type Attributes struct {
	ordered []NamedAttribute
	byName  map[string]int
}

func (as Attributes) Len() int { return len(as.ordered) }

func (as Attributes) All() []NamedAttribute {
	return append([]NamedAttribute(nil), as.ordered...)
}

func (as Attributes) Get(name string) (Attribute, bool) {
	i, ok := as.byName[name]
	if !ok {
		return Attribute{}, false
	}
	return as.ordered[i].Attr, true
}

func (as *Attributes) add(name string, attr Attribute) {
	if as.byName == nil {
		as.byName = make(map[string]int)
	}
	if i, ok := as.byName[name]; ok {
		as.ordered[i].Attr = attr
		return
	}
	as.byName[name] = len(as.ordered)
	as.ordered = append(as.ordered, NamedAttribute{Name: name, Attr: attr})
}

// UnmarshalJSON walks the object token stream so attribute order survives
// decoding; a plain map would shuffle it.
func (as *Attributes) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("schema: attributes must be an object, got %v", tok)
	}
	*as = Attributes{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("schema: unexpected attribute key token %v", keyTok)
		}
		var attr Attribute
		if err := dec.Decode(&attr); err != nil {
			return fmt.Errorf("schema: attribute %q: %w", name, err)
		}
		as.add(name, attr)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MakeAttributes builds an ordered attribute set; handy for tests and seeds.
func MakeAttributes(pairs ...NamedAttribute) Attributes {
	var as Attributes
	for _, p := range pairs {
		as.add(p.Name, p.Attr)
	}
	return as
}
