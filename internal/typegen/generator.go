package typegen

import (
	"log"

	"contentbridge/internal/mapper"
	"contentbridge/internal/schema"
)

// Generator derives output type declarations from the registry's schema. It
// walks the same shapes as the content mapper but follows the schema rather
// than the data, so mutually-referential types need explicit cycle breaking.
type Generator struct {
	registry *schema.Registry

	// defs doubles as the memo table and the in-flight marker: a slot is
	// reserved before its fields are computed, so a re-entrant defineType
	// for the same key returns the placeholder instead of recursing.
	defs  map[string]*Declaration
	order []string

	unions []*Declaration
}

func NewGenerator(registry *schema.Registry) *Generator {
	return &Generator{
		registry: registry,
		defs:     map[string]*Declaration{},
	}
}

// BuildAll produces one declaration per distinct entity type reachable from
// the given content types, plus union declarations for dynamic zones and the
// built-in markdown/file declarations when referenced.
func (g *Generator) BuildAll(types []schema.EntityType) []Declaration {
	for _, et := range types {
		g.defineType(et)
	}

	out := make([]Declaration, 0, len(g.order)+len(g.unions)+2)
	for _, b := range builtinsUsed(g) {
		out = append(out, b)
	}
	for _, key := range g.order {
		out = append(out, *g.defs[key])
	}
	for _, u := range g.unions {
		out = append(out, *u)
	}
	return out
}

func (g *Generator) defineType(et schema.EntityType) *Declaration {
	if d, ok := g.defs[et.Key]; ok {
		return d
	}
	// Reserve before computing fields: this is what terminates cycles
	// between mutually-referential types.
	d := &Declaration{Name: mapper.NodeType(et), Kind: DeclObject}
	g.defs[et.Key] = d
	g.order = append(g.order, et.Key)

	fields := []Field{{Name: "id", Type: TypeID, Required: true}}
	for _, na := range et.Attributes.All() {
		f, ok := g.defineField(et, na)
		if !ok {
			continue
		}
		fields = append(fields, f)
	}
	d.Fields = fields
	return d
}

// defineField returns false to drop a field whose target cannot be resolved;
// a single dangling reference must not abort the whole generation pass.
func (g *Generator) defineField(owner schema.EntityType, na schema.NamedAttribute) (Field, bool) {
	attr := na.Attr
	f := Field{Name: na.Name, Required: attr.Required}
	switch attr.Kind {
	case schema.KindScalar:
		f.Type = scalarType(attr.Scalar)
	case schema.KindRichText:
		f.Type = TypeMarkdown
	case schema.KindMedia:
		f.Type = TypeFile
		f.List = attr.Multiple
	case schema.KindRelation:
		target, ok := g.registry.ResolveContentType(attr.Target)
		if !ok {
			log.Printf("typegen: %s.%s: dropping field, unknown relation target %q", owner.Key, na.Name, attr.Target)
			return Field{}, false
		}
		f.Type = g.defineType(target).Name
	case schema.KindComponent:
		target, ok := g.registry.ResolveComponent(attr.Target)
		if !ok {
			log.Printf("typegen: %s.%s: dropping field, unknown component %q", owner.Key, na.Name, attr.Target)
			return Field{}, false
		}
		f.Type = g.defineType(target).Name
		f.List = attr.Repeatable
	case schema.KindDynamicZone:
		union, ok := g.defineUnion(owner, na)
		if !ok {
			return Field{}, false
		}
		f.Type = union
		f.List = true
	default:
		f.Type = TypeJSON
	}
	return f, true
}

// defineUnion synthesizes a union over every resolvable component of a
// dynamic-zone field, named deterministically from owner type and field name.
func (g *Generator) defineUnion(owner schema.EntityType, na schema.NamedAttribute) (string, bool) {
	members := make([]string, 0, len(na.Attr.Components))
	for _, key := range na.Attr.Components {
		target, ok := g.registry.ResolveComponent(key)
		if !ok {
			log.Printf("typegen: %s.%s: skipping unknown union member %q", owner.Key, na.Name, key)
			continue
		}
		members = append(members, g.defineType(target).Name)
	}
	if len(members) == 0 {
		log.Printf("typegen: %s.%s: dropping field, no resolvable components", owner.Key, na.Name)
		return "", false
	}
	name := mapper.NodeType(owner) + mapper.PascalKey(na.Name) + "Union"
	g.unions = append(g.unions, &Declaration{Name: name, Kind: DeclUnion, Members: members})
	return name, true
}

func scalarType(s schema.ScalarType) string {
	switch s {
	case schema.ScalarInteger:
		return TypeInt
	case schema.ScalarTimestamp, schema.ScalarDateTime:
		return TypeDate
	default:
		return TypeString
	}
}

// builtinsUsed emits the markdown and file object declarations when any
// generated field references them.
func builtinsUsed(g *Generator) []Declaration {
	needMarkdown, needFile := false, false
	check := func(fields []Field) {
		for _, f := range fields {
			switch f.Type {
			case TypeMarkdown:
				needMarkdown = true
			case TypeFile:
				needFile = true
			}
		}
	}
	for _, key := range g.order {
		check(g.defs[key].Fields)
	}
	var out []Declaration
	if needMarkdown {
		out = append(out, Declaration{
			Name: TypeMarkdown,
			Kind: DeclObject,
			Fields: []Field{
				{Name: "id", Type: TypeID, Required: true},
				{Name: "text", Type: TypeString, Required: true},
			},
		})
	}
	if needFile {
		out = append(out, Declaration{
			Name: TypeFile,
			Kind: DeclObject,
			Fields: []Field{
				{Name: "key", Type: TypeString, Required: true},
				{Name: "location", Type: TypeString, Required: true},
			},
		})
	}
	return out
}
