package typegen

// DeclKind separates object declarations from synthesized unions.
type DeclKind string

const (
	DeclObject DeclKind = "object"
	DeclUnion  DeclKind = "union"
)

// Primitive field type names shared by every generated schema.
const (
	TypeID       = "ID"
	TypeString   = "String"
	TypeInt      = "Int"
	TypeDate     = "Date"
	TypeJSON     = "JSON"
	TypeMarkdown = "StrapiMarkdown"
	TypeFile     = "StrapiFile"
)

// Field is one declared field. Type names another declaration or a primitive.
type Field struct {
	Name     string
	Type     string
	List     bool
	Required bool
}

// Declaration is one output type: an object per entity type, plus one union
// per dynamic-zone field.
type Declaration struct {
	Name    string
	Kind    DeclKind
	Fields  []Field  // DeclObject
	Members []string // DeclUnion, schema order preserved
}
