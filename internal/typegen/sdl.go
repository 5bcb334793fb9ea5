package typegen

import "strings"

// Render writes declarations as GraphQL-style SDL.
func Render(decls []Declaration) string {
	var b strings.Builder
	for i, d := range decls {
		if i > 0 {
			b.WriteString("\n")
		}
		switch d.Kind {
		case DeclUnion:
			b.WriteString("union ")
			b.WriteString(d.Name)
			b.WriteString(" = ")
			b.WriteString(strings.Join(d.Members, " | "))
			b.WriteString("\n")
		default:
			b.WriteString("type ")
			b.WriteString(d.Name)
			b.WriteString(" {\n")
			for _, f := range d.Fields {
				b.WriteString("  ")
				b.WriteString(f.Name)
				b.WriteString(": ")
				b.WriteString(fieldType(f))
				b.WriteString("\n")
			}
			b.WriteString("}\n")
		}
	}
	return b.String()
}

func fieldType(f Field) string {
	t := f.Type
	if f.List {
		t = "[" + t + "]"
	}
	if f.Required {
		t += "!"
	}
	return t
}
