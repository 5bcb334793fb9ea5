package schema

import (
	"encoding/json"
	"strings"
)

// Kind discriminates the closed set of attribute variants. Dispatch on it is
// exhaustive; anything the source schema reports outside this set decodes to
// KindScalar and passes through unmapped.
type Kind string

const (
	KindScalar      Kind = "scalar"
	KindRichText    Kind = "richtext"
	KindMedia       Kind = "media"
	KindRelation    Kind = "relation"
	KindComponent   Kind = "component"
	KindDynamicZone Kind = "dynamiczone"
)

// ScalarType names the primitive a scalar attribute carries.
type ScalarType string

const (
	ScalarString    ScalarType = "string"
	ScalarInteger   ScalarType = "integer"
	ScalarEnum      ScalarType = "enum"
	ScalarTimestamp ScalarType = "timestamp"
	ScalarDateTime  ScalarType = "datetime"
)

// Attribute is a tagged variant: Kind determines which of the remaining fields
// are meaningful. UnmarshalJSON only ever populates the fields belonging to
// the decoded variant.
type Attribute struct {
	Kind     Kind
	Required bool

	Scalar ScalarType // KindScalar

	Multiple bool // KindMedia

	Target string // KindRelation, KindComponent

	Repeatable bool     // KindComponent, KindDynamicZone
	Components []string // KindDynamicZone, resolution order preserved
}

// rawAttribute covers both the explicitly typed attribute shape and the
// legacy relation shape that carries no "type" field, only "model" or
// "collection".
type rawAttribute struct {
	Type       string   `json:"type"`
	Required   bool     `json:"required"`
	Multiple   bool     `json:"multiple"`
	Target     string   `json:"target"`
	Model      string   `json:"model"`
	Collection string   `json:"collection"`
	Component  string   `json:"component"`
	Repeatable bool     `json:"repeatable"`
	Components []string `json:"components"`
}

func (a *Attribute) UnmarshalJSON(data []byte) error {
	var raw rawAttribute
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = Attribute{Required: raw.Required}

	switch strings.ToLower(strings.TrimSpace(raw.Type)) {
	case "richtext":
		a.Kind = KindRichText
	case "media":
		a.Kind = KindMedia
		a.Multiple = raw.Multiple
	case "relation":
		a.Kind = KindRelation
		a.Target = firstOf(raw.Target, raw.Model, raw.Collection)
	case "component":
		a.Kind = KindComponent
		a.Target = firstOf(raw.Component, raw.Target)
		a.Repeatable = raw.Repeatable
	case "dynamiczone":
		a.Kind = KindDynamicZone
		a.Repeatable = raw.Repeatable
		a.Components = append([]string(nil), raw.Components...)
	case "integer", "biginteger":
		a.Kind = KindScalar
		a.Scalar = ScalarInteger
	case "enumeration":
		a.Kind = KindScalar
		a.Scalar = ScalarEnum
	case "timestamp", "time":
		a.Kind = KindScalar
		a.Scalar = ScalarTimestamp
	case "datetime", "date":
		a.Kind = KindScalar
		a.Scalar = ScalarDateTime
	case "":
		// Legacy relation attributes carry no type, only a model or
		// collection key.
		if t := firstOf(raw.Model, raw.Collection); t != "" {
			a.Kind = KindRelation
			a.Target = t
			break
		}
		a.Kind = KindScalar
		a.Scalar = ScalarString
	default:
		a.Kind = KindScalar
		a.Scalar = ScalarString
	}
	return nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
