package mapper

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"contentbridge/internal/media"
	"contentbridge/internal/schema"
)

// ComponentField carries the resolved component identity on mapped
// dynamic-zone items so a polymorphic consumer can discriminate at read time.
const ComponentField = "strapi_component"

const discriminatorField = "__component"

// Error reports the first failing attribute of one record. Isolated per
// record unless the run is configured fail-fast.
type Error struct {
	TypeKey  string
	RecordID string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("map %s record %s: %v", e.TypeKey, e.RecordID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Mapper rewrites raw records into normalized nodes according to the type
// registry, resolving relations, embedded components, dynamic zones and
// media fields.
type Mapper struct {
	registry *schema.Registry
	media    *media.Cache
}

func New(registry *schema.Registry, mediaCache *media.Cache) *Mapper {
	return &Mapper{registry: registry, media: mediaCache}
}

// MapEntity maps one fetched record. Rich-text attributes synthesize side
// nodes, returned alongside the main node; nested components and embedded
// relations are inlined, not returned separately.
func (m *Mapper) MapEntity(ctx context.Context, et schema.EntityType, record map[string]any) (*Node, []*Node, error) {
	recordID := recordIDOf(record)
	var side []*Node
	node, err := m.mapObject(ctx, et, record, map[string]bool{}, &side)
	if err != nil {
		return nil, nil, &Error{TypeKey: et.Key, RecordID: recordID, Err: err}
	}
	return node, side, nil
}

func (m *Mapper) mapObject(ctx context.Context, et schema.EntityType, record map[string]any, visiting map[string]bool, side *[]*Node) (*Node, error) {
	node := NewNode(NodeID(et.Key, recordIDOf(record)), NodeType(et))
	for _, na := range et.Attributes.All() {
		value, err := m.mapAttribute(ctx, na, record[na.Name], visiting, side)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", na.Name, err)
		}
		node.Set(na.Name, value)
	}
	return node, nil
}

func (m *Mapper) mapAttribute(ctx context.Context, na schema.NamedAttribute, raw any, visiting map[string]bool, side *[]*Node) (any, error) {
	attr := na.Attr
	switch attr.Kind {
	case schema.KindScalar:
		return raw, nil
	case schema.KindRichText:
		return m.mapRichText(raw, side), nil
	case schema.KindMedia:
		return m.mapMedia(ctx, attr, raw), nil
	case schema.KindRelation:
		return m.mapRelation(ctx, attr, raw, visiting, side)
	case schema.KindComponent:
		return m.mapComponent(ctx, attr, raw, visiting, side)
	case schema.KindDynamicZone:
		return m.mapDynamicZone(ctx, attr, raw, visiting, side)
	default:
		return raw, nil
	}
}

func (m *Mapper) mapMedia(ctx context.Context, attr schema.Attribute, raw any) any {
	if raw == nil {
		return nil
	}
	if attr.Multiple {
		items, ok := raw.([]any)
		if !ok {
			return raw
		}
		out := make([]any, 0, len(items))
		for _, item := range items {
			out = append(out, m.resolveMedia(ctx, item))
		}
		return out
	}
	return m.resolveMedia(ctx, raw)
}

// resolveMedia degrades to the raw descriptor on any cache/download failure;
// one bad asset must not abort the record.
func (m *Mapper) resolveMedia(ctx context.Context, raw any) any {
	d, ok := media.DescriptorFrom(raw)
	if !ok {
		return nil
	}
	if h, ok := m.media.Resolve(ctx, d); ok {
		return h
	}
	return raw
}

func (m *Mapper) mapRelation(ctx context.Context, attr schema.Attribute, raw any, visiting map[string]bool, side *[]*Node) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case float64, int, int64, json.Number:
		// Bare id: the referenced entity is not embedded.
		return raw, nil
	case map[string]any:
		target, ok := m.registry.ResolveContentType(attr.Target)
		if !ok {
			return nil, fmt.Errorf("unknown relation target %q", attr.Target)
		}
		return m.mapObject(ctx, target, v, visiting, side)
	default:
		return raw, nil
	}
}

func (m *Mapper) mapComponent(ctx context.Context, attr schema.Attribute, raw any, visiting map[string]bool, side *[]*Node) (any, error) {
	if raw == nil {
		return nil, nil
	}
	target, ok := m.registry.ResolveComponent(attr.Target)
	if !ok {
		return nil, fmt.Errorf("unknown component %q", attr.Target)
	}
	if attr.Repeatable {
		items, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("repeatable component %q expects an array, got %T", attr.Target, raw)
		}
		out := make([]any, 0, len(items))
		for i, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("repeatable component %q item %d is not an object", attr.Target, i)
			}
			mapped, err := m.mapComponentObject(ctx, target, obj, visiting, side)
			if err != nil {
				return nil, err
			}
			out = append(out, mapped)
		}
		return out, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("component %q expects an object, got %T", attr.Target, raw)
	}
	return m.mapComponentObject(ctx, target, obj, visiting, side)
}

// mapComponentObject guards against schema cycles: a component transitively
// containing itself would otherwise recurse for as deep as the payload nests.
func (m *Mapper) mapComponentObject(ctx context.Context, target schema.EntityType, obj map[string]any, visiting map[string]bool, side *[]*Node) (*Node, error) {
	if visiting[target.Key] {
		return nil, fmt.Errorf("component cycle detected at %q", target.Key)
	}
	visiting[target.Key] = true
	defer delete(visiting, target.Key)
	return m.mapObject(ctx, target, obj, visiting, side)
}

func (m *Mapper) mapDynamicZone(ctx context.Context, attr schema.Attribute, raw any, visiting map[string]bool, side *[]*Node) (any, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("dynamic zone expects an array, got %T", raw)
	}
	out := make([]any, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("dynamic zone item %d is not an object", i)
		}
		key, _ := obj[discriminatorField].(string)
		if strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("dynamic zone item %d has no %s discriminator", i, discriminatorField)
		}
		target, ok := m.registry.ResolveComponent(key)
		if !ok {
			return nil, fmt.Errorf("dynamic zone item %d: unknown component %q", i, key)
		}
		mapped, err := m.mapComponentObject(ctx, target, obj, visiting, side)
		if err != nil {
			return nil, err
		}
		mapped.Set(ComponentField, target.Key)
		out = append(out, mapped)
	}
	return out, nil
}

func recordIDOf(record map[string]any) string {
	switch id := record["id"].(type) {
	case float64:
		return strconv.FormatInt(int64(id), 10)
	case string:
		return id
	case json.Number:
		return id.String()
	default:
		return ""
	}
}

// NodeID derives the stable node identity from type key and record id.
func NodeID(typeKey, recordID string) string {
	if recordID == "" {
		return typeKey
	}
	return typeKey + ":" + recordID
}

// NodeType is the output type name for an entity type, e.g. "StrapiArticle".
func NodeType(et schema.EntityType) string {
	return "Strapi" + PascalKey(et.Key)
}

// PascalKey converts keys like "sections.hero-banner" to "SectionsHeroBanner".
func PascalKey(key string) string {
	var b strings.Builder
	upper := true
	for _, r := range key {
		switch r {
		case '.', '-', '_', ' ':
			upper = true
		default:
			if upper {
				b.WriteString(strings.ToUpper(string(r)))
				upper = false
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
