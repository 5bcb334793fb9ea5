package mapper

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"contentbridge/internal/schema"
)

func attr(kind schema.Kind) schema.Attribute { return schema.Attribute{Kind: kind} }

func scalar(s schema.ScalarType) schema.Attribute {
	return schema.Attribute{Kind: schema.KindScalar, Scalar: s}
}

func testRegistry() *schema.Registry {
	article := schema.EntityType{
		Key:  "article",
		Kind: schema.KindCollection,
		Attributes: schema.MakeAttributes(
			schema.NamedAttribute{Name: "title", Attr: scalar(schema.ScalarString)},
			schema.NamedAttribute{Name: "views", Attr: scalar(schema.ScalarInteger)},
			schema.NamedAttribute{Name: "body", Attr: attr(schema.KindRichText)},
			schema.NamedAttribute{Name: "author", Attr: schema.Attribute{Kind: schema.KindRelation, Target: "author"}},
			schema.NamedAttribute{Name: "hero", Attr: schema.Attribute{Kind: schema.KindComponent, Target: "sections.hero"}},
			schema.NamedAttribute{Name: "quotes", Attr: schema.Attribute{Kind: schema.KindComponent, Target: "sections.quote", Repeatable: true}},
			schema.NamedAttribute{Name: "sections", Attr: schema.Attribute{Kind: schema.KindDynamicZone, Components: []string{"sections.hero", "sections.quote"}}},
		),
	}
	author := schema.EntityType{
		Key:  "author",
		Kind: schema.KindCollection,
		Attributes: schema.MakeAttributes(
			schema.NamedAttribute{Name: "name", Attr: scalar(schema.ScalarString)},
		),
	}
	hero := schema.EntityType{
		Key: "sections.hero",
		Attributes: schema.MakeAttributes(
			schema.NamedAttribute{Name: "heading", Attr: scalar(schema.ScalarString)},
		),
	}
	quote := schema.EntityType{
		Key: "sections.quote",
		Attributes: schema.MakeAttributes(
			schema.NamedAttribute{Name: "text", Attr: scalar(schema.ScalarString)},
		),
	}
	return schema.NewStaticRegistry(
		[]schema.EntityType{article, author},
		[]schema.EntityType{hero, quote},
	)
}

func testMapper() *Mapper { return New(testRegistry(), nil) }

func articleType(t *testing.T, r *schema.Registry) schema.EntityType {
	t.Helper()
	et, ok := r.ResolveContentType("article")
	require.True(t, ok)
	return et
}

func TestScalarAttributesMapIdentity(t *testing.T) {
	r := testRegistry()
	m := New(r, nil)
	node, _, err := m.MapEntity(context.Background(), articleType(t, r), map[string]any{
		"id": float64(1), "title": "Hello", "views": float64(42),
	})
	require.NoError(t, err)

	title, ok := node.Get("title")
	require.True(t, ok)
	require.Equal(t, "Hello", title)
	views, _ := node.Get("views")
	require.Equal(t, float64(42), views)
	require.Equal(t, "article:1", node.ID)
	require.Equal(t, "StrapiArticle", node.Type)
}

func TestRichTextIsContentAddressed(t *testing.T) {
	r := testRegistry()
	m := New(r, nil)
	et := articleType(t, r)

	node1, side1, err := m.MapEntity(context.Background(), et, map[string]any{"id": float64(1), "body": "# Hi"})
	require.NoError(t, err)
	node2, side2, err := m.MapEntity(context.Background(), et, map[string]any{"id": float64(2), "body": "# Hi"})
	require.NoError(t, err)
	_, side3, err := m.MapEntity(context.Background(), et, map[string]any{"id": float64(3), "body": "# Bye"})
	require.NoError(t, err)

	require.Len(t, side1, 1)
	require.Equal(t, MarkdownNodeType, side1[0].Type)
	text, _ := side1[0].Get("text")
	require.Equal(t, "# Hi", text)

	ref1, _ := node1.Get("body")
	ref2, _ := node2.Get("body")
	require.Equal(t, ref1, ref2)
	require.Equal(t, side1[0].ID, side2[0].ID)
	require.NotEqual(t, side1[0].ID, side3[0].ID)
}

func TestRichTextNullMapsToAbsent(t *testing.T) {
	r := testRegistry()
	m := New(r, nil)
	node, side, err := m.MapEntity(context.Background(), articleType(t, r), map[string]any{"id": float64(1)})
	require.NoError(t, err)
	require.Empty(t, side)
	body, ok := node.Get("body")
	require.True(t, ok)
	require.Nil(t, body)
}

func TestRichTextWhitespaceOnlyKeepsSideNode(t *testing.T) {
	r := testRegistry()
	m := New(r, nil)
	et := articleType(t, r)

	node, side, err := m.MapEntity(context.Background(), et, map[string]any{"id": float64(1), "body": " \n "})
	require.NoError(t, err)
	require.Len(t, side, 1)
	text, _ := side[0].Get("text")
	require.Equal(t, " \n ", text)
	body, _ := node.Get("body")
	require.Equal(t, Ref{NodeID: side[0].ID}, body)

	// Empty string still maps to absent.
	_, side, err = m.MapEntity(context.Background(), et, map[string]any{"id": float64(2), "body": ""})
	require.NoError(t, err)
	require.Empty(t, side)
}

func TestRelationBareIDPassesThrough(t *testing.T) {
	r := testRegistry()
	m := New(r, nil)
	node, _, err := m.MapEntity(context.Background(), articleType(t, r), map[string]any{
		"id": float64(1), "author": float64(9),
	})
	require.NoError(t, err)
	author, _ := node.Get("author")
	require.Equal(t, float64(9), author)
}

func TestRelationObjectIsInlined(t *testing.T) {
	r := testRegistry()
	m := New(r, nil)
	node, _, err := m.MapEntity(context.Background(), articleType(t, r), map[string]any{
		"id":     float64(1),
		"author": map[string]any{"id": float64(9), "name": "Ada"},
	})
	require.NoError(t, err)
	author, _ := node.Get("author")
	inlined, ok := author.(*Node)
	require.True(t, ok)
	name, _ := inlined.Get("name")
	require.Equal(t, "Ada", name)
	require.Equal(t, "author:9", inlined.ID)
}

func TestRelationUnknownTargetFails(t *testing.T) {
	r := schema.NewStaticRegistry([]schema.EntityType{{
		Key: "orphan",
		Attributes: schema.MakeAttributes(
			schema.NamedAttribute{Name: "link", Attr: schema.Attribute{Kind: schema.KindRelation, Target: "ghost"}},
		),
	}}, nil)
	m := New(r, nil)
	et, _ := r.ResolveContentType("orphan")

	_, _, err := m.MapEntity(context.Background(), et, map[string]any{
		"id": float64(1), "link": map[string]any{"id": float64(2)},
	})
	var me *Error
	require.ErrorAs(t, err, &me)
	require.Equal(t, "orphan", me.TypeKey)
	require.Equal(t, "1", me.RecordID)
}

func TestComponentSingle(t *testing.T) {
	r := testRegistry()
	m := New(r, nil)
	node, _, err := m.MapEntity(context.Background(), articleType(t, r), map[string]any{
		"id":   float64(1),
		"hero": map[string]any{"heading": "Welcome"},
	})
	require.NoError(t, err)
	hero, _ := node.Get("hero")
	heroNode, ok := hero.(*Node)
	require.True(t, ok)
	heading, _ := heroNode.Get("heading")
	require.Equal(t, "Welcome", heading)
}

func TestComponentRepeatable(t *testing.T) {
	r := testRegistry()
	m := New(r, nil)
	node, _, err := m.MapEntity(context.Background(), articleType(t, r), map[string]any{
		"id": float64(1),
		"quotes": []any{
			map[string]any{"text": "one"},
			map[string]any{"text": "two"},
		},
	})
	require.NoError(t, err)
	quotes, _ := node.Get("quotes")
	items, ok := quotes.([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
}

func TestComponentShapeMismatchFails(t *testing.T) {
	r := testRegistry()
	m := New(r, nil)

	// Array where a single object is expected.
	_, _, err := m.MapEntity(context.Background(), articleType(t, r), map[string]any{
		"id":   float64(1),
		"hero": []any{map[string]any{"heading": "x"}},
	})
	var me *Error
	require.ErrorAs(t, err, &me)
	require.Contains(t, me.Error(), "expects an object")

	// Object where an array is expected.
	_, _, err = m.MapEntity(context.Background(), articleType(t, r), map[string]any{
		"id":     float64(1),
		"quotes": map[string]any{"text": "x"},
	})
	require.ErrorAs(t, err, &me)
	require.Contains(t, me.Error(), "expects an array")
}

func TestDynamicZoneAnnotatesComponentIdentity(t *testing.T) {
	r := testRegistry()
	m := New(r, nil)
	node, _, err := m.MapEntity(context.Background(), articleType(t, r), map[string]any{
		"id": float64(1),
		"sections": []any{
			map[string]any{"__component": "sections.hero", "heading": "h"},
			map[string]any{"__component": "sections.quote", "text": "q"},
		},
	})
	require.NoError(t, err)
	sections, _ := node.Get("sections")
	items := sections.([]any)
	require.Len(t, items, 2)

	first := items[0].(*Node)
	kind, _ := first.Get(ComponentField)
	require.Equal(t, "sections.hero", kind)
	second := items[1].(*Node)
	kind, _ = second.Get(ComponentField)
	require.Equal(t, "sections.quote", kind)
}

func TestDynamicZoneUnknownDiscriminatorFails(t *testing.T) {
	r := testRegistry()
	m := New(r, nil)
	_, _, err := m.MapEntity(context.Background(), articleType(t, r), map[string]any{
		"id":       float64(1),
		"sections": []any{map[string]any{"__component": "sections.ghost"}},
	})
	var me *Error
	require.ErrorAs(t, err, &me)
	require.Contains(t, err.Error(), "sections.ghost")
}

func TestDynamicZoneNonArrayFails(t *testing.T) {
	r := testRegistry()
	m := New(r, nil)
	_, _, err := m.MapEntity(context.Background(), articleType(t, r), map[string]any{
		"id":       float64(1),
		"sections": "nope",
	})
	require.Error(t, err)
	require.True(t, errors.As(err, new(*Error)))
}

func TestMediaWithoutCacheFallsBackToDescriptor(t *testing.T) {
	r := schema.NewStaticRegistry([]schema.EntityType{{
		Key: "page",
		Attributes: schema.MakeAttributes(
			schema.NamedAttribute{Name: "cover", Attr: schema.Attribute{Kind: schema.KindMedia}},
		),
	}}, nil)
	m := New(r, nil)
	et, _ := r.ResolveContentType("page")

	raw := map[string]any{"id": float64(4), "url": "/uploads/a.png", "updatedAt": "t"}
	node, _, err := m.MapEntity(context.Background(), et, map[string]any{"id": float64(1), "cover": raw})
	require.NoError(t, err)
	cover, _ := node.Get("cover")
	require.Equal(t, raw, cover)

	// No media object at all maps to absent, not an error.
	node, _, err = m.MapEntity(context.Background(), et, map[string]any{"id": float64(2)})
	require.NoError(t, err)
	cover, _ = node.Get("cover")
	require.Nil(t, cover)
}

func TestComponentCycleFailsFast(t *testing.T) {
	loop := schema.EntityType{
		Key: "sections.loop",
		Attributes: schema.MakeAttributes(
			schema.NamedAttribute{Name: "inner", Attr: schema.Attribute{Kind: schema.KindComponent, Target: "sections.loop"}},
		),
	}
	owner := schema.EntityType{
		Key: "page",
		Attributes: schema.MakeAttributes(
			schema.NamedAttribute{Name: "block", Attr: schema.Attribute{Kind: schema.KindComponent, Target: "sections.loop"}},
		),
	}
	r := schema.NewStaticRegistry([]schema.EntityType{owner}, []schema.EntityType{loop})
	m := New(r, nil)
	et, _ := r.ResolveContentType("page")

	_, _, err := m.MapEntity(context.Background(), et, map[string]any{
		"id": float64(1),
		"block": map[string]any{
			"inner": map[string]any{"inner": map[string]any{}},
		},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "cycle")
}

func TestNodeMarshalPreservesAttributeOrder(t *testing.T) {
	node := NewNode("x:1", "StrapiX")
	node.Set("zulu", 1)
	node.Set("alpha", 2)
	raw, err := json.Marshal(node)
	require.NoError(t, err)
	s := string(raw)
	require.True(t, strings.Index(s, `"zulu"`) < strings.Index(s, `"alpha"`), s)
	require.True(t, strings.HasPrefix(s, `{"id":"x:1","type":"StrapiX"`), s)
}
