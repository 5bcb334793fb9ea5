package mapper

import (
	"crypto/sha256"
	"encoding/hex"
)

// MarkdownNodeType names the side nodes synthesized for rich-text fields.
const MarkdownNodeType = "StrapiMarkdown"

// mapRichText turns a non-empty rich-text string into a reference to a
// content-addressed markdown side node, so identical text across records
// reuses one node. Null, non-string or empty input maps to an absent
// reference; whitespace-only text is kept as-is.
func (m *Mapper) mapRichText(raw any, side *[]*Node) any {
	text, ok := raw.(string)
	if !ok || text == "" {
		return nil
	}
	id := markdownNodeID(text)
	node := NewNode(id, MarkdownNodeType)
	node.Set("text", text)
	*side = append(*side, node)
	return Ref{NodeID: id}
}

func markdownNodeID(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "markdown:" + hex.EncodeToString(sum[:8])
}
