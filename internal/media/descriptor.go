package media

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Descriptor identifies one media asset as reported inside a record's media
// field. The cache key derives from ID alone so the same asset reused across
// different fields shares one download.
type Descriptor struct {
	ID           int64
	URL          string
	Name         string
	LastModified string
}

func (d Descriptor) Valid() bool { return d.ID != 0 && strings.TrimSpace(d.URL) != "" }

func (d Descriptor) CacheKey() string { return "asset-" + strconv.FormatInt(d.ID, 10) }

// DescriptorFrom extracts a descriptor from a raw media object. Returns false
// when the value is not a media object or carries no URL.
func DescriptorFrom(v any) (Descriptor, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Descriptor{}, false
	}
	var d Descriptor
	d.ID = numericID(obj["id"])
	d.URL, _ = obj["url"].(string)
	d.Name, _ = obj["name"].(string)
	d.LastModified = lastModified(obj)
	if !d.Valid() {
		return Descriptor{}, false
	}
	return d, true
}

func lastModified(obj map[string]any) string {
	for _, key := range []string{"updatedAt", "updated_at"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func numericID(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		id, err := n.Int64()
		if err != nil {
			return 0
		}
		return id
	default:
		return 0
	}
}
