package fetch

import (
	"context"
	"fmt"
	"strings"

	"contentbridge/internal/api"
	"contentbridge/internal/schema"
)

// RawRecord is an untyped record as returned by the content API.
type RawRecord = map[string]any

// Error reports a transport or decode failure for one entity type's endpoint.
// It aborts that type's processing; the coordinator decides whether sibling
// types keep going.
type Error struct {
	Endpoint string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Fetcher retrieves raw records per entity type. Pages of one collection are
// fetched sequentially because the termination condition depends on the prior
// page; different entity types may fetch concurrently.
type Fetcher struct {
	client   *api.Client
	pageSize int
}

func NewFetcher(client *api.Client, pageSize int) *Fetcher {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Fetcher{client: client, pageSize: pageSize}
}

// FetchAll returns every record of the given entity type. Single kinds issue
// exactly one request; collections paginate until a short page.
func (f *Fetcher) FetchAll(ctx context.Context, et schema.EntityType) ([]RawRecord, error) {
	if et.Kind == schema.KindSingle {
		return f.fetchSingle(ctx, et)
	}
	return f.fetchCollection(ctx, et)
}

func (f *Fetcher) fetchSingle(ctx context.Context, et schema.EntityType) ([]RawRecord, error) {
	endpoint := "/" + et.Key
	var record RawRecord
	if err := f.client.GetJSON(ctx, endpoint, &record); err != nil {
		return nil, &Error{Endpoint: endpoint, Err: err}
	}
	if record == nil {
		return nil, nil
	}
	return []RawRecord{record}, nil
}

func (f *Fetcher) fetchCollection(ctx context.Context, et schema.EntityType) ([]RawRecord, error) {
	var out []RawRecord
	base := "/" + Pluralize(et.Key)
	for start := 0; ; start += f.pageSize {
		endpoint := fmt.Sprintf("%s?_limit=%d&_start=%d", base, f.pageSize, start)
		var page []RawRecord
		if err := f.client.GetJSON(ctx, endpoint, &page); err != nil {
			return nil, &Error{Endpoint: endpoint, Err: err}
		}
		out = append(out, page...)
		// A short page is the last page. A full final page costs one
		// extra empty fetch, which terminates here too.
		if len(page) < f.pageSize {
			return out, nil
		}
	}
}

// Pluralize derives the collection endpoint segment from a type key.
func Pluralize(key string) string {
	key = strings.TrimSpace(key)
	switch {
	case key == "":
		return ""
	case strings.HasSuffix(key, "s"), strings.HasSuffix(key, "x"),
		strings.HasSuffix(key, "ch"), strings.HasSuffix(key, "sh"):
		return key + "es"
	case strings.HasSuffix(key, "y") && len(key) > 1 && !isVowel(key[len(key)-2]):
		return key[:len(key)-1] + "ies"
	default:
		return key + "s"
	}
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
