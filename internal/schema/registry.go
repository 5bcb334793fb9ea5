package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"contentbridge/internal/api"
)

const (
	contentTypesPath = "/content-manager/content-types"
	componentsPath   = "/content-manager/components"
)

// FetchError is fatal to the run: without a schema there is nothing to map.
type FetchError struct {
	Endpoint string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("schema fetch %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Registry indexes content types by API id and components by unique id. It is
// loaded at most once per run and read-only afterwards, so it is safe to share
// across concurrent mapping and type-generation work.
type Registry struct {
	client *api.Client

	loadOnce sync.Once
	loadErr  error

	contentTypes map[string]EntityType
	components   map[string]EntityType
}

func NewRegistry(client *api.Client) *Registry {
	return &Registry{client: client}
}

// NewStaticRegistry builds a registry from prebuilt tables. Load is a no-op.
func NewStaticRegistry(contentTypes, components []EntityType) *Registry {
	r := &Registry{
		contentTypes: make(map[string]EntityType, len(contentTypes)),
		components:   make(map[string]EntityType, len(components)),
	}
	for _, et := range contentTypes {
		et.Category = CategoryContentType
		r.contentTypes[et.Key] = et
	}
	for _, et := range components {
		et.Category = CategoryComponent
		r.components[et.Key] = et
	}
	r.loadOnce.Do(func() {})
	return r
}

// Load fetches both schema endpoints concurrently. No retries: either both
// payloads decode into usable type tables or the run is over.
func (r *Registry) Load(ctx context.Context) error {
	r.loadOnce.Do(func() {
		var (
			wg       sync.WaitGroup
			ctErr    error
			compErr  error
			ctTable  map[string]EntityType
			cmpTable map[string]EntityType
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			ctTable, ctErr = r.fetchTable(ctx, contentTypesPath, CategoryContentType)
		}()
		go func() {
			defer wg.Done()
			cmpTable, compErr = r.fetchTable(ctx, componentsPath, CategoryComponent)
		}()
		wg.Wait()

		if ctErr != nil {
			r.loadErr = ctErr
			return
		}
		if compErr != nil {
			r.loadErr = compErr
			return
		}
		r.contentTypes = ctTable
		r.components = cmpTable
	})
	return r.loadErr
}

type rawEntityType struct {
	UID    string `json:"uid"`
	APIID  string `json:"apiID"`
	Schema struct {
		DisplayName string     `json:"displayName"`
		Kind        string     `json:"kind"`
		Attributes  Attributes `json:"attributes"`
	} `json:"schema"`
}

type schemaResponse struct {
	Data []rawEntityType `json:"data"`
}

func (r *Registry) fetchTable(ctx context.Context, path string, category Category) (map[string]EntityType, error) {
	var resp schemaResponse
	if err := r.client.GetJSON(ctx, path, &resp); err != nil {
		return nil, &FetchError{Endpoint: path, Err: err}
	}
	if resp.Data == nil {
		return nil, &FetchError{Endpoint: path, Err: fmt.Errorf("payload has no data field")}
	}
	table := make(map[string]EntityType, len(resp.Data))
	for _, raw := range resp.Data {
		key := entityKey(raw, category)
		if key == "" {
			return nil, &FetchError{Endpoint: path, Err: fmt.Errorf("entry without uid or apiID")}
		}
		table[key] = EntityType{
			Key:         key,
			DisplayName: firstOf(raw.Schema.DisplayName, key),
			Kind:        typeKind(raw.Schema.Kind),
			Category:    category,
			Attributes:  raw.Schema.Attributes,
		}
	}
	return table, nil
}

func entityKey(raw rawEntityType, category Category) string {
	if category == CategoryComponent {
		return strings.TrimSpace(raw.UID)
	}
	return firstOf(raw.APIID, raw.UID)
}

func typeKind(raw string) TypeKind {
	if strings.EqualFold(strings.TrimSpace(raw), "singleType") {
		return KindSingle
	}
	return KindCollection
}

// ResolveContentType returns an absent result for unknown keys; the caller
// decides whether that is fatal to the field at hand.
func (r *Registry) ResolveContentType(key string) (EntityType, bool) {
	et, ok := r.contentTypes[key]
	return et, ok
}

func (r *Registry) ResolveComponent(key string) (EntityType, bool) {
	et, ok := r.components[key]
	return et, ok
}

// ContentTypes returns the content-type table in stable key order.
func (r *Registry) ContentTypes() []EntityType {
	keys := make([]string, 0, len(r.contentTypes))
	for k := range r.contentTypes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]EntityType, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.contentTypes[k])
	}
	return out
}
