package sink

import (
	"context"
	"sync"

	"contentbridge/internal/mapper"
	"contentbridge/internal/typegen"
)

// NodeSink receives normalized nodes. Accept must be idempotent against
// identical identity and content; every node carries a stable identity.
type NodeSink interface {
	Accept(ctx context.Context, node *mapper.Node) error
}

// SchemaSink receives the full set of generated type declarations.
type SchemaSink interface {
	Accept(ctx context.Context, decls []typegen.Declaration) error
}

// MemorySink collects nodes in memory, deduplicated by identity. Used by
// tests and as a dry-run sink.
type MemorySink struct {
	mu    sync.Mutex
	byID  map[string]*mapper.Node
	order []string
}

func NewMemorySink() *MemorySink {
	return &MemorySink{byID: map[string]*mapper.Node{}}
}

func (s *MemorySink) Accept(_ context.Context, node *mapper.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[node.ID]; !ok {
		s.order = append(s.order, node.ID)
	}
	s.byID[node.ID] = node
	return nil
}

func (s *MemorySink) Nodes() []*mapper.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*mapper.Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

func (s *MemorySink) Get(id string) (*mapper.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byID[id]
	return n, ok
}

func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
