package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"contentbridge/internal/mapper"
)

// JSONLSink writes one JSON object per node. Nodes already written under the
// same identity are skipped, which keeps Accept idempotent within a run.
type JSONLSink struct {
	mu   sync.Mutex
	f    *os.File
	seen map[string]struct{}
}

func NewJSONLSink(path string) (*JSONLSink, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sink: output path is required")
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &JSONLSink{f: f, seen: map[string]struct{}{}}, nil
}

func (s *JSONLSink) Accept(_ context.Context, node *mapper.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[node.ID]; ok {
		return nil
	}
	raw, err := json.Marshal(node)
	if err != nil {
		return err
	}
	if _, err := s.f.Write(append(raw, '\n')); err != nil {
		return err
	}
	s.seen[node.ID] = struct{}{}
	return nil
}

func (s *JSONLSink) Close() error {
	if s == nil || s.f == nil {
		return nil
	}
	return s.f.Close()
}
