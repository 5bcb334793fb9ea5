package sink

import (
	"context"
	"fmt"
	"os"
	"strings"

	"contentbridge/internal/typegen"
)

// FileSchemaSink renders declarations as SDL into a file.
type FileSchemaSink struct {
	path string
}

func NewFileSchemaSink(path string) (*FileSchemaSink, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sink: schema output path is required")
	}
	return &FileSchemaSink{path: path}, nil
}

func (s *FileSchemaSink) Accept(_ context.Context, decls []typegen.Declaration) error {
	return os.WriteFile(s.path, []byte(typegen.Render(decls)), 0o644)
}
