package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"

	"contentbridge/internal/mapper"
)

// PostgresSink upserts nodes by identity, so repeated runs converge on the
// current content state.
type PostgresSink struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgresSink(dsn string) (*PostgresSink, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresSink{db: db}, nil
}

func (s *PostgresSink) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS content_nodes (
				id         text PRIMARY KEY,
				node_type  text NOT NULL,
				payload    jsonb NOT NULL,
				updated_at timestamptz NOT NULL DEFAULT now()
			)`)
	})
	return s.schemaErr
}

func (s *PostgresSink) Accept(ctx context.Context, node *mapper.Node) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sink: postgres sink is nil")
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	payload, err := json.Marshal(node)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO content_nodes (id, node_type, payload, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE SET
			node_type = EXCLUDED.node_type,
			payload = EXCLUDED.payload,
			updated_at = now()`,
		node.ID, node.Type, payload)
	return err
}

func (s *PostgresSink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
