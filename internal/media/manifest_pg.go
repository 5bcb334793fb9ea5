package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PGManifest keeps the manifest in Postgres so several source machines can
// share one download history.
type PGManifest struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error
}

func NewPGManifest(dsn string) (*PGManifest, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PGManifest{db: db}, nil
}

func (m *PGManifest) ensureSchema(ctx context.Context) error {
	m.schemaOnce.Do(func() {
		_, m.schemaErr = m.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS media_manifest (
				key             text PRIMARY KEY,
				handle_key      text NOT NULL,
				handle_location text NOT NULL,
				last_modified   text NOT NULL
			)`)
	})
	return m.schemaErr
}

func (m *PGManifest) Get(ctx context.Context, key string) (Entry, bool, error) {
	if m == nil || m.db == nil {
		return Entry{}, false, fmt.Errorf("media: manifest is nil")
	}
	if err := m.ensureSchema(ctx); err != nil {
		return Entry{}, false, err
	}
	var e Entry
	e.Key = key
	err := m.db.QueryRowContext(ctx,
		`SELECT handle_key, handle_location, last_modified FROM media_manifest WHERE key = $1`, key,
	).Scan(&e.Handle.Key, &e.Handle.Location, &e.LastModified)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

func (m *PGManifest) Put(ctx context.Context, e Entry) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("media: manifest is nil")
	}
	if strings.TrimSpace(e.Key) == "" {
		return fmt.Errorf("media: entry key is required")
	}
	if err := m.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO media_manifest (key, handle_key, handle_location, last_modified)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET
			handle_key = EXCLUDED.handle_key,
			handle_location = EXCLUDED.handle_location,
			last_modified = EXCLUDED.last_modified`,
		e.Key, e.Handle.Key, e.Handle.Location, e.LastModified)
	return err
}

func (m *PGManifest) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.Close()
}
