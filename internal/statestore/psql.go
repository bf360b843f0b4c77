package statestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS app_state (
	key        TEXT PRIMARY KEY,
	blob       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// PsqlBackend keeps blobs in the app_state table, one row per key.
type PsqlBackend struct {
	db *pgxpool.Pool
}

func NewPsqlBackend(db *pgxpool.Pool) *PsqlBackend {
	return &PsqlBackend{
		db: db,
	}
}

func (p *PsqlBackend) Name() string {
	return "postgres"
}

// EnsureSchema creates the state table if it is not there yet.
func (p *PsqlBackend) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create app_state table: %w", err)
	}
	return nil
}

func (p *PsqlBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var blob []byte
	err := p.db.QueryRow(
		ctx,
		`SELECT blob FROM app_state WHERE key = $1;`,
		key,
	).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select state [%s]: %w", key, err)
	}
	return blob, true, nil
}

func (p *PsqlBackend) Set(ctx context.Context, key string, blob []byte) error {
	_, err := p.db.Exec(
		ctx,
		`INSERT INTO app_state (key, blob, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET blob = EXCLUDED.blob, updated_at = EXCLUDED.updated_at;`,
		key, string(blob),
	)
	if err != nil {
		return fmt.Errorf("upsert state [%s]: %w", key, err)
	}
	return nil
}

func (p *PsqlBackend) Delete(ctx context.Context, key string) error {
	if _, err := p.db.Exec(ctx, `DELETE FROM app_state WHERE key = $1;`, key); err != nil {
		return fmt.Errorf("delete state [%s]: %w", key, err)
	}
	return nil
}
