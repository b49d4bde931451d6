package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB creates a Postgres connection with sane defaults.
func NewDB(connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return &DB{Client: db}, db.PingContext(context.Background())
}

// EnsureSchema creates the tables the engine needs if they do not exist.
func (d *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id              UUID PRIMARY KEY,
			name            TEXT NOT NULL,
			credential_hash TEXT NOT NULL,
			role            TEXT NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS accounts_name_key ON accounts (lower(name))`,
		`CREATE TABLE IF NOT EXISTS postings (
			id               UUID PRIMARY KEY,
			owner_id         UUID NOT NULL REFERENCES accounts(id),
			owner_name       TEXT NOT NULL,
			title            TEXT NOT NULL,
			description      TEXT NOT NULL,
			organization     TEXT NOT NULL,
			status           TEXT NOT NULL,
			created_at       TIMESTAMPTZ NOT NULL,
			seq              BIGSERIAL,
			required_courses JSONB,
			skills           JSONB,
			standings        JSONB,
			paid             BOOLEAN NOT NULL DEFAULT FALSE,
			stipend          DOUBLE PRECISION,
			extra            JSONB
		)`,
		`CREATE TABLE IF NOT EXISTS applications (
			id             UUID PRIMARY KEY,
			posting_id     UUID NOT NULL,
			applicant_id   UUID NOT NULL,
			applicant_name TEXT NOT NULL,
			document_ref   TEXT NOT NULL,
			document_name  TEXT NOT NULL,
			submitted_at   TIMESTAMPTZ NOT NULL,
			seq            BIGSERIAL
		)`,
		`CREATE INDEX IF NOT EXISTS applications_posting_idx ON applications (posting_id, seq)`,
	}
	for _, stmt := range stmts {
		if _, err := d.Client.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
