package crm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/BeneficiaryImport/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig configures the connection pool of a PostgresStore.
type PostgresConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// PostgresStore keeps CRM entities in a single table, one JSONB document per
// record. Contact emails are indexed for lookup.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS crm_records (
	id         uuid PRIMARY KEY,
	entity     text NOT NULL,
	email      text,
	fields     jsonb NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS crm_records_contact_email_idx
	ON crm_records (lower(email)) WHERE entity = 'Contacts';

CREATE TABLE IF NOT EXISTS import_history (
	id          uuid PRIMARY KEY,
	file_name   text NOT NULL,
	started_at  timestamptz NOT NULL,
	finished_at timestamptz NOT NULL,
	total       integer NOT NULL,
	succeeded   integer NOT NULL,
	failed      integer NOT NULL,
	error       text NOT NULL DEFAULT '',
	ip_address  text NOT NULL DEFAULT '',
	user_agent  text NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS import_history_finished_idx ON import_history (finished_at DESC);
`

// NewPostgresStore connects, verifies the connection and creates the tables
// if they do not exist.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreFromPool wraps an existing pool. The caller owns the pool.
func NewPostgresStoreFromPool(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the store's tables and indexes.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", pgError(err))
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) SearchByEmail(ctx context.Context, email string) ([]core.ContactMatch, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, coalesce(fields->>'Account_Name', '')
		FROM crm_records
		WHERE entity = 'Contacts' AND lower(email) = lower($1)
		ORDER BY created_at`, email)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", pgError(err))
	}

	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.ContactMatch, error) {
		var m core.ContactMatch
		err := row.Scan(&m.ID, &m.AccountID)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", pgError(err))
	}
	return matches, nil
}

func (s *PostgresStore) Insert(ctx context.Context, entity core.Entity, fields core.Fields) (string, error) {
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO crm_records (id, entity, email, fields)
		VALUES ($1, $2, $3, $4)`,
		id, string(entity), emailOf(entity, fields), map[string]any(fields))
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", entity, pgError(err))
	}
	return id, nil
}

func (s *PostgresStore) Update(ctx context.Context, entity core.Entity, fields core.Fields) error {
	id, err := recordID(fields)
	if err != nil {
		return err
	}
	patch := make(map[string]any, len(fields))
	for k, v := range fields {
		if k != "id" {
			patch[k] = v
		}
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE crm_records
		SET fields = fields || $3::jsonb, email = coalesce($4, email), updated_at = now()
		WHERE id = $1 AND entity = $2`,
		id, string(entity), patch, emailOf(entity, fields))
	if err != nil {
		return fmt.Errorf("update %s: %w", entity, pgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %s", ErrRecordNotFound, entity, id)
	}
	return nil
}

func (s *PostgresStore) RecordImport(ctx context.Context, rec core.ImportRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO import_history
			(id, file_name, started_at, finished_at, total, succeeded, failed, error, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.FileName, rec.StartedAt, rec.FinishedAt,
		rec.Total, rec.Succeeded, rec.Failed, rec.Error, rec.IPAddress, rec.UserAgent)
	if err != nil {
		return fmt.Errorf("record import: %w", pgError(err))
	}
	return nil
}

func (s *PostgresStore) RecentImports(ctx context.Context, limit int) ([]core.ImportRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, file_name, started_at, finished_at, total, succeeded, failed, error, ip_address, user_agent
		FROM import_history
		ORDER BY finished_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", pgError(err))
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.ImportRecord, error) {
		var r core.ImportRecord
		err := row.Scan(&r.ID, &r.FileName, &r.StartedAt, &r.FinishedAt,
			&r.Total, &r.Succeeded, &r.Failed, &r.Error, &r.IPAddress, &r.UserAgent)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", pgError(err))
	}
	return records, nil
}

// emailOf returns the indexed email of a contact payload, or nil.
func emailOf(entity core.Entity, fields core.Fields) *string {
	if entity != core.EntityContact {
		return nil
	}
	if email, _ := fields["Email"].(string); email != "" {
		return &email
	}
	return nil
}

// pgError adds the SQLSTATE to Postgres errors so they read well in row
// failures.
func pgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s (SQLSTATE %s): %w", pgErr.Message, pgErr.Code, err)
	}
	return err
}

var (
	_ core.Store        = (*PostgresStore)(nil)
	_ core.HistoryStore = (*PostgresStore)(nil)
)
