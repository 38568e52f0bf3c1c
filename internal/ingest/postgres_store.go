package ingest

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/xscout-labs/xscout/internal/telemetry"
)

// PostgresStore implements Store with PostgreSQL.
//
// The full sample travels as JSONB; user id and timestamp are lifted into
// columns for the two query shapes the dashboard needs. The BIGSERIAL id
// preserves arrival order for equal timestamps.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a PostgreSQL-backed telemetry store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the telemetry tables.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS telemetry_samples (
			id              BIGSERIAL PRIMARY KEY,
			user_id         VARCHAR(255) NOT NULL,
			ts              TIMESTAMPTZ NOT NULL,
			payload         JSONB NOT NULL,
			received_at     TIMESTAMPTZ DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_samples_user_ts ON telemetry_samples(user_id, ts, id);
	`)
	return err
}

// Put appends one sample.
func (p *PostgresStore) Put(ctx context.Context, sample *telemetry.Sample) error {
	payload, err := json.Marshal(sample)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO telemetry_samples (user_id, ts, payload)
		VALUES ($1, $2, $3)
	`, sample.User, sample.Timestamp, payload)
	return err
}

// LatestPerUser returns each user's newest sample, sorted by user id.
func (p *PostgresStore) LatestPerUser(ctx context.Context) ([]*telemetry.Sample, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT DISTINCT ON (user_id) payload
		FROM telemetry_samples
		ORDER BY user_id, ts DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSamples(rows)
}

// HistoryOf returns the newest limit samples of one user, oldest first.
func (p *PostgresStore) HistoryOf(ctx context.Context, user string, limit int) ([]*telemetry.Sample, error) {
	if limit <= 0 {
		limit = 1<<31 - 1
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT payload FROM (
			SELECT payload, ts, id
			FROM telemetry_samples
			WHERE user_id = $1
			ORDER BY ts DESC, id DESC
			LIMIT $2
		) newest
		ORDER BY newest.ts ASC, newest.id ASC
	`, user, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples, err := scanSamples(rows)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, ErrUnknownUser
	}
	return samples, nil
}

// Users returns the number of distinct users with samples.
func (p *PostgresStore) Users(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT user_id) FROM telemetry_samples
	`).Scan(&n)
	return n, err
}

func scanSamples(rows *sql.Rows) ([]*telemetry.Sample, error) {
	var samples []*telemetry.Sample
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		sample := &telemetry.Sample{}
		if err := json.Unmarshal(payload, sample); err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}
