package authz

import (
	"context"
	"database/sql"
)

// PostgresStore implements Store with PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a PostgreSQL-backed roster store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the roster table.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS authorized_students (
			id              VARCHAR(255) PRIMARY KEY,
			name            VARCHAR(255) DEFAULT '',
			active          BOOLEAN DEFAULT TRUE,
			created_at      TIMESTAMPTZ DEFAULT NOW()
		);
	`)
	return err
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Student, error) {
	student := &Student{}
	err := p.db.QueryRowContext(ctx, `
		SELECT id, name, active, created_at
		FROM authorized_students WHERE id = $1
	`, id).Scan(&student.ID, &student.Name, &student.Active, &student.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return student, err
}

func (p *PostgresStore) Upsert(ctx context.Context, student *Student) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO authorized_students (id, name, active, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			active = EXCLUDED.active
	`, student.ID, student.Name, student.Active, student.CreatedAt)
	return err
}

func (p *PostgresStore) SetActive(ctx context.Context, id string, active bool) error {
	result, err := p.db.ExecContext(ctx, `
		UPDATE authorized_students SET active = $2 WHERE id = $1
	`, id, active)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context) ([]*Student, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, active, created_at
		FROM authorized_students ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []*Student
	for rows.Next() {
		student := &Student{}
		if err := rows.Scan(&student.ID, &student.Name, &student.Active, &student.CreatedAt); err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, rows.Err()
}
