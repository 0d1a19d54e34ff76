package attempt

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const schema = `CREATE TABLE IF NOT EXISTS verification_attempts (
	id           BIGSERIAL PRIMARY KEY,
	code_hash    TEXT        NOT NULL,
	email        TEXT        NOT NULL DEFAULT '',
	ip_address   TEXT        NOT NULL,
	success      BOOLEAN     NOT NULL,
	reason       TEXT        NOT NULL,
	attempted_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS verification_attempts_ip_time_idx
	ON verification_attempts (ip_address, attempted_at DESC);`

// Repository records access-code verification attempts
type Repository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewRepository creates a new attempt repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// EnsureSchema creates the attempts table if it does not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create verification_attempts: %w", err)
	}
	return nil
}

// Record stores one verification attempt
func (r *Repository) Record(ctx context.Context, code, email, ipAddress string, success bool, reason string) error {
	query := `INSERT INTO verification_attempts (code_hash, email, ip_address, success, reason, attempted_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query, HashCode(code), email, ipAddress, success, reason, r.now())
	if err != nil {
		return fmt.Errorf("failed to record verification attempt: %w", err)
	}
	return nil
}

// RecentFailures returns failed attempts from ipAddress since the given time
func (r *Repository) RecentFailures(ctx context.Context, ipAddress string, since time.Time) ([]Attempt, error) {
	var attempts []Attempt
	query := `SELECT id, code_hash, email, ip_address, success, reason, attempted_at
			  FROM verification_attempts
			  WHERE ip_address = $1 AND success = false AND attempted_at >= $2
			  ORDER BY attempted_at DESC`

	err := r.db.SelectContext(ctx, &attempts, query, ipAddress, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent verification attempts: %w", err)
	}

	return attempts, nil
}
