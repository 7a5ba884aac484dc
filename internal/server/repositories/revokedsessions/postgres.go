package revokedsessions

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/dbx"
)

type PostgresRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

func (r *PostgresRepository) Add(ctx context.Context, tokenID string, expiresAt time.Time) error {

	query :=
		`INSERT INTO revoked_sessions (token_id, expires_at)
		 VALUES ($1, $2)
		 ON CONFLICT (token_id) DO NOTHING
		 `

	if _, err := r.db.ExecContext(ctx, query, tokenID, expiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, tokenID string) (bool, error) {
	query :=
		`SELECT EXISTS (
		   SELECT 1 FROM revoked_sessions WHERE token_id = $1 AND expires_at > $2
		 )
		 `

	var found bool
	if err := r.db.QueryRowContext(ctx, query, tokenID, r.now()).Scan(&found); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return found, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM revoked_sessions WHERE expires_at <= $1`

	res, err := r.db.ExecContext(ctx, query, r.now())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
