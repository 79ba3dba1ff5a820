// Package emailcodes provides a PostgreSQL-backed repository for the emailed
// one-time codes used as the first half of the second factor.
package emailcodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/araxy/lufunds/internal/common"
	"github.com/araxy/lufunds/internal/dbx"
	"github.com/araxy/lufunds/internal/server/models"
)

// PostgresRepository keeps at most one live code per user: user_id is the
// primary key and Upsert overwrites in place.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, userID string, code string, validity time.Duration) error {
	query := `
		INSERT INTO email_auth_codes (user_id, code, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at
	`
	if _, err := r.db.ExecContext(ctx, query, userID, code, time.Now().Add(validity)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Find returns the outstanding code for the user.
// If not found, it returns common.ErrorNotFound.
func (r *PostgresRepository) Find(ctx context.Context, userID string) (*models.EmailAuthCode, error) {
	query := `
		SELECT user_id, code, expires_at
		FROM email_auth_codes
		WHERE user_id = $1
	`
	code := &models.EmailAuthCode{}
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&code.UserID, &code.Code, &code.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return code, nil
}

// Delete removes the user's outstanding code, consuming it.
func (r *PostgresRepository) Delete(ctx context.Context, userID string) error {
	query := `
		DELETE FROM email_auth_codes
		WHERE user_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
