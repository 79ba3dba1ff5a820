// Package transactions provides a PostgreSQL-backed repository for the
// append-only transaction ledger.
package transactions

import (
	"context"
	"fmt"

	"github.com/araxy/lufunds/internal/dbx"
	"github.com/araxy/lufunds/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create appends a ledger entry. Entries are never updated or deleted.
func (r *PostgresRepository) Create(ctx context.Context, t *models.Transaction) error {
	query := `
		INSERT INTO transactions
			(id, account_id, type, amount, currency, status, recipient_account_num, sender_account_num)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := r.db.ExecContext(ctx, query,
		t.ID, t.AccountID, t.Type, t.Amount, t.Currency, t.Status,
		t.RecipientAccountNum, t.SenderAccountNum); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByAccountID returns the account's ledger entries, newest first.
func (r *PostgresRepository) ListByAccountID(ctx context.Context, accountID string) ([]models.Transaction, error) {
	query := `
		SELECT id, account_id, type, amount, currency, status,
		       recipient_account_num, sender_account_num, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Type, &t.Amount, &t.Currency,
			&t.Status, &t.RecipientAccountNum, &t.SenderAccountNum, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
