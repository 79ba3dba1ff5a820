package transactions

import (
	"context"

	"github.com/araxy/lufunds/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, transaction *models.Transaction) error
	ListByAccountID(ctx context.Context, accountID string) ([]models.Transaction, error)
}
