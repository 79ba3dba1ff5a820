package emailcodes

import (
	"context"
	"time"

	"github.com/araxy/lufunds/internal/server/models"
)

type Repository interface {
	// Upsert stores a code for userID with an expiry of now+validity,
	// replacing any previously issued code for the same user.
	Upsert(ctx context.Context, userID string, code string, validity time.Duration) error
	Find(ctx context.Context, userID string) (*models.EmailAuthCode, error)
	Delete(ctx context.Context, userID string) error
}
