package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/araxy/lufunds/internal/common"
	"github.com/araxy/lufunds/internal/server/config"
	"github.com/araxy/lufunds/internal/server/mail"
	"github.com/araxy/lufunds/internal/server/repositories/repomanager"
	"github.com/pquerna/otp/totp"
)

const emailCodeDigits = 6

// TwoFactorService issues and verifies the second factor required to
// authorize a balance-mutating operation: an emailed one-time code plus a
// TOTP code from the user's authenticator app.
type TwoFactorService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	mailer       mail.Mailer
	codeValidity time.Duration
}

func NewTwoFactorService(db *sql.DB, m repomanager.RepositoryManager, mailer mail.Mailer, cfg *config.Config) *TwoFactorService {
	return &TwoFactorService{
		db:           db,
		repomanager:  m,
		mailer:       mailer,
		codeValidity: cfg.EmailCodeValidityDuration,
	}
}

// IssueEmailCode generates a fresh one-time code for the user, stores it
// (replacing any previously issued code), and emails it. The previous code
// becomes invalid immediately.
func (s *TwoFactorService) IssueEmailCode(ctx context.Context, userID string) error {

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("error loading user: %w", err)
	}

	code, err := common.MakeRandNumericCode(emailCodeDigits)
	if err != nil {
		return fmt.Errorf("error generating code: %w", err)
	}

	if err := s.repomanager.EmailCodes(s.db).Upsert(ctx, userID, code, s.codeValidity); err != nil {
		return fmt.Errorf("error storing code: %w", err)
	}

	if err := s.mailer.SendAuthCode(user.Email, code); err != nil {
		return fmt.Errorf("error sending code: %w", err)
	}

	return nil
}

// Verify checks both halves of the second factor. The emailed code is
// consumed (deleted) as soon as it matches, before the TOTP check, so a
// replayed pair always fails with common.ErrorNotFound.
//
// Failure modes: common.ErrorNotFound (no outstanding code),
// common.ErrorCodeExpired, common.ErrorCodeMismatch. Any failure is terminal
// for the attempt; the caller must request a new email code.
func (s *TwoFactorService) Verify(ctx context.Context, userID, emailCode, totpCode string) error {

	repo := s.repomanager.EmailCodes(s.db)

	stored, err := repo.Find(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error loading code: %w", err)
	}

	if stored.ExpiresAt.Before(time.Now()) {
		return common.ErrorCodeExpired
	}

	if subtle.ConstantTimeCompare([]byte(stored.Code), []byte(emailCode)) != 1 {
		return common.ErrorCodeMismatch
	}

	// single use: consume before the TOTP check so the code cannot be retried
	if err := repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("error consuming code: %w", err)
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("error loading user: %w", err)
	}

	if !validateTOTP(totpCode, user.TOTPSecret) {
		return common.ErrorCodeMismatch
	}

	return nil
}

// validateTOTP is a seam for tests; it uses standard 30s time steps with a
// tolerance of one step in either direction.
var validateTOTP = func(code, secret string) bool {
	return totp.Validate(code, secret)
}
