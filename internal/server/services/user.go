// Package services contains the application services sitting between the
// HTTP transport and the repositories.
package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"time"

	"github.com/araxy/lufunds/internal/common"
	"github.com/araxy/lufunds/internal/dbx"
	"github.com/araxy/lufunds/internal/server/auth"
	"github.com/araxy/lufunds/internal/server/config"
	"github.com/araxy/lufunds/internal/server/mail"
	"github.com/araxy/lufunds/internal/server/models"
	"github.com/araxy/lufunds/internal/server/repositories/repomanager"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const (
	accountNumDigits = 8

	// how many times to redraw the account number when the random draw
	// collides with an existing one
	accountNumRetries = 5
)

// UserService handles registration, authentication, password reset, and
// profile settings.
type UserService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	mailer          mail.Mailer
	jwtSecret       []byte
	sessionValidity time.Duration
	resetValidity   time.Duration
	websiteURL      string
	totpIssuer      string
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, mailer mail.Mailer, cfg *config.Config) *UserService {
	return &UserService{
		db:              db,
		repomanager:     m,
		mailer:          mailer,
		jwtSecret:       []byte(cfg.SecretKey),
		sessionValidity: cfg.SessionTokenValidityDuration,
		resetValidity:   cfg.ResetTokenValidityDuration,
		websiteURL:      cfg.WebsiteURL,
		totpIssuer:      cfg.TOTPIssuer,
	}
}

// RegisterResult carries what a fresh registration returns to the client:
// a session token and the TOTP provisioning QR code as a PNG data URL.
type RegisterResult struct {
	Token  string
	QRCode string
}

// Register creates the user and their account in one transaction and returns
// a session token plus the authenticator provisioning QR. A duplicate email
// fails with common.ErrorAlreadyExists. Account number collisions are retried
// with a fresh random draw.
func (s *UserService) Register(ctx context.Context, email, name, password string) (*RegisterResult, error) {

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.totpIssuer,
		AccountName: email,
	})
	if err != nil {
		return nil, fmt.Errorf("error generating totp key: %w", err)
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(passwordHash),
		TOTPSecret:   key.Secret(),
	}

	var created *models.User

	for attempt := 0; ; attempt++ {

		accountNum, err := common.MakeRandAccountNum(accountNumDigits)
		if err != nil {
			return nil, fmt.Errorf("error generating account number: %w", err)
		}

		err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			u, err := s.repomanager.Users(tx).Create(ctx, user)
			if err != nil {
				return err
			}

			_, err = s.repomanager.Accounts(tx).Create(ctx, &models.Account{
				UserID:     u.ID,
				Balance:    decimal.Zero,
				AccountNum: accountNum,
			})
			if err != nil {
				return err
			}

			created = u
			return nil
		})

		if err == nil {
			break
		}

		// the email conflict is checked first inside the transaction, so a
		// conflict on retry can only be the redrawn account number
		if errors.Is(err, common.ErrorAlreadyExists) && attempt == 0 {
			if _, lookupErr := s.repomanager.Users(s.db).GetByEmail(ctx, email); lookupErr == nil {
				return nil, common.ErrorAlreadyExists
			}
		}
		if errors.Is(err, common.ErrorAlreadyExists) && attempt < accountNumRetries {
			continue
		}

		return nil, fmt.Errorf("error creating user: %w", err)
	}

	token, err := auth.GenerateSessionToken(created.ID, created.Email, created.Name, s.jwtSecret, s.sessionValidity)
	if err != nil {
		return nil, fmt.Errorf("error signing token: %w", err)
	}

	qrcode, err := provisioningQR(key)
	if err != nil {
		return nil, fmt.Errorf("error rendering qr code: %w", err)
	}

	return &RegisterResult{Token: token, QRCode: qrcode}, nil
}

// Login verifies credentials and returns a session token. Unknown email and
// wrong password both fail with common.ErrorInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorInvalidCredentials
		}
		return "", fmt.Errorf("error loading user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", common.ErrorInvalidCredentials
	}

	token, err := auth.GenerateSessionToken(user.ID, user.Email, user.Name, s.jwtSecret, s.sessionValidity)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}

	return token, nil
}

// RequestReset emails a password-reset link if the address belongs to a user.
// It reports success either way so the endpoint cannot be used to probe which
// emails are registered.
func (s *UserService) RequestReset(ctx context.Context, email string) error {

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return fmt.Errorf("error loading user: %w", err)
	}

	token, err := auth.GenerateResetToken(user.ID, s.jwtSecret, s.resetValidity)
	if err != nil {
		return fmt.Errorf("error signing reset token: %w", err)
	}

	link := s.websiteURL + "/reset?token=" + token
	if err := s.mailer.SendPasswordReset(user.Email, link); err != nil {
		return fmt.Errorf("error sending reset email: %w", err)
	}

	return nil
}

// ResetPassword validates the reset token and replaces the user's password.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {

	userID, err := auth.ParseResetToken(token, s.jwtSecret)
	if err != nil {
		return common.ErrInvalidToken
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	if err := s.repomanager.Users(s.db).UpdatePasswordHash(ctx, userID, string(passwordHash)); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}

	return nil
}

// UpdateName changes the user's display name and returns the updated user.
func (s *UserService) UpdateName(ctx context.Context, userID, name string) (*models.User, error) {

	user, err := s.repomanager.Users(s.db).UpdateName(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("error updating name: %w", err)
	}

	return user, nil
}

// UpdatePassword replaces the password of an authenticated user.
func (s *UserService) UpdatePassword(ctx context.Context, userID, newPassword string) error {

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	if err := s.repomanager.Users(s.db).UpdatePasswordHash(ctx, userID, string(passwordHash)); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}

	return nil
}

// Info returns the user's profile plus their account.
func (s *UserService) Info(ctx context.Context, userID string) (*models.User, *models.Account, error) {

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading user: %w", err)
	}

	account, err := s.repomanager.Accounts(s.db).GetByUserID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading account: %w", err)
	}

	return user, account, nil
}

// provisioningQR renders the otpauth:// key as a PNG data URL the client can
// show for authenticator enrollment.
func provisioningQR(key *otp.Key) (string, error) {
	img, err := key.Image(200, 200)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
