package httpapi

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/araxy/lufunds/internal/common"
	"github.com/araxy/lufunds/internal/dbx"
	"github.com/araxy/lufunds/internal/logging"
	"github.com/araxy/lufunds/internal/server/auth"
	"github.com/araxy/lufunds/internal/server/config"
	"github.com/araxy/lufunds/internal/server/models"
	accountsrepo "github.com/araxy/lufunds/internal/server/repositories/accounts"
	emailcodesrepo "github.com/araxy/lufunds/internal/server/repositories/emailcodes"
	transactionsrepo "github.com/araxy/lufunds/internal/server/repositories/transactions"
	usersrepo "github.com/araxy/lufunds/internal/server/repositories/users"
	"github.com/araxy/lufunds/internal/server/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeUsersRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func (f *fakeUsersRepo) seed(u *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.ID = uuid.New().String()
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) UpdateName(ctx context.Context, id string, name string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Name = name
	return u, nil
}

func (f *fakeUsersRepo) UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

type fakeAccountsRepo struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
}

func (f *fakeAccountsRepo) seed(a *models.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[a.ID] = a
}

func (f *fakeAccountsRepo) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = uuid.New().String()
	f.accounts[a.ID] = a
	return a, nil
}

func (f *fakeAccountsRepo) GetByUserID(ctx context.Context, userID string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.UserID == userID {
			c := *a
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAccountsRepo) GetByAccountNum(ctx context.Context, accountNum int64) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.AccountNum == accountNum {
			c := *a
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAccountsRepo) Credit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[accountID]
	if !ok {
		return decimal.Zero, common.ErrorNotFound
	}
	a.Balance = a.Balance.Add(amount)
	return a.Balance, nil
}

func (f *fakeAccountsRepo) Debit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[accountID]
	if !ok || a.Balance.LessThan(amount) {
		return decimal.Zero, common.ErrorInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	return a.Balance, nil
}

type fakeTransactionsRepo struct {
	mu      sync.Mutex
	entries []models.Transaction
}

func (f *fakeTransactionsRepo) Create(ctx context.Context, t *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.CreatedAt = time.Now()
	f.entries = append(f.entries, *t)
	return nil
}

func (f *fakeTransactionsRepo) ListByAccountID(ctx context.Context, accountID string) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Transaction
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].AccountID == accountID {
			result = append(result, f.entries[i])
		}
	}
	return result, nil
}

type fakeEmailCodesRepo struct {
	mu    sync.Mutex
	codes map[string]*models.EmailAuthCode
}

func (f *fakeEmailCodesRepo) Upsert(ctx context.Context, userID string, code string, validity time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[userID] = &models.EmailAuthCode{UserID: userID, Code: code, ExpiresAt: time.Now().Add(validity)}
	return nil
}

func (f *fakeEmailCodesRepo) Find(ctx context.Context, userID string) (*models.EmailAuthCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.codes[userID]; ok {
		cc := *c
		return &cc, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeEmailCodesRepo) Delete(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.codes, userID)
	return nil
}

func (f *fakeEmailCodesRepo) seed(userID, code string, expiresAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[userID] = &models.EmailAuthCode{UserID: userID, Code: code, ExpiresAt: expiresAt}
}

type fakeRepoManager struct {
	users        *fakeUsersRepo
	accounts     *fakeAccountsRepo
	transactions *fakeTransactionsRepo
	emailCodes   *fakeEmailCodesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:        &fakeUsersRepo{users: map[string]*models.User{}},
		accounts:     &fakeAccountsRepo{accounts: map[string]*models.Account{}},
		transactions: &fakeTransactionsRepo{},
		emailCodes:   &fakeEmailCodesRepo{codes: map[string]*models.EmailAuthCode{}},
	}
}

func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository { return m.users }
func (m *fakeRepoManager) Accounts(db dbx.DBTX) accountsrepo.Repository {
	return m.accounts
}
func (m *fakeRepoManager) Transactions(db dbx.DBTX) transactionsrepo.Repository {
	return m.transactions
}
func (m *fakeRepoManager) EmailCodes(db dbx.DBTX) emailcodesrepo.Repository {
	return m.emailCodes
}
func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

type sentMail struct {
	to   string
	code string
	link string
}

type fakeMailer struct {
	mu     sync.Mutex
	codes  []sentMail
	resets []sentMail
}

func (f *fakeMailer) SendAuthCode(to string, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, sentMail{to: to, code: code})
	return nil
}

func (f *fakeMailer) SendPasswordReset(to string, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, sentMail{to: to, link: link})
	return nil
}

// newTestServer wires the real services over the fakes and returns the
// router ready to serve httptest requests. The sqlmock database accepts up
// to eight transactions per test without caring how each one ends.
func newTestServer(t *testing.T) (http.Handler, *fakeRepoManager, *fakeMailer) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 8; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}

	cfg := &config.Config{
		SecretKey:                    testSecret,
		SessionTokenValidityDuration: time.Hour,
		ResetTokenValidityDuration:   15 * time.Minute,
		EmailCodeValidityDuration:    10 * time.Minute,
		WebsiteURL:                   "https://bank.example.com",
		TOTPIssuer:                   "LuFunds",
	}

	rm := newFakeRepoManager()
	mailer := &fakeMailer{}

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))

	us := services.NewUserService(db, rm, mailer, cfg)
	as := services.NewAccountService(db, rm)
	ts := services.NewTwoFactorService(db, rm, mailer, cfg)

	srv, err := NewHTTPServer("localhost:0", logger, us, as, ts, cfg.SecretKey)
	require.NoError(t, err)

	return srv.Router(), rm, mailer
}

func sessionToken(t *testing.T, userID, email, name string) string {
	t.Helper()
	token, err := auth.GenerateSessionToken(userID, email, name, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return token
}
