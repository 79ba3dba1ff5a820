package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/araxy/lufunds/internal/common"
	"github.com/araxy/lufunds/internal/dbx"
	"github.com/araxy/lufunds/internal/server/models"
	accountsrepo "github.com/araxy/lufunds/internal/server/repositories/accounts"
	emailcodesrepo "github.com/araxy/lufunds/internal/server/repositories/emailcodes"
	transactionsrepo "github.com/araxy/lufunds/internal/server/repositories/transactions"
	usersrepo "github.com/araxy/lufunds/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// --- fakes ---

// fakeUsersRepo serves seeded users. Create assigns an id but does not add
// the user to the seeded set, so registration tests can retry without the
// half-created user leaking into lookups.
type fakeUsersRepo struct {
	mu    sync.Mutex
	users map[string]*models.User // by id

	createErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: map[string]*models.User{}}
}

func (f *fakeUsersRepo) seed(u *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.ID = uuid.New().String()
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

// fakeAccountsRepo mimics the conditional-update semantics of the postgres
// repository: Debit checks and writes under one lock, so concurrent debits
// behave like the atomic SQL statement.
type fakeAccountsRepo struct {
	mu       sync.Mutex
	accounts map[string]*models.Account // by id

	createErrs []error // popped per Create call
}

func newFakeAccountsRepo() *fakeAccountsRepo {
	return &fakeAccountsRepo{accounts: map[string]*models.Account{}}
}

func (f *fakeAccountsRepo) seed(a *models.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[a.ID] = a
}

func (f *fakeAccountsRepo) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	a.ID = uuid.New().String()
	f.accounts[a.ID] = a
	return a, nil
}

func (f *fakeAccountsRepo) GetByUserID(ctx context.Context, userID string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.UserID == userID {
			copy := *a
			return &copy, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAccountsRepo) GetByAccountNum(ctx context.Context, accountNum int64) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.AccountNum == accountNum {
			copy := *a
			return &copy, nil
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

func (f *fakeAccountsRepo) balance(id string) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[id].Balance
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

func (f *fakeTransactionsRepo) byAccount(accountID string) []models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Transaction
	for _, e := range f.entries {
		if e.AccountID == accountID {
			result = append(result, e)
		}
	}
	return result
}

type fakeEmailCodesRepo struct {
	mu    sync.Mutex
	codes map[string]*models.EmailAuthCode
}

func newFakeEmailCodesRepo() *fakeEmailCodesRepo {
	return &fakeEmailCodesRepo{codes: map[string]*models.EmailAuthCode{}}
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
		copy := *c
		return &copy, nil
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

type fakeRepoManager struct {
	users        *fakeUsersRepo
	accounts     *fakeAccountsRepo
	transactions *fakeTransactionsRepo
	emailCodes   *fakeEmailCodesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:        newFakeUsersRepo(),
		accounts:     newFakeAccountsRepo(),
		transactions: &fakeTransactionsRepo{},
		emailCodes:   newFakeEmailCodesRepo(),
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
