// Package httpapi exposes the public HTTP/JSON API: registration, sessions,
// password reset, account reads, and the two-factor gated balance mutations.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/araxy/lufunds/internal/logging"
	"github.com/araxy/lufunds/internal/server/services"
	"github.com/gorilla/mux"
)

type HTTPServer struct {
	address   string
	logger    logging.Logger
	users     *services.UserService
	accounts  *services.AccountService
	twofactor *services.TwoFactorService
	jwtSecret []byte
}

func NewHTTPServer(a string, l logging.Logger, us *services.UserService, as *services.AccountService, ts *services.TwoFactorService, secretKey string) (*HTTPServer, error) {
	return &HTTPServer{
		address:   a,
		logger:    l.With("module", "httpapi"),
		users:     us,
		accounts:  as,
		twofactor: ts,
		jwtSecret: []byte(secretKey),
	}, nil
}

// Router builds the route table. Mutating money endpoints sit behind both the
// session middleware and the second-factor gate.
func (s *HTTPServer) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/requestreset", s.handleRequestReset).Methods(http.MethodPost)
	r.HandleFunc("/reset", s.handleReset).Methods(http.MethodPost)

	r.HandleFunc("/balance", s.authenticate(s.handleBalance)).Methods(http.MethodGet)
	r.HandleFunc("/transactions", s.authenticate(s.handleTransactions)).Methods(http.MethodGet)
	r.HandleFunc("/userinfo", s.authenticate(s.handleUserInfo)).Methods(http.MethodGet)
	r.HandleFunc("/settings", s.authenticate(s.handleUpdateSettings)).Methods(http.MethodPut)
	r.HandleFunc("/settings/password", s.authenticate(s.handleUpdatePassword)).Methods(http.MethodPut)
	r.HandleFunc("/sendemailcode", s.authenticate(s.handleSendEmailCode)).Methods(http.MethodPost)

	r.HandleFunc("/deposit", s.authenticate(s.requireSecondFactor(s.handleDeposit))).Methods(http.MethodPost)
	r.HandleFunc("/withdraw", s.authenticate(s.requireSecondFactor(s.handleWithdraw))).Methods(http.MethodPost)
	r.HandleFunc("/transfer", s.authenticate(s.requireSecondFactor(s.handleTransfer))).Methods(http.MethodPost)

	return r
}

// Run starts the HTTP server and shuts it down gracefully when ctx is
// cancelled.
func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
