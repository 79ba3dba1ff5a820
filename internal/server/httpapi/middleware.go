package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/araxy/lufunds/internal/common"
	"github.com/araxy/lufunds/internal/server/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// claimsFromContext returns the authenticated identity placed there by the
// authenticate middleware.
func claimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

// authenticate verifies the Bearer session token and attaches the caller's
// identity to the request context. Missing, malformed, expired, and badly
// signed tokens are all rejected with 401.
func (s *HTTPServer) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "Access denied")
			return
		}

		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "Invalid token format")
			return
		}

		claims, err := auth.ParseSessionToken(parts[1], s.jwtSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	}
}

// secondFactorPayload is the slice of the request body the gate cares about;
// the remaining fields are left for the wrapped handler.
type secondFactorPayload struct {
	EmailCode string `json:"emailCode"`
	TotpCode  string `json:"totpCode"`
}

// maxBodySize bounds mutating request bodies; the largest legitimate payload
// is a transfer request of a few hundred bytes.
const maxBodySize = 1 << 16

// requireSecondFactor gates a balance-mutating handler behind two-factor
// verification. It reads the body, verifies {emailCode, totpCode} for the
// authenticated caller, and only then replays the body to the wrapped
// handler. On any failure the wrapped handler never runs.
func (s *HTTPServer) requireSecondFactor(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Access denied")
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		var payload secondFactorPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if payload.EmailCode == "" || payload.TotpCode == "" {
			writeError(w, http.StatusBadRequest, "Email code and TOTP code are required")
			return
		}

		if err := s.twofactor.Verify(r.Context(), claims.UserID, payload.EmailCode, payload.TotpCode); err != nil {
			switch {
			case errors.Is(err, common.ErrorNotFound):
				writeError(w, http.StatusNotFound, "No email code found")
			case errors.Is(err, common.ErrorCodeExpired):
				writeError(w, http.StatusBadRequest, "Email code expired")
			case errors.Is(err, common.ErrorCodeMismatch):
				writeError(w, http.StatusBadRequest, "Invalid authentication codes")
			default:
				s.logger.Error(r.Context(), "second factor verification failed", "error", err)
				writeError(w, http.StatusBadRequest, "Verification failed")
			}
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next(w, r)
	}
}
