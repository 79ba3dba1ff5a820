package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/araxy/lufunds/internal/common"
	"github.com/shopspring/decimal"
)

func init() {
	// balances and amounts go over the wire as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service-layer sentinel errors to the messages and
// statuses the API contract promises. Anything unrecognized is surfaced
// verbatim as a 400, matching how store errors are reported.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorInvalidAmount):
		writeError(w, http.StatusBadRequest, "Invalid amount")
	case errors.Is(err, common.ErrorInsufficientFunds):
		writeError(w, http.StatusBadRequest, "Insufficient funds")
	case errors.Is(err, common.ErrorMissingRecipient):
		writeError(w, http.StatusBadRequest, "Recipient account number is required")
	case errors.Is(err, common.ErrorRecipientNotFound):
		writeError(w, http.StatusBadRequest, "Recipient not found")
	case errors.Is(err, common.ErrorSameAccount):
		writeError(w, http.StatusBadRequest, "Cannot transfer to your own account")
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusBadRequest, "User already exists")
	case errors.Is(err, common.ErrorInvalidCredentials):
		writeError(w, http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, common.ErrInvalidToken):
		writeError(w, http.StatusBadRequest, "Invalid or expired token")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}
