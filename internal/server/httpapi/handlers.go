package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/araxy/lufunds/internal/server/models"
	"github.com/shopspring/decimal"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Name == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email, name and password are required")
		return
	}

	result, err := s.users.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		s.logger.Error(r.Context(), "registration failed", "error", err)
		writeServiceError(w, err)
		return
	}

	s.logger.Info(r.Context(), "user registered", "email", req.Email)

	writeJSON(w, http.StatusOK, map[string]string{
		"token":  result.Token,
		"qrcode": result.QRCode,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type requestResetRequest struct {
	Email string `json:"email"`
}

// handleRequestReset reports success regardless of whether the email is
// registered, so the endpoint cannot be used to probe for accounts.
func (s *HTTPServer) handleRequestReset(w http.ResponseWriter, r *http.Request) {
	var req requestResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.users.RequestReset(r.Context(), req.Email); err != nil {
		s.logger.Error(r.Context(), "reset request failed", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "done"})
}

type resetRequest struct {
	Password string `json:"password"`
	Token    string `json:"token"`
}

func (s *HTTPServer) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Password == "" || req.Token == "" {
		writeError(w, http.StatusBadRequest, "Password and token are required")
		return
	}

	if err := s.users.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

func (s *HTTPServer) handleBalance(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	balance, err := s.accounts.Balance(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
}

func (s *HTTPServer) handleTransactions(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	list, err := s.accounts.Transactions(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if list == nil {
		list = []models.Transaction{}
	}

	writeJSON(w, http.StatusOK, map[string][]models.Transaction{"transactions": list})
}

func (s *HTTPServer) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	user, account, err := s.users.Info(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"name":        user.Name,
		"email":       user.Email,
		"account_num": account.AccountNum,
	})
}

type updateSettingsRequest struct {
	Username string `json:"username"`
}

func (s *HTTPServer) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "Username is required")
		return
	}

	user, err := s.users.UpdateName(r.Context(), claims.UserID, req.Username)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user": map[string]string{
			"name":  user.Name,
			"email": user.Email,
		},
	})
}

type updatePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

func (s *HTTPServer) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "New password is required")
		return
	}

	if err := s.users.UpdatePassword(r.Context(), claims.UserID, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

func (s *HTTPServer) handleSendEmailCode(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	if err := s.twofactor.IssueEmailCode(r.Context(), claims.UserID); err != nil {
		s.logger.Error(r.Context(), "sending email code failed", "error", err)
		writeError(w, http.StatusBadRequest, "Failed to send email code")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Email code sent"})
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (s *HTTPServer) handleDeposit(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	newBalance, err := s.accounts.Deposit(r.Context(), claims.UserID, req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.logger.Info(r.Context(), "deposit", "user_id", claims.UserID, "amount", req.Amount.String())

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Deposit successful",
		"newBalance": newBalance,
	})
}

func (s *HTTPServer) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	newBalance, err := s.accounts.Withdraw(r.Context(), claims.UserID, req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.logger.Info(r.Context(), "withdrawal", "user_id", claims.UserID, "amount", req.Amount.String())

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Withdrawal successful",
		"newBalance": newBalance,
	})
}

type transferRequest struct {
	Amount              decimal.Decimal `json:"amount"`
	RecipientAccountNum int64           `json:"recipientAccountNum"`
}

func (s *HTTPServer) handleTransfer(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	newBalance, err := s.accounts.Transfer(r.Context(), claims.UserID, req.RecipientAccountNum, req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.logger.Info(r.Context(), "transfer",
		"user_id", claims.UserID,
		"recipient_account_num", req.RecipientAccountNum,
		"amount", req.Amount.String())

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Transfer successful",
		"newBalance": newBalance,
	})
}
