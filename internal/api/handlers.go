/**
 * @description
 * This file contains the HTTP handlers for the customer-facing API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the
 * appropriate methods on the application service, and writing the HTTP
 * response. They act as the bridge between the web layer and the business
 * logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/sabinbank/banking-service/internal/app"
	"github.com/sabinbank/banking-service/internal/domain"
	"github.com/sabinbank/banking-service/internal/store"
)

// BankHandlers holds the application service that handlers will use.
type BankHandlers struct {
	service *app.Service
}

// NewBankHandlers creates a new instance of BankHandlers.
func NewBankHandlers(service *app.Service) *BankHandlers {
	return &BankHandlers{service: service}
}

// writeJSON is a helper for writing JSON responses.
func (h *BankHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *BankHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeRateLimited writes a 429 with a Retry-After header.
func (h *BankHandlers) writeRateLimited(w http.ResponseWriter, rle *app.RateLimitError) {
	w.Header().Set("Retry-After", strconv.Itoa(rle.RetryAfterSeconds))
	h.writeError(w, http.StatusTooManyRequests, rle.Error())
}

// requirePhone extracts the authenticated customer's phone number from the
// request claims. Admin tokens carry no phone and are rejected here.
func (h *BankHandlers) requirePhone(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := GetClaims(r.Context())
	if !ok || claims.Phone == "" {
		h.writeError(w, http.StatusUnauthorized, "Could not identify account from token")
		return "", false
	}
	return claims.Phone, true
}

// SignupHandler handles new account applications.
func (h *BankHandlers) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.Signup(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMissingFields),
			errors.Is(err, app.ErrWeakPassword),
			errors.Is(err, app.ErrInvalidBirthDate),
			errors.Is(err, app.ErrUnsupportedCardType):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrDuplicateUser):
			h.writeError(w, http.StatusConflict, "An account with this email or phone number already exists")
		default:
			log.Printf("level=error component=api endpoint=signup err=%v", err)
			h.writeError(w, http.StatusInternalServerError, "Could not create account")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Account application submitted. You can log in once an administrator approves it.",
		"user":    user,
	})
}

// LoginHandler authenticates a customer and returns a session token.
func (h *BankHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		var rle *app.RateLimitError
		switch {
		case errors.As(err, &rle):
			h.writeRateLimited(w, rle)
		case errors.Is(err, app.ErrInvalidCredentials):
			h.writeError(w, http.StatusUnauthorized, "Invalid phone number or password")
		case errors.Is(err, app.ErrAccountPending):
			h.writeError(w, http.StatusForbidden, "Your account is pending approval")
		case errors.Is(err, app.ErrAccountRejected):
			h.writeError(w, http.StatusForbidden, "Your account application was rejected")
		default:
			log.Printf("level=error component=api endpoint=login err=%v", err)
			h.writeError(w, http.StatusInternalServerError, "Could not log in")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// SendOTPHandler emails a password-reset code.
func (h *BankHandlers) SendOTPHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.SendPasswordResetOTP(r.Context(), req.Email); err != nil {
		var rle *app.RateLimitError
		switch {
		case errors.As(err, &rle):
			h.writeRateLimited(w, rle)
		case errors.Is(err, app.ErrMissingFields):
			h.writeError(w, http.StatusBadRequest, "Email is required")
		case errors.Is(err, store.ErrUserNotFound):
			h.writeError(w, http.StatusNotFound, "No account found for this email")
		case errors.Is(err, app.ErrOTPUnavailable):
			h.writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			log.Printf("level=error component=api endpoint=send_otp err=%v", err)
			h.writeError(w, http.StatusInternalServerError, "Could not send reset code")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Reset code sent"})
}

// VerifyOTPHandler checks a password-reset code without consuming it.
func (h *BankHandlers) VerifyOTPHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.VerifyPasswordResetOTP(r.Context(), req.Email, req.Code); err != nil {
		if errors.Is(err, app.ErrInvalidOTP) {
			h.writeError(w, http.StatusBadRequest, "Invalid or expired code")
			return
		}
		log.Printf("level=error component=api endpoint=verify_otp err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Could not verify code")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Code verified"})
}

// ResetPasswordHandler completes the password-reset flow.
func (h *BankHandlers) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.ResetPassword(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidOTP):
			h.writeError(w, http.StatusBadRequest, "Invalid or expired code")
		case errors.Is(err, app.ErrWeakPassword):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrUserNotFound):
			h.writeError(w, http.StatusNotFound, "No account found for this email")
		default:
			log.Printf("level=error component=api endpoint=reset_password err=%v", err)
			h.writeError(w, http.StatusInternalServerError, "Could not reset password")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

// DashboardHandler returns the full customer dashboard payload.
func (h *BankHandlers) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	phone, ok := h.requirePhone(w, r)
	if !ok {
		return
	}

	dashboard, err := h.service.Dashboard(r.Context(), phone)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.writeError(w, http.StatusNotFound, "Account not found")
			return
		}
		log.Printf("level=error component=api endpoint=dashboard phone=%s err=%v", phone, err)
		h.writeError(w, http.StatusInternalServerError, "Could not load dashboard")
		return
	}

	h.writeJSON(w, http.StatusOK, dashboard)
}

// CashOperationHandler handles deposits and withdrawals.
func (h *BankHandlers) CashOperationHandler(w http.ResponseWriter, r *http.Request) {
	phone, ok := h.requirePhone(w, r)
	if !ok {
		return
	}

	var req domain.CashOperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, newBalance, err := h.service.ProcessCashOperation(r.Context(), phone, req)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidAmount), errors.Is(err, app.ErrInvalidOperationType):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrInsufficientFunds):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrUserNotFound):
			h.writeError(w, http.StatusNotFound, "Account not found")
		default:
			log.Printf("level=error component=api endpoint=cash_operation phone=%s err=%v", phone, err)
			h.writeError(w, http.StatusInternalServerError, "Could not process operation")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, domain.CashOperationResponse{
		Message:     "Operation completed",
		Transaction: tx,
		NewBalance:  newBalance,
	})
}

// TransferHandler handles peer-to-peer transfers.
func (h *BankHandlers) TransferHandler(w http.ResponseWriter, r *http.Request) {
	phone, ok := h.requirePhone(w, r)
	if !ok {
		return
	}

	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.service.ProcessTransfer(r.Context(), phone, req)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidAmount), errors.Is(err, app.ErrSelfTransfer):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrInsufficientFunds):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrUserNotFound):
			h.writeError(w, http.StatusNotFound, "Recipient not found")
		default:
			log.Printf("level=error component=api endpoint=transfer phone=%s err=%v", phone, err)
			h.writeError(w, http.StatusInternalServerError, "Could not process transfer")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, domain.TransferResponse{
		Message:     "Transfer completed",
		Transaction: tx,
	})
}

// ListCardsHandler returns all of the customer's cards and card requests.
func (h *BankHandlers) ListCardsHandler(w http.ResponseWriter, r *http.Request) {
	phone, ok := h.requirePhone(w, r)
	if !ok {
		return
	}

	cards, err := h.service.UserCards(r.Context(), phone)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_cards phone=%s err=%v", phone, err)
		h.writeError(w, http.StatusInternalServerError, "Could not load cards")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"cards": cards})
}

// RequestCardHandler files a new card request for the customer.
func (h *BankHandlers) RequestCardHandler(w http.ResponseWriter, r *http.Request) {
	phone, ok := h.requirePhone(w, r)
	if !ok {
		return
	}

	var req domain.CardRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	card, err := h.service.RequestCard(r.Context(), phone, req)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMissingCardHolder), errors.Is(err, app.ErrUnsupportedCardType):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrPendingCardRequest):
			h.writeError(w, http.StatusConflict, "You already have a pending card request")
		case errors.Is(err, store.ErrUserNotFound):
			h.writeError(w, http.StatusNotFound, "Account not found")
		default:
			log.Printf("level=error component=api endpoint=request_card phone=%s err=%v", phone, err)
			h.writeError(w, http.StatusInternalServerError, "Could not file card request")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Card request submitted",
		"card":    card,
	})
}
