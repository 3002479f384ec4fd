/**
 * @description
 * This file contains the HTTP handlers for the back-office admin endpoints:
 * admin authentication and bootstrap, user approval decisions, card and
 * card-request management, the transaction report, and balance reconciliation.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sabinbank/banking-service/internal/app"
	"github.com/sabinbank/banking-service/internal/domain"
	"github.com/sabinbank/banking-service/internal/store"
)

// AdminLoginHandler authenticates a back-office admin.
func (h *BankHandlers) AdminLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.AdminLogin(r.Context(), req)
	if err != nil {
		var rle *app.RateLimitError
		switch {
		case errors.As(err, &rle):
			h.writeRateLimited(w, rle)
		case errors.Is(err, app.ErrInvalidCredentials):
			h.writeError(w, http.StatusUnauthorized, "Invalid email or password")
		default:
			log.Printf("level=error component=api endpoint=admin_login err=%v", err)
			h.writeError(w, http.StatusInternalServerError, "Could not log in")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// AdminSetupHandler bootstraps the first admin account.
func (h *BankHandlers) AdminSetupHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	admin, err := h.service.SetupAdmin(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMissingFields), errors.Is(err, app.ErrWeakPassword):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrAdminExists):
			h.writeError(w, http.StatusConflict, "Admin account already exists")
		default:
			log.Printf("level=error component=api endpoint=admin_setup err=%v", err)
			h.writeError(w, http.StatusInternalServerError, "Could not create admin")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, admin)
}

// AdminDashboardHandler returns the back-office landing payload.
func (h *BankHandlers) AdminDashboardHandler(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.AdminDashboardData(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=admin_dashboard err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Could not load dashboard")
		return
	}
	h.writeJSON(w, http.StatusOK, dashboard)
}

// AdminListUsersHandler lists users, optionally filtered by status.
func (h *BankHandlers) AdminListUsersHandler(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	users, err := h.service.ListUsers(r.Context(), status)
	if err != nil {
		log.Printf("level=error component=api endpoint=admin_list_users err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Could not load users")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// AdminUserDecisionHandler applies an approve/reject decision to a pending user.
func (h *BankHandlers) AdminUserDecisionHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID uuid.UUID `json:"user_id"`
		Action string    `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cardCreated, err := h.service.DecideUser(r.Context(), req.UserID, req.Action)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidDecision):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrInvalidTransition):
			h.writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, store.ErrUserNotFound):
			h.writeError(w, http.StatusNotFound, "User not found")
		default:
			log.Printf("level=error component=api endpoint=user_decision user_id=%s err=%v", req.UserID, err)
			h.writeError(w, http.StatusInternalServerError, "Could not apply decision")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Decision applied",
		"card_created": cardCreated,
	})
}

// AdminListCardsHandler lists all cards joined with owner details.
func (h *BankHandlers) AdminListCardsHandler(w http.ResponseWriter, r *http.Request) {
	cards, err := h.service.AllCards(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=admin_list_cards err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Could not load cards")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"cards": cards})
}

// AdminCardStatusHandler toggles an issued card between active and blocked.
func (h *BankHandlers) AdminCardStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CardStatusPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.SetCardStatus(r.Context(), req.CardID, req.Status); err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidCardStatus):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrCardNotIssued):
			h.writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, store.ErrCardNotFound):
			h.writeError(w, http.StatusNotFound, "Card not found")
		default:
			log.Printf("level=error component=api endpoint=card_status card_id=%s err=%v", req.CardID, err)
			h.writeError(w, http.StatusInternalServerError, "Could not update card")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Card updated"})
}

// AdminListCardRequestsHandler lists pending card requests.
func (h *BankHandlers) AdminListCardRequestsHandler(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.PendingCardRequests(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=admin_card_requests err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Could not load card requests")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

// AdminCardDecisionHandler applies an approve/reject decision to a card request.
func (h *BankHandlers) AdminCardDecisionHandler(w http.ResponseWriter, r *http.Request) {
	cardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid card request ID")
		return
	}

	var req domain.CardDecisionPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	card, err := h.service.DecideCardRequest(r.Context(), cardID, req.Action)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidDecision):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrInvalidTransition):
			h.writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, store.ErrCardNotFound):
			h.writeError(w, http.StatusNotFound, "Card request not found")
		default:
			log.Printf("level=error component=api endpoint=card_decision card_id=%s err=%v", cardID, err)
			h.writeError(w, http.StatusInternalServerError, "Could not apply decision")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Decision applied",
		"card":    card,
	})
}

// AdminTransactionsHandler returns the windowed transaction report.
func (h *BankHandlers) AdminTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.service.AdminTransactionReport(r.Context(), q.Get("filter"), q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		if errors.Is(err, app.ErrInvalidWindow) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("level=error component=api endpoint=admin_transactions err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Could not load transactions")
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

// AdminResetBalanceHandler replays a customer's ledger and repairs the stored
// balance.
func (h *BankHandlers) AdminResetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber string `json:"phone_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	balance, err := h.service.ReconcileBalance(r.Context(), req.PhoneNumber)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.writeError(w, http.StatusNotFound, "Account not found")
			return
		}
		log.Printf("level=error component=api endpoint=reset_balance phone=%s err=%v", req.PhoneNumber, err)
		h.writeError(w, http.StatusInternalServerError, "Could not reconcile balance")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Balance reconciled",
		"balance": balance,
	})
}
