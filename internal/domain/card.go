/**
 * @description
 * This file defines the card domain model and its request/response DTOs.
 * Cards are joined to users by phone number value equality, mirroring the
 * rest of the data model.
 *
 * @notes
 * - A card request is a Card row created with placeholder number/expiry/CVV;
 *   admin approval overwrites the placeholders with freshly generated values.
 * - `Status` tracks the issued card lifecycle while `RequestStatus` tracks
 *   the request lifecycle; the two are independent after issuance.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Issued-card statuses.
const (
	CardStatusPending  = "pending"
	CardStatusActive   = "active"
	CardStatusBlocked  = "blocked"
	CardStatusExpired  = "expired"
	CardStatusRejected = "rejected"
)

// Card-request statuses. Approved and rejected are terminal.
const (
	CardRequestPending  = "pending"
	CardRequestApproved = "approved"
	CardRequestRejected = "rejected"
)

// Placeholder values held by a card request until admin approval.
const (
	PlaceholderCardNumber = "PENDING"
	PlaceholderExpiry     = "00"
	PlaceholderCVV        = "000"
)

// Card represents an issued card or a pending card request.
// This struct maps directly to the `cards` table.
type Card struct {
	ID            uuid.UUID  `json:"id"`
	PhoneNumber   string     `json:"phone_number"`
	CardNumber    string     `json:"card_number"`
	CardHolder    string     `json:"card_holder"`
	ExpiryMonth   string     `json:"expiry_month"`
	ExpiryYear    string     `json:"expiry_year"`
	CVV           string     `json:"-"`
	CardType      string     `json:"card_type"`
	Status        string     `json:"status"`
	RequestStatus string     `json:"request_status"`
	RequestReason string     `json:"request_reason,omitempty"`
	RequestedAt   *time.Time `json:"requested_at,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// CardRequestPayload is the DTO for a customer card request.
type CardRequestPayload struct {
	CardHolder string `json:"card_holder"`
	CardType   string `json:"card_type"`
	Reason     string `json:"reason"`
}

// CardDecisionPayload is the DTO for admin approve/reject actions on a card request.
type CardDecisionPayload struct {
	Action string `json:"action"` // "approve" or "reject"
}

// CardStatusPayload is the DTO for admin block/unblock toggles on an issued card.
type CardStatusPayload struct {
	CardID uuid.UUID `json:"card_id"`
	Status string    `json:"status"` // "active" or "blocked"
}

// CardView is the masked presentation of an issued card for the dashboard.
type CardView struct {
	ID           uuid.UUID `json:"id"`
	Type         string    `json:"type"`
	MaskedNumber string    `json:"number"`
	FullNumber   string    `json:"full_number"`
	HolderName   string    `json:"holder_name"`
	Expiry       string    `json:"expiry"`
	CVV          string    `json:"cvv"`
	IssuedDate   time.Time `json:"issued_date"`
}

// AdminCardView is a card joined with owner details for the back-office list.
type AdminCardView struct {
	Card
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}
