/**
 * @description
 * This file defines the user and admin domain models for the banking service,
 * along with the DTOs used by the signup, login, and password-reset endpoints.
 *
 * @notes
 * - The `Balance` field is the authoritative account balance in whole currency
 *   units. It is seeded with the signup bonus and only ever mutated inside the
 *   same database transaction as the ledger insert that explains the change.
 * - Credential material (password hashes) is never serialized to JSON.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// User statuses. Active and rejected are terminal.
const (
	UserStatusPending  = "pending"
	UserStatusActive   = "active"
	UserStatusRejected = "rejected"
)

// User represents a registered customer and their single main account.
// This struct maps directly to the `users` table.
type User struct {
	ID            uuid.UUID `json:"id"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	PhoneNumber   string    `json:"phone_number"`
	Location      string    `json:"location"`
	Gender        string    `json:"gender"`
	BirthDate     time.Time `json:"birth_date"`
	IDType        string    `json:"id_type"`
	IDNumber      string    `json:"id_number"`
	IDPhotoPath   string    `json:"id_photo_path"`
	AccountNumber string    `json:"account_number"`
	PasswordHash  string    `json:"-"`
	Status        string    `json:"status"`
	RequestedCard bool      `json:"requested_card"`
	CardType      *string   `json:"card_type,omitempty"`
	Balance       int64     `json:"balance"`
	CreatedAt     time.Time `json:"created_at"`
}

// Admin represents a back-office credential holder.
type Admin struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// SignupRequest is the DTO for new account applications.
type SignupRequest struct {
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	PhoneNumber   string `json:"phone_number"`
	Location      string `json:"location"`
	Gender        string `json:"gender"`
	BirthDate     string `json:"birth_date"` // YYYY-MM-DD
	IDType        string `json:"id_type"`
	IDNumber      string `json:"id_number"`
	Password      string `json:"password"`
	RequestedCard bool   `json:"requested_card"`
	CardType      string `json:"card_type,omitempty"`
}

// LoginRequest is the DTO for customer logins.
type LoginRequest struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

// AdminLoginRequest is the DTO for back-office logins.
type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned after a successful login.
type AuthResponse struct {
	Token         string `json:"token"`
	FullName      string `json:"full_name"`
	PhoneNumber   string `json:"phone_number,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	Role          string `json:"role"`
}

// SendOTPRequest asks for a password-reset code to be emailed.
type SendOTPRequest struct {
	Email string `json:"email"`
}

// VerifyOTPRequest checks a previously issued reset code.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResetPasswordRequest completes the password-reset flow.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}
