/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract
 * for all data access operations required by the banking service. The
 * interface decouples the business logic from the PostgreSQL implementation
 * and lets tests substitute lightweight stubs.
 *
 * @notes
 * - The money-movement methods (RecordDeposit/RecordWithdrawal/RecordTransfer)
 *   are atomic: the balance mutation and the ledger insert commit in one
 *   database transaction, which is what makes concurrent withdrawals safe.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sabinbank/banking-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// User methods
	CreateUser(ctx context.Context, user *domain.User) error
	FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	FindUserByPhone(ctx context.Context, phoneNumber string) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUserStatus(ctx context.Context, userID uuid.UUID, status string) error
	UpdateUserPassword(ctx context.Context, email string, passwordHash string) error
	ListUsers(ctx context.Context, status string, limit int) ([]domain.User, error)
	GetBalance(ctx context.Context, phoneNumber string) (int64, error)
	SetBalance(ctx context.Context, phoneNumber string, balance int64) error

	// Atomic money-movement methods. Each returns the subject's balance after
	// the operation. RecordWithdrawal and RecordTransfer return the sender's
	// unchanged balance alongside ErrInsufficientFunds when the conditional
	// decrement matches no row.
	RecordDeposit(ctx context.Context, tx *domain.Transaction) (int64, error)
	RecordWithdrawal(ctx context.Context, tx *domain.Transaction) (int64, error)
	RecordTransfer(ctx context.Context, tx *domain.Transaction) (int64, error)

	// Ledger read and audit methods
	FindTransactionsByPhone(ctx context.Context, phoneNumber string) ([]domain.Transaction, error)
	FindTransactionsInWindow(ctx context.Context, window domain.TransactionWindow, limit int) ([]domain.Transaction, error)
	InsertTransaction(ctx context.Context, tx *domain.Transaction) error

	// Card methods
	CreateCard(ctx context.Context, card *domain.Card) error
	FindCardByID(ctx context.Context, cardID uuid.UUID) (*domain.Card, error)
	FindCardsByPhoneAndStatus(ctx context.Context, phoneNumber string, status string) ([]domain.Card, error)
	FindPendingCardRequestByPhone(ctx context.Context, phoneNumber string) (*domain.Card, error)
	ListCardRequests(ctx context.Context, requestStatus string) ([]domain.Card, error)
	ListCardsWithOwners(ctx context.Context) ([]domain.AdminCardView, error)
	ApproveCardRequest(ctx context.Context, cardID uuid.UUID, cardNumber, expiryMonth, expiryYear, cvv string, approvedAt time.Time) error
	RejectCardRequest(ctx context.Context, cardID uuid.UUID) error
	UpdateCardStatus(ctx context.Context, cardID uuid.UUID, status string) error

	// Admin methods
	CreateAdmin(ctx context.Context, admin *domain.Admin) error
	FindAdminByEmail(ctx context.Context, email string) (*domain.Admin, error)
	CountAdmins(ctx context.Context) (int64, error)
	AdminStats(ctx context.Context) (*domain.AdminStats, error)
}
