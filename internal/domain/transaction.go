/**
 * @description
 * This file defines the ledger transaction domain model and the DTOs for the
 * deposit/withdrawal and transfer endpoints.
 *
 * @notes
 * - Transactions are immutable once created. The `Balance` field is an
 *   advisory snapshot of the subject's balance after the operation; the
 *   authoritative balance lives on the user row and the chronological replay
 *   in the ledger package is the audit tool that reconciles the two.
 * - Amounts are whole currency units held as `int64`, which keeps financial
 *   arithmetic exact and preserves the literal 1000-unit signup bonus.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// SystemCounterparty is the sentinel phone value representing the bank itself
// in deposit and withdrawal transactions.
const SystemCounterparty = "SYSTEM"

// Sentinel account labels used on the bank side of deposits and withdrawals.
const (
	DepositAccountLabel    = "DEPOSIT"
	WithdrawalAccountLabel = "WITHDRAW"
)

// Transaction types.
const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypeTransfer   = "transfer"
)

// Transaction statuses.
const (
	TransactionStatusCompleted = "completed"
	TransactionStatusPending   = "pending"
	TransactionStatusFailed    = "failed"
)

// Transaction represents a single ledger record for any money movement.
// This struct maps directly to the `transactions` table.
type Transaction struct {
	ID          uuid.UUID `json:"id"`
	FromAccount string    `json:"from_account"`
	ToAccount   string    `json:"to_account"`
	FromPhone   string    `json:"from_phone"`
	ToPhone     string    `json:"to_phone"`
	Amount      int64     `json:"amount"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
	Balance     int64     `json:"balance"`
	CreatedAt   time.Time `json:"created_at"`
}

// CashOperationRequest is the DTO for the deposit/withdrawal endpoint.
type CashOperationRequest struct {
	Amount int64  `json:"amount"`
	Type   string `json:"type"` // "deposit" or "withdraw"
}

// TransferRequest is the DTO for the peer-to-peer transfer endpoint.
type TransferRequest struct {
	ToPhone     string `json:"to_phone"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// CashOperationResponse is returned after a successful deposit or withdrawal.
type CashOperationResponse struct {
	Message     string       `json:"message"`
	Transaction *Transaction `json:"transaction"`
	NewBalance  int64        `json:"new_balance"`
}

// TransferResponse is returned after a successful transfer.
type TransferResponse struct {
	Message     string       `json:"message"`
	Transaction *Transaction `json:"transaction"`
}

// TransactionView is a ledger row formatted for the user dashboard feed with
// a human label and a credit/debit direction.
type TransactionView struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"` // "credit" or "debit"
	Amount   int64     `json:"amount"`
	Date     string    `json:"date"`
	Time     string    `json:"time"`
	Category string    `json:"category"`
}

// PartyView identifies one side of a transaction in the admin feed.
type PartyView struct {
	Phone   string `json:"phone"`
	Name    string `json:"name"`
	Account string `json:"account"`
}

// AdminTransactionView is a ledger row joined with party names for the
// back-office transaction feed.
type AdminTransactionView struct {
	ID          uuid.UUID `json:"id"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
	From        PartyView `json:"from"`
	To          PartyView `json:"to"`
}
