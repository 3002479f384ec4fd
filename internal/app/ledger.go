/**
 * @description
 * This file contains the ledger fold: the chronological replay of a user's
 * transaction history into a single balance figure. The fold is the single
 * source of truth for derived balances and is consumed by every code path
 * that needs one; the authoritative balance column on the user row is the
 * operational value and the fold is the reconciliation/audit tool that checks
 * it.
 *
 * @notes
 * - Every account implicitly starts from the signup bonus; there is no
 *   zero-balance state for a registered user.
 * - ReconcileBalance is the only path allowed to write the repair deposit.
 *   The repair silently absorbs whatever discrepancy produced a negative
 *   fold, so it logs at warn level with the full discrepancy before writing.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sabinbank/banking-service/internal/domain"
)

// StartingBonus is the fixed initial balance, in whole currency units,
// credited to every account at signup.
const StartingBonus int64 = 1000

// ReplayBalance folds a transaction history into the subject's balance.
// Transactions are replayed in ascending creation order from the starting
// bonus: credits when the subject is the recipient, debits when the subject
// is the sender. Rows involving neither side are ignored. The input slice is
// not modified.
func ReplayBalance(phoneNumber string, transactions []domain.Transaction) int64 {
	sorted := make([]domain.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	balance := StartingBonus
	for _, t := range sorted {
		switch phoneNumber {
		case t.ToPhone:
			balance += t.Amount
		case t.FromPhone:
			balance -= t.Amount
		}
	}
	return balance
}

// ReconcileBalance replays the full history for a phone number and writes the
// folded value back to the authoritative balance column. A negative fold is
// repaired by inserting one synthetic corrective deposit from the system
// counterparty that restores the starting bonus, matching the historical
// repair shape exactly.
func (s *Service) ReconcileBalance(ctx context.Context, phoneNumber string) (int64, error) {
	user, err := s.repo.FindUserByPhone(ctx, phoneNumber)
	if err != nil {
		return 0, err
	}

	transactions, err := s.repo.FindTransactionsByPhone(ctx, phoneNumber)
	if err != nil {
		return 0, fmt.Errorf("failed to load transaction history: %w", err)
	}

	balance := ReplayBalance(phoneNumber, transactions)
	if balance < 0 {
		log.Printf("level=warn component=ledger msg=\"negative balance repaired\" phone=%s folded_balance=%d stored_balance=%d tx_count=%d",
			phoneNumber, balance, user.Balance, len(transactions))

		correction := &domain.Transaction{
			ID:          uuid.New(),
			FromAccount: domain.SystemCounterparty,
			ToAccount:   user.AccountNumber,
			FromPhone:   domain.SystemCounterparty,
			ToPhone:     phoneNumber,
			Amount:      -balance,
			Type:        domain.TransactionTypeDeposit,
			Status:      domain.TransactionStatusCompleted,
			Description: "Balance Correction - Fixed negative balance",
			Balance:     StartingBonus,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.repo.InsertTransaction(ctx, correction); err != nil {
			return 0, fmt.Errorf("failed to write corrective transaction: %w", err)
		}
		balance = StartingBonus
	}

	if err := s.repo.SetBalance(ctx, phoneNumber, balance); err != nil {
		return 0, fmt.Errorf("failed to store reconciled balance: %w", err)
	}
	return balance, nil
}
