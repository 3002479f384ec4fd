/**
 * @description
 * This file assembles the customer dashboard payload: profile, the single main
 * account with a masked number, headline summary figures, active cards,
 * pending card requests, and the formatted recent-transaction feed.
 *
 * @notes
 * - Transaction feed labels are phrased from the viewer's perspective:
 *   "Received from X" / "Sent to X" for transfers, fixed labels for cash
 *   operations.
 * - A customer with at least one active card is presented as a Premium Member.
 */

package app

import (
	"context"
	"fmt"

	"github.com/sabinbank/banking-service/internal/domain"
)

// recentFeedLimit caps the dashboard transaction feed.
const recentFeedLimit = 10

// maskAccountNumber keeps the last four digits visible.
func maskAccountNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return "****" + number[len(number)-4:]
}

// maskCardNumber renders a card number in the usual grouped form with only
// the last four digits visible.
func maskCardNumber(number string) string {
	if len(number) != 16 {
		return number
	}
	return "**** **** **** " + number[12:]
}

// formatTransactionView renders one ledger row from the viewer's perspective.
func formatTransactionView(t domain.Transaction, viewerPhone string, resolveName func(phone string) string) domain.TransactionView {
	view := domain.TransactionView{
		ID:     t.ID,
		Amount: t.Amount,
		Date:   t.CreatedAt.Format("2006-01-02"),
		Time:   t.CreatedAt.Format("15:04"),
	}

	switch t.Type {
	case domain.TransactionTypeDeposit:
		view.Name = "Cash Deposit"
		view.Type = "credit"
		view.Category = "deposit"
	case domain.TransactionTypeWithdrawal:
		view.Name = "Cash Withdrawal"
		view.Type = "debit"
		view.Category = "withdrawal"
	case domain.TransactionTypeTransfer:
		view.Category = "transfer"
		if t.ToPhone == viewerPhone {
			view.Name = fmt.Sprintf("Received from %s", resolveName(t.FromPhone))
			view.Type = "credit"
		} else {
			view.Name = fmt.Sprintf("Sent to %s", resolveName(t.ToPhone))
			view.Type = "debit"
		}
	default:
		view.Name = t.Description
		view.Type = "debit"
		view.Category = t.Type
	}
	return view
}

// Dashboard assembles the full dashboard payload for a customer.
func (s *Service) Dashboard(ctx context.Context, phoneNumber string) (*domain.Dashboard, error) {
	user, err := s.repo.FindUserByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}

	activeCards, err := s.repo.FindCardsByPhoneAndStatus(ctx, phoneNumber, domain.CardStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to load active cards: %w", err)
	}

	var pendingRequests []domain.Card
	if pending, err := s.repo.FindPendingCardRequestByPhone(ctx, phoneNumber); err == nil && pending != nil {
		pendingRequests = append(pendingRequests, *pending)
	}

	transactions, err := s.repo.FindTransactionsByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction history: %w", err)
	}

	accountType := "Standard Member"
	if len(activeCards) > 0 {
		accountType = "Premium Member"
	}

	cardViews := make([]domain.CardView, 0, len(activeCards))
	for _, c := range activeCards {
		cardViews = append(cardViews, domain.CardView{
			ID:           c.ID,
			Type:         c.CardType,
			MaskedNumber: maskCardNumber(c.CardNumber),
			FullNumber:   c.CardNumber,
			HolderName:   c.CardHolder,
			Expiry:       c.ExpiryMonth + "/" + c.ExpiryYear,
			CVV:          c.CVV,
			IssuedDate:   c.CreatedAt,
		})
	}

	resolve := s.nameResolver(ctx)

	// History arrives in ascending order; the feed shows the newest rows first.
	recent := make([]domain.TransactionView, 0, recentFeedLimit)
	pendingCount := 0
	for i := len(transactions) - 1; i >= 0; i-- {
		t := transactions[i]
		if t.Status == domain.TransactionStatusPending {
			pendingCount++
		}
		if len(recent) < recentFeedLimit {
			recent = append(recent, formatTransactionView(t, phoneNumber, resolve))
		}
	}

	return &domain.Dashboard{
		User: domain.DashboardProfile{
			FullName:      user.FullName,
			Email:         user.Email,
			PhoneNumber:   user.PhoneNumber,
			Location:      user.Location,
			Gender:        user.Gender,
			BirthDate:     user.BirthDate,
			IDType:        user.IDType,
			IDNumber:      user.IDNumber,
			AccountNumber: user.AccountNumber,
			MemberSince:   user.CreatedAt,
			AccountType:   accountType,
		},
		Accounts: []domain.DashboardAccount{{
			Type:                "Main Account",
			AccountNumber:       user.AccountNumber,
			AccountNumberMasked: maskAccountNumber(user.AccountNumber),
			Balance:             user.Balance,
			Status:              user.Status,
		}},
		Summary: domain.DashboardSummary{
			TotalBalance:        user.Balance,
			PendingTransactions: pendingCount,
			AccountStatus:       user.Status,
			TotalCards:          len(activeCards),
			PendingRequests:     len(pendingRequests),
		},
		ActiveCards:        cardViews,
		PendingRequests:    pendingRequests,
		RecentTransactions: recent,
	}, nil
}

// UserCards returns all of a customer's cards, issued and requested, in the
// masked dashboard form.
func (s *Service) UserCards(ctx context.Context, phoneNumber string) ([]domain.Card, error) {
	return s.repo.FindCardsByPhoneAndStatus(ctx, phoneNumber, "")
}
