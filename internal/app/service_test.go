package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sabinbank/banking-service/internal/domain"
	"github.com/sabinbank/banking-service/internal/store"
)

// moneyRepoStub keeps balances in memory and mirrors the conditional-decrement
// semantics of the real repository, including the available-balance return on
// an insufficient-funds rejection.
type moneyRepoStub struct {
	store.Repository

	mu       sync.Mutex
	users    map[string]*domain.User
	recorded []domain.Transaction
}

func newMoneyRepoStub(users ...*domain.User) *moneyRepoStub {
	s := &moneyRepoStub{users: make(map[string]*domain.User)}
	for _, u := range users {
		s.users[u.PhoneNumber] = u
	}
	return s
}

func (s *moneyRepoStub) FindUserByPhone(ctx context.Context, phoneNumber string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[phoneNumber]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *moneyRepoStub) GetBalance(ctx context.Context, phoneNumber string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[phoneNumber]
	if !ok {
		return 0, store.ErrUserNotFound
	}
	return user.Balance, nil
}

func (s *moneyRepoStub) RecordDeposit(ctx context.Context, record *domain.Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[record.ToPhone]
	if !ok {
		return 0, store.ErrUserNotFound
	}
	user.Balance += record.Amount
	record.Balance = user.Balance
	s.recorded = append(s.recorded, *record)
	return user.Balance, nil
}

func (s *moneyRepoStub) RecordWithdrawal(ctx context.Context, record *domain.Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[record.FromPhone]
	if !ok {
		return 0, store.ErrUserNotFound
	}
	if user.Balance < record.Amount {
		return user.Balance, store.ErrInsufficientFunds
	}
	user.Balance -= record.Amount
	record.Balance = user.Balance
	s.recorded = append(s.recorded, *record)
	return user.Balance, nil
}

func (s *moneyRepoStub) RecordTransfer(ctx context.Context, record *domain.Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sender, ok := s.users[record.FromPhone]
	if !ok {
		return 0, store.ErrUserNotFound
	}
	recipient, ok := s.users[record.ToPhone]
	if !ok {
		return 0, store.ErrUserNotFound
	}
	if sender.Balance < record.Amount {
		return sender.Balance, store.ErrInsufficientFunds
	}
	sender.Balance -= record.Amount
	recipient.Balance += record.Amount
	record.Balance = sender.Balance
	s.recorded = append(s.recorded, *record)
	return sender.Balance, nil
}

func (s *moneyRepoStub) recordedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recorded)
}

func activeUser(phone string, balance int64) *domain.User {
	return &domain.User{
		ID:            uuid.New(),
		FullName:      "Test User " + phone,
		PhoneNumber:   phone,
		AccountNumber: "1111222233334444",
		Status:        domain.UserStatusActive,
		Balance:       balance,
		CreatedAt:     time.Now().UTC(),
	}
}

func newTestService(repo store.Repository) *Service {
	return NewService(repo, nil, nil, nil, nil)
}

func TestProcessCashOperationValidation(t *testing.T) {
	svc := newTestService(newMoneyRepoStub(activeUser("0801", 1000)))

	tests := []struct {
		name    string
		req     domain.CashOperationRequest
		wantErr error
	}{
		{
			name:    "zero amount rejected",
			req:     domain.CashOperationRequest{Amount: 0, Type: "deposit"},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount rejected",
			req:     domain.CashOperationRequest{Amount: -50, Type: "withdraw"},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "unknown operation type rejected",
			req:     domain.CashOperationRequest{Amount: 100, Type: "wire"},
			wantErr: ErrInvalidOperationType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.ProcessCashOperation(context.Background(), "0801", tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestProcessCashOperationDeposit(t *testing.T) {
	repo := newMoneyRepoStub(activeUser("0801", 1000))
	svc := newTestService(repo)

	tx, newBalance, err := svc.ProcessCashOperation(context.Background(), "0801", domain.CashOperationRequest{Amount: 500, Type: "deposit"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newBalance != 1500 {
		t.Fatalf("expected balance 1500, got %d", newBalance)
	}
	if tx.FromPhone != domain.SystemCounterparty || tx.FromAccount != domain.DepositAccountLabel {
		t.Fatalf("expected system deposit counterparty, got from_phone=%s from_account=%s", tx.FromPhone, tx.FromAccount)
	}
	if tx.Type != domain.TransactionTypeDeposit || tx.Status != domain.TransactionStatusCompleted {
		t.Fatalf("unexpected transaction metadata: %+v", tx)
	}
}

func TestProcessCashOperationWithdrawExactBalance(t *testing.T) {
	repo := newMoneyRepoStub(activeUser("0801", 1000))
	svc := newTestService(repo)

	_, newBalance, err := svc.ProcessCashOperation(context.Background(), "0801", domain.CashOperationRequest{Amount: 1000, Type: "withdraw"})
	if err != nil {
		t.Fatalf("withdrawing the exact balance must succeed, got %v", err)
	}
	if newBalance != 0 {
		t.Fatalf("expected balance 0, got %d", newBalance)
	}
}

func TestProcessCashOperationInsufficientFunds(t *testing.T) {
	repo := newMoneyRepoStub(activeUser("0801", 300))
	svc := newTestService(repo)

	_, _, err := svc.ProcessCashOperation(context.Background(), "0801", domain.CashOperationRequest{Amount: 301, Type: "withdraw"})
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	var ife *InsufficientFundsError
	if !errors.As(err, &ife) {
		t.Fatalf("expected InsufficientFundsError, got %T", err)
	}
	if ife.Available != 300 {
		t.Fatalf("expected available=300, got %d", ife.Available)
	}
	if repo.recordedCount() != 0 {
		t.Fatalf("a rejected withdrawal must not write a ledger row")
	}
}

func TestProcessTransfer(t *testing.T) {
	repo := newMoneyRepoStub(activeUser("0801", 1000), activeUser("0802", 1000))
	svc := newTestService(repo)

	tx, err := svc.ProcessTransfer(context.Background(), "0801", domain.TransferRequest{ToPhone: "0802", Amount: 400})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Description != "Money Transfer" {
		t.Fatalf("expected default description, got %q", tx.Description)
	}

	senderBalance, _ := repo.GetBalance(context.Background(), "0801")
	recipientBalance, _ := repo.GetBalance(context.Background(), "0802")
	if senderBalance != 600 || recipientBalance != 1400 {
		t.Fatalf("expected 600/1400, got %d/%d", senderBalance, recipientBalance)
	}
}

func TestProcessTransferRejections(t *testing.T) {
	repo := newMoneyRepoStub(activeUser("0801", 1000))
	svc := newTestService(repo)

	tests := []struct {
		name    string
		from    string
		req     domain.TransferRequest
		wantErr error
	}{
		{
			name:    "self transfer rejected",
			from:    "0801",
			req:     domain.TransferRequest{ToPhone: "0801", Amount: 100},
			wantErr: ErrSelfTransfer,
		},
		{
			name:    "unknown recipient rejected",
			from:    "0801",
			req:     domain.TransferRequest{ToPhone: "0999", Amount: 100},
			wantErr: store.ErrUserNotFound,
		},
		{
			name:    "zero amount rejected",
			from:    "0801",
			req:     domain.TransferRequest{ToPhone: "0802", Amount: 0},
			wantErr: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ProcessTransfer(context.Background(), tt.from, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if repo.recordedCount() != 0 {
				t.Fatalf("a rejected transfer must not write a ledger row")
			}
		})
	}
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	const workers = 20
	repo := newMoneyRepoStub(activeUser("0801", 1000))
	svc := newTestService(repo)

	var wg sync.WaitGroup
	var successes int64
	var mu sync.Mutex

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.ProcessCashOperation(context.Background(), "0801", domain.CashOperationRequest{Amount: 100, Type: "withdraw"})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else if !errors.Is(err, store.ErrInsufficientFunds) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	balance, _ := repo.GetBalance(context.Background(), "0801")
	if balance < 0 {
		t.Fatalf("balance went negative: %d", balance)
	}
	if want := int64(1000) - successes*100; balance != want {
		t.Fatalf("expected balance %d after %d successful withdrawals, got %d", want, successes, balance)
	}
	if int64(repo.recordedCount()) != successes {
		t.Fatalf("ledger rows (%d) must match successful withdrawals (%d)", repo.recordedCount(), successes)
	}
}
