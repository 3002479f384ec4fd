/**
 * @description
 * This file contains the core business logic for money movement. The
 * `Service` struct orchestrates deposits, withdrawals, and peer-to-peer
 * transfers, coordinating between the database repository, the Redis-backed
 * OTP store and rate limiter, the mailer, and the message broker.
 *
 * Key features:
 * - Every balance-changing operation is a single atomic repository call: the
 *   balance check, balance mutation, and ledger insert commit together, so
 *   concurrent debits against one account cannot both succeed.
 * - Insufficient-funds failures carry the maximum permitted amount so the
 *   API layer can surface it verbatim.
 * - Publishes events to RabbitMQ for asynchronous consumers.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For transaction IDs.
 * - internal/domain, internal/store: For domain models and data access.
 * - internal/auth, pkg/rabbitmq: For session tokens and event publishing.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sabinbank/banking-service/internal/auth"
	"github.com/sabinbank/banking-service/internal/domain"
	"github.com/sabinbank/banking-service/internal/store"
	"github.com/sabinbank/banking-service/pkg/rabbitmq"
)

// EventsExchange is the topic exchange all banking events are published to.
const EventsExchange = "bank.events"

var (
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrInvalidOperationType = errors.New("operation type must be deposit or withdraw")
	ErrSelfTransfer         = errors.New("cannot transfer to your own account")
)

// InsufficientFundsError reports a rejected debit together with the maximum
// amount the operation could have moved. It matches store.ErrInsufficientFunds
// under errors.Is so handlers can dispatch on the sentinel.
type InsufficientFundsError struct {
	Available int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient balance: maximum available amount is %d", e.Available)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == store.ErrInsufficientFunds
}

// Mailer sends plain-text mail; the OTP flow is its only consumer.
type Mailer interface {
	Send(to, subject, body string) error
}

// RateLimiter is the distributed limiter consulted before abuse-prone
// operations. A nil limiter disables limiting.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// Service provides the core business logic for the banking backend.
type Service struct {
	repo    store.Repository
	events  rabbitmq.Publisher
	tokens  *auth.TokenManager
	otps    OTPStore
	mailer  Mailer
	limiter RateLimiter
}

// NewService creates a new banking service instance.
func NewService(repo store.Repository, events rabbitmq.Publisher, tokens *auth.TokenManager, otps OTPStore, mailer Mailer) *Service {
	return &Service{
		repo:   repo,
		events: events,
		tokens: tokens,
		otps:   otps,
		mailer: mailer,
	}
}

// SetRateLimiter attaches a distributed rate limiter for the OTP and login flows.
func (s *Service) SetRateLimiter(limiter RateLimiter) {
	s.limiter = limiter
}

// publishEvent sends an event to the banking exchange, best-effort. A broker
// outage never fails the originating operation.
func (s *Service) publishEvent(ctx context.Context, routingKey string, body interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, EventsExchange, routingKey, body); err != nil {
		log.Printf("level=warn component=service msg=\"event publish failed\" routing_key=%s err=%v", routingKey, err)
	}
}

// ProcessCashOperation records a deposit or withdrawal for the given phone
// number and returns the created transaction and the new balance.
func (s *Service) ProcessCashOperation(ctx context.Context, phoneNumber string, req domain.CashOperationRequest) (*domain.Transaction, int64, error) {
	if req.Amount <= 0 {
		return nil, 0, ErrInvalidAmount
	}

	opType := strings.ToLower(strings.TrimSpace(req.Type))
	if opType != "deposit" && opType != "withdraw" {
		return nil, 0, ErrInvalidOperationType
	}

	user, err := s.repo.FindUserByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, 0, err
	}

	record := &domain.Transaction{
		ID:        uuid.New(),
		Amount:    req.Amount,
		Status:    domain.TransactionStatusCompleted,
		CreatedAt: time.Now().UTC(),
	}

	var newBalance int64
	if opType == "deposit" {
		record.Type = domain.TransactionTypeDeposit
		record.FromAccount = domain.DepositAccountLabel
		record.ToAccount = user.AccountNumber
		record.FromPhone = domain.SystemCounterparty
		record.ToPhone = phoneNumber
		record.Description = "Cash Deposit"

		newBalance, err = s.repo.RecordDeposit(ctx, record)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to record deposit: %w", err)
		}
	} else {
		record.Type = domain.TransactionTypeWithdrawal
		record.FromAccount = user.AccountNumber
		record.ToAccount = domain.WithdrawalAccountLabel
		record.FromPhone = phoneNumber
		record.ToPhone = domain.SystemCounterparty
		record.Description = "Cash Withdrawal"

		newBalance, err = s.repo.RecordWithdrawal(ctx, record)
		if err != nil {
			if errors.Is(err, store.ErrInsufficientFunds) {
				return nil, 0, &InsufficientFundsError{Available: newBalance}
			}
			return nil, 0, fmt.Errorf("failed to record withdrawal: %w", err)
		}
	}

	log.Printf("level=info component=service op=%s outcome=completed phone=%s amount=%d balance=%d",
		record.Type, phoneNumber, record.Amount, newBalance)
	s.publishEvent(ctx, "transaction.created."+record.Type, record)

	return record, newBalance, nil
}

// ProcessTransfer records a peer-to-peer transfer between two registered
// users and returns the created transaction.
func (s *Service) ProcessTransfer(ctx context.Context, fromPhone string, req domain.TransferRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	toPhone := strings.TrimSpace(req.ToPhone)
	if toPhone == fromPhone {
		return nil, ErrSelfTransfer
	}

	sender, err := s.repo.FindUserByPhone(ctx, fromPhone)
	if err != nil {
		return nil, fmt.Errorf("failed to find sender: %w", err)
	}
	recipient, err := s.repo.FindUserByPhone(ctx, toPhone)
	if err != nil {
		return nil, fmt.Errorf("failed to find recipient: %w", err)
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "Money Transfer"
	}

	record := &domain.Transaction{
		ID:          uuid.New(),
		FromAccount: sender.AccountNumber,
		ToAccount:   recipient.AccountNumber,
		FromPhone:   sender.PhoneNumber,
		ToPhone:     recipient.PhoneNumber,
		Amount:      req.Amount,
		Type:        domain.TransactionTypeTransfer,
		Status:      domain.TransactionStatusCompleted,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}

	senderBalance, err := s.repo.RecordTransfer(ctx, record)
	if err != nil {
		if errors.Is(err, store.ErrInsufficientFunds) {
			return nil, &InsufficientFundsError{Available: senderBalance}
		}
		return nil, fmt.Errorf("failed to record transfer: %w", err)
	}

	log.Printf("level=info component=service op=transfer outcome=completed from=%s to=%s amount=%d sender_balance=%d",
		fromPhone, toPhone, record.Amount, senderBalance)
	s.publishEvent(ctx, "transaction.created.transfer", record)

	return record, nil
}

// CurrentBalance returns the authoritative balance for a phone number.
func (s *Service) CurrentBalance(ctx context.Context, phoneNumber string) (int64, error) {
	return s.repo.GetBalance(ctx, phoneNumber)
}
