/**
 * @description
 * This file implements the user and card-request approval state machines and
 * the card data generation performed at approval time.
 *
 * State machines:
 * - User: pending -> active | rejected (both terminal).
 * - Card request: pending -> approved | rejected (both terminal). Approval
 *   overwrites the placeholder card data with freshly generated values.
 * - Issued cards additionally toggle between active and blocked under admin
 *   control, independent of the request lifecycle.
 *
 * @notes
 * - Card numbers are 16 independently drawn decimal digits. They are not
 *   Luhn-valid; uniqueness rests on the storage constraint and a collision
 *   fails the write without retry.
 */

package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/sabinbank/banking-service/internal/domain"
	"github.com/sabinbank/banking-service/internal/store"
)

var (
	ErrInvalidTransition   = errors.New("state transition not allowed")
	ErrInvalidDecision     = errors.New("action must be approve or reject")
	ErrInvalidCardStatus   = errors.New("card status must be active or blocked")
	ErrPendingCardRequest  = errors.New("a pending card request already exists")
	ErrCardNotIssued       = errors.New("card has not been issued yet")
	ErrMissingCardHolder   = errors.New("card holder name is required")
	ErrUnsupportedCardType = errors.New("unsupported card type")
)

var supportedCardTypes = map[string]bool{
	"VISA":       true,
	"MASTERCARD": true,
	"AMEX":       true,
}

// generateCardNumber draws 16 independent decimal digits.
func generateCardNumber() string {
	return randomDigits(16)
}

// generateCVV draws a 3-digit code in [100, 999].
func generateCVV() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900))
	if err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return fmt.Sprintf("%d", n.Int64()+100)
}

// cardExpiry computes the issued expiry: current month, current year plus
// three, both as two-digit strings.
func cardExpiry(now time.Time) (month, year string) {
	month = fmt.Sprintf("%02d", int(now.Month()))
	year = fmt.Sprintf("%02d", (now.Year()+3)%100)
	return month, year
}

func randomDigits(n int) string {
	digits := make([]byte, n)
	for i := range digits {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
		}
		digits[i] = byte('0' + d.Int64())
	}
	return string(digits)
}

// DecideUser applies an admin approve/reject decision to a pending user.
// Approving a user who requested a card at signup issues the card
// immediately; the returned flag reports whether one was created.
func (s *Service) DecideUser(ctx context.Context, userID uuid.UUID, action string) (cardCreated bool, err error) {
	if action != "approve" && action != "reject" {
		return false, ErrInvalidDecision
	}

	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user.Status != domain.UserStatusPending {
		return false, fmt.Errorf("%w: user is already %s", ErrInvalidTransition, user.Status)
	}

	if action == "reject" {
		if err := s.repo.UpdateUserStatus(ctx, userID, domain.UserStatusRejected); err != nil {
			return false, err
		}
		log.Printf("level=info component=approval op=user_decision outcome=rejected user_id=%s", userID)
		s.publishEvent(ctx, "user.rejected", user)
		return false, nil
	}

	if err := s.repo.UpdateUserStatus(ctx, userID, domain.UserStatusActive); err != nil {
		return false, err
	}

	if user.RequestedCard {
		now := time.Now().UTC()
		month, year := cardExpiry(now)
		cardType := "VISA"
		if user.CardType != nil && *user.CardType != "" {
			cardType = *user.CardType
		}

		card := &domain.Card{
			ID:            uuid.New(),
			PhoneNumber:   user.PhoneNumber,
			CardNumber:    generateCardNumber(),
			CardHolder:    user.FullName,
			ExpiryMonth:   month,
			ExpiryYear:    year,
			CVV:           generateCVV(),
			CardType:      cardType,
			Status:        domain.CardStatusActive,
			RequestStatus: domain.CardRequestApproved,
			ApprovedAt:    &now,
			CreatedAt:     now,
		}
		if err := s.repo.CreateCard(ctx, card); err != nil {
			return false, fmt.Errorf("failed to issue card for approved user: %w", err)
		}
		cardCreated = true
		s.publishEvent(ctx, "card.issued", card)
	}

	log.Printf("level=info component=approval op=user_decision outcome=approved user_id=%s card_created=%t", userID, cardCreated)
	s.publishEvent(ctx, "user.approved", user)
	return cardCreated, nil
}

// RequestCard files a placeholder card request for an existing user. A user
// can hold at most one pending request at a time.
func (s *Service) RequestCard(ctx context.Context, phoneNumber string, payload domain.CardRequestPayload) (*domain.Card, error) {
	if payload.CardHolder == "" {
		return nil, ErrMissingCardHolder
	}
	if !supportedCardTypes[payload.CardType] {
		return nil, ErrUnsupportedCardType
	}

	if _, err := s.repo.FindUserByPhone(ctx, phoneNumber); err != nil {
		return nil, err
	}

	if existing, err := s.repo.FindPendingCardRequestByPhone(ctx, phoneNumber); err == nil && existing != nil {
		return nil, ErrPendingCardRequest
	} else if err != nil && !errors.Is(err, store.ErrCardNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	card := &domain.Card{
		ID:            uuid.New(),
		PhoneNumber:   phoneNumber,
		CardNumber:    domain.PlaceholderCardNumber,
		CardHolder:    payload.CardHolder,
		ExpiryMonth:   domain.PlaceholderExpiry,
		ExpiryYear:    domain.PlaceholderExpiry,
		CVV:           domain.PlaceholderCVV,
		CardType:      payload.CardType,
		Status:        domain.CardStatusPending,
		RequestStatus: domain.CardRequestPending,
		RequestReason: payload.Reason,
		RequestedAt:   &now,
		CreatedAt:     now,
	}
	if err := s.repo.CreateCard(ctx, card); err != nil {
		return nil, err
	}

	log.Printf("level=info component=approval op=card_request outcome=filed phone=%s card_type=%s", phoneNumber, payload.CardType)
	return card, nil
}

// DecideCardRequest applies an admin approve/reject decision to a pending
// card request. Approval generates real card data over the placeholders and
// stamps the approval time; rejection marks both lifecycles rejected.
func (s *Service) DecideCardRequest(ctx context.Context, cardID uuid.UUID, action string) (*domain.Card, error) {
	if action != "approve" && action != "reject" {
		return nil, ErrInvalidDecision
	}

	card, err := s.repo.FindCardByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.RequestStatus != domain.CardRequestPending {
		return nil, fmt.Errorf("%w: card request is already %s", ErrInvalidTransition, card.RequestStatus)
	}

	if action == "reject" {
		if err := s.repo.RejectCardRequest(ctx, cardID); err != nil {
			return nil, err
		}
		card.Status = domain.CardStatusRejected
		card.RequestStatus = domain.CardRequestRejected
		log.Printf("level=info component=approval op=card_decision outcome=rejected card_id=%s", cardID)
		return card, nil
	}

	now := time.Now().UTC()
	month, year := cardExpiry(now)
	number := generateCardNumber()
	cvv := generateCVV()

	if err := s.repo.ApproveCardRequest(ctx, cardID, number, month, year, cvv, now); err != nil {
		return nil, err
	}

	card.CardNumber = number
	card.ExpiryMonth = month
	card.ExpiryYear = year
	card.CVV = cvv
	card.Status = domain.CardStatusActive
	card.RequestStatus = domain.CardRequestApproved
	card.ApprovedAt = &now

	log.Printf("level=info component=approval op=card_decision outcome=approved card_id=%s", cardID)
	s.publishEvent(ctx, "card.request.approved", card)
	return card, nil
}

// ListUsers returns users for the back-office list, optionally filtered by
// status. An empty status returns everyone.
func (s *Service) ListUsers(ctx context.Context, status string) ([]domain.User, error) {
	switch status {
	case "", domain.UserStatusPending, domain.UserStatusActive, domain.UserStatusRejected:
	default:
		return nil, fmt.Errorf("unknown user status %q", status)
	}
	return s.repo.ListUsers(ctx, status, 0)
}

// AllCards returns every card joined with owner details for the back-office list.
func (s *Service) AllCards(ctx context.Context) ([]domain.AdminCardView, error) {
	return s.repo.ListCardsWithOwners(ctx)
}

// PendingCardRequests returns the card requests awaiting a decision.
func (s *Service) PendingCardRequests(ctx context.Context) ([]domain.Card, error) {
	return s.repo.ListCardRequests(ctx, domain.CardRequestPending)
}

// SetCardStatus toggles an issued card between active and blocked.
func (s *Service) SetCardStatus(ctx context.Context, cardID uuid.UUID, status string) error {
	if status != domain.CardStatusActive && status != domain.CardStatusBlocked {
		return ErrInvalidCardStatus
	}

	card, err := s.repo.FindCardByID(ctx, cardID)
	if err != nil {
		return err
	}
	if card.CardNumber == domain.PlaceholderCardNumber {
		return ErrCardNotIssued
	}

	if err := s.repo.UpdateCardStatus(ctx, cardID, status); err != nil {
		return err
	}
	log.Printf("level=info component=approval op=card_status outcome=%s card_id=%s", status, cardID)
	return nil
}
