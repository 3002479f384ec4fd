/**
 * @description
 * This file implements account signup, customer and admin login, first-admin
 * bootstrap, and the three-step password reset flow (send OTP, verify OTP,
 * reset).
 *
 * Key features:
 * - Login failures against unknown phone numbers and wrong passwords collapse
 *   into one generic credential error; account state errors (pending,
 *   rejected) stay distinct because the UI needs to explain them.
 * - OTP sends and logins are rate limited per subject via Redis.
 * - Admin setup only works while the admins table is empty.
 *
 * @dependencies
 * - golang.org/x/crypto/bcrypt: Password hashing.
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
	"golang.org/x/crypto/bcrypt"

	"github.com/sabinbank/banking-service/internal/auth"
	"github.com/sabinbank/banking-service/internal/domain"
	"github.com/sabinbank/banking-service/internal/store"
)

const minPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountPending     = errors.New("account is pending approval")
	ErrAccountRejected    = errors.New("account application was rejected")
	ErrAdminExists        = errors.New("admin account already exists")
	ErrInvalidOTP         = errors.New("invalid or expired code")
	ErrOTPUnavailable     = errors.New("password reset is temporarily unavailable")
	ErrMissingFields      = errors.New("missing required fields")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidBirthDate   = errors.New("birth date must be YYYY-MM-DD")
)

// RateLimitError reports a throttled request and how long to wait.
type RateLimitError struct {
	Scope             string
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many %s attempts, retry in %d seconds", e.Scope, e.RetryAfterSeconds)
}

// consumeLimit runs the limiter for a scope/subject pair. A limiter outage
// fails open; abuse protection is not worth an availability hole.
func (s *Service) consumeLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) error {
	if s.limiter == nil {
		return nil
	}
	count, retryAfter, err := s.limiter.ConsumeRateLimit(ctx, scope, subject, limit, window)
	if err != nil {
		log.Printf("level=warn component=auth msg=\"rate limiter unavailable\" scope=%s err=%v", scope, err)
		return nil
	}
	if count > limit {
		return &RateLimitError{Scope: scope, RetryAfterSeconds: retryAfter}
	}
	return nil
}

// Signup registers a new customer in pending status with the starting bonus
// already credited. The account stays unusable until an admin approves it.
func (s *Service) Signup(ctx context.Context, req domain.SignupRequest) (*domain.User, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)

	if req.FullName == "" || req.Email == "" || req.PhoneNumber == "" || req.IDNumber == "" {
		return nil, ErrMissingFields
	}
	if len(req.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		return nil, ErrInvalidBirthDate
	}
	if req.RequestedCard && !supportedCardTypes[req.CardType] {
		return nil, ErrUnsupportedCardType
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:            uuid.New(),
		FullName:      req.FullName,
		Email:         req.Email,
		PhoneNumber:   req.PhoneNumber,
		Location:      req.Location,
		Gender:        req.Gender,
		BirthDate:     birthDate,
		IDType:        req.IDType,
		IDNumber:      req.IDNumber,
		AccountNumber: randomDigits(16),
		PasswordHash:  string(hash),
		Status:        domain.UserStatusPending,
		RequestedCard: req.RequestedCard,
		Balance:       StartingBonus,
		CreatedAt:     time.Now().UTC(),
	}
	if req.RequestedCard {
		cardType := req.CardType
		user.CardType = &cardType
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("level=info component=auth op=signup outcome=pending user_id=%s phone=%s", user.ID, user.PhoneNumber)
	s.publishEvent(ctx, "user.signup", user)
	return user, nil
}

// Login authenticates a customer by phone number and password and issues a
// session token. Only active accounts may log in.
func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	phone := strings.TrimSpace(req.PhoneNumber)
	if phone == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	if err := s.consumeLimit(ctx, "login", phone, 10, time.Minute); err != nil {
		return nil, err
	}

	user, err := s.repo.FindUserByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	switch user.Status {
	case domain.UserStatusPending:
		return nil, ErrAccountPending
	case domain.UserStatusRejected:
		return nil, ErrAccountRejected
	}

	token, err := s.tokens.Generate(user.ID.String(), user.PhoneNumber, auth.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	log.Printf("level=info component=auth op=login outcome=success user_id=%s", user.ID)
	return &domain.AuthResponse{
		Token:         token,
		FullName:      user.FullName,
		PhoneNumber:   user.PhoneNumber,
		AccountNumber: user.AccountNumber,
		Role:          auth.RoleUser,
	}, nil
}

// AdminLogin authenticates a back-office admin by email and password.
func (s *Service) AdminLogin(ctx context.Context, req domain.AdminLoginRequest) (*domain.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	if err := s.consumeLimit(ctx, "admin-login", email, 10, time.Minute); err != nil {
		return nil, err
	}

	admin, err := s.repo.FindAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrAdminNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(admin.ID.String(), "", auth.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	log.Printf("level=info component=auth op=admin_login outcome=success admin_id=%s", admin.ID)
	return &domain.AuthResponse{
		Token:    token,
		FullName: admin.Username,
		Role:     auth.RoleAdmin,
	}, nil
}

// SetupAdmin bootstraps the first admin account. It refuses once any admin exists.
func (s *Service) SetupAdmin(ctx context.Context, username, email, password string) (*domain.Admin, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" {
		return nil, ErrMissingFields
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	count, err := s.repo.CountAdmins(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAdminExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &domain.Admin{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         auth.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateAdmin(ctx, admin); err != nil {
		return nil, err
	}

	log.Printf("level=info component=auth op=admin_setup outcome=created admin_id=%s", admin.ID)
	return admin, nil
}

// SendPasswordResetOTP emails a 6-digit reset code to a registered address.
// The code lives for OTPTTL; requesting again replaces the previous code.
func (s *Service) SendPasswordResetOTP(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ErrMissingFields
	}
	if s.otps == nil {
		return ErrOTPUnavailable
	}

	if err := s.consumeLimit(ctx, "otp-send", email, 3, 10*time.Minute); err != nil {
		return err
	}

	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	code := generateOTP()
	if err := s.otps.SaveOTP(ctx, email, code, OTPTTL); err != nil {
		return err
	}

	body := fmt.Sprintf("Hello %s,\r\n\r\nYour password reset code is %s. It expires in %d minutes.\r\n\r\nIf you did not request this, you can ignore this email.\r\n",
		user.FullName, code, int(OTPTTL.Minutes()))
	if err := s.mailer.Send(email, "Your password reset code", body); err != nil {
		return fmt.Errorf("failed to send otp email: %w", err)
	}

	log.Printf("level=info component=auth op=otp_send outcome=sent email=%s", email)
	return nil
}

// VerifyPasswordResetOTP checks a reset code without consuming it, so the
// client can gate the new-password form before submitting.
func (s *Service) VerifyPasswordResetOTP(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if s.otps == nil {
		return ErrOTPUnavailable
	}
	stored, err := s.otps.GetOTP(ctx, email)
	if err != nil {
		if errors.Is(err, ErrOTPNotFound) {
			return ErrInvalidOTP
		}
		return err
	}
	if stored != code {
		return ErrInvalidOTP
	}
	return nil
}

// ResetPassword completes the reset flow: it re-verifies the code, stores the
// new password hash, and consumes the code.
func (s *Service) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if len(req.NewPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	if err := s.VerifyPasswordResetOTP(ctx, email, req.Code); err != nil {
		return err
	}

	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.UpdateUserPassword(ctx, user.Email, string(hash)); err != nil {
		return err
	}

	if err := s.otps.DeleteOTP(ctx, email); err != nil {
		log.Printf("level=warn component=auth msg=\"failed to consume otp\" email=%s err=%v", email, err)
	}

	log.Printf("level=info component=auth op=password_reset outcome=success user_id=%s", user.ID)
	return nil
}
