package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sabinbank/banking-service/internal/auth"
	"github.com/sabinbank/banking-service/internal/domain"
	"github.com/sabinbank/banking-service/internal/store"
)

type authRepoStub struct {
	store.Repository

	usersByPhone map[string]*domain.User
	usersByEmail map[string]*domain.User
	admin        *domain.Admin
	adminCount   int64

	createdUser     *domain.User
	createdAdmin    *domain.Admin
	updatedPassword string
}

func newAuthRepoStub() *authRepoStub {
	return &authRepoStub{
		usersByPhone: make(map[string]*domain.User),
		usersByEmail: make(map[string]*domain.User),
	}
}

func (s *authRepoStub) addUser(user *domain.User) {
	s.usersByPhone[user.PhoneNumber] = user
	s.usersByEmail[user.Email] = user
}

func (s *authRepoStub) CreateUser(ctx context.Context, user *domain.User) error {
	if _, exists := s.usersByPhone[user.PhoneNumber]; exists {
		return store.ErrDuplicateUser
	}
	s.createdUser = user
	s.addUser(user)
	return nil
}

func (s *authRepoStub) FindUserByPhone(ctx context.Context, phoneNumber string) (*domain.User, error) {
	user, ok := s.usersByPhone[phoneNumber]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (s *authRepoStub) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, ok := s.usersByEmail[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (s *authRepoStub) UpdateUserPassword(ctx context.Context, email string, passwordHash string) error {
	user, ok := s.usersByEmail[email]
	if !ok {
		return store.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	s.updatedPassword = passwordHash
	return nil
}

func (s *authRepoStub) FindAdminByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	if s.admin == nil || s.admin.Email != email {
		return nil, store.ErrAdminNotFound
	}
	return s.admin, nil
}

func (s *authRepoStub) CountAdmins(ctx context.Context) (int64, error) {
	return s.adminCount, nil
}

func (s *authRepoStub) CreateAdmin(ctx context.Context, admin *domain.Admin) error {
	s.createdAdmin = admin
	s.admin = admin
	s.adminCount++
	return nil
}

// memOTPStore is an in-memory OTPStore for tests. Expiry is ignored.
type memOTPStore struct {
	codes map[string]string
}

func newMemOTPStore() *memOTPStore {
	return &memOTPStore{codes: make(map[string]string)}
}

func (s *memOTPStore) SaveOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	s.codes[email] = code
	return nil
}

func (s *memOTPStore) GetOTP(ctx context.Context, email string) (string, error) {
	code, ok := s.codes[email]
	if !ok {
		return "", ErrOTPNotFound
	}
	return code, nil
}

func (s *memOTPStore) DeleteOTP(ctx context.Context, email string) error {
	delete(s.codes, email)
	return nil
}

type mailerStub struct {
	to      string
	subject string
	body    string
}

func (m *mailerStub) Send(to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return nil
}

func newAuthTestService(repo store.Repository, otps OTPStore, mail Mailer) *Service {
	tokens := auth.NewTokenManager("test-secret", "banking-service-test", time.Hour)
	return NewService(repo, nil, tokens, otps, mail)
}

func validSignup() domain.SignupRequest {
	return domain.SignupRequest{
		FullName:    "Jane Doe",
		Email:       "jane@example.com",
		PhoneNumber: "08012345678",
		Location:    "Lagos",
		Gender:      "female",
		BirthDate:   "1995-04-12",
		IDType:      "passport",
		IDNumber:    "A1234567",
		Password:    "secret123",
	}
}

func TestSignup(t *testing.T) {
	repo := newAuthRepoStub()
	svc := newAuthTestService(repo, nil, nil)

	user, err := svc.Signup(context.Background(), validSignup())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.Status != domain.UserStatusPending {
		t.Fatalf("expected pending status, got %s", user.Status)
	}
	if user.Balance != StartingBonus {
		t.Fatalf("expected starting bonus %d, got %d", StartingBonus, user.Balance)
	}
	if len(user.AccountNumber) != 16 || !isDigits(user.AccountNumber) {
		t.Fatalf("expected 16-digit account number, got %q", user.AccountNumber)
	}
	if user.PasswordHash == "secret123" || user.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.SignupRequest)
		wantErr error
	}{
		{
			name:    "missing full name",
			mutate:  func(r *domain.SignupRequest) { r.FullName = " " },
			wantErr: ErrMissingFields,
		},
		{
			name:    "short password",
			mutate:  func(r *domain.SignupRequest) { r.Password = "abc" },
			wantErr: ErrWeakPassword,
		},
		{
			name:    "malformed birth date",
			mutate:  func(r *domain.SignupRequest) { r.BirthDate = "12/04/1995" },
			wantErr: ErrInvalidBirthDate,
		},
		{
			name: "card request with unsupported type",
			mutate: func(r *domain.SignupRequest) {
				r.RequestedCard = true
				r.CardType = "DINERS"
			},
			wantErr: ErrUnsupportedCardType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newAuthTestService(newAuthRepoStub(), nil, nil)
			req := validSignup()
			tt.mutate(&req)
			if _, err := svc.Signup(context.Background(), req); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSignupDuplicate(t *testing.T) {
	repo := newAuthRepoStub()
	svc := newAuthTestService(repo, nil, nil)

	if _, err := svc.Signup(context.Background(), validSignup()); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}
	if _, err := svc.Signup(context.Background(), validSignup()); !errors.Is(err, store.ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
}

func seedActiveUser(t *testing.T, repo *authRepoStub, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	user := &domain.User{
		ID:            uuid.New(),
		FullName:      "Jane Doe",
		Email:         "jane@example.com",
		PhoneNumber:   "08012345678",
		AccountNumber: "1111222233334444",
		PasswordHash:  string(hash),
		Status:        domain.UserStatusActive,
	}
	repo.addUser(user)
	return user
}

func TestLogin(t *testing.T) {
	repo := newAuthRepoStub()
	seedActiveUser(t, repo, "secret123")
	svc := newAuthTestService(repo, nil, nil)

	resp, err := svc.Login(context.Background(), domain.LoginRequest{PhoneNumber: "08012345678", Password: "secret123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("expected a session token")
	}
	if resp.Role != auth.RoleUser {
		t.Fatalf("expected user role, got %s", resp.Role)
	}
}

func TestLoginRejections(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		phone    string
		password string
		wantErr  error
	}{
		{
			name:     "wrong password collapses to generic error",
			status:   domain.UserStatusActive,
			phone:    "08012345678",
			password: "wrong",
			wantErr:  ErrInvalidCredentials,
		},
		{
			name:     "unknown phone collapses to generic error",
			status:   domain.UserStatusActive,
			phone:    "0000",
			password: "secret123",
			wantErr:  ErrInvalidCredentials,
		},
		{
			name:     "pending account is told so",
			status:   domain.UserStatusPending,
			phone:    "08012345678",
			password: "secret123",
			wantErr:  ErrAccountPending,
		},
		{
			name:     "rejected account is told so",
			status:   domain.UserStatusRejected,
			phone:    "08012345678",
			password: "secret123",
			wantErr:  ErrAccountRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newAuthRepoStub()
			user := seedActiveUser(t, repo, "secret123")
			user.Status = tt.status
			svc := newAuthTestService(repo, nil, nil)

			_, err := svc.Login(context.Background(), domain.LoginRequest{PhoneNumber: tt.phone, Password: tt.password})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSetupAdmin(t *testing.T) {
	repo := newAuthRepoStub()
	svc := newAuthTestService(repo, nil, nil)

	admin, err := svc.SetupAdmin(context.Background(), "root", "admin@example.com", "secret123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if admin.Role != auth.RoleAdmin {
		t.Fatalf("expected admin role, got %s", admin.Role)
	}

	if _, err := svc.SetupAdmin(context.Background(), "second", "two@example.com", "secret123"); !errors.Is(err, ErrAdminExists) {
		t.Fatalf("expected ErrAdminExists once an admin exists, got %v", err)
	}
}

func TestAdminLogin(t *testing.T) {
	repo := newAuthRepoStub()
	svc := newAuthTestService(repo, nil, nil)
	if _, err := svc.SetupAdmin(context.Background(), "root", "admin@example.com", "secret123"); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	resp, err := svc.AdminLogin(context.Background(), domain.AdminLoginRequest{Email: "admin@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Role != auth.RoleAdmin {
		t.Fatalf("expected admin role, got %s", resp.Role)
	}

	if _, err := svc.AdminLogin(context.Background(), domain.AdminLoginRequest{Email: "admin@example.com", Password: "nope"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	repo := newAuthRepoStub()
	user := seedActiveUser(t, repo, "oldpassword")
	otps := newMemOTPStore()
	mail := &mailerStub{}
	svc := newAuthTestService(repo, otps, mail)

	if err := svc.SendPasswordResetOTP(context.Background(), user.Email); err != nil {
		t.Fatalf("send otp failed: %v", err)
	}

	code := otps.codes[user.Email]
	if len(code) != 6 || !isDigits(code) {
		t.Fatalf("expected 6-digit code, got %q", code)
	}
	if mail.to != user.Email {
		t.Fatalf("expected mail to %s, got %s", user.Email, mail.to)
	}

	if err := svc.VerifyPasswordResetOTP(context.Background(), user.Email, "000000"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP for wrong code, got %v", err)
	}
	if err := svc.VerifyPasswordResetOTP(context.Background(), user.Email, code); err != nil {
		t.Fatalf("verify failed for correct code: %v", err)
	}

	err := svc.ResetPassword(context.Background(), domain.ResetPasswordRequest{
		Email:       user.Email,
		Code:        code,
		NewPassword: "newpassword",
	})
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("newpassword")); err != nil {
		t.Fatalf("new password does not verify: %v", err)
	}
	if _, ok := otps.codes[user.Email]; ok {
		t.Fatalf("code must be consumed after a successful reset")
	}
}

func TestSendPasswordResetOTPUnknownEmail(t *testing.T) {
	svc := newAuthTestService(newAuthRepoStub(), newMemOTPStore(), &mailerStub{})
	if err := svc.SendPasswordResetOTP(context.Background(), "nobody@example.com"); !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

// fixedLimiter always reports the same count, for exercising the throttle path.
type fixedLimiter struct {
	count      int
	retryAfter int
}

func (l fixedLimiter) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	return l.count, l.retryAfter, nil
}

func TestLoginRateLimited(t *testing.T) {
	repo := newAuthRepoStub()
	seedActiveUser(t, repo, "secret123")
	svc := newAuthTestService(repo, nil, nil)
	svc.SetRateLimiter(fixedLimiter{count: 100, retryAfter: 30})

	_, err := svc.Login(context.Background(), domain.LoginRequest{PhoneNumber: "08012345678", Password: "secret123"})
	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rle.RetryAfterSeconds != 30 {
		t.Fatalf("expected retry after 30s, got %d", rle.RetryAfterSeconds)
	}
}
