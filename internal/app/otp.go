/**
 * @description
 * This file implements the one-time-password store used by the password reset
 * flow. Codes are kept in Redis under a per-email key with a TTL, so expiry is
 * enforced by the store itself rather than by application bookkeeping.
 *
 * @dependencies
 * - github.com/redis/go-redis/v9: Redis client.
 */

package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPTTL is how long a password reset code stays valid.
const OTPTTL = 10 * time.Minute

var ErrOTPNotFound = errors.New("otp not found or expired")

// OTPStore persists short-lived one-time passwords keyed by email.
type OTPStore interface {
	SaveOTP(ctx context.Context, email, code string, ttl time.Duration) error
	GetOTP(ctx context.Context, email string) (string, error)
	DeleteOTP(ctx context.Context, email string) error
}

// RedisOTPStore stores codes in Redis with the key's TTL as the expiry.
type RedisOTPStore struct {
	client *redis.Client
}

// NewRedisOTPStore creates an OTP store backed by the given Redis client.
func NewRedisOTPStore(client *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

func otpKey(email string) string {
	return "otp:reset:" + strings.ToLower(strings.TrimSpace(email))
}

// SaveOTP writes the code under the email's key, replacing any previous code
// and restarting the expiry clock.
func (s *RedisOTPStore) SaveOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, otpKey(email), code, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save otp: %w", err)
	}
	return nil
}

// GetOTP returns the live code for an email, or ErrOTPNotFound when no code
// exists or it has expired.
func (s *RedisOTPStore) GetOTP(ctx context.Context, email string) (string, error) {
	code, err := s.client.Get(ctx, otpKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrOTPNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read otp: %w", err)
	}
	return code, nil
}

// DeleteOTP removes the code for an email. Deleting a missing key is not an error.
func (s *RedisOTPStore) DeleteOTP(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, otpKey(email)).Err(); err != nil {
		return fmt.Errorf("failed to delete otp: %w", err)
	}
	return nil
}

// generateOTP draws a 6-digit numeric code, zero-padded.
func generateOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return fmt.Sprintf("%06d", n.Int64())
}
