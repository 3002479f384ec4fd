/**
 * @description
 * This package issues and verifies the signed session tokens that gate every
 * authenticated request. Tokens are HS256 JWTs carrying the subject id, the
 * customer's phone number, and a role claim that separates customers from
 * back-office admins.
 *
 * @dependencies
 * - github.com/golang-jwt/jwt/v5: JWT signing and parsing.
 */

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in the token's role claim.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the verified identity extracted from a session token.
type Claims struct {
	Subject string
	Phone   string
	Role    string
}

// TokenManager issues signed JWTs for authenticated users and admins.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetime.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// Generate issues a signed JWT for the given subject, phone, and role.
func (t *TokenManager) Generate(subject, phone, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   t.issuer,
		"sub":   subject,
		"phone": phone,
		"role":  role,
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   now.Add(t.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses and validates a token string and returns its claims.
func (t *TokenManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	subject, _ := mapClaims["sub"].(string)
	phone, _ := mapClaims["phone"].(string)
	role, _ := mapClaims["role"].(string)
	if subject == "" || role == "" {
		return nil, ErrInvalidToken
	}

	return &Claims{Subject: subject, Phone: phone, Role: role}, nil
}
