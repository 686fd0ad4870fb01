// Package auth issues and verifies the bearer tokens used by the API.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned for any token that fails verification.
	ErrInvalidToken = errors.New("invalid token")
)

// Service signs and verifies access tokens.
type Service struct {
	secret   []byte
	tokenTTL time.Duration
}

// NewService creates a token service. TTL defaults to 8 hours when zero.
func NewService(secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Service{
		secret:   []byte(secret),
		tokenTTL: ttl,
	}
}

// IssueToken generates a signed access token for a user
func (s *Service) IssueToken(userID string) (string, error) {
	now := time.Now()
	expiry := now.Add(s.tokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"type":    "access",
		"exp":     expiry.Unix(),
		"iat":     now.Unix(),
	})

	return token.SignedString(s.secret)
}

// ParseToken validates an access token and returns the user ID
func (s *Service) ParseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})

	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	// Only access tokens authenticate requests
	tokenType, _ := claims["type"].(string)
	if tokenType != "access" {
		return "", ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}

	return userID, nil
}
