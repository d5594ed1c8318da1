// Package auth issues and verifies the credentials used by the API: bcrypt
// password hashes and HMAC-signed JWT access/refresh token pairs.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/libshelf/library-service/internal/domain"
)

// Token type claim values. A refresh token can never be used to authenticate
// a request, and an access token can never be refreshed.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims are the JWT claims carried by both token kinds.
type Claims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is the response body of the token endpoint.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenManager signs and verifies token pairs with a shared HMAC secret.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      func() time.Time
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		clock:      time.Now,
	}
}

// IssuePair issues a fresh access+refresh token pair for the given user.
func (m *TokenManager) IssuePair(userID uuid.UUID) (TokenPair, error) {
	access, err := m.issue(userID, tokenTypeAccess, m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.issue(userID, tokenTypeRefresh, m.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess issues a new access token, used by the refresh endpoint.
func (m *TokenManager) IssueAccess(userID uuid.UUID) (string, error) {
	return m.issue(userID, tokenTypeAccess, m.accessTTL)
}

func (m *TokenManager) issue(userID uuid.UUID, tokenType string, ttl time.Duration) (string, error) {
	now := m.clock()
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", tokenType, err)
	}
	return signed, nil
}

// ParseAccess verifies an access token and returns the user it was issued to.
func (m *TokenManager) ParseAccess(token string) (uuid.UUID, error) {
	return m.parse(token, tokenTypeAccess)
}

// ParseRefresh verifies a refresh token and returns the user it was issued to.
func (m *TokenManager) ParseRefresh(token string) (uuid.UUID, error) {
	return m.parse(token, tokenTypeRefresh)
}

func (m *TokenManager) parse(token, wantType string) (uuid.UUID, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.clock))
	if err != nil || !parsed.Valid {
		return uuid.Nil, domain.ErrInvalidToken
	}

	if claims.TokenType != wantType {
		return uuid.Nil, domain.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, errors.Join(domain.ErrInvalidToken, err)
	}
	return userID, nil
}
