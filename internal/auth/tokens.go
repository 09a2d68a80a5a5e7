package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrNoToken      = errors.New("no authentication token provided")
	ErrInvalidToken = errors.New("invalid authentication token")
	ErrExpiredToken = errors.New("token has expired")
	ErrRevokedToken = errors.New("token has been revoked")
)

// Claims represents the JWT claims for a collaborator
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies bearer tokens and keeps the revocation
// list (blacklist) for logged-out tokens
type TokenManager struct {
	secretKey     []byte
	mu            sync.RWMutex
	revokedTokens map[string]time.Time // token ID -> revocation time
}

// NewTokenManager creates a new token manager with the given secret key
func NewTokenManager(secretKey string) *TokenManager {
	return &TokenManager{
		secretKey:     []byte(secretKey),
		revokedTokens: make(map[string]time.Time),
	}
}

// Generate issues a new signed token for a user
func (tm *TokenManager) Generate(userID, email string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(tm.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Verify validates a token and returns its claims
func (tm *TokenManager) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	tm.mu.RLock()
	_, revoked := tm.revokedTokens[claims.ID]
	tm.mu.RUnlock()

	if revoked {
		return nil, ErrRevokedToken
	}

	return claims, nil
}

// Revoke adds a token to the revocation list
func (tm *TokenManager) Revoke(tokenString string) error {
	// Parse without validation, just to extract the token ID
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return ErrInvalidToken
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.revokedTokens[claims.ID] = time.Now()
	return nil
}

// CleanupRevoked removes stale entries from the revocation list
func (tm *TokenManager) CleanupRevoked() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	// Entries revoked more than 24 hours ago have outlived any token TTL
	cutoff := time.Now().Add(-24 * time.Hour)
	for tokenID, revokedAt := range tm.revokedTokens {
		if revokedAt.Before(cutoff) {
			delete(tm.revokedTokens, tokenID)
		}
	}
}

// RevokedCount returns the number of revoked tokens (for testing)
func (tm *TokenManager) RevokedCount() int {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return len(tm.revokedTokens)
}
