package services

import (
	"fmt"
	"time"

	"go-travel-webapp/internal/config"
	"go-travel-webapp/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues and verifies the signed session tokens carried in the
// HttpOnly session cookie. Opaque to the bruteforce guard.
type TokenService struct {
	secret  []byte
	timeout time.Duration
}

// SessionClaims is the payload carried by a session token.
type SessionClaims struct {
	UserID   uint   `json:"uid"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func NewTokenService(cfg *config.SecurityConfig) *TokenService {
	timeout := time.Duration(cfg.SessionTimeout) * time.Second
	if timeout <= 0 {
		timeout = time.Hour
	}
	return &TokenService{
		secret:  []byte(cfg.JWTSecret),
		timeout: timeout,
	}
}

// Issue creates a signed session token for the user.
func (s *TokenService) Issue(user *models.User) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID:   user.UserID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.timeout)),
			Issuer:    "travelbook",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates a session token, returning its claims.
func (s *TokenService) Verify(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	return claims, nil
}

// SessionTTLSeconds returns the cookie max-age for issued sessions.
func (s *TokenService) SessionTTLSeconds() int {
	return int(s.timeout.Seconds())
}
