package auth

import (
	"errors"
	"time"

	"github.com/acepass/acepass/internal/admin"
)

// Service issues and verifies admin access tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService builds a token service over the shared HS256 secret.
func NewService(secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{secret: []byte(secret), ttl: ttl}
}

// Token is an issued admin access token.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Issue signs an access token for an authenticated admin.
func (s *Service) Issue(account admin.Admin) (Token, error) {
	now := time.Now().UTC()
	claims := map[string]any{
		"sub":  account.ID,
		"name": account.Username,
		"role": "admin",
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	}
	signed, err := SignHS256(claims, s.secret)
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: signed, ExpiresIn: int64(s.ttl.Seconds())}, nil
}

// Verify checks the token and returns the admin id it was issued for.
func (s *Service) Verify(token string) (string, error) {
	claims, err := ParseAndVerifyHS256(token, s.secret)
	if err != nil {
		return "", err
	}
	exp, _ := claims["exp"].(float64)
	if time.Now().UTC().Unix() > int64(exp) {
		return "", errors.New("token expired")
	}
	if role, _ := claims["role"].(string); role != "admin" {
		return "", errors.New("not an admin token")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("missing subject")
	}
	return sub, nil
}
