package auth

import (
	"errors"
	"time"

	"github.com/hyperwallet/hyperwallet/internal/chain"
	"github.com/hyperwallet/hyperwallet/internal/config"
)

// ErrInvalidToken indicates a token that failed verification or carries no
// usable subject address.
var ErrInvalidToken = errors.New("invalid token")

// Service issues and verifies bearer tokens binding a caller address. Tokens
// are minted by the administrator for operators and test rigs; the subject is
// the address every domain operation treats as msg-sender.
type Service struct {
	cfg config.Config
}

// NewService builds an auth service.
func NewService(cfg config.Config) *Service {
	return &Service{cfg: cfg}
}

// Token captures an issued access token.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Issue mints an access token for the address.
func (s *Service) Issue(address chain.Address) (Token, error) {
	now := time.Now()
	exp := now.Add(s.cfg.AccessTokenTTL)
	claims := map[string]any{
		"sub": string(address),
		"iat": now.Unix(),
		"exp": exp.Unix(),
	}
	signed, err := SignHS256(claims, []byte(s.cfg.JWTSecret))
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: signed, ExpiresIn: int64(exp.Sub(now).Seconds())}, nil
}

// Verify checks the token and returns the caller address it binds.
func (s *Service) Verify(token string) (chain.Address, error) {
	claims, err := ParseAndVerifyHS256(token, []byte(s.cfg.JWTSecret))
	if err != nil {
		return "", ErrInvalidToken
	}
	if exp, ok := claims["exp"].(float64); ok && time.Now().Unix() > int64(exp) {
		return "", ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	address, err := chain.ParseAddress(sub)
	if err != nil {
		return "", ErrInvalidToken
	}
	return address, nil
}
