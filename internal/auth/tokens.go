package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token purposes. A token issued for one purpose is rejected for another.
const (
	purposeAccess   = "access"
	purposeConfirm  = "confirm"
	purposeRecovery = "recovery"
)

const (
	confirmTokenTTL  = 24 * time.Hour
	recoveryTokenTTL = time.Hour
)

type claims struct {
	Purpose string `json:"typ"`
	jwt.RegisteredClaims
}

func (s *Service) issueToken(userID, purpose string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)
	c := claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *Service) parseToken(token, purpose string) (*claims, error) {
	if token == "" {
		return nil, ErrSessionMissing
	}

	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if c.Purpose != purpose || c.Subject == "" {
		return nil, ErrInvalidToken
	}
	if s.isRevoked(c.ID) {
		return nil, ErrInvalidToken
	}
	return &c, nil
}

func (s *Service) revoke(c *claims) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, id)
		}
	}
	if c.ExpiresAt != nil {
		s.revoked[c.ID] = c.ExpiresAt.Time
	}
}

func (s *Service) isRevoked(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[id]
	return ok
}
