package user

import (
	"context"
	"fmt"

	"github.com/complaints-api/internal/domain"
	jwtinfra "github.com/complaints-api/internal/infrastructure/jwt"
)

// Service covers user administration: manager listing, account deletion and
// token-to-id resolution.
type Service interface {
	// Managers lists every manager account.
	Managers(ctx context.Context) ([]domain.PublicProfile, error)
	// Delete removes an account by id.
	Delete(ctx context.Context, userID string) error
	// UserIDFromToken resolves a session token to its account id without
	// touching the store.
	UserIDFromToken(token string) (string, error)
}

type profileStore interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	ListByRole(ctx context.Context, role string) ([]domain.Profile, error)
	Delete(ctx context.Context, userID string) error
}

type sessionVerifier interface {
	VerifySession(token string) (*jwtinfra.Claims, error)
}

type service struct {
	profiles profileStore
	tokens   sessionVerifier
}

func NewService(profiles profileStore, tokens sessionVerifier) Service {
	return &service{profiles: profiles, tokens: tokens}
}

func (s *service) Managers(ctx context.Context) ([]domain.PublicProfile, error) {
	managers, err := s.profiles.ListByRole(ctx, domain.RoleManager)
	if err != nil {
		return nil, err
	}
	if len(managers) == 0 {
		return nil, fmt.Errorf("no managers found: %w", domain.ErrNotFound)
	}
	out := make([]domain.PublicProfile, 0, len(managers))
	for i := range managers {
		out = append(out, *managers[i].Public())
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, userID string) error {
	// Confirm existence first so a bad id surfaces as 404, not silence.
	if _, err := s.profiles.Get(ctx, userID); err != nil {
		return err
	}
	return s.profiles.Delete(ctx, userID)
}

func (s *service) UserIDFromToken(token string) (string, error) {
	claims, err := s.tokens.VerifySession(token)
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}
	return claims.UserID, nil
}
