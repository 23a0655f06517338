package user

import (
	"context"
	"errors"
	"testing"

	"github.com/complaints-api/internal/domain"
	jwtinfra "github.com/complaints-api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProfileStore struct{ mock.Mock }

func (m *mockProfileStore) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *mockProfileStore) ListByRole(ctx context.Context, role string) ([]domain.Profile, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Profile), args.Error(1)
}

func (m *mockProfileStore) Delete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) VerifySession(token string) (*jwtinfra.Claims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jwtinfra.Claims), args.Error(1)
}

func TestManagers(t *testing.T) {
	profiles := new(mockProfileStore)
	svc := NewService(profiles, new(mockVerifier))

	profiles.On("ListByRole", mock.Anything, domain.RoleManager).Return([]domain.Profile{
		{UserID: "m1", Email: "lead@example.com", Role: domain.RoleManager, PasswordHash: "secret"},
	}, nil)

	out, err := svc.Managers(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "m1", out[0].ID)
	assert.Equal(t, domain.RoleManager, out[0].Role)
}

func TestManagers_NoneFound(t *testing.T) {
	profiles := new(mockProfileStore)
	svc := NewService(profiles, new(mockVerifier))

	profiles.On("ListByRole", mock.Anything, domain.RoleManager).Return([]domain.Profile{}, nil)

	_, err := svc.Managers(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete(t *testing.T) {
	profiles := new(mockProfileStore)
	svc := NewService(profiles, new(mockVerifier))

	profiles.On("Get", mock.Anything, "u1").Return(&domain.Profile{UserID: "u1"}, nil)
	profiles.On("Delete", mock.Anything, "u1").Return(nil)

	require.NoError(t, svc.Delete(context.Background(), "u1"))
	profiles.AssertExpectations(t)
}

func TestDelete_UnknownAccount(t *testing.T) {
	profiles := new(mockProfileStore)
	svc := NewService(profiles, new(mockVerifier))

	profiles.On("Get", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	err := svc.Delete(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	profiles.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestUserIDFromToken(t *testing.T) {
	tokens := new(mockVerifier)
	svc := NewService(new(mockProfileStore), tokens)

	tokens.On("VerifySession", "good-token").Return(&jwtinfra.Claims{UserID: "u1"}, nil)

	uid, err := svc.UserIDFromToken("good-token")
	require.NoError(t, err)
	assert.Equal(t, "u1", uid)
}

func TestUserIDFromToken_Invalid(t *testing.T) {
	tokens := new(mockVerifier)
	svc := NewService(new(mockProfileStore), tokens)

	tokens.On("VerifySession", "bad").Return(nil, errors.New("token is expired"))

	_, err := svc.UserIDFromToken("bad")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
