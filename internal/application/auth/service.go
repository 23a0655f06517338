package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/complaints-api/internal/domain"
	jwtinfra "github.com/complaints-api/internal/infrastructure/jwt"
	"github.com/complaints-api/internal/pkg/id"
	"github.com/complaints-api/internal/pkg/otp"
	"github.com/complaints-api/internal/pkg/sanitize"
	"golang.org/x/crypto/bcrypt"
)

// LoginResult is returned once the OTP step succeeds: the session token and
// the sanitized user object the client persists.
type LoginResult struct {
	Token string
	User  *domain.PublicProfile
}

// Service orchestrates the two-phase login state machine plus account
// registration and password recovery.
type Service interface {
	// Signup registers a citizen account with role "user".
	Signup(ctx context.Context, req domain.SignupRequest) (*domain.PublicProfile, error)
	// CreateManager registers an account with role "manager" (admin action).
	CreateManager(ctx context.Context, req domain.SignupRequest) (*domain.PublicProfile, error)
	// Login checks credentials and dispatches an OTP email. Returns the
	// normalized email the OTP was sent to; no session token is minted yet.
	Login(ctx context.Context, req domain.LoginRequest) (string, error)
	// VerifyOTP consumes the code and completes the login: custom token is
	// exchanged for a session token and the profile is loaded.
	VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (*LoginResult, error)
	// VerifyIDToken validates a session token and returns its profile.
	VerifyIDToken(ctx context.Context, idToken string) (*domain.Profile, error)
	// ResetPassword mints a reset link for email and dispatches it.
	ResetPassword(ctx context.Context, email string) (string, error)
	// CompleteReset consumes a reset token and stores the new password hash.
	CompleteReset(ctx context.Context, resetToken, newPassword string) error
}

type profileStore interface {
	Put(ctx context.Context, p *domain.Profile) error
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type tokenProvider interface {
	SignCustomToken(userID string) (string, error)
	ExchangeCustomToken(customToken, role string) (string, error)
	SignResetToken(userID string) (string, error)
	VerifySession(token string) (*jwtinfra.Claims, error)
	VerifyReset(token string) (*jwtinfra.Claims, error)
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type service struct {
	profiles profileStore
	otps     otp.Store
	mailer   mailer
	tokens   tokenProvider
	resetURL string // base URL reset links point at
}

type ServiceDeps struct {
	ProfileRepo profileStore
	OTPStore    otp.Store
	Mailer      mailer
	Tokens      tokenProvider
	ResetURL    string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		profiles: deps.ProfileRepo,
		otps:     deps.OTPStore,
		mailer:   deps.Mailer,
		tokens:   deps.Tokens,
		resetURL: deps.ResetURL,
	}
}

func (s *service) Signup(ctx context.Context, req domain.SignupRequest) (*domain.PublicProfile, error) {
	return s.register(ctx, req, domain.RoleUser)
}

func (s *service) CreateManager(ctx context.Context, req domain.SignupRequest) (*domain.PublicProfile, error) {
	return s.register(ctx, req, domain.RoleManager)
}

func (s *service) register(ctx context.Context, req domain.SignupRequest, role string) (*domain.PublicProfile, error) {
	email := sanitize.Email(req.Email)
	if _, err := s.profiles.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p := &domain.Profile{
		UserID:       id.New(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    sanitize.StripTags(req.FirstName),
		LastName:     sanitize.StripTags(req.LastName),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.profiles.Put(ctx, p); err != nil {
		return nil, err
	}
	return p.Public(), nil
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (string, error) {
	email := sanitize.Email(req.Email)
	p, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Unknown email and wrong password are indistinguishable to the
			// caller; backend failures stay tagged ErrUnavailable.
			return "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.Password)); err != nil {
		return "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	code, err := s.otps.Issue(email)
	if err != nil {
		return "", err
	}
	// Email dispatch failure is fatal for this step: the caller retries the
	// whole login, which overwrites the orphaned code.
	body := fmt.Sprintf("Your OTP code is: %s. It expires in 10 minutes.", code)
	if err := s.mailer.SendEmail(email, "Your OTP Code", body); err != nil {
		return "", fmt.Errorf("send OTP email: %w", domain.ErrUnavailable)
	}
	return email, nil
}

func (s *service) VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (*LoginResult, error) {
	email := sanitize.Email(req.Email)
	if err := s.otps.Verify(email, req.OTP); err != nil {
		return nil, fmt.Errorf("invalid or expired OTP: %w", domain.ErrBadRequest)
	}
	p, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	custom, err := s.tokens.SignCustomToken(p.UserID)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.ExchangeCustomToken(custom, p.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: p.Public()}, nil
}

func (s *service) VerifyIDToken(ctx context.Context, idToken string) (*domain.Profile, error) {
	claims, err := s.tokens.VerifySession(idToken)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}
	return s.profiles.Get(ctx, claims.UserID)
}

func (s *service) ResetPassword(ctx context.Context, email string) (string, error) {
	p, err := s.profiles.GetByEmail(ctx, sanitize.Email(email))
	if err != nil {
		return "", err
	}
	token, err := s.tokens.SignResetToken(p.UserID)
	if err != nil {
		return "", err
	}
	link := fmt.Sprintf("%s/reset-password?token=%s", s.resetURL, token)
	body := fmt.Sprintf("Click the link to reset your password: %s", link)
	if err := s.mailer.SendEmail(p.Email, "Password Reset Request", body); err != nil {
		return "", fmt.Errorf("send reset email: %w", domain.ErrUnavailable)
	}
	return link, nil
}

func (s *service) CompleteReset(ctx context.Context, resetToken, newPassword string) error {
	claims, err := s.tokens.VerifyReset(resetToken)
	if err != nil {
		return fmt.Errorf("invalid reset token: %w", domain.ErrUnauthorized)
	}
	if len(newPassword) < 16 || len(newPassword) > 72 {
		return fmt.Errorf("password must be 16-72 characters: %w", domain.ErrBadRequest)
	}
	if _, err := s.profiles.Get(ctx, claims.UserID); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.profiles.Update(ctx, claims.UserID, map[string]interface{}{
		"password_hash": string(hash),
	})
}
