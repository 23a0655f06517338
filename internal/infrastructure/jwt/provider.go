package jwtinfra

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/complaints-api/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// Token uses. The two-step mint issues a short-lived custom token which is
// exchanged for a long-lived session token; reset tokens back password
// recovery links.
const (
	UseCustom  = "custom"
	UseSession = "session"
	UseReset   = "reset"
)

// Claims holds the token payload fields.
type Claims struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role,omitempty"`
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

// Provider signs and verifies RS256 tokens.
type Provider struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	sessionTTL time.Duration
	customTTL  time.Duration
	resetTTL   time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	privBytes, err := os.ReadFile(cfg.JWTPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	pubBytes, err := os.ReadFile(cfg.JWTPublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	return &Provider{
		privateKey: privKey,
		publicKey:  pubKey,
		sessionTTL: cfg.SessionTokenTTL,
		customTTL:  cfg.CustomTokenTTL,
		resetTTL:   cfg.ResetTokenTTL,
	}, nil
}

// SessionTTL exposes the session token lifetime so the cookie expiry can
// match the embedded one.
func (p *Provider) SessionTTL() time.Duration { return p.sessionTTL }

// SignCustomToken mints the short-lived first-step credential carrying only
// the account id.
func (p *Provider) SignCustomToken(userID string) (string, error) {
	return p.sign(Claims{UserID: userID, TokenUse: UseCustom}, p.customTTL)
}

// ExchangeCustomToken verifies a custom token and mints the long-lived
// session token for its subject, embedding the profile role.
func (p *Provider) ExchangeCustomToken(customToken, role string) (string, error) {
	claims, err := p.verify(customToken)
	if err != nil {
		return "", err
	}
	if claims.TokenUse != UseCustom {
		return "", errors.New("token is not a custom token")
	}
	return p.sign(Claims{UserID: claims.UserID, Role: role, TokenUse: UseSession}, p.sessionTTL)
}

// SignResetToken mints a password-reset token embedded in emailed links.
func (p *Provider) SignResetToken(userID string) (string, error) {
	return p.sign(Claims{UserID: userID, TokenUse: UseReset}, p.resetTTL)
}

// VerifySession validates a session token's signature and expiry.
func (p *Provider) VerifySession(tokenStr string) (*Claims, error) {
	claims, err := p.verify(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenUse != UseSession {
		return nil, errors.New("token is not a session token")
	}
	return claims, nil
}

// VerifyReset validates a password-reset token.
func (p *Provider) VerifyReset(tokenStr string) (*Claims, error) {
	claims, err := p.verify(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenUse != UseReset {
		return nil, errors.New("token is not a reset token")
	}
	return claims, nil
}

func (p *Provider) sign(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Subject:   claims.UserID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(p.privateKey)
}

func (p *Provider) verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.publicKey, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
