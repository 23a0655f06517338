package domain

import "time"

// Application roles. Role is the sole authorization signal; it lives on the
// profile document, not on the token, so revocation takes effect on the next
// request.
const (
	RoleUser    = "user"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// Profile is the application-owned user record. It carries both the account
// credential (password hash, never serialized) and the profile fields the
// original split across the identity directory and the profiles collection.
type Profile struct {
	UserID       string    `json:"id" dynamodbav:"user_id"`
	Email        string    `json:"email" dynamodbav:"email"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	FirstName    string    `json:"firstName" dynamodbav:"first_name"`
	LastName     string    `json:"lastName" dynamodbav:"last_name"`
	Role         string    `json:"role" dynamodbav:"role"`
	CreatedAt    time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

// SignupRequest is the payload for user and manager registration.
// Passwords are long by policy: 16 characters minimum.
type SignupRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=16,max=72"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

// LoginRequest starts the two-phase login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=16,max=72"`
}

// VerifyOTPRequest completes the two-phase login.
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6"`
}

// PublicProfile is the sanitized user object returned by auth endpoints.
type PublicProfile struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// Public strips credential material from a profile.
func (p *Profile) Public() *PublicProfile {
	return &PublicProfile{
		ID:        p.UserID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Role:      p.Role,
	}
}

// FullName renders the display name used on comments and activity entries.
func (p *Profile) FullName() string {
	return p.FirstName + " " + p.LastName
}
