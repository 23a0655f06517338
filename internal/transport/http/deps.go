package http

import (
	"log/slog"

	"github.com/complaints-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/complaints-api/internal/infrastructure/jwt"
	s3infra "github.com/complaints-api/internal/infrastructure/s3"
	"github.com/complaints-api/internal/infrastructure/smtp"
	"github.com/complaints-api/internal/infrastructure/sns"
	"github.com/complaints-api/internal/pkg/otp"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	ProfileRepo   *dynamo.ProfileRepo
	ComplaintRepo *dynamo.ComplaintRepo
	ActivityRepo  *dynamo.ActivityLogRepo
	S3Store       *s3infra.Store
	Mailer        smtp.Mailer
	Events        sns.EventPublisher // nil disables event fan-out
	JWTProvider   *jwtinfra.Provider
	OTPStore      otp.Store
	Logger        *slog.Logger
}
