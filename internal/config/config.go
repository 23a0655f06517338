package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	DynamoTables DynamoTables
	S3BucketName string
	SNSTopicARN  string // complaint event fan-out; empty disables publishing

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	SessionTokenTTL   time.Duration
	CustomTokenTTL    time.Duration
	ResetTokenTTL     time.Duration

	OTPTTL time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	FrontendURL    string // base for password reset links
	AllowedOrigins []string
}

// DynamoTables holds the DynamoDB table name for each collection.
type DynamoTables struct {
	Profiles     string
	Complaints   string
	ActivityLogs string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "5000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		DynamoTables: DynamoTables{
			Profiles:     getEnv("DYNAMO_TABLE_PROFILES", "profiles"),
			Complaints:   getEnv("DYNAMO_TABLE_COMPLAINTS", "complaints"),
			ActivityLogs: getEnv("DYNAMO_TABLE_ACTIVITY_LOGS", "activity_logs"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "complaint-evidence"),
		SNSTopicARN:  getEnv("SNS_TOPIC_ARN", ""),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		SessionTokenTTL:   time.Duration(getEnvInt("SESSION_TOKEN_EXPIRY_DAYS", 7)) * 24 * time.Hour,
		CustomTokenTTL:    time.Duration(getEnvInt("CUSTOM_TOKEN_EXPIRY_MINUTES", 5)) * time.Minute,
		ResetTokenTTL:     time.Duration(getEnvInt("RESET_TOKEN_EXPIRY_MINUTES", 60)) * time.Minute,

		OTPTTL: time.Duration(getEnvInt("OTP_EXPIRY_MINUTES", 10)) * time.Minute,

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),
	}
}

// IsProduction reports whether the service runs with production hardening
// (error details suppressed, secure cookies forced).
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
