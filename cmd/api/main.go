package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/complaints-api/internal/config"
	"github.com/complaints-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/complaints-api/internal/infrastructure/jwt"
	s3infra "github.com/complaints-api/internal/infrastructure/s3"
	"github.com/complaints-api/internal/infrastructure/smtp"
	"github.com/complaints-api/internal/infrastructure/sns"
	"github.com/complaints-api/internal/pkg/otp"
	transporthttp "github.com/complaints-api/internal/transport/http"
	appmiddleware "github.com/complaints-api/internal/transport/http/middleware"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// Session tokens cannot be minted or verified without the key pair.
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider: %v", err)
	}

	// S3 evidence store.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS event publisher (optional — fan-out is best effort).
	var events sns.EventPublisher
	if cfg.SNSTopicARN != "" {
		if pub, perr := sns.NewPublisher(cfg); perr == nil {
			events = pub
		} else {
			log.Printf("WARN: SNS publisher not available: %v", perr)
		}
	}

	// In-flight OTP codes live in memory; the evictor bounds what abandoned
	// logins can accumulate.
	otpStore := otp.NewMemoryStore(cfg.OTPTTL)
	stopEvictor := make(chan struct{})
	otpStore.StartEvictor(time.Minute, stopEvictor)
	defer close(stopEvictor)

	appmiddleware.InitMetrics()

	deps := &transporthttp.Deps{
		ProfileRepo:   dynamo.NewProfileRepo(dynamoClient, cfg.DynamoTables.Profiles),
		ComplaintRepo: dynamo.NewComplaintRepo(dynamoClient, cfg.DynamoTables.Complaints),
		ActivityRepo:  dynamo.NewActivityLogRepo(dynamoClient, cfg.DynamoTables.ActivityLogs),
		S3Store:       s3Store,
		Mailer:        mailer,
		Events:        events,
		JWTProvider:   jwtProvider,
		OTPStore:      otpStore,
		Logger:        logger,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
