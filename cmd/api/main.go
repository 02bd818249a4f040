package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-email-otp/internal/application/otp"
	"github.com/go-email-otp/internal/config"
	"github.com/go-email-otp/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-email-otp/internal/infrastructure/jwt"
	s3infra "github.com/go-email-otp/internal/infrastructure/s3"
	"github.com/go-email-otp/internal/infrastructure/smtp"
	transporthttp "github.com/go-email-otp/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Ensure the OTP table exists before serving anything. This is awaited
	// deliberately: no request may race schema setup.
	dynamoClient := dynamo.NewClient(cfg)
	if err := dynamo.EnsureSchema(context.Background(), dynamoClient, cfg.OTPTableName); err != nil {
		log.Fatalf("schema setup failed: %v", err)
	}

	// SMTP mailer, with an optional S3-hosted email template.
	mailBody := smtp.DefaultTemplate
	if cfg.MailTemplateBucket != "" {
		store := s3infra.NewTemplateStore(s3infra.NewClient(cfg), cfg.MailTemplateBucket)
		if body, err := store.Fetch(context.Background(), cfg.MailTemplateKey); err == nil {
			mailBody = body
		} else {
			log.Printf("WARN: could not load mail template from S3, using default: %v", err)
		}
	}
	mailer, err := smtp.NewMailer(cfg, mailBody)
	if err != nil {
		log.Fatalf("mailer setup failed: %v", err)
	}

	// The OTP adapter. NewService fails fast on a bad configuration bundle.
	otpSvc, err := otp.NewService(otp.Config{
		Adapter:     otp.AdapterName,
		OTPValidity: cfg.OTPValidity,
		MaxAttempts: cfg.MaxAttempts,
		Sender: func(_ context.Context, email, code string) error {
			return mailer.SendOTP(email, code)
		},
	}, dynamo.NewOTPRepo(dynamoClient, cfg.OTPTableName))
	if err != nil {
		log.Fatalf("otp adapter misconfigured: %v", err)
	}

	// JWT provider (optional — verification still works without session tokens).
	deps := &transporthttp.Deps{OTPService: otpSvc}
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		deps.TokenSigner = p
	} else {
		log.Printf("WARN: JWT provider not available, session tokens disabled: %v", err)
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
