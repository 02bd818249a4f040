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

	OTPTableName string
	// OTPValidity is how long an issued code stays valid. Configured in
	// milliseconds (OTP_VALIDITY_MS) so short-lived test setups work too.
	OTPValidity time.Duration
	MaxAttempts int

	// MasterKey authorizes the privileged verification bypass. When empty,
	// the bypass is disabled entirely.
	MasterKey string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	// MailTemplateBucket/Key point at an optional S3-hosted HTML template
	// for the OTP email. Empty bucket means the built-in template is used.
	MailTemplateBucket string
	MailTemplateKey    string

	AllowedOrigins []string // CORS allowed origins
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		OTPTableName: getEnv("DYNAMO_TABLE_OTPS", "otps"),
		OTPValidity:  time.Duration(getEnvInt("OTP_VALIDITY_MS", 300000)) * time.Millisecond,
		MaxAttempts:  getEnvInt("OTP_MAX_ATTEMPTS", 3),

		MasterKey: getEnv("MASTER_KEY", ""),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		MailTemplateBucket: getEnv("MAIL_TEMPLATE_BUCKET", ""),
		MailTemplateKey:    getEnv("MAIL_TEMPLATE_KEY", "otp_email.html"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
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
