package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-email-otp/internal/domain"
	"github.com/go-email-otp/internal/pkg/id"
	"github.com/go-email-otp/internal/pkg/otpcode"
	"github.com/go-email-otp/internal/pkg/validate"
)

// AdapterName identifies this authentication adapter to the host. A host
// that wires a different adapter name into Config is misconfigured.
const AdapterName = "email-otp"

// maxCASRetries bounds re-reads after a lost conditional write. Contention
// on one email is two or three concurrent guesses at most, not a hot loop.
const maxCASRetries = 3

// SendFunc delivers the plaintext code out-of-band. A non-nil error means
// the user did not get the code; the issuer propagates it.
type SendFunc func(ctx context.Context, email, code string) error

// Config is the explicit configuration bundle for the OTP adapter. It is
// captured at construction; there is no ambient or mutable global state.
type Config struct {
	Adapter     string        `validate:"required"`
	OTPValidity time.Duration `validate:"required,gt=0"`
	MaxAttempts int           `validate:"required,gt=0"`
	Sender      SendFunc      `validate:"required"`
}

// Repository is the record store the policy layer is injected with. The
// store must provide newest-first lookup by email and atomic single-record
// conditional writes; it is not expected to offer multi-step transactions.
type Repository interface {
	Put(ctx context.Context, rec *domain.OtpRecord) error
	Latest(ctx context.Context, email string) (*domain.OtpRecord, error)
	Refresh(ctx context.Context, otpID, code string, expiresAt int64) error
	BumpAttempts(ctx context.Context, otpID string, from int) error
	Consume(ctx context.Context, otpID, code string) error
	Delete(ctx context.Context, otpID string) error
}

// Service is the module-facing contract the host auth framework drives.
type Service interface {
	// Challenge issues a fresh code for the email and hands it to the
	// delivery callback. The code is never returned to the caller.
	Challenge(ctx context.Context, email string) error
	// Verify checks a submitted code and consumes the record on success.
	// trusted skips verification entirely; it must only ever be set from a
	// host-authenticated privileged context, never from client data.
	Verify(ctx context.Context, email, submitted string, trusted bool) error
}

type service struct {
	cfg  Config
	repo Repository
}

// NewService validates the configuration and returns the adapter service.
// A configuration error here is fatal at startup by design.
func NewService(cfg Config, repo Repository) (Service, error) {
	if err := ValidateConfiguration(cfg); err != nil {
		return nil, err
	}
	return &service{cfg: cfg, repo: repo}, nil
}

// ValidateConfiguration fails fast on a malformed configuration bundle,
// reporting every offending field. Pure; no side effects.
func ValidateConfiguration(cfg Config) error {
	var msgs []string
	for _, err := range validate.Fields(cfg) {
		msgs = append(msgs, err.Error())
	}
	if cfg.Adapter != "" && cfg.Adapter != AdapterName {
		msgs = append(msgs, fmt.Sprintf("field 'Adapter' must be %q, got %q", AdapterName, cfg.Adapter))
	}
	if len(msgs) > 0 {
		return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), domain.ErrConfiguration)
	}
	return nil
}

func (s *service) Challenge(ctx context.Context, email string) error {
	code, err := otpcode.Generate()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	expiresAt := now.Add(s.cfg.OTPValidity).Unix()

	// Overwrite any prior record for this email in place, whatever its
	// state, so only the most recently issued code is valid. Attempts are
	// deliberately NOT reset: re-requesting a challenge must not launder a
	// nearly exhausted counter.
	rec, err := s.repo.Latest(ctx, email)
	switch {
	case err == nil:
		if err := s.repo.Refresh(ctx, rec.OtpID, code, expiresAt); err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			// Record was deleted between read and write; start fresh.
			if err := s.createRecord(ctx, email, code, expiresAt, now); err != nil {
				return err
			}
		}
	case errors.Is(err, domain.ErrNotFound):
		if err := s.createRecord(ctx, email, code, expiresAt, now); err != nil {
			return err
		}
	default:
		return err
	}

	// The write above is durable before delivery. If delivery fails the
	// persisted code stays valid until expiry or the next challenge; the
	// user can simply request again.
	if err := s.cfg.Sender(ctx, email, code); err != nil {
		return fmt.Errorf("send otp email (%v): %w", err, domain.ErrDelivery)
	}
	return nil
}

func (s *service) createRecord(ctx context.Context, email, code string, expiresAt int64, now time.Time) error {
	return s.repo.Put(ctx, &domain.OtpRecord{
		OtpID:     id.New(),
		Email:     email,
		Code:      code,
		ExpiresAt: expiresAt,
		Attempts:  0,
		CreatedAt: now,
	})
}

// Verify walks the record through its terminal states: not found, expired
// (deleted on access), mismatch (attempts bumped, exhausted records
// deleted), or consumed on success. All mutations are conditional
// single-record writes; a lost race re-reads and retries.
func (s *service) Verify(ctx context.Context, email, submitted string, trusted bool) error {
	if trusted {
		// Privileged out-of-band linking: the host already authenticated
		// this caller with its master credential.
		return nil
	}

	for i := 0; i < maxCASRetries; i++ {
		rec, err := s.repo.Latest(ctx, email)
		if err != nil {
			return err
		}

		if rec.Expired(time.Now()) {
			if err := s.repo.Delete(ctx, rec.OtpID); err != nil {
				slog.Warn("failed to delete expired otp record", "otp_id", rec.OtpID, "err", err)
			}
			return fmt.Errorf("otp for %s: %w", email, domain.ErrExpired)
		}

		if subtle.ConstantTimeCompare([]byte(submitted), []byte(rec.Code)) != 1 {
			next := rec.Attempts + 1
			if next >= s.cfg.MaxAttempts {
				if err := s.repo.Delete(ctx, rec.OtpID); err != nil {
					return err
				}
				return fmt.Errorf("otp for %s: %w", email, domain.ErrAttemptsExhausted)
			}
			err := s.repo.BumpAttempts(ctx, rec.OtpID, rec.Attempts)
			if errors.Is(err, domain.ErrConflict) {
				continue // counter moved under us, re-read
			}
			if err != nil {
				return err
			}
			return fmt.Errorf("otp for %s: %w", email, domain.ErrInvalidOTP)
		}

		// Single-use consumption: the conditional delete admits exactly one
		// winner among concurrent correct submissions.
		if err := s.repo.Consume(ctx, rec.OtpID, rec.Code); err != nil {
			return err
		}
		return nil
	}
	return fmt.Errorf("verification for %s contended: %w", email, domain.ErrConflict)
}
