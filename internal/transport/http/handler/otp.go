package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-email-otp/internal/application/otp"
	"github.com/go-email-otp/internal/domain"
	jwtinfra "github.com/go-email-otp/internal/infrastructure/jwt"
	"github.com/go-email-otp/internal/pkg/identity"
	"github.com/go-email-otp/internal/pkg/validate"
	"github.com/go-email-otp/internal/transport/http/middleware"
)

// TokenSigner mints a session token after a successful verification.
type TokenSigner interface {
	Sign(email, identity string) (string, error)
}

// OTPHandler exposes the challenge/verify flow over HTTP.
type OTPHandler struct {
	svc    otp.Service
	signer TokenSigner
}

func NewOTPHandler(svc otp.Service, signer TokenSigner) *OTPHandler {
	return &OTPHandler{svc: svc, signer: signer}
}

func (h *OTPHandler) Challenge(w http.ResponseWriter, r *http.Request) {
	var req domain.ChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := h.svc.Challenge(r.Context(), req.Email); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	// The code itself travels only through the email channel.
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "otp sent"})
}

func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// The trust flag comes from the master-key middleware only; the request
	// body has no say in it.
	trusted := middleware.Trusted(r.Context())
	if trusted {
		// The privileged path ignores the code, so it doesn't demand one.
		if err := validate.Struct(domain.LinkRequest{Email: req.Email, Identity: req.Identity}); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	} else if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.svc.Verify(r.Context(), req.Email, req.OTP, trusted); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	if h.signer == nil {
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "otp verified"})
		return
	}

	// Post-verification hook: reconcile the stored linked identity with the
	// email that just proved ownership.
	ident := req.Identity
	if v, changed := identity.Normalize(req.Identity, req.Email); changed {
		ident = v
	}
	token, err := h.signer.Sign(req.Email, ident)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not issue session token")
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Bearer: token, Message: "otp verified"})
}

// statusFor maps domain error kinds to HTTP statuses, so the host-facing
// surface can distinguish every failure mode of the state machine.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrExpired), errors.Is(err, domain.ErrInvalidOTP):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrAttemptsExhausted):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDelivery):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

var _ TokenSigner = (*jwtinfra.Provider)(nil)
