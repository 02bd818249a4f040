package http

import (
	"github.com/go-email-otp/internal/application/otp"
	"github.com/go-email-otp/internal/transport/http/handler"
)

// Deps holds the wired collaborators the router serves. The OTP service is
// already constructed (and its configuration validated) by the caller, so a
// misconfigured adapter can never reach a route.
type Deps struct {
	OTPService  otp.Service
	TokenSigner handler.TokenSigner // nil disables session-token issuance
}
