package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	// ErrConfiguration marks an invalid setup detected before any
	// challenge/verify call. Fatal at startup, never retried.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrNotFound means no active OTP record exists for the email.
	ErrNotFound = errors.New("not found")

	// ErrExpired means the record outlived its expiry; it is deleted as a
	// side effect of being checked.
	ErrExpired = errors.New("otp expired")

	// ErrInvalidOTP is a code mismatch below the attempt limit; the record
	// survives and a retry is permitted.
	ErrInvalidOTP = errors.New("invalid otp")

	// ErrAttemptsExhausted is a mismatch that hit the attempt limit; the
	// record is deleted and a new challenge is required.
	ErrAttemptsExhausted = errors.New("max attempts reached, otp invalidated")

	// ErrDelivery means the email collaborator failed. The persisted code
	// stays valid until expiry or the next challenge overwrites it.
	ErrDelivery = errors.New("delivery failed")

	// ErrConflict signals a lost optimistic-concurrency race on a
	// single-record write.
	ErrConflict = errors.New("conflict")

	ErrBadRequest = errors.New("bad request")
)
