package domain

import "time"

// OtpRecord is the sole persisted entity: one short-lived numeric code bound
// to an email address.
//
// PK: otp_id, a ULID, so records sort by creation time. The email is a
// secondary key and is not unique; concurrent challenges may leave
// duplicates, and readers always take the newest record (GSI
// email-otp_id-index, descending). ExpiresAt is a Unix timestamp used as
// DynamoDB TTL.
type OtpRecord struct {
	OtpID     string    `json:"id" dynamodbav:"otp_id"`
	Email     string    `json:"email" dynamodbav:"email"`
	Code      string    `json:"-" dynamodbav:"code"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	Attempts  int       `json:"attempts" dynamodbav:"attempts"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

// Expired reports whether the record is past its expiry at the given instant.
func (r *OtpRecord) Expired(now time.Time) bool {
	return now.Unix() > r.ExpiresAt
}

type ChallengeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// LinkRequest is the shape a privileged (master-key) verify call must
// satisfy. That path performs out-of-band account linking and carries no
// code, so only the addressing fields are validated.
type LinkRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Identity string `json:"identity" validate:"omitempty,email"`
}

type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
	// Identity is the linked-identity value the host currently stores for
	// this account, if any. It is reconciled against Email after a
	// successful verification.
	Identity string `json:"identity" validate:"omitempty,email"`
}
