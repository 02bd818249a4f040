package dynamo

// DynamoDB attribute names used in expressions across the OTP repo and
// schema setup. Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldOtpID     = "otp_id"
	fieldEmail     = "email"
	fieldCode      = "code"
	fieldExpiresAt = "expires_at"
	fieldAttempts  = "attempts"

	// emailIndex orders records for one email by otp_id. ULIDs sort by
	// creation time, so a descending query returns the newest record first.
	emailIndex = "email-otp_id-index"
)
