package otpcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// Min and Max bound the code space. Starting at 100000 keeps every code
	// six digits wide with no leading zero to strip or confuse users with.
	Min = 100000
	Max = 999999
)

var span = big.NewInt(Max - Min + 1)

// Generate returns a uniform cryptographically random 6-digit decimal code
// in [Min, Max]. rand.Int draws uniformly over the span, so no digit
// position is skewed the way a modulo-and-pad scheme would be.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("generate otp code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+Min), nil
}
