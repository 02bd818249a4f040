// Package identity holds the post-verification account-linking hook: when a
// linked-identity field disagrees with the primary email the host keys the
// account on, it is normalized to the primary email.
package identity

// Normalize returns the identity the host should store for an account whose
// primary email is primaryEmail. The second return is false when the current
// identity already matches and no update is needed.
func Normalize(current, primaryEmail string) (string, bool) {
	if current == primaryEmail {
		return "", false
	}
	return primaryEmail, true
}
