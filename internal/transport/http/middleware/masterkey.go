package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
)

type contextKey string

const TrustedKey contextKey = "trusted"

// MasterKey returns middleware that marks requests carrying the server's
// master key as privileged. The flag is the only source of the verification
// bypass, so it is derived exclusively from this server-side comparison —
// never from anything in the request body. An empty configured key disables
// the privileged path entirely; a present-but-wrong key is rejected rather
// than silently downgraded.
func MasterKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Master-Key")
			if got == "" {
				next.ServeHTTP(w, r)
				return
			}
			if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				writeJSONError(w, http.StatusUnauthorized, "invalid master key")
				return
			}
			ctx := context.WithValue(r.Context(), TrustedKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Trusted reports whether the request was authenticated with the master key.
func Trusted(ctx context.Context) bool {
	v, _ := ctx.Value(TrustedKey).(bool)
	return v
}
