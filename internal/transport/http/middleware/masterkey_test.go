package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func trustedProbe(trusted *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*trusted = Trusted(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestMasterKey_CorrectKey_MarksTrusted(t *testing.T) {
	var trusted bool
	h := MasterKey("s3cret")(trustedProbe(&trusted))

	r := httptest.NewRequest(http.MethodPost, "/v1/auth/otp/verify", nil)
	r.Header.Set("X-Master-Key", "s3cret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, trusted)
}

func TestMasterKey_NoHeader_NotTrusted(t *testing.T) {
	var trusted bool
	h := MasterKey("s3cret")(trustedProbe(&trusted))

	r := httptest.NewRequest(http.MethodPost, "/v1/auth/otp/verify", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, trusted)
}

func TestMasterKey_WrongKey_Rejected(t *testing.T) {
	var trusted bool
	h := MasterKey("s3cret")(trustedProbe(&trusted))

	r := httptest.NewRequest(http.MethodPost, "/v1/auth/otp/verify", nil)
	r.Header.Set("X-Master-Key", "guess")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, trusted)
}

func TestMasterKey_Unconfigured_NeverTrusts(t *testing.T) {
	var trusted bool
	h := MasterKey("")(trustedProbe(&trusted))

	r := httptest.NewRequest(http.MethodPost, "/v1/auth/otp/verify", nil)
	r.Header.Set("X-Master-Key", "")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, trusted)

	// Even a non-empty guess against an unconfigured key is rejected.
	r = httptest.NewRequest(http.MethodPost, "/v1/auth/otp/verify", nil)
	r.Header.Set("X-Master-Key", "anything")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, trusted)
}

func TestTrusted_EmptyContext(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, Trusted(r.Context()))
}
