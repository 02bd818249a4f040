package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		current     string
		primary     string
		want        string
		wantChanged bool
	}{
		{"already linked", "a@b.com", "a@b.com", "", false},
		{"stale identity", "old@b.com", "a@b.com", "a@b.com", true},
		{"never linked", "", "a@b.com", "a@b.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := Normalize(tt.current, tt.primary)
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.want, got)
		})
	}
}
