package otpcode

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_WidthAndRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code, err := Generate()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, Min)
		assert.LessOrEqual(t, n, Max)
	}
}

func TestGenerate_NotConstant(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := Generate()
		require.NoError(t, err)
		seen[code] = true
	}
	// 50 draws from a 900k space colliding down to one value would mean the
	// generator is broken.
	assert.Greater(t, len(seen), 1)
}
