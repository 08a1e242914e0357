package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("Secreta123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$12$"), "hash %q should carry cost 12", hash)

	assert.True(t, Verify("Secreta123", hash))
	assert.False(t, Verify("secreta123", hash))
	assert.False(t, Verify("", hash))
}

func TestHash_UniqueSalt(t *testing.T) {
	first, err := Hash("Secreta123")
	require.NoError(t, err)
	second, err := Hash("Secreta123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, Verify("Secreta123", first))
	assert.True(t, Verify("Secreta123", second))
}

func TestHashToken(t *testing.T) {
	got := HashToken("refresh-token-abc123")

	assert.Equal(t, "04f430e2ec3ad1f003b3465d260ccbab59a4bd3d16a30e2d4d15cf786e0fe4ee", got)
	assert.Len(t, got, 64)
	assert.Equal(t, got, HashToken("refresh-token-abc123"))
	assert.NotEqual(t, got, HashToken("refresh-token-abc124"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		password  string
		minLength int
		want      bool
	}{
		{"letters and digits", "abc12345", 8, true},
		{"no digit", "abcdefgh", 8, false},
		{"no letter", "12345678", 8, false},
		{"too short", "abc1234", 8, false},
		{"zero min falls back to default", "abc12345", 0, true},
		{"zero min still enforces default", "abc1234", 0, false},
		{"longer minimum rejected", "abc12345", 12, false},
		{"longer minimum satisfied", "abcdef123456", 12, true},
		{"symbols only", "!!!!!!!!", 8, false},
		{"accented letters count", "contraseña1", 8, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.password, tt.minLength))
		})
	}
}
