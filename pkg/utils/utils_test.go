package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUsername(t *testing.T) {
	re := regexp.MustCompile(`^[a-z0-9]+\d{4}$`)

	tests := []struct {
		name   string
		prefix string
	}{
		{"Sara Ahmed", "saraahmed"},
		{"  John   O'Neil  ", "johnoneil"},
		{"عبدالله", "user"},
		{"", "user"},
		{"A Very Long Name That Exceeds The Limit Entirely", "averylongnamethatexc"},
	}
	for _, tt := range tests {
		got := GenerateUsername(tt.name)
		assert.True(t, re.MatchString(got), "username %q for %q", got, tt.name)
		assert.Equal(t, tt.prefix, got[:len(got)-4], "input %q", tt.name)
	}

	// Suffix makes repeated generations for the same name collide rarely.
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		seen[GenerateUsername("Sara Ahmed")] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+966 50-123 4567", "+966501234567"},
		{"(055) 123 4567", "0551234567"},
		{"  ", ""},
		{"00966501234567", "00966501234567"},
		{"call me", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhone(tt.in), "input %q", tt.in)
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken(32)
	require.NoError(t, err)
	b, err := GenerateToken(32)
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^[0-9a-f]+$`, a)
}

func TestHashPassword(t *testing.T) {
	hashed, err := HashPassword("s3cret")
	require.NoError(t, err)

	assert.True(t, CheckPassword("s3cret", hashed))
	assert.False(t, CheckPassword("wrong", hashed))
}
