package security

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomString(t *testing.T) {
	alphabet := regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	s, err := RandomString()
	require.NoError(t, err)
	require.Len(t, s, RandomStringLength)
	require.Regexp(t, alphabet, s)
}

func TestRandomString_Uniqueness(t *testing.T) {
	const count = 100
	seen := make(map[string]bool, count)

	for i := 0; i < count; i++ {
		s, err := RandomString()
		require.NoError(t, err)
		require.NotContains(t, seen, s, "duplicate random string generated")
		seen[s] = true
	}
}
