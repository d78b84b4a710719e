package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndComparePassword(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("Sup3r$ecretPass!")
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword("Sup3r$ecretPass!", hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("WrongPassword1!", hash)
	req.NoError(err)
	req.False(match)
}

// Each hash carries its own random salt, so equal passwords never share a hash.
func TestHashPassword_UniqueSalt(t *testing.T) {
	req := require.New(t)

	first, err := HashPassword("Sup3r$ecretPass!")
	req.NoError(err)
	second, err := HashPassword("Sup3r$ecretPass!")
	req.NoError(err)
	req.NotEqual(first, second)
}

func TestComparePassword_MalformedHash(t *testing.T) {
	req := require.New(t)

	_, err := ComparePassword("whatever", "not-a-hash")
	req.Error(err)
}
