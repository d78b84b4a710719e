package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_GenerateAndValidate(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", time.Hour)

	userID := uuid.NewString()
	token, err := manager.Generate(userID, "alice", []string{"user"})
	req.NoError(err)

	claims, err := manager.Validate(token)
	req.NoError(err)
	req.Equal(userID, claims.UserID)
	req.Equal("alice", claims.UserName)
	req.Equal([]string{"user"}, claims.Roles)
	req.Equal("finchat", claims.Issuer)
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)

	token, err := manager.Generate(uuid.NewString(), "alice", []string{"user"})
	req.NoError(err)

	_, err = other.Validate(token)
	req.Error(err)
}

func TestTokenManager_RejectsExpiredToken(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", -time.Minute)

	token, err := manager.Generate(uuid.NewString(), "alice", []string{"user"})
	req.NoError(err)

	_, err = manager.Validate(token)
	req.Error(err)
}

func TestTokenManager_RejectsGarbage(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", time.Hour)

	_, err := manager.Validate("not.a.token")
	req.Error(err)
}
