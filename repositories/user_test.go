package repositories

import (
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"finchat/domain"
	"finchat/errors"
)

func setupDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(setupDB(t))

	user := domain.User{
		ID:           uuid.New(),
		UserName:     "alice",
		PasswordHash: "$argon2id$...",
		Roles:        []string{"user"},
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	req.NoError(repo.CreateUser(user))

	byName, err := repo.GetUserByName("alice")
	req.NoError(err)
	req.Equal(user.ID, byName.ID)
	req.Equal(user.PasswordHash, byName.PasswordHash)
	req.Equal(user.Roles, byName.Roles)
	req.Equal(user.CreatedAt, byName.CreatedAt)

	byID, err := repo.GetUserByID(user.ID)
	req.NoError(err)
	req.Equal(user.UserName, byID.UserName)
}

func TestUserRepository_DuplicateName(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(setupDB(t))

	first := domain.User{ID: uuid.New(), UserName: "alice", CreatedAt: time.Now().UTC()}
	req.NoError(repo.CreateUser(first))

	second := domain.User{ID: uuid.New(), UserName: "alice", CreatedAt: time.Now().UTC()}
	req.ErrorIs(repo.CreateUser(second), errors.ErrUserAlreadyExists)

	// The original record is untouched.
	got, err := repo.GetUserByName("alice")
	req.NoError(err)
	req.Equal(first.ID, got.ID)
}

func TestUserRepository_NotFound(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(setupDB(t))

	_, err := repo.GetUserByName("ghost")
	req.ErrorIs(err, errors.ErrUserNotFound)

	_, err = repo.GetUserByID(uuid.New())
	req.ErrorIs(err, errors.ErrUserNotFound)
}
