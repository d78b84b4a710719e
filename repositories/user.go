//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"finchat/domain"
	"finchat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	CreateUser(user domain.User) error
	GetUserByName(userName string) (domain.User, error)
	GetUserByID(id uuid.UUID) (domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// diskUser is the stored representation of a user.
type diskUser struct {
	ID           string   `json:"id"`
	UserName     string   `json:"userName"`
	PasswordHash string   `json:"passwordHash"`
	Roles        []string `json:"roles"`
	CreatedAt    int64    `json:"createdAt"`
}

func userNameKey(name string) []byte { return []byte("user:name:" + name) }
func userIDKey(id uuid.UUID) []byte  { return []byte("user:id:" + id.String()) }

// CreateUser persists a user under both its name and id keys, in a single
// transaction. The name key doubles as the uniqueness guard: a concurrent
// create for the same name fails with ErrUserAlreadyExists, which callers
// racing on bot identity creation resolve by re-fetching.
func (u UserRepository) CreateUser(user domain.User) error {
	data, err := json.Marshal(fromUser(user))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	return u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userNameKey(user.UserName)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(userNameKey(user.UserName), data); err != nil {
			return err
		}
		return txn.Set(userIDKey(user.ID), data)
	})
}

func (u UserRepository) GetUserByName(userName string) (domain.User, error) {
	return u.get(userNameKey(userName))
}

func (u UserRepository) GetUserByID(id uuid.UUID) (domain.User, error) {
	return u.get(userIDKey(id))
}

func (u UserRepository) get(key []byte) (domain.User, error) {
	var disk diskUser
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &disk)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return toUser(disk)
}

func fromUser(user domain.User) diskUser {
	return diskUser{
		ID:           user.ID.String(),
		UserName:     user.UserName,
		PasswordHash: user.PasswordHash,
		Roles:        user.Roles,
		CreatedAt:    user.CreatedAt.Unix(),
	}
}

func toUser(disk diskUser) (domain.User, error) {
	id, err := uuid.Parse(disk.ID)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:           id,
		UserName:     disk.UserName,
		PasswordHash: disk.PasswordHash,
		Roles:        disk.Roles,
		CreatedAt:    time.Unix(disk.CreatedAt, 0).UTC(),
	}, nil
}
