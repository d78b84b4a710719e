//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"finchat/auth"
	"finchat/domain"
	"finchat/errors"
	"finchat/repositories"
)

type IAuthService interface {
	Register(userName, password string) (Token, error)
	Login(userName, password string) (Token, error)
}

type Token string

type AuthService struct {
	users  repositories.IUserRepository
	tokens *auth.TokenManager
}

func NewAuthService(users repositories.IUserRepository, tokens *auth.TokenManager) IAuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) Register(userName, password string) (Token, error) {
	valReq := auth.RegisterRequest{
		UserName: userName,
		Password: password,
	}

	// 1. Validate business rules (user name format, password complexity)
	// before any expensive cryptographic operation.
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// 2. Hash the password using Argon2id. Done in the service layer to
	// keep the repository unaware of plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist the user with the generated hash.
	user := domain.User{
		ID:           uuid.New(),
		UserName:     userName,
		PasswordHash: hashedPassword,
		Roles:        []string{"user"},
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(user); err != nil {
		return "", err // Propagates ErrUserAlreadyExists if the name is taken
	}

	// 4. Generate the initial session token.
	token, err := s.tokens.Generate(user.ID.String(), user.UserName, user.Roles)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	return Token(token), nil
}

func (s *AuthService) Login(userName, password string) (Token, error) {
	// 1. Retrieve user by name from storage.
	user, err := s.users.GetUserByName(userName)
	if err != nil {
		// Generic error to prevent user enumeration attacks
		return "", errors.ErrInvalidCredentials
	}

	// 2. Compare the provided password with the stored hash.
	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	// 3. Issue the JWT token.
	token, err := s.tokens.Generate(user.ID.String(), user.UserName, user.Roles)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	return Token(token), nil
}
