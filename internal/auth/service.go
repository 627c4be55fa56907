package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"
)

const saltRounds = 10

// UserStore is the slice of the user repository the service needs.
type UserStore interface {
	Create(ctx context.Context, username *string, email, passwordHash string) (User, error)
	Exists(ctx context.Context, username *string, email string) (bool, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
}

type Service struct {
	Users  UserStore
	Tokens *TokenIssuer
}

func (s *Service) Register(ctx context.Context, username *string, email, password string) (User, error) {
	taken, err := s.Users.Exists(ctx, username, email)
	if err != nil {
		return User{}, err
	}
	if taken {
		return User{}, ErrDuplicateUser
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), saltRounds)
	if err != nil {
		return User{}, err
	}
	return s.Users.Create(ctx, username, email, string(hash))
}

// Login verifies the credentials and returns a signed access token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.Users.FindByEmail(ctx, email)
	if err == ErrUserNotFound {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return s.Tokens.Issue(u.ID)
}

func (s *Service) Me(ctx context.Context, userID string) (User, error) {
	return s.Users.FindByID(ctx, userID)
}
