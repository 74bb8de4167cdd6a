package services

import (
	"fmt"

	"chat-relay/auth"
	"chat-relay/errors"
	"chat-relay/repositories"
)

type IAuthService interface {
	Register(req auth.RegisterRequest) (repositories.User, error)
	Login(email, password string) (Token, error)
}

type Token string

type AuthService struct {
	users  repositories.IUserRepository
	issuer auth.TokenIssuer
}

func NewAuthService(users repositories.IUserRepository, issuer auth.TokenIssuer) *AuthService {
	return &AuthService{users: users, issuer: issuer}
}

// Register validates the request, hashes the password and persists the
// user. Validation runs before any expensive cryptographic operation, and
// the repository never sees a plain password.
func (s *AuthService) Register(req auth.RegisterRequest) (repositories.User, error) {
	if err := auth.ValidateRegister(req); err != nil {
		return repositories.User{}, err
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return repositories.User{}, fmt.Errorf("hashing failed: %w", err)
	}

	return s.users.Create(repositories.User{
		Email:        req.Email,
		Username:     req.Username,
		FullName:     req.FullName,
		PasswordHash: hashed,
		IsActive:     true,
	})
}

// Login verifies the credentials and issues a JWT. Lookup and comparison
// failures collapse into one generic error to prevent user enumeration.
func (s *AuthService) Login(email, password string) (Token, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", errors.ErrInvalidCredentials
	}

	token, err := s.issuer.Generate(user.ID, user.Roles)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}
