package services

import (
	"fmt"

	"chat-relay/auth"
	"chat-relay/repositories"
)

type IUserService interface {
	List() ([]repositories.User, error)
	Get(id string) (repositories.User, error)
	Update(id string, update UserUpdate) (repositories.User, error)
	Delete(id string) error
}

// UserUpdate carries the mutable account fields. Nil means "leave as is".
type UserUpdate struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
	FullName *string `json:"full_name"`
	Password *string `json:"password"`
	IsActive *bool   `json:"is_active"`
}

type UserService struct {
	users repositories.IUserRepository
}

func NewUserService(users repositories.IUserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) List() ([]repositories.User, error) {
	return s.users.List()
}

func (s *UserService) Get(id string) (repositories.User, error) {
	return s.users.GetByID(id)
}

// Update applies the set fields on top of the stored user. A password
// change is hashed here so the repository keeps seeing hashes only.
func (s *UserService) Update(id string, update UserUpdate) (repositories.User, error) {
	user, err := s.users.GetByID(id)
	if err != nil {
		return repositories.User{}, err
	}

	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.Username != nil {
		user.Username = *update.Username
	}
	if update.FullName != nil {
		user.FullName = *update.FullName
	}
	if update.IsActive != nil {
		user.IsActive = *update.IsActive
	}
	if update.Password != nil {
		hashed, err := auth.HashPassword(*update.Password)
		if err != nil {
			return repositories.User{}, fmt.Errorf("hashing failed: %w", err)
		}
		user.PasswordHash = hashed
	}

	return s.users.Update(user)
}

func (s *UserService) Delete(id string) error {
	return s.users.Delete(id)
}
