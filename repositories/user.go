//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chat-relay/errors"
)

// Key layout: the user record lives under its ID, a secondary index maps
// the email to that ID so logins don't scan.
const (
	userKeyPrefix  = "user:"
	emailKeyPrefix = "useremail:"
)

type IUserRepository interface {
	Create(user User) (User, error)
	GetByID(id string) (User, error)
	GetByEmail(email string) (User, error)
	List() ([]User, error)
	Update(user User) (User, error)
	Delete(id string) error
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

// User is the repository-level representation of an account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// storedUser keeps the password hash on disk while User hides it from JSON
// responses.
type storedUser struct {
	User
	PasswordHash string `json:"password_hash"`
}

// Create persists the user, generating its ID. The email index is checked
// and written in the same transaction, so duplicate registrations fail with
// ErrUserAlreadyExists even under concurrent attempts.
func (u *UserRepository) Create(user User) (User, error) {
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	if len(user.Roles) == 0 {
		user.Roles = []string{"user"}
	}

	err := u.db.Update(func(txn *badger.Txn) error {
		emailKey := emailKey(user.Email)
		if _, err := txn.Get(emailKey); err == nil {
			return errors.ErrUserAlreadyExists
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		data, err := json.Marshal(storedUser{User: user, PasswordHash: user.PasswordHash})
		if err != nil {
			return fmt.Errorf("marshal failed: %w", err)
		}
		if err := txn.Set(userKey(user.ID), data); err != nil {
			return err
		}
		return txn.Set(emailKey, []byte(user.ID))
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (u *UserRepository) GetByID(id string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		found, err := getUser(txn, id)
		if err != nil {
			return err
		}
		user = found
		return nil
	})
	return user, err
}

func (u *UserRepository) GetByEmail(email string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(id []byte) error {
			found, err := getUser(txn, string(id))
			if err != nil {
				return err
			}
			user = found
			return nil
		})
	})
	return user, err
}

// List returns every stored user via a prefix scan.
func (u *UserRepository) List() ([]User, error) {
	var users []User
	err := u.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		prefix := []byte(userKeyPrefix)
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := it.Item().Value(func(value []byte) error {
				var stored storedUser
				if err := json.Unmarshal(value, &stored); err != nil {
					return err
				}
				stored.User.PasswordHash = stored.PasswordHash
				users = append(users, stored.User)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return users, err
}

// Update rewrites the user record. An email change re-points the email
// index after verifying the new address is free.
func (u *UserRepository) Update(user User) (User, error) {
	err := u.db.Update(func(txn *badger.Txn) error {
		existing, err := getUser(txn, user.ID)
		if err != nil {
			return err
		}

		if !strings.EqualFold(existing.Email, user.Email) {
			if _, err := txn.Get(emailKey(user.Email)); err == nil {
				return errors.ErrUserAlreadyExists
			} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Delete(emailKey(existing.Email)); err != nil {
				return err
			}
			if err := txn.Set(emailKey(user.Email), []byte(user.ID)); err != nil {
				return err
			}
		}

		user.CreatedAt = existing.CreatedAt
		data, err := json.Marshal(storedUser{User: user, PasswordHash: user.PasswordHash})
		if err != nil {
			return fmt.Errorf("marshal failed: %w", err)
		}
		return txn.Set(userKey(user.ID), data)
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// Delete removes the user and its email index entry. Deleting an absent
// user reports ErrUserNotFound.
func (u *UserRepository) Delete(id string) error {
	return u.db.Update(func(txn *badger.Txn) error {
		existing, err := getUser(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(emailKey(existing.Email)); err != nil {
			return err
		}
		return txn.Delete(userKey(id))
	})
}

func getUser(txn *badger.Txn, id string) (User, error) {
	item, err := txn.Get(userKey(id))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}

	var stored storedUser
	if err := item.Value(func(value []byte) error {
		return json.Unmarshal(value, &stored)
	}); err != nil {
		return User{}, err
	}
	stored.User.PasswordHash = stored.PasswordHash
	return stored.User, nil
}

func userKey(id string) []byte {
	return []byte(userKeyPrefix + id)
}

func emailKey(email string) []byte {
	return []byte(emailKeyPrefix + strings.ToLower(email))
}
