package repositories

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"chat-relay/errors"
)

func newUserRepository(t *testing.T) *UserRepository {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewUserRepository(db)
}

func aliceAccount() User {
	return User{
		Email:        "alice@example.com",
		Username:     "alice",
		FullName:     "Alice Martin",
		PasswordHash: "$argon2id$fake",
		IsActive:     true,
	}
}

func TestUserRepository_Create_And_Get(t *testing.T) {
	req := require.New(t)
	repository := newUserRepository(t)

	created, err := repository.Create(aliceAccount())
	req.NoError(err)
	req.NotEmpty(created.ID)
	req.False(created.CreatedAt.IsZero())
	req.Equal([]string{"user"}, created.Roles)

	byID, err := repository.GetByID(created.ID)
	req.NoError(err)
	req.Equal(created.Email, byID.Email)
	req.Equal(created.PasswordHash, byID.PasswordHash)

	byEmail, err := repository.GetByEmail("alice@example.com")
	req.NoError(err)
	req.Equal(created.ID, byEmail.ID)

	// the email index is case-insensitive
	byEmail, err = repository.GetByEmail("ALICE@Example.COM")
	req.NoError(err)
	req.Equal(created.ID, byEmail.ID)
}

func TestUserRepository_Create_Duplicate_Email(t *testing.T) {
	req := require.New(t)
	repository := newUserRepository(t)

	_, err := repository.Create(aliceAccount())
	req.NoError(err)

	duplicate := aliceAccount()
	duplicate.Username = "alice2"
	_, err = repository.Create(duplicate)
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func TestUserRepository_Get_Unknown_User(t *testing.T) {
	req := require.New(t)
	repository := newUserRepository(t)

	_, err := repository.GetByID("missing-id")
	req.ErrorIs(err, errors.ErrUserNotFound)

	_, err = repository.GetByEmail("nobody@example.com")
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func TestUserRepository_List(t *testing.T) {
	req := require.New(t)
	repository := newUserRepository(t)

	_, err := repository.Create(aliceAccount())
	req.NoError(err)

	bob := aliceAccount()
	bob.Email = "bob@example.com"
	bob.Username = "bob"
	_, err = repository.Create(bob)
	req.NoError(err)

	users, err := repository.List()
	req.NoError(err)
	req.Len(users, 2)
}

func TestUserRepository_Update_Changes_Email_Index(t *testing.T) {
	req := require.New(t)
	repository := newUserRepository(t)

	created, err := repository.Create(aliceAccount())
	req.NoError(err)

	created.Email = "alice.martin@example.com"
	created.FullName = "Alice J. Martin"
	updated, err := repository.Update(created)
	req.NoError(err)
	req.Equal("alice.martin@example.com", updated.Email)

	// the old address no longer resolves, the new one does
	_, err = repository.GetByEmail("alice@example.com")
	req.ErrorIs(err, errors.ErrUserNotFound)

	byEmail, err := repository.GetByEmail("alice.martin@example.com")
	req.NoError(err)
	req.Equal(created.ID, byEmail.ID)
	req.Equal("Alice J. Martin", byEmail.FullName)
}

func TestUserRepository_Update_To_Taken_Email(t *testing.T) {
	req := require.New(t)
	repository := newUserRepository(t)

	_, err := repository.Create(aliceAccount())
	req.NoError(err)

	bob := aliceAccount()
	bob.Email = "bob@example.com"
	bob.Username = "bob"
	createdBob, err := repository.Create(bob)
	req.NoError(err)

	createdBob.Email = "alice@example.com"
	_, err = repository.Update(createdBob)
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func TestUserRepository_Delete(t *testing.T) {
	req := require.New(t)
	repository := newUserRepository(t)

	created, err := repository.Create(aliceAccount())
	req.NoError(err)

	req.NoError(repository.Delete(created.ID))

	_, err = repository.GetByID(created.ID)
	req.ErrorIs(err, errors.ErrUserNotFound)

	// the email is free again after deletion
	_, err = repository.Create(aliceAccount())
	req.NoError(err)

	req.ErrorIs(repository.Delete("missing-id"), errors.ErrUserNotFound)
}
