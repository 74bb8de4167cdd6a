package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-relay/errors"
)

func TestHashPassword_And_Compare(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("Sup3r-Secret-Pass!")
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword("Sup3r-Secret-Pass!", hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("wrong-password", hash)
	req.NoError(err)
	req.False(match)

	// salts differ, so the same password hashes differently
	other, err := HashPassword("Sup3r-Secret-Pass!")
	req.NoError(err)
	req.NotEqual(hash, other)
}

func TestComparePassword_Malformed_Hash(t *testing.T) {
	_, err := ComparePassword("whatever", "not-a-hash")
	require.Error(t, err)
}

func TestTokenIssuer_Generate_And_Validate(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Generate("user-123", []string{"user", "admin"})
	req.NoError(err)
	req.NotEmpty(token)

	claims, err := issuer.Validate(token)
	req.NoError(err)
	req.Equal("user-123", claims.UserID)
	req.Equal([]string{"user", "admin"}, claims.Roles)
	req.Equal("chat-relay", claims.Issuer)
}

func TestTokenIssuer_Rejects_Expired_Token(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", -time.Minute)

	token, err := issuer.Generate("user-123", nil)
	req.NoError(err)

	_, err = issuer.Validate(token)
	req.Error(err)
}

func TestTokenIssuer_Rejects_Wrong_Secret(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", time.Hour)
	intruder := NewTokenIssuer("other-secret", time.Hour)

	token, err := issuer.Generate("user-123", nil)
	req.NoError(err)

	_, err = intruder.Validate(token)
	req.Error(err)
}

func TestValidateRegister(t *testing.T) {
	valid := RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		FullName: "Alice Martin",
		Password: "Str0ng-Passw0rd!",
	}

	tests := []struct {
		name    string
		mutate  func(r *RegisterRequest)
		wantErr bool
	}{
		{
			name:   "valid request",
			mutate: func(r *RegisterRequest) {},
		},
		{
			name:    "invalid email",
			mutate:  func(r *RegisterRequest) { r.Email = "not-an-email" },
			wantErr: true,
		},
		{
			name:    "username too short",
			mutate:  func(r *RegisterRequest) { r.Username = "al" },
			wantErr: true,
		},
		{
			name:    "password too short",
			mutate:  func(r *RegisterRequest) { r.Password = "Sh0rt!" },
			wantErr: true,
		},
		{
			name:    "password without special character",
			mutate:  func(r *RegisterRequest) { r.Password = "NoSpecial0Character" },
			wantErr: true,
		},
		{
			name:    "password without uppercase",
			mutate:  func(r *RegisterRequest) { r.Password = "no-upper-cas3-at-all!" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := valid
			tt.mutate(&request)
			err := ValidateRegister(request)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateRegister_Complexity_Sentinel(t *testing.T) {
	request := RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "alllowercase1234",
	}
	require.ErrorIs(t, ValidateRegister(request), errors.ErrInvalidPassword)
}
