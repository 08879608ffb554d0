package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwhitfield/taskward/internal/domain"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		email    string
		password string
		wantErr  error
	}{
		{
			name:     "valid user",
			username: "casey",
			email:    "casey@example.com",
			password: "password123",
		},
		{
			name:     "uppercase username is lowercased",
			username: "Casey",
			email:    "casey@example.com",
			password: "password123",
		},
		{
			name:     "empty username",
			username: "",
			email:    "casey@example.com",
			password: "password123",
			wantErr:  domain.ErrEmptyUsername,
		},
		{
			name:     "username with spaces",
			username: "casey jones",
			email:    "casey@example.com",
			password: "password123",
			wantErr:  domain.ErrInvalidUsername,
		},
		{
			name:     "empty email",
			username: "casey",
			email:    "",
			password: "password123",
			wantErr:  domain.ErrEmptyEmail,
		},
		{
			name:     "email without domain",
			username: "casey",
			email:    "casey@",
			password: "password123",
			wantErr:  domain.ErrInvalidEmail,
		},
		{
			name:     "email without dot in domain",
			username: "casey",
			email:    "casey@localhost",
			password: "password123",
			wantErr:  domain.ErrInvalidEmail,
		},
		{
			name:     "password too short",
			username: "casey",
			email:    "casey@example.com",
			password: "short",
			wantErr:  domain.ErrPasswordTooShort,
		},
		{
			name:     "password too long for bcrypt",
			username: "casey",
			email:    "casey@example.com",
			password: strings.Repeat("x", 73),
			wantErr:  domain.ErrPasswordTooLong,
		},
		{
			name:     "empty password",
			username: "casey",
			email:    "casey@example.com",
			password: "",
			wantErr:  domain.ErrEmptyPassword,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			user, err := domain.NewUser(tt.username, tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, strings.ToLower(tt.username), user.Username)
			assert.Equal(t, tt.email, user.Email)
		})
	}
}

func TestUserValidateWithOnlyHashedPassword(t *testing.T) {
	t.Parallel()

	// A user loaded from the database has no plaintext password.
	user, err := domain.NewUser("casey", "casey@example.com", "password123")
	require.NoError(t, err)

	user.Password = ""
	user.HashedPassword = "$2a$10$abcdefghijklmnopqrstuv"
	assert.NoError(t, user.Validate())
}
