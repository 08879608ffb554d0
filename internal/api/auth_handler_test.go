package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwhitfield/taskward/internal/api"
	"github.com/jwhitfield/taskward/internal/api/shared"
	"github.com/jwhitfield/taskward/internal/config"
	"github.com/jwhitfield/taskward/internal/domain"
	"github.com/jwhitfield/taskward/internal/mocks"
	"github.com/jwhitfield/taskward/internal/service"
	"github.com/jwhitfield/taskward/internal/service/auth"
	"github.com/jwhitfield/taskward/internal/service/mail"
)

// authHandlerFixture bundles an AuthHandler with its mock collaborators.
type authHandlerFixture struct {
	handler     *api.AuthHandler
	users       *mocks.MockUserStore
	tasks       *mocks.MockTaskStore
	jwt         *mocks.MockJWTService
	sender      *mocks.MockSender
	resetTokens auth.ResetTokenService
}

func newAuthHandlerFixture(t *testing.T) *authHandlerFixture {
	t.Helper()

	users := mocks.NewMockUserStore()
	tasks := mocks.NewMockTaskStore()
	jwtService := &mocks.MockJWTService{}
	sender := &mocks.MockSender{}
	resetTokens := auth.NewTestResetTokenService(
		"test-reset-secret-that-is-32-chars-min", time.Hour, time.Now)
	accounts := service.NewTestAccountService(users, tasks, resetTokens)

	cfg := &config.Config{
		Server: config.ServerConfig{BaseURL: "https://taskward.test"},
		Auth:   config.AuthConfig{TokenLifetimeMinutes: 60},
	}

	return &authHandlerFixture{
		handler: api.NewAuthHandler(
			users, jwtService, &mocks.MockPasswordVerifier{}, resetTokens, accounts, sender, cfg),
		users:       users,
		tasks:       tasks,
		jwt:         jwtService,
		sender:      sender,
		resetTokens: resetTokens,
	}
}

func (f *authHandlerFixture) seedUser(t *testing.T, password string) *domain.User {
	t.Helper()

	user := &domain.User{
		ID:             uuid.New(),
		Username:       "casey",
		Email:          "casey@example.com",
		HashedPassword: "hashed:" + password,
		LastLoginAt:    time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.users.Users[user.ID] = user
	return user
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return postJSONAs(t, handler, target, body, uuid.Nil)
}

// postJSONAs issues a request with the given user injected into the
// context, mirroring what the authentication middleware does.
func postJSONAs(
	t *testing.T,
	handler http.HandlerFunc,
	target string,
	body any,
	userID uuid.UUID,
) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(payload))
	if userID != uuid.Nil {
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, userID))
	}

	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		f := newAuthHandlerFixture(t)
		w := postJSON(t, f.handler.Register, "/api/auth/register", api.RegisterRequest{
			Username: "Casey",
			Email:    "casey@example.com",
			Password: "password123",
		})

		require.Equal(t, http.StatusCreated, w.Code)

		var resp api.AuthResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "casey", resp.Username)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)

		require.Len(t, f.users.Users, 1)

		// Welcome email goes out on registration.
		sent := f.sender.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "Taskward: Thank you for Registering", sent[0].Subject)
		assert.Equal(t, []string{"casey@example.com"}, sent[0].To)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		t.Parallel()

		f := newAuthHandlerFixture(t)
		f.seedUser(t, "password123")

		w := postJSON(t, f.handler.Register, "/api/auth/register", api.RegisterRequest{
			Username: "someone",
			Email:    "casey@example.com",
			Password: "password123",
		})

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("short password rejected", func(t *testing.T) {
		t.Parallel()

		f := newAuthHandlerFixture(t)
		w := postJSON(t, f.handler.Register, "/api/auth/register", api.RegisterRequest{
			Username: "casey",
			Email:    "casey@example.com",
			Password: "short",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, f.users.Users)
	})

	t.Run("welcome email failure does not block registration", func(t *testing.T) {
		t.Parallel()

		f := newAuthHandlerFixture(t)
		f.sender.SendFn = func(ctx context.Context, msg mail.Message) error {
			return errors.New("smtp unavailable")
		}

		w := postJSON(t, f.handler.Register, "/api/auth/register", api.RegisterRequest{
			Username: "casey",
			Email:    "casey@example.com",
			Password: "password123",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Len(t, f.users.Users, 1)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("by username and by email", func(t *testing.T) {
		t.Parallel()

		for _, identifier := range []string{"casey", "casey@example.com"} {
			f := newAuthHandlerFixture(t)
			user := f.seedUser(t, "password123")

			w := postJSON(t, f.handler.Login, "/api/auth/login", api.LoginRequest{
				Identifier: identifier,
				Password:   "password123",
			})

			require.Equal(t, http.StatusOK, w.Code, "identifier %q", identifier)

			var resp api.AuthResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, user.ID, resp.UserID)
			assert.NotEmpty(t, resp.AccessToken)

			// Login is recorded and the courtesy notification goes out.
			assert.False(t, user.LastLoginAt.Equal(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)))
			sent := f.sender.Sent()
			require.Len(t, sent, 1)
			assert.Equal(t, "Taskward: Someone logged into your account", sent[0].Subject)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()

		f := newAuthHandlerFixture(t)
		f.seedUser(t, "password123")

		w := postJSON(t, f.handler.Login, "/api/auth/login", api.LoginRequest{
			Identifier: "casey",
			Password:   "wrong-password",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, f.sender.Sent())
	})

	t.Run("unknown identifier", func(t *testing.T) {
		t.Parallel()

		f := newAuthHandlerFixture(t)
		w := postJSON(t, f.handler.Login, "/api/auth/login", api.LoginRequest{
			Identifier: "nobody",
			Password:   "password123",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	t.Run("valid refresh token", func(t *testing.T) {
		t.Parallel()

		f := newAuthHandlerFixture(t)
		userID := uuid.New()
		f.jwt.ValidateRefreshTokenFn = func(ctx context.Context, tokenString string) (*auth.Claims, error) {
			return &auth.Claims{UserID: userID, TokenType: "refresh"}, nil
		}

		w := postJSON(t, f.handler.RefreshToken, "/api/auth/refresh", api.RefreshTokenRequest{
			RefreshToken: "refresh-" + userID.String(),
		})

		require.Equal(t, http.StatusOK, w.Code)

		var resp api.RefreshTokenResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "access-"+userID.String(), resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.NotEmpty(t, resp.ExpiresAt)
	})

	t.Run("invalid refresh token", func(t *testing.T) {
		t.Parallel()

		f := newAuthHandlerFixture(t)
		w := postJSON(t, f.handler.RefreshToken, "/api/auth/refresh", api.RefreshTokenRequest{
			RefreshToken: "bogus",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	t.Run("changes username after re-authentication", func(t *testing.T) {
		t.Parallel()

		f := newAuthHandlerFixture(t)
		user := f.seedUser(t, "password123")

		w := postJSONAs(t, f.handler.UpdateProfile, "/api/auth/profile", api.UpdateProfileRequest{
			Username: "casey.new",
			Password: "password123",
		}, user.ID)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "casey.new", user.Username)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		t.Parallel()

		f := newAuthHandlerFixture(t)
		user := f.seedUser(t, "password123")

		w := postJSONAs(t, f.handler.UpdateProfile, "/api/auth/profile", api.UpdateProfileRequest{
			Email:    "new@example.com",
			Password: "wrong-password",
		}, user.ID)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "casey@example.com", user.Email)
	})

	t.Run("unauthenticated rejected", func(t *testing.T) {
		t.Parallel()

		f := newAuthHandlerFixture(t)
		w := postJSON(t, f.handler.UpdateProfile, "/api/auth/profile", api.UpdateProfileRequest{
			Username: "casey.new",
			Password: "password123",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequestPasswordReset(t *testing.T) {
	t.Parallel()

	t.Run("sends reset link", func(t *testing.T) {
		t.Parallel()

		f := newAuthHandlerFixture(t)
		user := f.seedUser(t, "password123")

		w := postJSON(t, f.handler.RequestPasswordReset, "/api/auth/password-reset",
			api.PasswordResetRequest{Email: "casey@example.com"})

		require.Equal(t, http.StatusOK, w.Code)

		sent := f.sender.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, []string{user.Email}, sent[0].To)
		assert.Contains(t, sent[0].Body, "https://taskward.test/reset/"+user.ID.String()+"/")
	})

	t.Run("unknown email is reported", func(t *testing.T) {
		t.Parallel()

		f := newAuthHandlerFixture(t)
		w := postJSON(t, f.handler.RequestPasswordReset, "/api/auth/password-reset",
			api.PasswordResetRequest{Email: "nobody@example.com"})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("mail failure surfaces to the requester", func(t *testing.T) {
		t.Parallel()

		f := newAuthHandlerFixture(t)
		f.seedUser(t, "password123")
		f.sender.SendFn = func(ctx context.Context, msg mail.Message) error {
			return errors.New("smtp unavailable")
		}

		w := postJSON(t, f.handler.RequestPasswordReset, "/api/auth/password-reset",
			api.PasswordResetRequest{Email: "casey@example.com"})

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestConfirmPasswordReset(t *testing.T) {
	t.Parallel()

	t.Run("resets password with a valid token", func(t *testing.T) {
		t.Parallel()

		f := newAuthHandlerFixture(t)
		user := f.seedUser(t, "password123")
		token, err := f.resetTokens.Issue(user)
		require.NoError(t, err)

		w := postJSON(t, f.handler.ConfirmPasswordReset, "/api/auth/password-reset/confirm",
			api.PasswordResetConfirmRequest{
				UserID:          user.ID.String(),
				Token:           token,
				Password:        "newpassword123",
				PasswordConfirm: "newpassword123",
			})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "hashed:newpassword123", user.HashedPassword)

		// The password change invalidates the token, so replaying the
		// confirmation fails.
		w = postJSON(t, f.handler.ConfirmPasswordReset, "/api/auth/password-reset/confirm",
			api.PasswordResetConfirmRequest{
				UserID:          user.ID.String(),
				Token:           token,
				Password:        "anotherpass456",
				PasswordConfirm: "anotherpass456",
			})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "hashed:newpassword123", user.HashedPassword)
	})

	t.Run("mismatched passwords rejected", func(t *testing.T) {
		t.Parallel()

		f := newAuthHandlerFixture(t)
		user := f.seedUser(t, "password123")
		token, err := f.resetTokens.Issue(user)
		require.NoError(t, err)

		w := postJSON(t, f.handler.ConfirmPasswordReset, "/api/auth/password-reset/confirm",
			api.PasswordResetConfirmRequest{
				UserID:          user.ID.String(),
				Token:           token,
				Password:        "newpassword123",
				PasswordConfirm: "different12345",
			})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed user id treated as bad token", func(t *testing.T) {
		t.Parallel()

		f := newAuthHandlerFixture(t)
		w := postJSON(t, f.handler.ConfirmPasswordReset, "/api/auth/password-reset/confirm",
			api.PasswordResetConfirmRequest{
				UserID:          "not-a-uuid",
				Token:           "whatever",
				Password:        "newpassword123",
				PasswordConfirm: "newpassword123",
			})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestDeleteAccount(t *testing.T) {
	t.Parallel()

	seedTask := func(f *authHandlerFixture, owner uuid.UUID) *domain.Task {
		task := &domain.Task{
			ID:     uuid.New(),
			UserID: owner,
			Title:  "Submit report",
			DueAt:  time.Now().Add(time.Hour),
		}
		f.tasks.Tasks[task.ID] = task
		return task
	}

	t.Run("removes the user and their tasks", func(t *testing.T) {
		t.Parallel()

		f := newAuthHandlerFixture(t)
		user := f.seedUser(t, "password123")
		seedTask(f, user.ID)
		seedTask(f, user.ID)
		other := seedTask(f, uuid.New())

		w := postJSONAs(t, f.handler.DeleteAccount, "/api/auth/account",
			api.DeleteAccountRequest{Password: "password123"}, user.ID)

		require.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, f.users.Users)

		// Only the deleted account's tasks go with it.
		require.Len(t, f.tasks.Tasks, 1)
		assert.Contains(t, f.tasks.Tasks, other.ID)
	})

	t.Run("wrong password leaves everything in place", func(t *testing.T) {
		t.Parallel()

		f := newAuthHandlerFixture(t)
		user := f.seedUser(t, "password123")
		seedTask(f, user.ID)

		w := postJSONAs(t, f.handler.DeleteAccount, "/api/auth/account",
			api.DeleteAccountRequest{Password: "wrong-password"}, user.ID)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Len(t, f.users.Users, 1)
		assert.Len(t, f.tasks.Tasks, 1)
	})

	t.Run("unauthenticated rejected", func(t *testing.T) {
		t.Parallel()

		f := newAuthHandlerFixture(t)
		w := postJSON(t, f.handler.DeleteAccount, "/api/auth/account",
			api.DeleteAccountRequest{Password: "password123"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
