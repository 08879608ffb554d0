package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwhitfield/taskward/internal/config"
	"github.com/jwhitfield/taskward/internal/domain"
	"github.com/jwhitfield/taskward/internal/service"
	"github.com/jwhitfield/taskward/internal/service/auth"
	"github.com/jwhitfield/taskward/internal/service/mail"
	"github.com/jwhitfield/taskward/internal/store"
)

// AuthHandler handles authentication-related API requests: registration,
// login, token refresh, profile changes, account deletion and the
// password-reset flow.
type AuthHandler struct {
	userStore        store.UserStore
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	resetTokens      auth.ResetTokenService
	accounts         service.AccountService
	sender           mail.Sender
	cfg              *config.Config
	timeFunc         func() time.Time
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	userStore store.UserStore,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
	resetTokens auth.ResetTokenService,
	accounts service.AccountService,
	sender mail.Sender,
	cfg *config.Config,
) *AuthHandler {
	return &AuthHandler{
		userStore:        userStore,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		resetTokens:      resetTokens,
		accounts:         accounts,
		sender:           sender,
		cfg:              cfg,
		timeFunc:         time.Now,
	}
}

// issueTokens generates the access/refresh token pair for the user.
func (h *AuthHandler) issueTokens(ctx context.Context, user *domain.User) (*AuthResponse, error) {
	accessToken, err := h.jwtService.GenerateToken(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiresAt := h.timeFunc().
		Add(time.Duration(h.cfg.Auth.TokenLifetimeMinutes) * time.Minute).
		UTC().Format(time.RFC3339)

	return &AuthResponse{
		UserID:       user.ID,
		Username:     user.Username,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// sendFailSilent dispatches a courtesy email and only logs on failure.
// Registration and login notifications must never fail the request.
func (h *AuthHandler) sendFailSilent(ctx context.Context, msg mail.Message) {
	if err := h.sender.Send(ctx, msg); err != nil {
		slog.Warn("courtesy email delivery failed",
			"error", err,
			"subject", msg.Subject)
	}
}

// Register handles the /auth/register endpoint.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest

	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := ValidateRequest(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := domain.NewUser(req.Username, req.Email, req.Password)
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid user data: "+err.Error())
		return
	}

	if err := h.userStore.Create(r.Context(), user); err != nil {
		if store.IsDuplicateError(err) {
			HandleAPIError(w, r, err, "")
			return
		}
		slog.Error("failed to create user", "error", err, "username", user.Username)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to create user")
		return
	}

	h.sendFailSilent(r.Context(), mail.Message{
		Subject: "Taskward: Thank you for Registering",
		Body: fmt.Sprintf(
			"Hi %s, thanks for signing up, hope you will enjoy using this app.",
			user.Username),
		To: []string{user.Email},
	})

	resp, err := h.issueTokens(r.Context(), user)
	if err != nil {
		slog.Error("failed to generate tokens", "error", err, "user_id", user.ID)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, resp)
}

// Login handles the /auth/login endpoint. The identifier may be either a
// username or the registered email address.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := ValidateRequest(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.userStore.GetByUsernameOrEmail(r.Context(), strings.TrimSpace(req.Identifier))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		slog.Error("failed to get user by identifier", "error", err)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to authenticate user")
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	now := h.timeFunc().UTC()
	if err := h.userStore.RecordLogin(r.Context(), user.ID, now); err != nil {
		// A failed timestamp update must not block the login itself.
		slog.Warn("failed to record login time", "error", err, "user_id", user.ID)
	}
	user.LastLoginAt = now

	h.sendFailSilent(r.Context(), mail.Message{
		Subject: "Taskward: Someone logged into your account",
		Body: fmt.Sprintf(
			"Hi %s,\nYou have successfully logged into your account.",
			user.Username),
		To: []string{user.Email},
	})

	resp, err := h.issueTokens(r.Context(), user)
	if err != nil {
		slog.Error("failed to generate tokens", "error", err, "user_id", user.ID)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, resp)
}

// RefreshToken handles the /auth/refresh endpoint, exchanging a valid
// refresh token for a new access/refresh token pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest

	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := ValidateRequest(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	accessToken, err := h.jwtService.GenerateToken(r.Context(), claims.UserID)
	if err != nil {
		slog.Error("failed to generate access token", "error", err, "user_id", claims.UserID)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(r.Context(), claims.UserID)
	if err != nil {
		slog.Error("failed to generate refresh token", "error", err, "user_id", claims.UserID)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	expiresAt := h.timeFunc().
		Add(time.Duration(h.cfg.Auth.TokenLifetimeMinutes) * time.Minute).
		UTC().Format(time.RFC3339)

	RespondWithJSON(w, r, http.StatusOK, RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	})
}

// UpdateProfile handles PUT /auth/profile, changing the authenticated
// user's username and/or email after re-verifying their password.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req UpdateProfileRequest

	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := ValidateRequest(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if req.Username == "" && req.Email == "" {
		RespondWithError(w, r, http.StatusBadRequest, "Nothing to update")
		return
	}

	user, err := h.userStore.GetByID(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if req.Username != "" {
		user.Username = strings.ToLower(strings.TrimSpace(req.Username))
	}
	if req.Email != "" {
		user.Email = strings.TrimSpace(req.Email)
	}

	if err := h.userStore.Update(r.Context(), user); err != nil {
		if store.IsDuplicateError(err) || store.IsNotFoundError(err) {
			HandleAPIError(w, r, err, "")
			return
		}
		if errors.Is(err, domain.ErrInvalidUsername) || errors.Is(err, domain.ErrInvalidEmail) {
			RespondWithError(w, r, http.StatusBadRequest, "Invalid user data: "+err.Error())
			return
		}
		slog.Error("failed to update profile", "error", err, "user_id", user.ID)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, user)
}

// RequestPasswordReset handles POST /auth/password-reset. A reset token is
// issued and emailed as a link; a mail delivery failure surfaces to the
// requester, unlike the fail-silent courtesy emails.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest

	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := ValidateRequest(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.userStore.GetByUsernameOrEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			RespondWithError(w, r, http.StatusNotFound, "No user account associated with the provided email")
			return
		}
		slog.Error("failed to look up user for password reset", "error", err)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to process reset request")
		return
	}

	token, err := h.resetTokens.Issue(user)
	if err != nil {
		slog.Error("failed to issue reset token", "error", err, "user_id", user.ID)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to process reset request")
		return
	}

	resetLink := fmt.Sprintf("%s/reset/%s/%s",
		strings.TrimRight(h.cfg.Server.BaseURL, "/"), user.ID, token)

	msg := mail.Message{
		Subject: "Taskward: Password Reset Requested",
		Body: fmt.Sprintf(
			"Hi %s,\n\nA password reset was requested for your account. "+
				"Follow this link to choose a new password:\n\n%s\n\n"+
				"If you did not request a reset, you can ignore this email.",
			user.Username, resetLink),
		To: []string{user.Email},
	}

	if err := h.sender.Send(r.Context(), msg); err != nil {
		slog.Error("failed to send password reset email", "error", err, "user_id", user.ID)
		RespondWithError(w, r, http.StatusBadGateway, "Failed to send password reset email")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("A password reset email has been sent to %q", user.Email),
	})
}

// ConfirmPasswordReset handles POST /auth/password-reset/confirm. The
// token is verified against the user's current state, so once the
// password changes the same token can never be used again.
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirmRequest

	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := ValidateRequest(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if req.Password != req.PasswordConfirm {
		RespondWithError(w, r, http.StatusBadRequest, "New passwords do not match")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		// An unparseable ID gets the same response as a bad token so the
		// endpoint doesn't reveal which part of the link was wrong.
		HandleAPIError(w, r, auth.ErrInvalidResetToken, "")
		return
	}

	if err := h.accounts.ResetPassword(r.Context(), userID, req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, store.ErrUserNotFound):
			// An unknown user gets the same response as a bad token.
			HandleAPIError(w, r, auth.ErrInvalidResetToken, "")
		case errors.Is(err, auth.ErrInvalidResetToken):
			HandleAPIError(w, r, err, "")
		case errors.Is(err, domain.ErrPasswordTooShort), errors.Is(err, domain.ErrPasswordTooLong):
			RespondWithError(w, r, http.StatusBadRequest, "Invalid password: "+err.Error())
		default:
			slog.Error("failed to reset password", "error", err, "user_id", userID)
			RespondWithError(w, r, http.StatusInternalServerError, "Failed to reset password")
		}
		return
	}

	RespondWithJSON(w, r, http.StatusOK, MessageResponse{
		Message: "Password updated successfully",
	})
}

// DeleteAccount handles DELETE /auth/account. The caller's password is
// re-verified, then the user and every task they own are removed in a
// single transaction.
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req DeleteAccountRequest

	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := ValidateRequest(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.userStore.GetByID(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), user.ID); err != nil {
		slog.Error("failed to delete account", "error", err, "user_id", user.ID)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to delete account")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
