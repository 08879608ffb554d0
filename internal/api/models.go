package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/jwhitfield/taskward/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
// Identifier is either the username or the registered email address.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password"   validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// Username is the lowercased account name
	Username string `json:"username"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

// UpdateProfileRequest defines the payload for changing username or email.
// The current password is required to re-authenticate the change.
type UpdateProfileRequest struct {
	Username string `json:"username" validate:"omitempty,min=3,max=64"`
	Email    string `json:"email"    validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

// PasswordResetRequest defines the payload for requesting a reset link.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirmRequest defines the payload for completing a reset.
// The new password must be submitted twice and both copies must match.
type PasswordResetConfirmRequest struct {
	UserID          string `json:"user_id"          validate:"required"`
	Token           string `json:"token"            validate:"required"`
	Password        string `json:"password"         validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

// DeleteAccountRequest defines the payload for deleting the authenticated
// user's account. The password is re-verified before anything is removed.
type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

// MessageResponse is a generic success acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// TaskRequest defines the payload for creating or updating a task.
type TaskRequest struct {
	Title       string    `json:"title"       validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	DueAt       time.Time `json:"due_at"      validate:"required"`
}

// TaskResponse defines the representation of a task returned by the API.
type TaskResponse struct {
	ID                    uuid.UUID `json:"id"`
	Title                 string    `json:"title"`
	Description           string    `json:"description"`
	DueAt                 time.Time `json:"due_at"`
	EmailNotificationSent bool      `json:"email_notification_sent"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// NewTaskResponse maps a domain task to its API representation.
func NewTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:                    task.ID,
		Title:                 task.Title,
		Description:           task.Description,
		DueAt:                 task.DueAt,
		EmailNotificationSent: task.EmailNotificationSent,
		CreatedAt:             task.CreatedAt,
		UpdatedAt:             task.UpdatedAt,
	}
}

// CalendarEvent is the event shape consumed by calendar frontends: one
// event per task, with the due time as both start and end.
type CalendarEvent struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       string    `json:"start"`
	End         string    `json:"end"`
}

// NewCalendarEvent maps a domain task to a calendar event.
func NewCalendarEvent(task *domain.Task) CalendarEvent {
	due := task.DueAt.Format(time.RFC3339)
	return CalendarEvent{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Start:       due,
		End:         due,
	}
}
