package auth

import "errors"

// Common authentication service errors
var (
	// ErrInvalidToken indicates the token format is invalid or signature doesn't match
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrInvalidRefreshToken indicates the refresh token is malformed or its signature doesn't match
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrExpiredRefreshToken indicates the refresh token has expired
	ErrExpiredRefreshToken = errors.New("refresh token has expired")

	// ErrWrongTokenType indicates a token was presented in the wrong context
	// (e.g., an access token where a refresh token was expected)
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrInvalidResetToken indicates a password reset token is malformed,
	// its signature no longer matches the user's current state, or its
	// validity window has expired
	ErrInvalidResetToken = errors.New("invalid or expired password reset token")
)
