package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jwhitfield/taskward/internal/config"
	"github.com/jwhitfield/taskward/internal/domain"
)

// ResetTokenService issues and verifies password reset tokens. A token is
// bound to the user's current state (password hash and last login time):
// once the password changes, every outstanding token for that user stops
// verifying, so a token is single-use without any server-side storage.
type ResetTokenService interface {
	// Issue generates a reset token for the user's current state.
	Issue(user *domain.User) (string, error)

	// Verify checks the token against the user's current state.
	// Returns ErrInvalidResetToken if the signature does not match or the
	// validity window has expired.
	Verify(user *domain.User, token string) error
}

// hmacResetTokenService signs tokens with HMAC-SHA256 over the user's
// identity and mutable state plus an issuance timestamp.
type hmacResetTokenService struct {
	signingKey []byte
	lifetime   time.Duration
	timeFunc   func() time.Time // Injectable for testing
}

// Ensure hmacResetTokenService implements ResetTokenService interface
var _ ResetTokenService = (*hmacResetTokenService)(nil)

// NewResetTokenService creates a reset token service from the auth config.
func NewResetTokenService(cfg config.AuthConfig) (ResetTokenService, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("reset token secret must be at least 32 characters")
	}

	return &hmacResetTokenService{
		signingKey: []byte(cfg.JWTSecret),
		lifetime:   time.Duration(cfg.ResetTokenLifetimeMinutes) * time.Minute,
		timeFunc:   time.Now,
	}, nil
}

// Issue implements ResetTokenService.Issue.
// Token format: "<base36 unix timestamp>-<hex HMAC>".
func (s *hmacResetTokenService) Issue(user *domain.User) (string, error) {
	if user == nil || user.HashedPassword == "" {
		return "", fmt.Errorf("cannot issue reset token: user has no stored credentials")
	}

	ts := s.timeFunc().UTC().Unix()
	sig := s.sign(user, ts)
	return strconv.FormatInt(ts, 36) + "-" + sig, nil
}

// Verify implements ResetTokenService.Verify.
func (s *hmacResetTokenService) Verify(user *domain.User, token string) error {
	if user == nil {
		return ErrInvalidResetToken
	}

	tsPart, sigPart, ok := strings.Cut(token, "-")
	if !ok {
		return ErrInvalidResetToken
	}

	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil {
		return ErrInvalidResetToken
	}

	now := s.timeFunc().UTC()
	issued := time.Unix(ts, 0).UTC()
	if issued.After(now) || now.Sub(issued) > s.lifetime {
		return ErrInvalidResetToken
	}

	// Recompute the signature over the user's *current* state. A password
	// change or a newer login produces a different signature, invalidating
	// the token.
	expected := s.sign(user, ts)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(sigPart)) != 1 {
		return ErrInvalidResetToken
	}

	return nil
}

// sign computes the HMAC over the state the token is bound to.
func (s *hmacResetTokenService) sign(user *domain.User, ts int64) string {
	mac := hmac.New(sha256.New, s.signingKey)
	fmt.Fprintf(mac, "%s|%s|%d|%d",
		user.ID, user.HashedPassword, user.LastLoginAt.UTC().Unix(), ts)
	return hex.EncodeToString(mac.Sum(nil))
}
