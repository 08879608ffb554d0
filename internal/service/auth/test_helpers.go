package auth

import "time"

// NewTestJWTService creates a JWT service with an injectable time function
// for predictable testing. Both token lifetimes use the given lifetime.
func NewTestJWTService(
	secret string,
	tokenLifetime time.Duration,
	timeFunc func() time.Time,
) JWTService {
	return &hmacJWTService{
		signingKey:           []byte(secret),
		tokenLifetime:        tokenLifetime,
		refreshTokenLifetime: tokenLifetime,
		timeFunc:             timeFunc,
		clockSkew:            0,
	}
}

// NewTestResetTokenService creates a reset token service with an injectable
// time function for predictable testing.
func NewTestResetTokenService(
	secret string,
	lifetime time.Duration,
	timeFunc func() time.Time,
) ResetTokenService {
	return &hmacResetTokenService{
		signingKey: []byte(secret),
		lifetime:   lifetime,
		timeFunc:   timeFunc,
	}
}
