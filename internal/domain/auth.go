package domain

import "time"

// TokenIssuer issues tokens (e.g. JWT) for an operator allowed to trigger syncs.
type TokenIssuer interface {
	Issue(subject string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (subject string, err error)
}
