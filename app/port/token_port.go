package port

import (
	"context"

	"modelhub/app/domain"
)

// TokenIssuer generates signed tokens downstream services can verify
// without calling back into the identity provider.
type TokenIssuer interface {
	IssueBackendToken(identity *domain.Identity) (string, error)
}

// CachedSession holds the identity fields kept in the validation cache.
type CachedSession struct {
	Identity domain.Identity
}

// SessionCache provides short-lived caching for validated sessions
type SessionCache interface {
	Get(sessionToken string) (*CachedSession, bool)
	Set(sessionToken string, session CachedSession)
}

// SessionValidator confirms a session token with the identity provider.
type SessionValidator interface {
	ValidateToken(ctx context.Context, sessionToken string) (*domain.Identity, error)
}
