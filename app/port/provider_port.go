package port

import (
	"context"

	"modelhub/app/domain"
)

// IdentityProvider defines the operations the session layer needs from
// the external identity service. All operations are synchronous calls;
// the session state they produce is reported separately, on the change
// stream, after the provider has confirmed it.
type IdentityProvider interface {
	// CreateAccount registers a new password credential. Fails with an
	// AuthError carrying CodeInvalidEmail, CodeWeakPassword or
	// CodeEmailInUse.
	CreateAccount(ctx context.Context, email, password string) (*domain.Identity, error)

	// SignIn authenticates a password credential. Fails with
	// CodeInvalidCredentials or CodeUserNotFound.
	SignIn(ctx context.Context, email, password string) (*domain.Identity, error)

	// FederatedSignInURL starts a federated sign-in with the named OIDC
	// provider and returns the external consent URL the caller must open.
	// Fails with CodeConsentAborted or CodeProviderError.
	FederatedSignInURL(ctx context.Context, provider, returnTo string) (string, error)

	// SignOut revokes the current session. Idempotent; signing out while
	// signed out is not an error.
	SignOut(ctx context.Context) error

	// SendPasswordReset starts a recovery flow for the given address.
	// Fails with CodeUserNotFound or CodeInvalidEmail.
	SendPasswordReset(ctx context.Context, email string) error

	// UpdateProfile mutates the authenticated identity's display name and
	// photo. Fails with CodeNotAuthenticated when no identity is signed in.
	UpdateProfile(ctx context.Context, displayName, photoURL string) (*domain.Identity, error)

	// CurrentSession re-confirms the session with the provider. A nil
	// identity with nil error means no principal is authenticated.
	CurrentSession(ctx context.Context) (*domain.Identity, error)

	// Changes returns the provider's session change stream. The channel
	// is closed when the provider is closed.
	Changes() <-chan domain.SessionChange

	// Close releases the change stream. Safe to call more than once.
	Close()
}

// SessionReader is the read-only view of the session store handed to
// consumers that must not mutate session state.
type SessionReader interface {
	Identity() *domain.Identity
	Resolving() bool
}
