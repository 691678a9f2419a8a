package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelhub/app/domain"
	"modelhub/app/session"
)

// gateStubProvider implements port.IdentityProvider for gate tests.
type gateStubProvider struct {
	events    chan domain.SessionChange
	closeOnce sync.Once
}

func newGateStubProvider() *gateStubProvider {
	return &gateStubProvider{events: make(chan domain.SessionChange, 4)}
}

func (p *gateStubProvider) CreateAccount(context.Context, string, string) (*domain.Identity, error) {
	return nil, nil
}
func (p *gateStubProvider) SignIn(context.Context, string, string) (*domain.Identity, error) {
	return nil, nil
}
func (p *gateStubProvider) FederatedSignInURL(context.Context, string, string) (string, error) {
	return "", nil
}
func (p *gateStubProvider) SignOut(context.Context) error            { return nil }
func (p *gateStubProvider) SendPasswordReset(context.Context, string) error { return nil }
func (p *gateStubProvider) UpdateProfile(context.Context, string, string) (*domain.Identity, error) {
	return nil, nil
}
func (p *gateStubProvider) CurrentSession(context.Context) (*domain.Identity, error) {
	return nil, nil
}
func (p *gateStubProvider) Changes() <-chan domain.SessionChange { return p.events }
func (p *gateStubProvider) Close()                               { p.closeOnce.Do(func() { close(p.events) }) }

func newGateFixture(t *testing.T) (*session.Store, *gateStubProvider, echo.MiddlewareFunc) {
	t.Helper()

	provider := newGateStubProvider()
	store := session.NewStore(provider, slog.Default())
	t.Cleanup(store.Close)

	gate := NewSessionGate(store, slog.Default())
	return store, provider, gate.Protect()
}

func settle(t *testing.T, store *session.Store, provider *gateStubProvider, identity *domain.Identity) {
	t.Helper()

	provider.events <- domain.SessionChange{Identity: identity}
	require.Eventually(t, func() bool {
		snap := store.Snapshot()
		return !snap.Resolving && snap.Identity == identity
	}, 2*time.Second, 5*time.Millisecond)
}

func doRequest(mw echo.MiddlewareFunc, path string) (*httptest.ResponseRecorder, bool) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handlerRan := false
	handler := mw(func(c echo.Context) error {
		handlerRan = true
		return c.NoContent(http.StatusOK)
	})

	_ = handler(c)
	return rec, handlerRan
}

func TestSessionGate_ResolvingAnswersRetryLater(t *testing.T) {
	_, _, mw := newGateFixture(t)

	// The store starts resolving: no provider state has arrived yet
	rec, handlerRan := doRequest(mw, "/v1/my-models")

	assert.False(t, handlerRan)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestSessionGate_SignedOutRedirectsWithReturnTarget(t *testing.T) {
	store, provider, mw := newGateFixture(t)
	settle(t, store, provider, nil)

	rec, handlerRan := doRequest(mw, "/v1/my-models")

	assert.False(t, handlerRan)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?return_to=%2Fv1%2Fmy-models", rec.Header().Get(echo.HeaderLocation))
}

func TestSessionGate_SignedInAllowsAndExposesIdentity(t *testing.T) {
	store, provider, mw := newGateFixture(t)
	settle(t, store, provider, &domain.Identity{ID: "identity-1", Email: "test@example.com"})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/my-models", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *domain.Identity
	handler := mw(func(c echo.Context) error {
		seen, _ = c.Get(identityKey).(*domain.Identity)
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "test@example.com", seen.Email)
}

func TestSessionGate_SignOutFlipsVerdict(t *testing.T) {
	store, provider, mw := newGateFixture(t)
	settle(t, store, provider, &domain.Identity{ID: "identity-1", Email: "test@example.com"})

	rec, handlerRan := doRequest(mw, "/v1/my-models")
	assert.True(t, handlerRan)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Provider reports sign-out; the same route now redirects
	settle(t, store, provider, nil)

	rec, handlerRan = doRequest(mw, "/v1/my-models")
	assert.False(t, handlerRan)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}
