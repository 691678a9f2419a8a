package session

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"modelhub/app/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider implements port.IdentityProvider for testing. Each
// operation delegates to an optional func; unset ops succeed and emit
// nothing, leaving change-stream emissions to the test.
type stubProvider struct {
	events chan domain.SessionChange

	signInFn        func(ctx context.Context, email, password string) (*domain.Identity, error)
	createAccountFn func(ctx context.Context, email, password string) (*domain.Identity, error)
	signOutFn       func(ctx context.Context) error

	mu           sync.Mutex
	signOutCalls int
	closeOnce    sync.Once
}

func newStubProvider() *stubProvider {
	return &stubProvider{events: make(chan domain.SessionChange, 8)}
}

func (p *stubProvider) emit(identity *domain.Identity) {
	p.events <- domain.SessionChange{Identity: identity}
}

func (p *stubProvider) CreateAccount(ctx context.Context, email, password string) (*domain.Identity, error) {
	if p.createAccountFn != nil {
		return p.createAccountFn(ctx, email, password)
	}
	return &domain.Identity{ID: "new", Email: email}, nil
}

func (p *stubProvider) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	if p.signInFn != nil {
		return p.signInFn(ctx, email, password)
	}
	return &domain.Identity{ID: "signed-in", Email: email}, nil
}

func (p *stubProvider) FederatedSignInURL(ctx context.Context, provider, returnTo string) (string, error) {
	return "https://accounts.example.com/consent", nil
}

func (p *stubProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.signOutCalls++
	p.mu.Unlock()
	if p.signOutFn != nil {
		return p.signOutFn(ctx)
	}
	return nil
}

func (p *stubProvider) SendPasswordReset(ctx context.Context, email string) error { return nil }

func (p *stubProvider) UpdateProfile(ctx context.Context, displayName, photoURL string) (*domain.Identity, error) {
	return &domain.Identity{ID: "signed-in", DisplayName: displayName, PhotoURL: photoURL}, nil
}

func (p *stubProvider) CurrentSession(ctx context.Context) (*domain.Identity, error) {
	return nil, nil
}

func (p *stubProvider) Changes() <-chan domain.SessionChange { return p.events }

func (p *stubProvider) Close() {
	p.closeOnce.Do(func() { close(p.events) })
}

func newTestStore(t *testing.T) (*Store, *stubProvider) {
	t.Helper()
	provider := newStubProvider()
	store := NewStore(provider, slog.Default())
	t.Cleanup(store.Close)
	return store, provider
}

const waitFor = 2 * time.Second
const tick = 5 * time.Millisecond

func TestStore_InitialSnapshot(t *testing.T) {
	store, _ := newTestStore(t)

	snap := store.Snapshot()
	assert.Nil(t, snap.Identity)
	assert.True(t, snap.Resolving, "session must start resolving until the provider reports")
}

func TestStore_LastNotificationWins(t *testing.T) {
	store, provider := newTestStore(t)

	provider.emit(&domain.Identity{ID: "u1", Email: "first@example.com"})
	provider.emit(&domain.Identity{ID: "u2", Email: "second@example.com"})
	provider.emit(nil)
	provider.emit(&domain.Identity{ID: "u3", Email: "third@example.com"})

	require.Eventually(t, func() bool {
		snap := store.Snapshot()
		return snap.Identity != nil && snap.Identity.ID == "u3"
	}, waitFor, tick)

	snap := store.Snapshot()
	assert.False(t, snap.Resolving, "resolving clears on every notification")
	assert.Equal(t, "third@example.com", snap.Identity.Email)
}

func TestStore_SignInSetsResolvingBeforeDelegating(t *testing.T) {
	store, provider := newTestStore(t)

	// Settle the initial resolving state first.
	provider.emit(nil)
	require.Eventually(t, func() bool { return !store.Resolving() }, waitFor, tick)

	var resolvingDuringOp bool
	provider.signInFn = func(ctx context.Context, email, password string) (*domain.Identity, error) {
		resolvingDuringOp = store.Resolving()
		return nil, domain.NewAuthError(domain.CodeInvalidCredentials, "invalid credentials", nil)
	}

	_, err := store.SignIn(context.Background(), "a@example.com", "x")
	require.Error(t, err)
	assert.Equal(t, domain.CodeInvalidCredentials, domain.AuthErrorCode(err))

	assert.True(t, resolvingDuringOp, "resolving must be observable before the operation settles")
	assert.True(t, store.Resolving(), "a failed operation must not clear resolving")
	assert.Nil(t, store.Identity())

	// Only the provider's (no-op) notification clears the flag.
	provider.emit(nil)
	require.Eventually(t, func() bool { return !store.Resolving() }, waitFor, tick)
	assert.Nil(t, store.Identity())
}

func TestStore_SignOutWhenSignedOut(t *testing.T) {
	store, provider := newTestStore(t)

	provider.emit(nil)
	require.Eventually(t, func() bool { return !store.Resolving() }, waitFor, tick)

	err := store.SignOut(context.Background())
	require.NoError(t, err)

	provider.emit(nil)
	require.Eventually(t, func() bool { return !store.Resolving() }, waitFor, tick)
	assert.Nil(t, store.Identity())
	assert.Equal(t, 1, provider.signOutCalls)
}

func TestStore_SubscribePrimesAndConflates(t *testing.T) {
	store, provider := newTestStore(t)

	updates, cancel := store.Subscribe()
	defer cancel()

	// Primed with the initial snapshot.
	first := <-updates
	assert.True(t, first.Resolving)
	assert.Nil(t, first.Identity)

	// Two quick notifications conflate to the latest for a slow reader.
	provider.emit(&domain.Identity{ID: "u1", Email: "one@example.com"})
	provider.emit(&domain.Identity{ID: "u2", Email: "two@example.com"})

	require.Eventually(t, func() bool {
		snap := store.Snapshot()
		return snap.Identity != nil && snap.Identity.ID == "u2"
	}, waitFor, tick)

	latest := <-updates
	assert.Equal(t, "u2", latest.Identity.ID)
	select {
	case extra, ok := <-updates:
		if ok {
			t.Fatalf("expected no further update, got %+v", extra)
		}
	default:
	}
}

func TestStore_FailClosedOnStreamDeath(t *testing.T) {
	provider := newStubProvider()
	store := NewStore(provider, slog.Default())
	defer store.Close()

	provider.Close()

	require.Eventually(t, func() bool {
		snap := store.Snapshot()
		return !snap.Resolving && snap.Identity == nil
	}, waitFor, tick)
}

func TestStore_CloseReleasesSubscribers(t *testing.T) {
	store, _ := newTestStore(t)

	updates, cancel := store.Subscribe()
	defer cancel()
	<-updates // drain primed value

	store.Close()

	_, open := <-updates
	assert.False(t, open, "subscriber channel must close on teardown")

	_, err := store.SignIn(context.Background(), "a@example.com", "x")
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	assert.ErrorIs(t, store.SignOut(context.Background()), domain.ErrSessionClosed)

	// Closing twice is fine.
	store.Close()
}

func TestStore_UnsubscribeStopsDelivery(t *testing.T) {
	store, provider := newTestStore(t)

	updates, cancel := store.Subscribe()
	<-updates
	cancel()
	cancel() // idempotent

	provider.emit(&domain.Identity{ID: "u1", Email: "one@example.com"})
	require.Eventually(t, func() bool { return store.Identity() != nil }, waitFor, tick)

	_, open := <-updates
	assert.False(t, open)
}
