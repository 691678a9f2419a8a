package session

import (
	"context"
	"log/slog"
	"sync"

	"modelhub/app/domain"
	"modelhub/app/port"
)

// Snapshot is an immutable view of the session state at one instant.
// Resolving is true from construction (and from the start of any
// credential-mutating operation) until the identity provider's next
// change notification arrives.
type Snapshot struct {
	Identity  *domain.Identity
	Resolving bool
}

// Store owns the process-wide session state. It is the only writer:
// state changes enter either through the provider's change stream,
// applied by a single consuming goroutine, or through the
// resolving-marker set at the start of a credential-mutating operation.
// Consumers read snapshots or subscribe for updates.
type Store struct {
	provider port.IdentityProvider
	logger   *slog.Logger

	mu      sync.RWMutex
	snap    Snapshot
	subs    map[int]chan Snapshot
	nextSub int
	closed  bool

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewStore creates the session store and starts consuming the
// provider's change stream. The store starts unresolved: no identity,
// Resolving true until the provider reports its first state.
func NewStore(provider port.IdentityProvider, logger *slog.Logger) *Store {
	s := &Store{
		provider: provider,
		logger:   logger.With("component", "session_store"),
		snap:     Snapshot{Identity: nil, Resolving: true},
		subs:     make(map[int]chan Snapshot),
		done:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.consume()

	return s
}

// consume applies change notifications in arrival order. Last write
// wins; every notification clears Resolving.
func (s *Store) consume() {
	defer s.wg.Done()

	changes := s.provider.Changes()
	for {
		select {
		case <-s.done:
			return
		case change, ok := <-changes:
			if !ok {
				// The stream died. Fail closed: report signed out rather
				// than leaving consumers stuck resolving forever.
				s.logger.Warn("session change stream closed, treating as signed out")
				s.apply(Snapshot{Identity: nil, Resolving: false})
				return
			}
			s.apply(Snapshot{Identity: change.Identity, Resolving: false})
		}
	}
}

func (s *Store) apply(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.snap = snap
	s.broadcastLocked(snap)
}

// broadcastLocked fans the snapshot out to subscribers. Channels are
// conflated: a subscriber that has not drained the previous value gets
// only the latest one. All senders hold s.mu, so the drain-then-send
// below cannot block.
func (s *Store) broadcastLocked(snap Snapshot) {
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

// beginResolving marks the session as resolving before a
// credential-mutating operation is delegated to the provider. The flag
// is cleared only by the provider's next change notification, never by
// the operation's own return.
func (s *Store) beginResolving() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.snap.Resolving = true
	s.broadcastLocked(s.snap)
}

// Snapshot returns the current session state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Identity returns the current identity, or nil when signed out.
func (s *Store) Identity() *domain.Identity {
	return s.Snapshot().Identity
}

// Resolving reports whether a provider confirmation is pending.
func (s *Store) Resolving() bool {
	return s.Snapshot().Resolving
}

// Subscribe registers for session updates. The returned channel is
// primed with the current snapshot and conflated thereafter. The cancel
// func releases the subscription; it is safe to call more than once.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Snapshot, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	ch <- s.snap
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// CreateAccount registers a new account with the identity provider.
func (s *Store) CreateAccount(ctx context.Context, email, password string) (*domain.Identity, error) {
	if s.isClosed() {
		return nil, domain.ErrSessionClosed
	}
	s.beginResolving()
	return s.provider.CreateAccount(ctx, email, password)
}

// SignIn authenticates an email/password credential.
func (s *Store) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	if s.isClosed() {
		return nil, domain.ErrSessionClosed
	}
	s.beginResolving()
	return s.provider.SignIn(ctx, email, password)
}

// BeginFederatedSignIn starts a federated sign-in and returns the
// external consent URL. The session resolves once the provider reports
// the completed (or unchanged) state on the change stream.
func (s *Store) BeginFederatedSignIn(ctx context.Context, provider, returnTo string) (string, error) {
	if s.isClosed() {
		return "", domain.ErrSessionClosed
	}
	s.beginResolving()
	return s.provider.FederatedSignInURL(ctx, provider, returnTo)
}

// SignOut revokes the current session. Idempotent.
func (s *Store) SignOut(ctx context.Context) error {
	if s.isClosed() {
		return domain.ErrSessionClosed
	}
	s.beginResolving()
	return s.provider.SignOut(ctx)
}

// SendPasswordReset starts a recovery flow. It does not mark the
// session resolving: no credential changes until the user completes
// the emailed flow.
func (s *Store) SendPasswordReset(ctx context.Context, email string) error {
	if s.isClosed() {
		return domain.ErrSessionClosed
	}
	return s.provider.SendPasswordReset(ctx, email)
}

// UpdateProfile mutates the authenticated identity's profile fields.
func (s *Store) UpdateProfile(ctx context.Context, displayName, photoURL string) (*domain.Identity, error) {
	if s.isClosed() {
		return nil, domain.ErrSessionClosed
	}
	return s.provider.UpdateProfile(ctx, displayName, photoURL)
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Close releases the change stream subscription and all consumer
// subscriptions. No state mutations happen after Close returns.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		for id, ch := range s.subs {
			delete(s.subs, id)
			close(ch)
		}
		s.mu.Unlock()

		close(s.done)
		s.provider.Close()
		s.wg.Wait()

		s.logger.Info("session store closed")
	})
}
