package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"modelhub/app/domain"
	"modelhub/app/port"
)

// ValidateSessionUseCase validates provider session tokens with a
// cache-through strategy and issues backend tokens for downstream
// services. Concurrent validations of the same token are collapsed
// into a single provider call.
type ValidateSessionUseCase struct {
	validator port.SessionValidator
	cache     port.SessionCache
	issuer    port.TokenIssuer
	group     *singleflight.Group
	logger    *slog.Logger
}

// ValidationResult carries the validated identity and, when token
// issuance is configured, a signed backend token.
type ValidationResult struct {
	Identity     *domain.Identity `json:"identity"`
	BackendToken string           `json:"backend_token,omitempty"`
}

// NewValidateSessionUseCase creates a new ValidateSessionUseCase
// instance. The issuer may be nil when backend tokens are disabled.
func NewValidateSessionUseCase(validator port.SessionValidator, cache port.SessionCache, issuer port.TokenIssuer, logger *slog.Logger) *ValidateSessionUseCase {
	return &ValidateSessionUseCase{
		validator: validator,
		cache:     cache,
		issuer:    issuer,
		group:     &singleflight.Group{},
		logger:    logger.With("component", "validate_session_usecase"),
	}
}

// Execute validates the given session token.
func (uc *ValidateSessionUseCase) Execute(ctx context.Context, sessionToken string) (*ValidationResult, error) {
	if sessionToken == "" {
		return nil, domain.ErrNotAuthenticated
	}

	// Raw tokens never become cache keys.
	key := cacheKey(sessionToken)

	if cached, found := uc.cache.Get(key); found {
		identity := cached.Identity
		return uc.buildResult(&identity)
	}

	v, err, _ := uc.group.Do(key, func() (any, error) {
		identity, err := uc.validator.ValidateToken(ctx, sessionToken)
		if err != nil {
			return nil, err
		}

		uc.cache.Set(key, port.CachedSession{Identity: *identity})
		return identity, nil
	})
	if err != nil {
		uc.logger.Warn("session validation failed", "error", err)
		return nil, err
	}

	return uc.buildResult(v.(*domain.Identity))
}

func (uc *ValidateSessionUseCase) buildResult(identity *domain.Identity) (*ValidationResult, error) {
	result := &ValidationResult{Identity: identity}

	if uc.issuer != nil {
		token, err := uc.issuer.IssueBackendToken(identity)
		if err != nil {
			return nil, err
		}
		result.BackendToken = token
	}

	return result, nil
}

func cacheKey(sessionToken string) string {
	sum := sha256.Sum256([]byte(sessionToken))
	return hex.EncodeToString(sum[:])
}
