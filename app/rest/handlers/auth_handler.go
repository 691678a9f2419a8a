package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"modelhub/app/domain"
	"modelhub/app/session"
	"modelhub/app/usecase"
	"modelhub/app/utils/validator"
)

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	store      *session.Store
	validateUC *usecase.ValidateSessionUseCase
	validate   *validator.Validator
	providers  map[string]bool
	logger     *slog.Logger
}

// NewAuthHandler creates a new auth handler. oidcProviders is the
// allowlist of federated sign-in providers; empty means none are
// configured.
func NewAuthHandler(store *session.Store, validateUC *usecase.ValidateSessionUseCase, oidcProviders []string, logger *slog.Logger) *AuthHandler {
	providers := make(map[string]bool, len(oidcProviders))
	for _, p := range oidcProviders {
		providers[p] = true
	}

	return &AuthHandler{
		store:      store,
		validateUC: validateUC,
		validate:   validator.New(),
		providers:  providers,
		logger:     logger.With("component", "auth_handler"),
	}
}

type RegistrationRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RecoveryRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ProfileUpdateRequest struct {
	DisplayName string `json:"display_name" validate:"max=100"`
	PhotoURL    string `json:"photo_url" validate:"omitempty,url"`
}

type SessionResponse struct {
	Identity  *domain.Identity `json:"identity"`
	Resolving bool             `json:"resolving"`
}

type LoginResponse struct {
	Identity *domain.Identity `json:"identity"`
	ReturnTo string           `json:"return_to"`
}

type FederatedSignInResponse struct {
	RedirectURL string `json:"redirect_url"`
}

// Register creates a new account
// @Summary Register a new account
// @Tags authentication
// @Accept json
// @Produce json
// @Success 201 {object} domain.Identity
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /v1/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegistrationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if err := h.validate.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	identity, err := h.store.CreateAccount(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warn("registration failed", "email", req.Email, "code", domain.AuthErrorCode(err))
		return respondError(c, err)
	}

	h.logger.Info("account registered", "identity_id", identity.ID)
	return c.JSON(http.StatusCreated, identity)
}

// Login authenticates an email/password credential. A sanitized
// return_to query parameter is echoed back so the caller knows where
// to resume.
// @Summary Sign in with email and password
// @Tags authentication
// @Accept json
// @Produce json
// @Param return_to query string false "Path to resume after sign-in"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if err := h.validate.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	identity, err := h.store.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warn("login failed", "email", req.Email, "code", domain.AuthErrorCode(err))
		return respondError(c, err)
	}

	h.logger.Info("login succeeded", "identity_id", identity.ID)
	return c.JSON(http.StatusOK, LoginResponse{
		Identity: identity,
		ReturnTo: sanitizeReturnTo(c.QueryParam(session.ReturnToParam)),
	})
}

// FederatedSignIn starts an OIDC sign-in with the named provider and
// returns the consent URL the caller should redirect to.
// @Summary Start a federated sign-in
// @Tags authentication
// @Produce json
// @Param provider path string true "OIDC provider name"
// @Param return_to query string false "Path to resume after sign-in"
// @Success 200 {object} FederatedSignInResponse
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /v1/auth/login/{provider} [post]
func (h *AuthHandler) FederatedSignIn(c echo.Context) error {
	provider := c.Param("provider")
	if err := h.validate.ValidateVar(provider, "required,oidc_provider"); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unsupported sign-in provider"})
	}
	if !h.providers[provider] {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unsupported sign-in provider"})
	}

	returnTo := sanitizeReturnTo(c.QueryParam(session.ReturnToParam))

	redirectURL, err := h.store.BeginFederatedSignIn(c.Request().Context(), provider, returnTo)
	if err != nil {
		h.logger.Warn("federated sign-in failed", "provider", provider, "code", domain.AuthErrorCode(err))
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, FederatedSignInResponse{RedirectURL: redirectURL})
}

// Logout revokes the current session. Signing out while already
// signed out succeeds.
// @Summary Sign out
// @Tags authentication
// @Success 204
// @Router /v1/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.store.SignOut(c.Request().Context()); err != nil {
		h.logger.Error("logout failed", "error", err)
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Recovery sends a password reset code to the given address.
// @Summary Start password recovery
// @Tags authentication
// @Accept json
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /v1/auth/recovery [post]
func (h *AuthHandler) Recovery(c echo.Context) error {
	var req RecoveryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if err := h.validate.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	if err := h.store.SendPasswordReset(c.Request().Context(), req.Email); err != nil {
		h.logger.Warn("recovery failed", "email", req.Email, "code", domain.AuthErrorCode(err))
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "recovery email sent"})
}

// UpdateProfile mutates the authenticated identity's display name and
// photo.
// @Summary Update profile
// @Tags authentication
// @Accept json
// @Produce json
// @Success 200 {object} domain.Identity
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /v1/auth/profile [put]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req ProfileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if err := h.validate.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	identity, err := h.store.UpdateProfile(c.Request().Context(), req.DisplayName, req.PhotoURL)
	if err != nil {
		h.logger.Warn("profile update failed", "code", domain.AuthErrorCode(err))
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, identity)
}

// Session returns the current session snapshot. Resolving true means
// the identity is not yet settled and the caller should wait rather
// than treat the user as signed out.
// @Summary Current session snapshot
// @Tags authentication
// @Produce json
// @Success 200 {object} SessionResponse
// @Router /v1/auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	snap := h.store.Snapshot()
	return c.JSON(http.StatusOK, SessionResponse{
		Identity:  snap.Identity,
		Resolving: snap.Resolving,
	})
}

// Validate confirms a provider session token for downstream services
// and issues a backend token when configured.
// @Summary Validate a session token
// @Tags authentication
// @Produce json
// @Param X-Session-Token header string true "Provider session token"
// @Success 200 {object} usecase.ValidationResult
// @Failure 401 {object} ErrorResponse
// @Router /v1/auth/validate [get]
func (h *AuthHandler) Validate(c echo.Context) error {
	token := sessionTokenFrom(c)
	if token == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "session token not found"})
	}

	result, err := h.validateUC.Execute(c.Request().Context(), token)
	if err != nil {
		return respondError(c, err)
	}

	c.Response().Header().Set("X-User-Id", result.Identity.ID)
	c.Response().Header().Set("X-User-Email", result.Identity.Email)

	return c.JSON(http.StatusOK, result)
}

// sessionTokenFrom reads the provider session token from the
// X-Session-Token header or a Bearer Authorization header.
func sessionTokenFrom(c echo.Context) string {
	if token := c.Request().Header.Get("X-Session-Token"); token != "" {
		return token
	}

	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// sanitizeReturnTo keeps only same-origin relative paths so the
// sign-in flow cannot be abused as an open redirect.
func sanitizeReturnTo(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "/"
	}
	if strings.Contains(target, "\\") {
		return "/"
	}
	return target
}
