package kratos

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	kratosclient "github.com/ory/kratos-client-go"

	"modelhub/app/domain"
)

// changeBuffer bounds the change stream so a stalled consumer cannot
// block provider operations. The session store conflates anyway.
const changeBuffer = 16

// Provider adapts Kratos self-service flows to the identity provider
// operations the session layer consumes. Implements
// port.IdentityProvider and port.SessionValidator.
//
// Every credential-mutating operation finishes by re-confirming the
// session with Kratos and emitting the confirmed state on the change
// stream, whether or not the operation itself succeeded. The operation's
// own return value never stands in for that confirmation.
type Provider struct {
	client *Client
	logger *slog.Logger

	mu           sync.Mutex
	sessionToken string

	events    chan domain.SessionChange
	closeOnce sync.Once
}

// NewProvider creates the adapter and reports the initial session
// state (signed out until a token is obtained) on the change stream.
func NewProvider(client *Client, logger *slog.Logger) *Provider {
	p := &Provider{
		client: client,
		logger: logger.With("component", "kratos_provider"),
		events: make(chan domain.SessionChange, changeBuffer),
	}

	// First notification: nobody is signed in until a flow completes.
	// Delivered asynchronously like every other stream event.
	go p.publishCurrent(context.Background())

	return p
}

// Changes returns the session change stream.
func (p *Provider) Changes() <-chan domain.SessionChange {
	return p.events
}

// Close closes the change stream. Safe to call more than once.
func (p *Provider) Close() {
	p.closeOnce.Do(func() { close(p.events) })
}

// CreateAccount registers a new password identity and signs it in.
func (p *Provider) CreateAccount(ctx context.Context, email, password string) (*domain.Identity, error) {
	defer p.publishCurrent(ctx)

	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}

	flow, _, err := p.client.PublicAPI().FrontendAPI.CreateNativeRegistrationFlow(ctx).Execute()
	if err != nil {
		return nil, mapFlowError(err, opRegistration)
	}

	method := kratosclient.UpdateRegistrationFlowWithPasswordMethod{
		Method:   "password",
		Password: password,
		Traits:   map[string]interface{}{"email": email},
	}

	result, _, err := p.client.PublicAPI().FrontendAPI.
		UpdateRegistrationFlow(ctx).
		Flow(flow.Id).
		UpdateRegistrationFlowBody(
			kratosclient.UpdateRegistrationFlowWithPasswordMethodAsUpdateRegistrationFlowBody(&method),
		).
		Execute()
	if err != nil {
		p.logger.Warn("registration flow failed", "flow_id", flow.Id, "error", err)
		return nil, mapFlowError(err, opRegistration)
	}

	if result.SessionToken != nil {
		p.setSessionToken(*result.SessionToken)
	}

	identity := identityFromKratos(&result.Identity)
	p.logger.Info("account created", "identity_id", identity.ID)
	return identity, nil
}

// SignIn authenticates an email/password credential.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	defer p.publishCurrent(ctx)

	flow, _, err := p.client.PublicAPI().FrontendAPI.CreateNativeLoginFlow(ctx).Execute()
	if err != nil {
		return nil, mapFlowError(err, opLogin)
	}

	method := kratosclient.UpdateLoginFlowWithPasswordMethod{
		Method:     "password",
		Identifier: email,
		Password:   password,
	}

	result, _, err := p.client.PublicAPI().FrontendAPI.
		UpdateLoginFlow(ctx).
		Flow(flow.Id).
		UpdateLoginFlowBody(
			kratosclient.UpdateLoginFlowWithPasswordMethodAsUpdateLoginFlowBody(&method),
		).
		Execute()
	if err != nil {
		mapped := mapFlowError(err, opLogin)
		// Kratos reports unknown accounts as invalid credentials. The
		// admin API can tell the two apart.
		if domain.AuthErrorCode(mapped) == domain.CodeInvalidCredentials && !p.identityExists(ctx, email) {
			return nil, domain.NewAuthError(domain.CodeUserNotFound, "user not found", err)
		}
		p.logger.Warn("login flow failed", "flow_id", flow.Id, "error", err)
		return nil, mapped
	}

	if result.SessionToken != nil {
		p.setSessionToken(*result.SessionToken)
	}

	identity := identityFromKratos(result.Session.Identity)
	p.logger.Info("signed in", "identity_id", identity.ID)
	return identity, nil
}

// FederatedSignInURL starts an OIDC login and returns the external
// consent URL Kratos asks the user agent to visit. The completed
// session arrives later, through the browser callback and the change
// stream. A failed start re-confirms the current state immediately so
// the stream never stays silent after an error.
func (p *Provider) FederatedSignInURL(ctx context.Context, provider, returnTo string) (string, error) {
	req := p.client.PublicAPI().FrontendAPI.CreateBrowserLoginFlow(ctx)
	if returnTo != "" {
		req = req.ReturnTo(returnTo)
	}

	flow, _, err := req.Execute()
	if err != nil {
		p.publishCurrent(ctx)
		return "", mapFlowError(err, opFederated)
	}

	method := kratosclient.UpdateLoginFlowWithOidcMethod{
		Method:   "oidc",
		Provider: provider,
	}

	_, _, err = p.client.PublicAPI().FrontendAPI.
		UpdateLoginFlow(ctx).
		Flow(flow.Id).
		UpdateLoginFlowBody(
			kratosclient.UpdateLoginFlowWithOidcMethodAsUpdateLoginFlowBody(&method),
		).
		Execute()

	// Kratos answers the OIDC submission with a browser-location-change
	// error carrying the consent URL. Anything else is a failure.
	if consentURL, ok := browserRedirectFrom(err); ok {
		p.logger.Info("federated sign-in started", "provider", provider)
		return consentURL, nil
	}

	p.publishCurrent(ctx)
	if err != nil {
		p.logger.Warn("federated sign-in failed", "provider", provider, "error", err)
		return "", mapFlowError(err, opFederated)
	}

	return "", domain.NewAuthError(domain.CodeProviderError, "provider did not return a consent URL", nil)
}

// SignOut revokes the current session. Signing out while signed out
// succeeds.
func (p *Provider) SignOut(ctx context.Context) error {
	defer p.publishCurrent(ctx)

	token := p.getSessionToken()
	if token == "" {
		return nil
	}

	body := kratosclient.PerformNativeLogoutBody{SessionToken: token}
	resp, err := p.client.PublicAPI().FrontendAPI.
		PerformNativeLogout(ctx).
		PerformNativeLogoutBody(body).
		Execute()

	p.setSessionToken("")

	if err != nil {
		// An already-revoked token means the session is gone, which is
		// exactly what the caller asked for.
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound) {
			return nil
		}
		return mapFlowError(err, opLogout)
	}

	p.logger.Info("signed out")
	return nil
}

// SendPasswordReset starts a recovery flow for the given address.
func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	if err := domain.ValidateEmail(email); err != nil {
		return err
	}

	if !p.identityExists(ctx, email) {
		return domain.NewAuthError(domain.CodeUserNotFound, "user not found", nil)
	}

	flow, _, err := p.client.PublicAPI().FrontendAPI.CreateNativeRecoveryFlow(ctx).Execute()
	if err != nil {
		return mapFlowError(err, opRecovery)
	}

	method := kratosclient.UpdateRecoveryFlowWithCodeMethod{
		Method: "code",
		Email:  &email,
	}

	_, _, err = p.client.PublicAPI().FrontendAPI.
		UpdateRecoveryFlow(ctx).
		Flow(flow.Id).
		UpdateRecoveryFlowBody(
			kratosclient.UpdateRecoveryFlowWithCodeMethodAsUpdateRecoveryFlowBody(&method),
		).
		Execute()
	if err != nil {
		return mapFlowError(err, opRecovery)
	}

	p.logger.Info("password reset sent", "email", email)
	return nil
}

// UpdateProfile mutates the signed-in identity's display name and
// photo through a settings flow.
func (p *Provider) UpdateProfile(ctx context.Context, displayName, photoURL string) (*domain.Identity, error) {
	token := p.getSessionToken()
	if token == "" {
		return nil, domain.NewAuthError(domain.CodeNotAuthenticated, "no authenticated identity", nil)
	}

	defer p.publishCurrent(ctx)

	flow, _, err := p.client.PublicAPI().FrontendAPI.
		CreateNativeSettingsFlow(ctx).
		XSessionToken(token).
		Execute()
	if err != nil {
		return nil, mapFlowError(err, opSettings)
	}

	traits := traitsFromFlow(flow)
	traits["name"] = displayName
	traits["picture"] = photoURL

	method := kratosclient.UpdateSettingsFlowWithProfileMethod{
		Method: "profile",
		Traits: traits,
	}

	updated, _, err := p.client.PublicAPI().FrontendAPI.
		UpdateSettingsFlow(ctx).
		Flow(flow.Id).
		XSessionToken(token).
		UpdateSettingsFlowBody(
			kratosclient.UpdateSettingsFlowWithProfileMethodAsUpdateSettingsFlowBody(&method),
		).
		Execute()
	if err != nil {
		return nil, mapFlowError(err, opSettings)
	}

	identity := identityFromKratos(&updated.Identity)
	p.logger.Info("profile updated", "identity_id", identity.ID)
	return identity, nil
}

// CurrentSession re-confirms the session with Kratos. A nil identity
// with nil error means signed out.
func (p *Provider) CurrentSession(ctx context.Context) (*domain.Identity, error) {
	token := p.getSessionToken()
	if token == "" {
		return nil, nil
	}
	return p.ValidateToken(ctx, token)
}

// ValidateToken confirms an arbitrary session token with Kratos.
func (p *Provider) ValidateToken(ctx context.Context, sessionToken string) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	session, resp, err := p.client.PublicAPI().FrontendAPI.
		ToSession(ctx).
		XSessionToken(sessionToken).
		Execute()
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, domain.ErrUnauthorized
		}
		return nil, mapFlowError(err, opWhoAmI)
	}

	if session.Active != nil && !*session.Active {
		return nil, domain.ErrUnauthorized
	}
	if session.Identity == nil {
		return nil, domain.ErrUnauthorized
	}

	return identityFromKratos(session.Identity), nil
}

// publishCurrent confirms the session state with Kratos and emits it
// on the change stream. Confirmation failures fail closed: the stream
// reports signed out.
func (p *Provider) publishCurrent(ctx context.Context) {
	identity, err := p.CurrentSession(ctx)
	if err != nil {
		p.logger.Warn("session confirmation failed, reporting signed out", "error", err)
		p.setSessionToken("")
		identity = nil
	}
	p.emit(identity)
}

func (p *Provider) emit(identity *domain.Identity) {
	select {
	case p.events <- domain.SessionChange{Identity: identity}:
	default:
		p.logger.Warn("change stream full, dropping notification")
	}
}

// identityExists asks the admin API whether a credential identifier is
// registered.
func (p *Provider) identityExists(ctx context.Context, email string) bool {
	identities, _, err := p.client.AdminAPI().IdentityAPI.
		ListIdentities(ctx).
		CredentialsIdentifier(email).
		Execute()
	if err != nil {
		// Without an answer, assume the account exists so the flow error
		// mapping stands.
		p.logger.Warn("identity lookup failed", "error", err)
		return true
	}
	return len(identities) > 0
}

func (p *Provider) setSessionToken(token string) {
	p.mu.Lock()
	p.sessionToken = token
	p.mu.Unlock()
}

func (p *Provider) getSessionToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionToken
}

// identityFromKratos converts a Kratos identity into the domain shape,
// reading the email/name/picture traits.
func identityFromKratos(identity *kratosclient.Identity) *domain.Identity {
	if identity == nil {
		return nil
	}

	result := &domain.Identity{ID: identity.Id}
	if traits, ok := identity.Traits.(map[string]interface{}); ok {
		result.Email = traitString(traits, "email")
		result.DisplayName = traitString(traits, "name")
		result.PhotoURL = traitString(traits, "picture")
	}
	return result
}

func traitString(traits map[string]interface{}, key string) string {
	if value, ok := traits[key].(string); ok {
		return value
	}
	return ""
}

// traitsFromFlow copies the identity traits out of a settings flow so
// a profile update does not clobber fields it is not changing.
func traitsFromFlow(flow *kratosclient.SettingsFlow) map[string]interface{} {
	traits := make(map[string]interface{})
	if existing, ok := flow.Identity.Traits.(map[string]interface{}); ok {
		for k, v := range existing {
			traits[k] = v
		}
	}
	return traits
}
