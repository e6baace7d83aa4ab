package oauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campuskit/portal"
)

// Authenticator orchestrates the OAuth sign-in flow against a single
// provider and implements portal.SessionProvider for session resolution.
type Authenticator struct {
	provider     Provider
	stateManager StateManager
	tokenService *TokenService
	provisioner  portal.ProfileProvisioner
	logger       portal.Logger
	config       Config
}

// Config configures the authenticator.
type Config struct {
	// CallbackURL is the absolute URL the provider redirects back to.
	CallbackURL string
	// DefaultRedirectURL is where users land after sign-in when the flow
	// did not carry an explicit destination.
	DefaultRedirectURL string
	StateEncryptionKey []byte
	StateHMACKey       []byte
	StateTTL           time.Duration
	SigningKey         []byte
	Issuer             string
	Audience           string
	SessionDuration    time.Duration
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithStateManager sets a custom state manager.
func WithStateManager(sm StateManager) Option {
	return func(a *Authenticator) {
		a.stateManager = sm
	}
}

// WithTokenService sets a custom session token codec.
func WithTokenService(ts *TokenService) Option {
	return func(a *Authenticator) {
		a.tokenService = ts
	}
}

// WithLogger sets the logger.
func WithLogger(logger portal.Logger) Option {
	return func(a *Authenticator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAuthenticator creates an authenticator for the given provider.
func NewAuthenticator(provider Provider, provisioner portal.ProfileProvisioner, config Config, opts ...Option) *Authenticator {
	cfg := config
	if cfg.StateTTL == 0 {
		cfg.StateTTL = 10 * time.Minute
	}
	if cfg.DefaultRedirectURL == "" {
		cfg.DefaultRedirectURL = "/"
	}

	a := &Authenticator{
		provider:    provider,
		provisioner: provisioner,
		logger:      portal.DefaultLogger(),
		config:      cfg,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	if a.stateManager == nil {
		a.stateManager = NewEncryptedStateManager(
			cfg.StateEncryptionKey,
			cfg.StateHMACKey,
			cfg.StateTTL,
		)
	}

	if a.tokenService == nil {
		a.tokenService = NewTokenService(cfg.SigningKey, cfg.Issuer, cfg.Audience, cfg.SessionDuration)
	}

	return a
}

// AuthRedirect contains the authorization URL for redirecting users.
type AuthRedirect struct {
	URL      string
	State    string
	Provider string
}

// AuthResult contains the result of a completed authentication.
type AuthResult struct {
	User        *portal.User
	Principal   *portal.Principal
	Token       string
	Provider    string
	RedirectURL string
}

// BeginAuth starts the OAuth flow and returns the provider redirect.
func (a *Authenticator) BeginAuth(ctx context.Context, redirectURL string) (*AuthRedirect, error) {
	if a.stateManager == nil {
		return nil, ErrInvalidState
	}

	if redirectURL == "" {
		redirectURL = a.config.DefaultRedirectURL
	}

	codeVerifier, err := generateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}
	codeChallenge := computeCodeChallenge(codeVerifier)

	state := &AuthState{
		Nonce:        generateNonce(),
		Provider:     a.provider.Name(),
		CodeVerifier: codeVerifier,
		RedirectURL:  redirectURL,
		IssuedAt:     time.Now().Unix(),
		ExpiresAt:    time.Now().Add(a.config.StateTTL).Unix(),
	}

	stateToken, err := a.stateManager.Encode(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}

	authURL := a.provider.AuthCodeURL(stateToken, WithPKCE(codeChallenge, "S256"))

	return &AuthRedirect{
		URL:      authURL,
		State:    stateToken,
		Provider: a.provider.Name(),
	}, nil
}

// CompleteAuth finishes the OAuth flow after the provider callback: it
// verifies the state, exchanges the code, fetches the claims bag,
// provisions the local user, and mints a session token.
func (a *Authenticator) CompleteAuth(ctx context.Context, code, stateToken string) (*AuthResult, error) {
	if a.stateManager == nil {
		return nil, ErrInvalidState
	}

	state, err := a.stateManager.Decode(stateToken)
	if err != nil {
		if errors.Is(err, ErrStateExpired) {
			return nil, ErrStateExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if state.Provider != a.provider.Name() {
		return nil, fmt.Errorf("%w: provider mismatch", ErrInvalidState)
	}

	token, err := a.provider.Exchange(ctx, code, WithCodeVerifier(state.CodeVerifier))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchangeFailed, err)
	}

	claims, err := a.provider.UserInfo(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfoFailed, err)
	}

	principalID := claims.ResolveDiscordID()
	if principalID == "" {
		return nil, ErrMissingPrincipal
	}

	principal := &portal.Principal{ID: principalID, Claims: claims}

	user, err := a.provisioner.Provision(ctx, principal)
	if err != nil {
		return nil, err
	}

	sessionToken, err := a.tokenService.Generate(principal)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:        user,
		Principal:   principal,
		Token:       sessionToken,
		Provider:    a.provider.Name(),
		RedirectURL: state.RedirectURL,
	}, nil
}

// CurrentSession implements portal.SessionProvider. It verifies the
// session token and returns the embedded principal.
func (a *Authenticator) CurrentSession(ctx context.Context, token string) (*portal.Principal, error) {
	if token == "" {
		return nil, portal.ErrUnableToFindSession
	}

	principal, err := a.tokenService.Parse(token)
	if err != nil {
		return nil, err
	}

	return principal, nil
}

// SignInURL implements portal.SessionProvider.
func (a *Authenticator) SignInURL(redirectURL string) (string, error) {
	redirect, err := a.BeginAuth(context.Background(), redirectURL)
	if err != nil {
		return "", err
	}
	return redirect.URL, nil
}

// EndSession implements portal.SessionProvider. Sessions are stateless
// JWTs, so ending one is a client-side cookie removal; the hook exists so
// revocation-capable providers can drop in.
func (a *Authenticator) EndSession(ctx context.Context, token string) error {
	return nil
}
