package portal

import (
	"context"
	"sync"
)

// AuthEventKind distinguishes session-change notifications.
type AuthEventKind string

const (
	AuthEventSignedIn  AuthEventKind = "signed_in"
	AuthEventSignedOut AuthEventKind = "signed_out"
)

// AuthEvent is delivered to subscribers on every sign-in/sign-out.
type AuthEvent struct {
	Kind     AuthEventKind
	Identity *User
}

// SessionContext is the single source of truth for "who is signed in" and
// "are we still determining that". It is owned by the application root and
// passed by reference to anything needing identity; there is no ambient
// global.
type SessionContext struct {
	mu            sync.RWMutex
	identity      *User
	bootstrapping bool
	closed        bool
	handlers      []func(AuthEvent)

	provider    SessionProvider
	provisioner ProfileProvisioner
	logger      Logger
}

// SessionContextOption customizes construction.
type SessionContextOption func(*SessionContext)

// WithSessionLogger overrides the logger.
func WithSessionLogger(l Logger) SessionContextOption {
	return func(s *SessionContext) {
		s.logger = normalizeLogger(l)
	}
}

// NewSessionContext builds a context in the bootstrapping state; call
// Initialize to resolve it.
func NewSessionContext(provider SessionProvider, provisioner ProfileProvisioner, opts ...SessionContextOption) *SessionContext {
	s := &SessionContext{
		provider:      provider,
		provisioner:   provisioner,
		bootstrapping: true,
		logger:        defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Initialize resolves an existing session token (usually read from the
// session cookie) into a published identity. Every failure path settles into
// the signed-out, not-bootstrapping state: the portal must always reach a
// decidable state rather than hang on the loading flag.
func (s *SessionContext) Initialize(ctx context.Context, token string) {
	if token == "" {
		s.settleSignedOut()
		return
	}

	principal, err := s.provider.CurrentSession(ctx, token)
	if err != nil {
		s.logger.Info("session bootstrap found no usable session", "error", err)
		s.settleSignedOut()
		return
	}

	if principal == nil {
		s.settleSignedOut()
		return
	}

	identity, err := s.provisioner.Provision(ctx, principal)
	if err != nil {
		s.logger.Error("profile provisioning failed during bootstrap", "error", err)
		s.settleSignedOut()
		return
	}

	s.PublishSignIn(identity)
}

// Identity returns the current identity, if any.
func (s *SessionContext) Identity() (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.identity != nil
}

// Bootstrapping reports whether the initial session resolution is still in
// flight.
func (s *SessionContext) Bootstrapping() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bootstrapping
}

// Subscribe registers a handler invoked on every subsequent sign-in/sign-out
// for the lifetime of the context. On sign-in it receives the freshly
// provisioned identity; on sign-out a nil identity.
func (s *SessionContext) Subscribe(handler func(AuthEvent)) {
	if handler == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.handlers = append(s.handlers, handler)
}

// SignIn returns the upstream OAuth authorization URL for the pre-registered
// callback. Errors are surfaced to the caller: initiating the flow is an
// interactive action and a visible failure is expected.
func (s *SessionContext) SignIn(redirectURL string) (string, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return "", ErrSessionClosed
	}

	return s.provider.SignInURL(redirectURL)
}

// SignOut invalidates the upstream session and clears the local identity.
// The caller is expected to discard any client-held state (cookie included)
// once this returns; provider errors are surfaced.
func (s *SessionContext) SignOut(ctx context.Context, token string) error {
	if err := s.provider.EndSession(ctx, token); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.identity = nil
	s.bootstrapping = false
	handlers := append([]func(AuthEvent){}, s.handlers...)
	s.mu.Unlock()

	for _, handler := range handlers {
		handler(AuthEvent{Kind: AuthEventSignedOut})
	}

	return nil
}

// PublishSignIn is the single path by which identity transitions from absent
// to present; the OAuth callback and the bootstrap both land here. It is a
// no-op once the context is closed, so late completions cannot write into a
// torn-down owner.
func (s *SessionContext) PublishSignIn(identity *User) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.identity = identity
	s.bootstrapping = false
	handlers := append([]func(AuthEvent){}, s.handlers...)
	s.mu.Unlock()

	for _, handler := range handlers {
		handler(AuthEvent{Kind: AuthEventSignedIn, Identity: identity})
	}
}

// Close marks the context disposed: pending completions become no-ops and no
// further handlers fire.
func (s *SessionContext) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.handlers = nil
}

func (s *SessionContext) settleSignedOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.identity = nil
	s.bootstrapping = false
}
