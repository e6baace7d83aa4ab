package portal

import (
	"context"
	"net/http"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// DefaultIdentityContextKey is the locals key holding the resolved User.
const DefaultIdentityContextKey = "identity"

// IdentityResolver turns a session token into the locally persisted user.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (*User, error)
}

// IdentityResolverFunc adapts a function to IdentityResolver.
type IdentityResolverFunc func(ctx context.Context, token string) (*User, error)

// ResolveIdentity implements IdentityResolver.
func (f IdentityResolverFunc) ResolveIdentity(ctx context.Context, token string) (*User, error) {
	if f == nil {
		return nil, ErrIdentityNotFound
	}
	return f(ctx, token)
}

// GateMiddleware enforces role/status requirements on routes. It resolves
// the session cookie into a User, runs the Gate decision, and either
// redirects, replies with a transitional payload, or passes through with
// the identity stored in request locals.
type GateMiddleware struct {
	gate          Gate
	resolver      IdentityResolver
	bootstrapping func() bool
	cookieName    string
	contextKey    string
	logger        Logger
}

// GateMiddlewareOption configures a GateMiddleware.
type GateMiddlewareOption func(*GateMiddleware)

// WithGateCookieName sets the session cookie name (default "portal_session").
func WithGateCookieName(name string) GateMiddlewareOption {
	return func(g *GateMiddleware) {
		if name != "" {
			g.cookieName = name
		}
	}
}

// WithGateContextKey sets the locals key for the resolved identity.
func WithGateContextKey(key string) GateMiddlewareOption {
	return func(g *GateMiddleware) {
		if key != "" {
			g.contextKey = key
		}
	}
}

// WithGateBootstrap wires the gate to a bootstrapping signal, typically
// SessionContext.Bootstrapping. While it reports true every protected
// route answers with the transitional loading payload instead of
// resolving the cookie.
func WithGateBootstrap(fn func() bool) GateMiddlewareOption {
	return func(g *GateMiddleware) {
		if fn != nil {
			g.bootstrapping = fn
		}
	}
}

// WithGateLogger sets the logger.
func WithGateLogger(logger Logger) GateMiddlewareOption {
	return func(g *GateMiddleware) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGateMiddleware creates the access-gate middleware.
func NewGateMiddleware(gate Gate, resolver IdentityResolver, opts ...GateMiddlewareOption) *GateMiddleware {
	g := &GateMiddleware{
		gate:       gate,
		resolver:   resolver,
		cookieName: "portal_session",
		contextKey: DefaultIdentityContextKey,
		logger:     defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Protected returns middleware enforcing the given requirement.
func (g *GateMiddleware) Protected(req GateRequirement) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			boot := g.isBootstrapping()

			var identity *User
			if !boot {
				identity = g.resolve(ctx)
			}

			decision := g.gate.Decide(identity, boot, req)

			switch decision.Outcome {
			case GateAllow:
				if identity != nil {
					ctx.Locals(g.contextKey, identity)
				}
				return next(ctx)
			case GateLoading:
				return ctx.JSON(http.StatusAccepted, map[string]any{
					"state": "loading",
				})
			default:
				return g.redirect(ctx, decision.Target)
			}
		}
	}
}

// IdentityFromContext returns the user stored by Protected, if any.
func IdentityFromContext(ctx router.Context) (*User, bool) {
	return IdentityFromContextKey(ctx, DefaultIdentityContextKey)
}

// IdentityFromContextKey returns the user stored under a custom locals key.
func IdentityFromContextKey(ctx router.Context, key string) (*User, bool) {
	value := ctx.Locals(key)
	if value == nil {
		return nil, false
	}

	user, ok := value.(*User)
	if !ok || user == nil {
		return nil, false
	}

	return user, true
}

func (g *GateMiddleware) isBootstrapping() bool {
	if g.bootstrapping == nil {
		return false
	}
	return g.bootstrapping()
}

func (g *GateMiddleware) resolve(ctx router.Context) *User {
	token := ctx.Cookies(g.cookieName)
	if token == "" {
		return nil
	}

	identity, err := g.resolver.ResolveIdentity(ctx.Context(), token)
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			g.logger.Debug("identity resolution failed",
				"text_code", richErr.TextCode,
				"path", ctx.OriginalURL(),
			)
		} else {
			g.logger.Debug("identity resolution failed", "error", err, "path", ctx.OriginalURL())
		}
		return nil
	}

	return identity
}

func (g *GateMiddleware) redirect(ctx router.Context, target string) error {
	statusCode := http.StatusSeeOther
	if ctx.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}
	return ctx.Redirect(target, statusCode)
}
