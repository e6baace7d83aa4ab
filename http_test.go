package portal_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/portal"
)

// routerContext renames the embedded interface so the field does not
// collide with the stub's Context() method.
type routerContext = router.Context

// stubRouterContext covers the slice of router.Context the gate middleware
// touches; everything else panics via the embedded nil interface.
type stubRouterContext struct {
	routerContext

	method string
	cookie string
	locals map[string]any

	jsonStatus int
	jsonBody   any

	redirectTarget string
	redirectStatus int
}

func newStubRouterContext(method, cookie string) *stubRouterContext {
	return &stubRouterContext{
		method: method,
		cookie: cookie,
		locals: map[string]any{},
	}
}

func (s *stubRouterContext) Method() string { return s.method }

func (s *stubRouterContext) Context() context.Context { return context.Background() }

func (s *stubRouterContext) OriginalURL() string { return "/api/users" }

func (s *stubRouterContext) Cookies(key string, defaultValue ...string) string {
	if s.cookie != "" {
		return s.cookie
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (s *stubRouterContext) JSON(code int, val any) error {
	s.jsonStatus = code
	s.jsonBody = val
	return nil
}

func (s *stubRouterContext) Redirect(path string, status ...int) error {
	s.redirectTarget = path
	if len(status) > 0 {
		s.redirectStatus = status[0]
	} else {
		s.redirectStatus = http.StatusFound
	}
	return nil
}

func (s *stubRouterContext) Locals(key any, value ...any) any {
	name, ok := key.(string)
	if !ok {
		return nil
	}
	if len(value) > 0 {
		s.locals[name] = value[0]
		return value[0]
	}
	return s.locals[name]
}

func staticResolver(user *portal.User, err error) portal.IdentityResolverFunc {
	return func(ctx context.Context, token string) (*portal.User, error) {
		return user, err
	}
}

func runProtected(mw *portal.GateMiddleware, req portal.GateRequirement, ctx router.Context) (bool, error) {
	called := false
	handler := mw.Protected(req)(func(router.Context) error {
		called = true
		return nil
	})
	err := handler(ctx)
	return called, err
}

func TestGateMiddlewareAllowsAndStoresIdentity(t *testing.T) {
	identity := &portal.User{Role: portal.RoleAdmin, Status: portal.StatusAccepted}
	mw := portal.NewGateMiddleware(portal.Gate{}, staticResolver(identity, nil))

	ctx := newStubRouterContext("GET", "session-token")

	called, err := runProtected(mw, portal.GateRequirement{
		Roles: []portal.Role{portal.RoleAdmin},
	}, ctx)

	require.NoError(t, err)
	assert.True(t, called)

	stored, ok := portal.IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, identity, stored)
}

func TestGateMiddlewareRedirectsAnonymousToSignIn(t *testing.T) {
	mw := portal.NewGateMiddleware(
		portal.Gate{SignInPath: "/auth/signin"},
		staticResolver(nil, portal.ErrIdentityNotFound),
	)

	ctx := newStubRouterContext("GET", "")

	called, err := runProtected(mw, portal.GateRequirement{}, ctx)

	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, "/auth/signin", ctx.redirectTarget)
	assert.Equal(t, http.StatusFound, ctx.redirectStatus)
}

func TestGateMiddlewareRedirectsNonGETWithSeeOther(t *testing.T) {
	mw := portal.NewGateMiddleware(
		portal.Gate{SignInPath: "/auth/signin"},
		staticResolver(nil, nil),
	)

	ctx := newStubRouterContext("POST", "")

	called, err := runProtected(mw, portal.GateRequirement{}, ctx)

	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, http.StatusSeeOther, ctx.redirectStatus)
}

func TestGateMiddlewareRoleMissRedirectsLanding(t *testing.T) {
	identity := &portal.User{Role: portal.RoleStudent, Status: portal.StatusAccepted}
	mw := portal.NewGateMiddleware(
		portal.Gate{LandingPath: "/home"},
		staticResolver(identity, nil),
	)

	ctx := newStubRouterContext("GET", "session-token")

	called, err := runProtected(mw, portal.GateRequirement{
		Roles: []portal.Role{portal.RoleStaff, portal.RoleAdmin},
	}, ctx)

	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, "/home", ctx.redirectTarget)
}

func TestGateMiddlewareBootstrapAnswersLoading(t *testing.T) {
	session := portal.NewSessionContext(&MockSessionProvider{}, &MockProvisioner{})

	resolved := false
	resolver := portal.IdentityResolverFunc(func(ctx context.Context, token string) (*portal.User, error) {
		resolved = true
		return nil, portal.ErrIdentityNotFound
	})

	mw := portal.NewGateMiddleware(portal.Gate{}, resolver,
		portal.WithGateBootstrap(session.Bootstrapping),
	)

	ctx := newStubRouterContext("GET", "session-token")

	// Session still bootstrapping: the gate must answer with the
	// transitional payload without touching the resolver.
	called, err := runProtected(mw, portal.GateRequirement{}, ctx)
	require.NoError(t, err)
	assert.False(t, called)
	assert.False(t, resolved)
	assert.Equal(t, http.StatusAccepted, ctx.jsonStatus)
	assert.Equal(t, map[string]any{"state": "loading"}, ctx.jsonBody)

	// Once the session settles the same middleware resolves normally.
	session.Initialize(context.Background(), "")

	ctx = newStubRouterContext("GET", "session-token")
	called, err = runProtected(mw, portal.GateRequirement{}, ctx)
	require.NoError(t, err)
	assert.False(t, called)
	assert.True(t, resolved)
	assert.Equal(t, "/auth/signin", ctx.redirectTarget)
}
