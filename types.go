package portal

import (
	"context"
	"fmt"
)

// Logger is the narrow logging surface portal packages depend on. The
// composition root passes a glog logger; zero-value consumers fall back to
// defLogger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Principal is the upstream-authenticated subject before local profile
// resolution: the provider-issued identifier plus the claims bag captured at
// sign-in time.
type Principal struct {
	ID     string
	Claims *Claims
}

// SessionProvider is the upstream auth/session collaborator: it resolves an
// existing session token into a Principal, produces the OAuth entry URL, and
// invalidates sessions.
type SessionProvider interface {
	CurrentSession(ctx context.Context, token string) (*Principal, error)
	SignInURL(redirectURL string) (string, error)
	EndSession(ctx context.Context, token string) error
}

// ProfileProvisioner turns an upstream Principal into the locally persisted
// User record, creating it on first sign-in and reconciling the avatar on
// subsequent ones.
type ProfileProvisioner interface {
	Provision(ctx context.Context, principal *Principal) (*User, error)
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Println(append([]any{"[ERR] PORTAL", msg}, args...)...)
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Println(append([]any{"[INF] PORTAL", msg}, args...)...)
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Println(append([]any{"[DBG] PORTAL", msg}, args...)...)
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}

// DefaultLogger returns the stdout fallback logger.
func DefaultLogger() Logger {
	return defLogger{}
}
