package portal_test

import (
	"context"

	"github.com/campuskit/portal"
	"github.com/stretchr/testify/mock"
)

type MockSessionProvider struct {
	mock.Mock
}

func (m *MockSessionProvider) CurrentSession(ctx context.Context, token string) (*portal.Principal, error) {
	args := m.Called(ctx, token)
	if principal, ok := args.Get(0).(*portal.Principal); ok {
		return principal, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionProvider) SignInURL(redirectURL string) (string, error) {
	args := m.Called(redirectURL)
	return args.String(0), args.Error(1)
}

func (m *MockSessionProvider) EndSession(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

type MockProvisioner struct {
	mock.Mock
}

func (m *MockProvisioner) Provision(ctx context.Context, principal *portal.Principal) (*portal.User, error) {
	args := m.Called(ctx, principal)
	if user, ok := args.Get(0).(*portal.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event portal.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
