package oauth_test

import (
	"context"

	"github.com/campuskit/portal"
	"github.com/campuskit/portal/oauth"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindByID(ctx context.Context, id uuid.UUID) (*portal.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*portal.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) FindByPrincipal(ctx context.Context, discordID string) (*portal.User, error) {
	args := m.Called(ctx, discordID)
	if user, ok := args.Get(0).(*portal.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

// Create echoes the inserted record when configured with Return(nil, nil),
// mirroring how the real repository returns the persisted row.
func (m *MockUserStore) Create(ctx context.Context, record *portal.User, criteria ...repository.InsertCriteria) (*portal.User, error) {
	args := m.Called(ctx, record)
	if user, ok := args.Get(0).(*portal.User); ok {
		return user, args.Error(1)
	}
	if args.Error(1) == nil {
		return record, nil
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) UpdateAvatar(ctx context.Context, id uuid.UUID, avatar string) error {
	args := m.Called(ctx, id, avatar)
	return args.Error(0)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	return "discord"
}

func (m *MockProvider) AuthCodeURL(state string, opts ...oauth.AuthCodeOption) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockProvider) Exchange(ctx context.Context, code string, opts ...oauth.ExchangeOption) (*oauth.Token, error) {
	args := m.Called(ctx, code)
	if token, ok := args.Get(0).(*oauth.Token); ok {
		return token, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) UserInfo(ctx context.Context, token *oauth.Token) (*portal.Claims, error) {
	args := m.Called(ctx, token)
	if claims, ok := args.Get(0).(*portal.Claims); ok {
		return claims, args.Error(1)
	}
	return nil, args.Error(1)
}

type recordedEvent struct {
	eventType portal.ActivityEventType
	userID    string
}

type captureSink struct {
	events []recordedEvent
}

func (s *captureSink) Record(ctx context.Context, event portal.ActivityEvent) error {
	s.events = append(s.events, recordedEvent{
		eventType: event.EventType,
		userID:    event.UserID,
	})
	return nil
}
