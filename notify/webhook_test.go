package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/campuskit/portal"
	"github.com/campuskit/portal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	contentType string
	body        map[string]any
}

func webhookServer(t *testing.T, status int, captured *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			captured.contentType = r.Header.Get("Content-Type")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured.body))
		}
		w.WriteHeader(status)
	}))
}

func TestWebhookRecordPostsEmbed(t *testing.T) {
	captured := &capturedRequest{}
	srv := webhookServer(t, http.StatusNoContent, captured)
	defer srv.Close()

	sink := notify.NewDiscordWebhook(srv.URL, notify.WithUsername("Campus Bot"))

	event := portal.ActivityEvent{
		EventType:  portal.ActivityEventRegistered,
		UserID:     "user-1",
		Username:   "kara",
		DiscordID:  "discord-42",
		Avatar:     "https://cdn.example.com/a.png",
		Role:       portal.RoleApplicant,
		Status:     portal.StatusPending,
		OccurredAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, sink.Record(context.Background(), event))

	assert.Equal(t, "application/json", captured.contentType)
	assert.Equal(t, "Campus Bot", captured.body["username"])

	embeds, ok := captured.body["embeds"].([]any)
	require.True(t, ok)
	require.Len(t, embeds, 1)

	embed := embeds[0].(map[string]any)
	assert.Equal(t, "New member registered", embed["title"])
	assert.Contains(t, embed["description"], "kara")
	assert.Equal(t, float64(0x57F287), embed["color"])
	assert.Equal(t, "2025-06-01T12:00:00Z", embed["timestamp"])

	thumbnail := embed["thumbnail"].(map[string]any)
	assert.Equal(t, "https://cdn.example.com/a.png", thumbnail["url"])

	fields := embed["fields"].([]any)
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.(map[string]any)["name"].(string))
	}
	assert.Contains(t, names, "Role")
	assert.Contains(t, names, "Status")
	assert.Contains(t, names, "Discord")
}

func TestWebhookRecordEventColors(t *testing.T) {
	cases := []struct {
		eventType portal.ActivityEventType
		color     int
	}{
		{portal.ActivityEventRegistered, 0x57F287},
		{portal.ActivityEventLogin, 0x5865F2},
		{portal.ActivityEventRoleChanged, 0xFEE75C},
		{portal.ActivityEventSignOut, 0x99AAB5},
	}

	for _, tc := range cases {
		t.Run(string(tc.eventType), func(t *testing.T) {
			captured := &capturedRequest{}
			srv := webhookServer(t, http.StatusNoContent, captured)
			defer srv.Close()

			sink := notify.NewDiscordWebhook(srv.URL)
			event := portal.ActivityEvent{
				EventType: tc.eventType,
				UserID:    "user-1",
				Username:  "kara",
			}
			require.NoError(t, sink.Record(context.Background(), event))

			embeds := captured.body["embeds"].([]any)
			embed := embeds[0].(map[string]any)
			assert.Equal(t, float64(tc.color), embed["color"])
		})
	}
}

func TestWebhookRecordErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message": "rate limited"}`))
	}))
	defer srv.Close()

	sink := notify.NewDiscordWebhook(srv.URL)
	err := sink.Record(context.Background(), portal.ActivityEvent{
		EventType: portal.ActivityEventLogin,
		UserID:    "user-1",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestWebhookRecordEmptyURLIsNoop(t *testing.T) {
	sink := notify.NewDiscordWebhook("")
	err := sink.Record(context.Background(), portal.ActivityEvent{
		EventType: portal.ActivityEventLogin,
		UserID:    "user-1",
	})
	assert.NoError(t, err)
}

func TestWebhookRecordUnreachableHost(t *testing.T) {
	srv := webhookServer(t, http.StatusNoContent, nil)
	url := srv.URL
	srv.Close()

	sink := notify.NewDiscordWebhook(url)
	err := sink.Record(context.Background(), portal.ActivityEvent{
		EventType: portal.ActivityEventLogin,
		UserID:    "user-1",
	})
	assert.Error(t, err)
}
