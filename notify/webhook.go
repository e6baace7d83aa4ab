package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/campuskit/portal"
)

// Embed colors per event type, Discord's decimal color scheme.
const (
	colorRegistered  = 0x57F287
	colorLogin       = 0x5865F2
	colorRoleChanged = 0xFEE75C
	colorSignOut     = 0x99AAB5
)

// DiscordWebhook posts activity events to a Discord webhook as rich
// embeds. It implements portal.ActivitySink; callers are expected to
// front it with a portal.ActivityDispatcher so delivery never blocks the
// request path.
type DiscordWebhook struct {
	webhookURL string
	username   string
	httpClient *http.Client
	logger     portal.Logger
}

// DiscordWebhookOption configures a DiscordWebhook.
type DiscordWebhookOption func(*DiscordWebhook)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) DiscordWebhookOption {
	return func(w *DiscordWebhook) {
		if client != nil {
			w.httpClient = client
		}
	}
}

// WithUsername overrides the webhook display name.
func WithUsername(username string) DiscordWebhookOption {
	return func(w *DiscordWebhook) {
		w.username = username
	}
}

// WithLogger sets the logger.
func WithLogger(logger portal.Logger) DiscordWebhookOption {
	return func(w *DiscordWebhook) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewDiscordWebhook creates a webhook sink for the given URL.
func NewDiscordWebhook(webhookURL string, opts ...DiscordWebhookOption) *DiscordWebhook {
	w := &DiscordWebhook{
		webhookURL: webhookURL,
		username:   "Portal",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     portal.DefaultLogger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}

	return w
}

// Record implements portal.ActivitySink.
func (w *DiscordWebhook) Record(ctx context.Context, event portal.ActivityEvent) error {
	if w.webhookURL == "" {
		return nil
	}

	payload := webhookPayload{
		Username: w.username,
		Embeds:   []embed{buildEmbed(event)},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(detail))
	}

	return nil
}

func buildEmbed(event portal.ActivityEvent) embed {
	e := embed{
		Title:       embedTitle(event.EventType),
		Description: embedDescription(event),
		Color:       embedColor(event.EventType),
		Footer:      &embedFooter{Text: fmt.Sprintf("user %s", event.UserID)},
	}

	if !event.OccurredAt.IsZero() {
		e.Timestamp = event.OccurredAt.UTC().Format(time.RFC3339)
	}

	if event.Avatar != "" {
		e.Thumbnail = &embedThumbnail{URL: event.Avatar}
	}

	if event.Role != "" {
		e.Fields = append(e.Fields, embedField{Name: "Role", Value: string(event.Role), Inline: true})
	}
	if event.Status != "" {
		e.Fields = append(e.Fields, embedField{Name: "Status", Value: string(event.Status), Inline: true})
	}
	if event.DiscordID != "" {
		e.Fields = append(e.Fields, embedField{Name: "Discord", Value: event.DiscordID, Inline: true})
	}

	for key, value := range event.Metadata {
		e.Fields = append(e.Fields, embedField{
			Name:   key,
			Value:  fmt.Sprintf("%v", value),
			Inline: true,
		})
	}

	return e
}

func embedTitle(eventType portal.ActivityEventType) string {
	switch eventType {
	case portal.ActivityEventRegistered:
		return "New member registered"
	case portal.ActivityEventLogin:
		return "Member signed in"
	case portal.ActivityEventRoleChanged:
		return "Member role updated"
	case portal.ActivityEventSignOut:
		return "Member signed out"
	default:
		return string(eventType)
	}
}

func embedDescription(event portal.ActivityEvent) string {
	name := event.Username
	if name == "" {
		name = event.UserID
	}

	switch event.EventType {
	case portal.ActivityEventRegistered:
		return fmt.Sprintf("**%s** joined the portal.", name)
	case portal.ActivityEventLogin:
		return fmt.Sprintf("**%s** signed in.", name)
	case portal.ActivityEventRoleChanged:
		return fmt.Sprintf("**%s** is now %s (%s).", name, event.Role, event.Status)
	case portal.ActivityEventSignOut:
		return fmt.Sprintf("**%s** signed out.", name)
	default:
		return name
	}
}

func embedColor(eventType portal.ActivityEventType) int {
	switch eventType {
	case portal.ActivityEventRegistered:
		return colorRegistered
	case portal.ActivityEventLogin:
		return colorLogin
	case portal.ActivityEventRoleChanged:
		return colorRoleChanged
	case portal.ActivityEventSignOut:
		return colorSignOut
	default:
		return colorLogin
	}
}

type webhookPayload struct {
	Username string  `json:"username,omitempty"`
	Embeds   []embed `json:"embeds"`
}

type embed struct {
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	Color       int             `json:"color,omitempty"`
	Timestamp   string          `json:"timestamp,omitempty"`
	Fields      []embedField    `json:"fields,omitempty"`
	Footer      *embedFooter    `json:"footer,omitempty"`
	Thumbnail   *embedThumbnail `json:"thumbnail,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embedThumbnail struct {
	URL string `json:"url"`
}
