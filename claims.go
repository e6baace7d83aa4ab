package portal

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Claims is the typed optional-field view of what the upstream OAuth provider
// reports about a principal. Fields are best-effort; derived values resolve
// through explicit fallback chains instead of ad hoc null-coalescing.
type Claims struct {
	FullName          string         `json:"full_name,omitempty"`
	Name              string         `json:"name,omitempty"`
	PreferredUsername string         `json:"preferred_username,omitempty"`
	Email             string         `json:"email,omitempty"`
	AvatarURL         string         `json:"avatar_url,omitempty"`
	Picture           string         `json:"picture,omitempty"`
	ProviderID        string         `json:"provider_id,omitempty"`
	Subject           string         `json:"sub,omitempty"`
	Custom            map[string]any `json:"custom,omitempty"`
}

// DefaultUsername is the terminal fallback when no claim yields a display name.
const DefaultUsername = "User"

// placeholderAvatarCount bounds the pseudo-random placeholder index.
const placeholderAvatarCount = 6

// ResolveUsername derives the display name: full-name claim, then name, then
// preferred username, then the email local-part, then DefaultUsername.
func (c *Claims) ResolveUsername() string {
	if c == nil {
		return DefaultUsername
	}

	if name := firstNonEmpty(c.FullName, c.Name, c.PreferredUsername); name != "" {
		return name
	}

	if c.Email != "" && strings.Contains(c.Email, "@") {
		if local := strings.SplitN(c.Email, "@", 2)[0]; local != "" {
			return local
		}
	}

	return DefaultUsername
}

// ResolveAvatar derives the avatar candidate from the avatar-url claim, then
// the picture claim. It returns "" when neither is present so callers can
// distinguish "no candidate" from a real URL; creation falls back to
// PlaceholderAvatar, reconciliation leaves the stored value alone.
func (c *Claims) ResolveAvatar() string {
	if c == nil {
		return ""
	}
	return firstNonEmpty(c.AvatarURL, c.Picture)
}

// ResolveDiscordID derives the external-provider identifier: provider-id
// claim, then subject, then the nested custom_claims.provider_id path, then
// absent ("").
func (c *Claims) ResolveDiscordID() string {
	if c == nil {
		return ""
	}

	if id := firstNonEmpty(c.ProviderID, c.Subject); id != "" {
		return id
	}

	return claimPath(c.Custom, "custom_claims", "provider_id")
}

// PlaceholderAvatar returns a deterministic placeholder URL keyed by a
// pseudo-random index in [0,6).
func PlaceholderAvatar() string {
	return PlaceholderAvatarAt(rand.IntN(placeholderAvatarCount))
}

// PlaceholderAvatarAt returns the placeholder URL for a specific index.
func PlaceholderAvatarAt(index int) string {
	if index < 0 || index >= placeholderAvatarCount {
		index = 0
	}
	return fmt.Sprintf("https://cdn.discordapp.com/embed/avatars/%d.png", index)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// claimPath walks nested string-keyed maps and returns the string leaf, or ""
// when any hop is missing or the wrong shape.
func claimPath(custom map[string]any, keys ...string) string {
	if len(keys) == 0 {
		return ""
	}

	current := any(custom)
	for _, key := range keys {
		node, ok := current.(map[string]any)
		if !ok || node == nil {
			return ""
		}
		current, ok = node[key]
		if !ok {
			return ""
		}
	}

	if leaf, ok := current.(string); ok {
		return leaf
	}
	return ""
}
