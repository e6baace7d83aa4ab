package portal_test

import (
	"strings"
	"testing"

	"github.com/campuskit/portal"
	"github.com/stretchr/testify/assert"
)

func TestResolveUsernameFallbackChain(t *testing.T) {
	tests := []struct {
		name     string
		claims   *portal.Claims
		expected string
	}{
		{
			name:     "full name wins",
			claims:   &portal.Claims{FullName: "Ada Lovelace", Name: "ada", PreferredUsername: "ada_l"},
			expected: "Ada Lovelace",
		},
		{
			name:     "name before preferred username",
			claims:   &portal.Claims{Name: "ada", PreferredUsername: "ada_l"},
			expected: "ada",
		},
		{
			name:     "preferred username before email",
			claims:   &portal.Claims{PreferredUsername: "ada_l", Email: "ada@example.com"},
			expected: "ada_l",
		},
		{
			name:     "email local part",
			claims:   &portal.Claims{Email: "ada@example.com"},
			expected: "ada",
		},
		{
			name:     "terminal fallback",
			claims:   &portal.Claims{},
			expected: portal.DefaultUsername,
		},
		{
			name:     "nil claims",
			claims:   nil,
			expected: portal.DefaultUsername,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.claims.ResolveUsername())
		})
	}
}

func TestResolveAvatarPrefersAvatarURL(t *testing.T) {
	claims := &portal.Claims{AvatarURL: "https://cdn.example.com/a.png", Picture: "https://cdn.example.com/b.png"}
	assert.Equal(t, "https://cdn.example.com/a.png", claims.ResolveAvatar())
}

func TestResolveAvatarFallsBackToPicture(t *testing.T) {
	claims := &portal.Claims{Picture: "https://cdn.example.com/b.png"}
	assert.Equal(t, "https://cdn.example.com/b.png", claims.ResolveAvatar())
}

func TestResolveAvatarEmptyWhenAbsent(t *testing.T) {
	assert.Empty(t, (&portal.Claims{}).ResolveAvatar())
	assert.Empty(t, (*portal.Claims)(nil).ResolveAvatar())
}

func TestResolveDiscordIDFallbackChain(t *testing.T) {
	claims := &portal.Claims{ProviderID: "123", Subject: "456"}
	assert.Equal(t, "123", claims.ResolveDiscordID())

	claims = &portal.Claims{Subject: "456"}
	assert.Equal(t, "456", claims.ResolveDiscordID())

	claims = &portal.Claims{
		Custom: map[string]any{
			"custom_claims": map[string]any{"provider_id": "789"},
		},
	}
	assert.Equal(t, "789", claims.ResolveDiscordID())

	assert.Empty(t, (&portal.Claims{}).ResolveDiscordID())
}

func TestResolveDiscordIDIgnoresMalformedCustomClaims(t *testing.T) {
	claims := &portal.Claims{
		Custom: map[string]any{
			"custom_claims": "not-a-map",
		},
	}
	assert.Empty(t, claims.ResolveDiscordID())

	claims = &portal.Claims{
		Custom: map[string]any{
			"custom_claims": map[string]any{"provider_id": 42},
		},
	}
	assert.Empty(t, claims.ResolveDiscordID())
}

func TestPlaceholderAvatarAtBoundsIndex(t *testing.T) {
	assert.Equal(t, "https://cdn.discordapp.com/embed/avatars/0.png", portal.PlaceholderAvatarAt(0))
	assert.Equal(t, "https://cdn.discordapp.com/embed/avatars/5.png", portal.PlaceholderAvatarAt(5))
	assert.Equal(t, "https://cdn.discordapp.com/embed/avatars/0.png", portal.PlaceholderAvatarAt(-1))
	assert.Equal(t, "https://cdn.discordapp.com/embed/avatars/0.png", portal.PlaceholderAvatarAt(6))
}

func TestPlaceholderAvatarStaysInRange(t *testing.T) {
	for i := 0; i < 50; i++ {
		url := portal.PlaceholderAvatar()
		assert.True(t, strings.HasPrefix(url, "https://cdn.discordapp.com/embed/avatars/"))
		assert.True(t, strings.HasSuffix(url, ".png"))
	}
}
