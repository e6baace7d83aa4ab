package config_test

import (
	"testing"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/stretchr/testify/assert"

	"github.com/campuskit/portal/config"
)

// The composition root hands the persistence section straight to
// persistence.New, so it has to satisfy the client's Config interface.
var _ persistence.Config = config.Persistence{}

func TestPersistenceAccessors(t *testing.T) {
	pcfg := config.Persistence{
		Driver:                "sqlite",
		Server:                "file::memory:",
		DSN:                   "file::memory:?cache=shared",
		Debug:                 true,
		PingTimeoutExpression: "10s",
		OtelIdentifier:        "portal-test",
	}

	assert.Equal(t, "sqlite", pcfg.GetDriver())
	assert.Equal(t, "file::memory:", pcfg.GetServer())
	assert.Equal(t, "file::memory:?cache=shared", pcfg.GetDSN())
	assert.True(t, pcfg.GetDebug())
	assert.Equal(t, 10*time.Second, pcfg.GetPingTimeout())
	assert.Equal(t, "portal-test", pcfg.GetOtelIdentifier())
}

func TestPersistenceDefaults(t *testing.T) {
	pcfg := config.Persistence{}

	assert.Equal(t, 5*time.Second, pcfg.GetPingTimeout())
	assert.Equal(t, "portal", pcfg.GetOtelIdentifier())
	assert.Empty(t, pcfg.GetServer())
}

func TestAuthDefaults(t *testing.T) {
	acfg := config.Auth{}

	assert.Equal(t, "portal_session", acfg.GetCookieName())
	assert.Equal(t, "/auth/signin", acfg.GetSignInPath())
	assert.Equal(t, "/", acfg.GetLandingPath())
	assert.Equal(t, 24*time.Hour, acfg.GetSessionDuration())
}

func TestValidateRequiresSecrets(t *testing.T) {
	acfg := config.Auth{
		SigningKey:            "0123456789abcdef0123456789abcdef",
		OAuthCallbackURL:      "http://localhost:8080/auth/discord/callback",
		StateEncryptionSecret: "0123456789abcdef0123456789abcdef",
		StateHMACSecret:       "0123456789abcdef0123456789abcdef",
	}
	assert.NoError(t, acfg.Validate())

	acfg.SigningKey = "too-short"
	assert.Error(t, acfg.Validate())
}
