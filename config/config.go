package config

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// AppConfig is the root configuration container loaded by go-config from
// config files and environment overrides.
type AppConfig struct {
	Name        string      `json:"name" koanf:"name"`
	Env         string      `json:"env" koanf:"env"`
	Server      Server      `json:"server" koanf:"server"`
	Auth        Auth        `json:"auth" koanf:"auth"`
	Discord     Discord     `json:"discord" koanf:"discord"`
	Notify      Notify      `json:"notify" koanf:"notify"`
	Access      Access      `json:"access" koanf:"access"`
	Persistence Persistence `json:"persistence" koanf:"persistence"`
	Report      Report      `json:"report" koanf:"report"`
}

// Server holds HTTP listener settings.
type Server struct {
	Address string `json:"address" koanf:"address"`
}

// Auth holds session and OAuth-state secrets.
type Auth struct {
	SigningKey            string `json:"signing_key" koanf:"signing_key"`
	Issuer                string `json:"issuer" koanf:"issuer"`
	Audience              string `json:"audience" koanf:"audience"`
	CookieName            string `json:"cookie_name" koanf:"cookie_name"`
	CookieSecure          bool   `json:"cookie_secure" koanf:"cookie_secure"`
	SessionExpression     string `json:"session_duration" koanf:"session_duration"`
	OAuthCallbackURL      string `json:"oauth_callback_url" koanf:"oauth_callback_url"`
	SignInPath            string `json:"signin_path" koanf:"signin_path"`
	LandingPath           string `json:"landing_path" koanf:"landing_path"`
	StateEncryptionSecret string `json:"state_encryption_secret" koanf:"state_encryption_secret"`
	StateHMACSecret       string `json:"state_hmac_secret" koanf:"state_hmac_secret"`
}

// Discord holds the OAuth application credentials.
type Discord struct {
	ClientID     string   `json:"client_id" koanf:"client_id"`
	ClientSecret string   `json:"client_secret" koanf:"client_secret"`
	Scopes       []string `json:"scopes" koanf:"scopes"`
}

// Notify holds the activity webhook settings.
type Notify struct {
	WebhookURL string `json:"webhook_url" koanf:"webhook_url"`
	Username   string `json:"username" koanf:"username"`
	QueueSize  int    `json:"queue_size" koanf:"queue_size"`
}

// Access holds identifiers granted admin on first sign-in.
type Access struct {
	PrivilegedIdentifiers []string `json:"privileged_identifiers" koanf:"privileged_identifiers"`
}

// Persistence holds database settings, shaped for go-persistence-bun.
type Persistence struct {
	Driver                string `json:"driver" koanf:"driver"`
	Server                string `json:"server" koanf:"server"`
	DSN                   string `json:"dsn" koanf:"dsn"`
	Debug                 bool   `json:"debug" koanf:"debug"`
	PingTimeoutExpression string `json:"ping_timeout" koanf:"ping_timeout"`
	OtelIdentifier        string `json:"otel_identifier" koanf:"otel_identifier"`
}

// Report holds the progress report refresh schedule.
type Report struct {
	// Schedule is a cron spec with seconds, e.g. "0 */5 * * * *".
	Schedule string `json:"schedule" koanf:"schedule"`
}

// Validate checks the loaded configuration.
func (a *AppConfig) Validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.Server, validation.Required),
		validation.Field(&a.Auth, validation.Required),
		validation.Field(&a.Discord, validation.Required),
		validation.Field(&a.Persistence, validation.Required),
	)
}

// Validate checks the server section.
func (s Server) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Address, validation.Required),
	)
}

// Validate checks the auth section.
func (a Auth) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.SigningKey, validation.Required, validation.Length(32, 0)),
		validation.Field(&a.OAuthCallbackURL, validation.Required),
		validation.Field(&a.StateEncryptionSecret, validation.Required, validation.Length(32, 0)),
		validation.Field(&a.StateHMACSecret, validation.Required, validation.Length(32, 0)),
	)
}

// Validate checks the discord section.
func (d Discord) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.ClientID, validation.Required),
		validation.Field(&d.ClientSecret, validation.Required),
	)
}

// Validate checks the persistence section.
func (p Persistence) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Driver, validation.Required),
		validation.Field(&p.DSN, validation.Required),
	)
}

func (a *AppConfig) GetName() string {
	if a.Name == "" {
		return "portal"
	}
	return a.Name
}

func (a *AppConfig) GetServer() Server           { return a.Server }
func (a *AppConfig) GetAuth() Auth               { return a.Auth }
func (a *AppConfig) GetDiscord() Discord         { return a.Discord }
func (a *AppConfig) GetNotify() Notify           { return a.Notify }
func (a *AppConfig) GetAccess() Access           { return a.Access }
func (a *AppConfig) GetPersistence() Persistence { return a.Persistence }
func (a *AppConfig) GetReport() Report           { return a.Report }

func (s Server) GetAddress() string {
	if s.Address == "" {
		return ":8080"
	}
	return s.Address
}

func (a Auth) GetCookieName() string {
	if a.CookieName == "" {
		return "portal_session"
	}
	return a.CookieName
}

func (a Auth) GetSignInPath() string {
	if a.SignInPath == "" {
		return "/auth/signin"
	}
	return a.SignInPath
}

func (a Auth) GetLandingPath() string {
	if a.LandingPath == "" {
		return "/"
	}
	return a.LandingPath
}

// GetSessionDuration parses the session duration expression, defaulting
// to 24h.
func (a Auth) GetSessionDuration() time.Duration {
	if a.SessionExpression == "" {
		return 24 * time.Hour
	}

	dur, err := time.ParseDuration(a.SessionExpression)
	if err != nil {
		panic(fmt.Sprintf("unable to parse session duration: expr %s", a.SessionExpression))
	}
	return dur
}

func (n Notify) GetUsername() string {
	if n.Username == "" {
		return "Portal"
	}
	return n.Username
}

func (n Notify) GetQueueSize() int {
	if n.QueueSize <= 0 {
		return 64
	}
	return n.QueueSize
}

func (p Persistence) GetDriver() string { return p.Driver }
func (p Persistence) GetServer() string { return p.Server }
func (p Persistence) GetDSN() string    { return p.DSN }
func (p Persistence) GetDebug() bool    { return p.Debug }

func (p Persistence) GetOtelIdentifier() string {
	if p.OtelIdentifier == "" {
		return "portal"
	}
	return p.OtelIdentifier
}

// GetPingTimeout parses the ping timeout expression, defaulting to 5s.
func (p Persistence) GetPingTimeout() time.Duration {
	if p.PingTimeoutExpression == "" {
		return 5 * time.Second
	}

	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		panic(fmt.Sprintf("unable to parse time: expr %s", p.PingTimeoutExpression))
	}
	return dur
}

func (r Report) GetSchedule() string {
	if r.Schedule == "" {
		return "0 */5 * * * *"
	}
	return r.Schedule
}
