package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/campuskit/portal"
	"github.com/campuskit/portal/oauth"
)

const (
	defaultAuthURL  = "https://discord.com/api/oauth2/authorize"
	defaultTokenURL = "https://discord.com/api/oauth2/token"
	defaultUserURL  = "https://discord.com/api/users/@me"
	defaultCDNURL   = "https://cdn.discordapp.com"
)

// Config holds Discord OAuth configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Scopes       []string

	AuthURL  string
	TokenURL string
	UserURL  string
	CDNURL   string

	HTTPClient *http.Client
}

// DefaultScopes returns the default Discord scopes.
func DefaultScopes() []string {
	return []string{"identify", "email"}
}

// Provider implements oauth.Provider for Discord.
type Provider struct {
	config     Config
	httpClient *http.Client
}

// New creates a new Discord provider.
func New(cfg Config) *Provider {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes()
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.UserURL == "" {
		cfg.UserURL = defaultUserURL
	}
	if cfg.CDNURL == "" {
		cfg.CDNURL = defaultCDNURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Provider{
		config:     cfg,
		httpClient: client,
	}
}

// Name implements oauth.Provider.
func (p *Provider) Name() string {
	return "discord"
}

// AuthCodeURL implements oauth.Provider.
func (p *Provider) AuthCodeURL(state string, opts ...oauth.AuthCodeOption) string {
	cfg := oauth.ApplyAuthCodeOptions(p.config.Scopes, opts...)
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes()
	}

	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.CallbackURL},
		"response_type": {"code"},
		"scope":         {strings.Join(scopes, " ")},
		"state":         {state},
	}

	if cfg.CodeChallenge != "" {
		method := cfg.CodeChallengeMethod
		if method == "" {
			method = "S256"
		}
		params.Set("code_challenge", cfg.CodeChallenge)
		params.Set("code_challenge_method", method)
	}

	return p.config.AuthURL + "?" + params.Encode()
}

// Exchange implements oauth.Provider.
func (p *Provider) Exchange(ctx context.Context, code string, opts ...oauth.ExchangeOption) (*oauth.Token, error) {
	cfg := oauth.ApplyExchangeOptions(opts...)

	data := url.Values{
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {p.config.CallbackURL},
	}
	if cfg.CodeVerifier != "" {
		data.Set("code_verifier", cfg.CodeVerifier)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var tokenResp discordTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("discord: failed to decode token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord: token exchange failed: %s", tokenResp.errorMessage(resp.StatusCode))
	}
	if tokenResp.Error != "" {
		return nil, fmt.Errorf("discord: token exchange failed: %s", tokenResp.errorMessage(resp.StatusCode))
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("discord: token response missing access token")
	}

	token := &oauth.Token{
		AccessToken:  tokenResp.AccessToken,
		TokenType:    tokenResp.TokenType,
		RefreshToken: tokenResp.RefreshToken,
		Scopes:       strings.Fields(tokenResp.Scope),
	}
	if tokenResp.ExpiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	}

	return token, nil
}

// UserInfo implements oauth.Provider. The claims carry the Discord user
// ID as both the provider ID and subject, and the computed CDN avatar URL
// when the account has one.
func (p *Provider) UserInfo(ctx context.Context, token *oauth.Token) (*portal.Claims, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord: user request failed: %s", apiErrorMessage(body, resp.StatusCode))
	}

	var user discordUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("discord: failed to decode user response: %w", err)
	}

	if user.ID == "" {
		return nil, fmt.Errorf("discord: user response missing id")
	}

	return &portal.Claims{
		FullName:          user.GlobalName,
		PreferredUsername: user.Username,
		Email:             user.Email,
		AvatarURL:         p.avatarURL(user),
		ProviderID:        user.ID,
		Subject:           user.ID,
	}, nil
}

// avatarURL builds the CDN URL for the user's avatar hash. Animated
// avatars (a_ prefix) resolve to gif, everything else to png. An empty
// hash yields "" so profile provisioning assigns a placeholder.
func (p *Provider) avatarURL(user discordUser) string {
	if user.Avatar == "" {
		return ""
	}

	ext := "png"
	if strings.HasPrefix(user.Avatar, "a_") {
		ext = "gif"
	}

	return fmt.Sprintf("%s/avatars/%s/%s.%s", p.config.CDNURL, user.ID, user.Avatar, ext)
}

type discordUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Avatar     string `json:"avatar"`
	Email      string `json:"email"`
	Verified   bool   `json:"verified"`
}

type discordTokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

func (r discordTokenResponse) errorMessage(status int) string {
	if r.ErrorDesc != "" {
		return r.ErrorDesc
	}
	if r.Error != "" {
		return r.Error
	}
	return fmt.Sprintf("status %d", status)
}

type discordAPIError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func apiErrorMessage(body []byte, status int) string {
	var apiErr discordAPIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return apiErr.Message
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Sprintf("status %d", status)
	}

	return msg
}
