package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/khxzi/ticketbridge/internal/ticket"
)

const (
	authorizeURL = "https://discord.com/api/oauth2/authorize"
	tokenURL     = "https://discord.com/api/oauth2/token"
	userURL      = "https://discord.com/api/users/@me"
	avatarCDN    = "https://cdn.discordapp.com/avatars"
)

// OAuthConfig holds the Discord application credentials for the identity
// flow.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// OAuth performs the Discord OAuth2 authorization-code flow: it builds the
// authorize redirect, exchanges the callback code for an access token, and
// fetches the verified user record.
type OAuth struct {
	cfg  OAuthConfig
	http *http.Client

	// Endpoint overrides for tests; default to the Discord API.
	tokenURL string
	userURL  string
}

// NewOAuth builds the OAuth helper with a bounded-timeout HTTP client.
func NewOAuth(cfg OAuthConfig) *OAuth {
	return &OAuth{
		cfg:      cfg,
		http:     &http.Client{Timeout: 10 * time.Second},
		tokenURL: tokenURL,
		userURL:  userURL,
	}
}

// AuthURL returns the Discord authorize URL the browser is redirected to.
func (o *OAuth) AuthURL() string {
	params := url.Values{
		"client_id":     {o.cfg.ClientID},
		"redirect_uri":  {o.cfg.RedirectURI},
		"response_type": {"code"},
		"scope":         {"identify email"},
	}
	return authorizeURL + "?" + params.Encode()
}

// Exchange trades an authorization code for an access token.
func (o *OAuth) Exchange(ctx context.Context, code string) (string, error) {
	form := url.Values{
		"client_id":     {o.cfg.ClientID},
		"client_secret": {o.cfg.ClientSecret},
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {o.cfg.RedirectURI},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("exchange code: status %d: %s", resp.StatusCode, body)
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("no access token in response")
	}
	return token.AccessToken, nil
}

// FetchUser retrieves the authenticated user's identity record.
func (o *OAuth) FetchUser(ctx context.Context, accessToken string) (ticket.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.userURL, nil)
	if err != nil {
		return ticket.User{}, fmt.Errorf("build user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := o.http.Do(req)
	if err != nil {
		return ticket.User{}, fmt.Errorf("fetch user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ticket.User{}, fmt.Errorf("fetch user: status %d", resp.StatusCode)
	}

	var raw struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Avatar   string `json:"avatar"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return ticket.User{}, fmt.Errorf("decode user response: %w", err)
	}

	user := ticket.User{ID: raw.ID, Username: raw.Username}
	if raw.Avatar != "" {
		user.Avatar = fmt.Sprintf("%s/%s/%s.png", avatarCDN, raw.ID, raw.Avatar)
	}
	return user, nil
}
