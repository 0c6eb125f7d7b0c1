package config

import (
	"errors"
	"time"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	// Discord bot and guild the ticket channels live in. StaffRoleID is
	// optional: when set, new-ticket announcements ping that role.
	BotToken         string `mapstructure:"bot_token" yaml:"bot_token"`
	GuildID          string `mapstructure:"guild_id" yaml:"guild_id"`
	TicketCategoryID string `mapstructure:"ticket_category_id" yaml:"ticket_category_id"`
	StaffRoleID      string `mapstructure:"staff_role_id" yaml:"staff_role_id"`

	// OAuth application for the website identity flow.
	OAuthClientID     string `mapstructure:"oauth_client_id" yaml:"oauth_client_id"`
	OAuthClientSecret string `mapstructure:"oauth_client_secret" yaml:"oauth_client_secret"`
	OAuthRedirectURI  string `mapstructure:"oauth_redirect_uri" yaml:"oauth_redirect_uri"`

	// Session token signing.
	SessionSecret   string        `mapstructure:"session_secret" yaml:"session_secret"`
	SessionIssuer   string        `mapstructure:"session_issuer" yaml:"session_issuer"`
	SessionAudience string        `mapstructure:"session_audience" yaml:"session_audience"`
	SessionTTL      time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`

	// MaxOpenTickets limits simultaneously open tickets per user.
	MaxOpenTickets int `mapstructure:"max_open_tickets" yaml:"max_open_tickets"`
}

// Default returns configuration with reasonable starter defaults. Discord
// credentials have no defaults and must come from the config file or env.
func Default() Config {
	return Config{
		Addr:              ":3000",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		OAuthRedirectURI:  "http://localhost:3000/auth/discord/callback",
		SessionIssuer:     "ticketbridge",
		SessionAudience:   "ticketbridge-web",
		SessionTTL:        24 * time.Hour,
		MaxOpenTickets:    3,
	}
}

// Validate checks that the settings without usable defaults are present.
func (c *Config) Validate() error {
	switch {
	case c.BotToken == "":
		return errors.New("bot_token is required")
	case c.GuildID == "":
		return errors.New("guild_id is required")
	case c.TicketCategoryID == "":
		return errors.New("ticket_category_id is required")
	case c.SessionSecret == "":
		return errors.New("session_secret is required")
	}
	return nil
}
