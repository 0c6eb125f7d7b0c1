package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/khxzi/ticketbridge/internal/auth"
	"github.com/khxzi/ticketbridge/internal/config"
	"github.com/khxzi/ticketbridge/internal/platform/discord"
	"github.com/khxzi/ticketbridge/internal/relay"
	"github.com/khxzi/ticketbridge/internal/ticket"
	transporthttp "github.com/khxzi/ticketbridge/internal/transport/http"
)

// App wires together the relay core, the Discord adapter, and the HTTP
// transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	discord         *discord.Adapter
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	store := ticket.NewStore(cfg.MaxOpenTickets)
	conns := relay.NewRegistry()

	adapter, err := discord.New(discord.Options{
		BotToken:    cfg.BotToken,
		GuildID:     cfg.GuildID,
		CategoryID:  cfg.TicketCategoryID,
		StaffRoleID: cfg.StaffRoleID,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init discord adapter: %w", err)
	}

	engine := relay.New(store, conns, adapter, adapter, logger)
	adapter.Bind(engine)

	oauth := auth.NewOAuth(auth.OAuthConfig{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		RedirectURI:  cfg.OAuthRedirectURI,
	})
	session := &auth.SessionConfig{
		Secret:   []byte(cfg.SessionSecret),
		Issuer:   cfg.SessionIssuer,
		Audience: cfg.SessionAudience,
		TTL:      cfg.SessionTTL,
	}

	server := transporthttp.NewServer(engine, conns, oauth, session, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		discord:         adapter,
		log:             logger,
	}, nil
}

// Run opens the Discord gateway session, starts the HTTP server, and blocks
// until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	if err := a.discord.Start(); err != nil {
		return err
	}

	a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the Discord gateway session.
func (a *App) cleanup() {
	if err := a.discord.Stop(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close discord session")
	} else {
		a.log.Info().Msg("discord session closed")
	}
}
