package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/khxzi/ticketbridge/internal/auth"
	"github.com/khxzi/ticketbridge/internal/config"
	"github.com/khxzi/ticketbridge/internal/relay"
)

// NewServer builds the HTTP server: the OAuth identity flow, the session
// endpoint, the synchronous close surface, and the websocket upgrade.
func NewServer(engine *relay.Engine, conns *relay.Registry, oauth *auth.OAuth, session *auth.SessionConfig, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	api := NewAPIHandlers(engine, oauth, session, logger)
	router.GET("/auth/discord", api.AuthRedirect)
	router.GET("/auth/discord/callback", api.AuthCallback)
	router.GET("/me", api.Me)
	router.POST("/close/:ticketId", api.CloseTicket)
	router.GET("/health", healthHandler)

	router.GET("/ws", gin.WrapH(NewWSHandler(engine, conns, session, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
