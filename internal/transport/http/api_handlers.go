package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/khxzi/ticketbridge/internal/auth"
	"github.com/khxzi/ticketbridge/internal/relay"
	"github.com/khxzi/ticketbridge/internal/ticket"
)

const sessionCookieName = "tb_session"

// APIHandlers provides HTTP handlers for the identity flow and the
// synchronous ticket surface.
type APIHandlers struct {
	engine  *relay.Engine
	oauth   *auth.OAuth
	session *auth.SessionConfig
	log     *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(engine *relay.Engine, oauth *auth.OAuth, session *auth.SessionConfig, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		engine:  engine,
		oauth:   oauth,
		session: session,
		log:     logger,
	}
}

// UserResponse is the session user as reported by /me.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// MeResponse is the body of /me.
type MeResponse struct {
	Logged bool          `json:"logged"`
	User   *UserResponse `json:"user,omitempty"`
}

// CloseResponse is the body of /close/:ticketId.
type CloseResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// AuthRedirect starts the OAuth flow.
// GET /auth/discord
func (h *APIHandlers) AuthRedirect(c *gin.Context) {
	c.Redirect(http.StatusFound, h.oauth.AuthURL())
}

// callbackPage notifies the opener window and closes the OAuth popup.
const callbackPage = `<html>
  <body>
    <script>
      try {
        window.opener.postMessage({ type: 'khxzi_oauth_success' }, location.origin);
      } catch(e){}
      window.close();
    </script>
    <div style="font-family:Inter,Arial;padding:20px">Auth successful — you can close this window.</div>
  </body>
</html>`

// AuthCallback exchanges the authorization code and sets the session cookie.
// GET /auth/discord/callback
func (h *APIHandlers) AuthCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.String(http.StatusBadRequest, "Missing code")
		return
	}

	ctx := c.Request.Context()
	accessToken, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		h.log.Error().Err(err).Msg("oauth exchange")
		c.String(http.StatusInternalServerError, fmt.Sprintf("OAuth exchange error: %v", err))
		return
	}

	user, err := h.oauth.FetchUser(ctx, accessToken)
	if err != nil {
		h.log.Error().Err(err).Msg("oauth user fetch")
		c.String(http.StatusInternalServerError, fmt.Sprintf("OAuth exchange error: %v", err))
		return
	}

	token, err := auth.GenerateToken(h.session, user)
	if err != nil {
		h.log.Error().Err(err).Msg("session token")
		c.String(http.StatusInternalServerError, "session error")
		return
	}

	// secure=false to work on plain http in development.
	c.SetCookie(sessionCookieName, token, int(h.session.TTL.Seconds()), "/", "", false, true)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(callbackPage))
}

// Me reports the session user bound to the cookie.
// GET /me
func (h *APIHandlers) Me(c *gin.Context) {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil {
		c.JSON(http.StatusOK, MeResponse{Logged: false})
		return
	}

	claims, err := auth.ValidateToken(h.session, cookie)
	if err != nil {
		h.log.Debug().Err(err).Msg("invalid session cookie")
		c.JSON(http.StatusOK, MeResponse{Logged: false})
		return
	}

	user := claims.User()
	c.JSON(http.StatusOK, MeResponse{
		Logged: true,
		User:   &UserResponse{ID: user.ID, Username: user.Username, Avatar: user.Avatar},
	})
}

// CloseTicket closes a ticket on the visitor's behalf.
// POST /close/:ticketId
func (h *APIHandlers) CloseTicket(c *gin.Context) {
	ticketID := c.Param("ticketId")

	if err := h.engine.CloseTicket(c.Request.Context(), ticketID); err != nil {
		if errors.Is(err, ticket.ErrNotFound) {
			c.JSON(http.StatusNotFound, CloseResponse{OK: false, Error: "not found"})
			return
		}
		h.log.Error().Err(err).Str("ticket_id", ticketID).Msg("close ticket")
		c.JSON(http.StatusInternalServerError, CloseResponse{OK: false, Error: "server error"})
		return
	}

	c.JSON(http.StatusOK, CloseResponse{OK: true})
}
