package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/khxzi/ticketbridge/internal/auth"
	"github.com/khxzi/ticketbridge/internal/proto"
	"github.com/khxzi/ticketbridge/internal/relay"
)

// WSHandler upgrades HTTP connections and bridges them to relay.Conn.
type WSHandler struct {
	engine  *relay.Engine
	conns   *relay.Registry
	session *auth.SessionConfig
	log     *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(engine *relay.Engine, conns *relay.Registry, session *auth.SessionConfig, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{engine: engine, conns: conns, session: session, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := relay.NewConn(uuid.NewString())
	h.bindSessionCookie(r, client)
	h.conns.Register(client)
	defer h.conns.Unregister(client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// bindSessionCookie authenticates the connection from the session cookie on
// the upgrade request. The cookie is HttpOnly, so the browser client cannot
// read the token and pass it over the socket itself; an explicit init frame
// with a token remains available for non-browser clients.
func (h *WSHandler) bindSessionCookie(r *stdhttp.Request, client *relay.Conn) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return
	}
	claims, err := auth.ValidateToken(h.session, cookie.Value)
	if err != nil {
		h.log.Debug().Err(err).Str("conn_id", client.ID).Msg("ws upgrade with invalid session cookie")
		return
	}
	client.Bind(claims.User())
	h.log.Debug().Str("conn_id", client.ID).Str("username", claims.Username).Msg("ws authenticated from session cookie")
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *relay.Conn) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}
		h.dispatch(ctx, client, inbound)
	}
}

// dispatch routes one inbound envelope. Failures surface as error events
// through the connection's event channel so the write loop stays the only
// websocket writer.
func (h *WSHandler) dispatch(ctx context.Context, client *relay.Conn, inbound proto.Inbound) {
	switch inbound.Type {
	case proto.InboundTypeInit:
		var init proto.InitData
		if err := json.Unmarshal(inbound.Data, &init); err != nil {
			h.emitError(client, relay.ErrCodeUnauthenticated, "Bad init payload.")
			return
		}
		claims, err := auth.ValidateToken(h.session, init.Token)
		if err != nil {
			h.log.Debug().Err(err).Str("conn_id", client.ID).Msg("ws init with invalid token")
			h.emitError(client, relay.ErrCodeUnauthenticated, "Not authenticated. Please sign in with Discord.")
			return
		}
		client.Bind(claims.User())
		h.log.Debug().Str("conn_id", client.ID).Str("username", claims.Username).Msg("ws init")

	case proto.InboundTypeMessage:
		user, ok := client.User()
		if !ok {
			h.emitError(client, relay.ErrCodeUnauthenticated, "Not authenticated. Please sign in with Discord.")
			return
		}
		var msg proto.MessageData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			h.emitError(client, relay.ErrCodeTicketMapping, "Bad message payload.")
			return
		}
		h.engine.HandleUserMessage(ctx, client.ID, user, msg.Text, msg.TicketID)

	default:
		h.emitError(client, relay.ErrCodeTicketMapping, "Unknown message type.")
	}
}

func (h *WSHandler) emitError(client *relay.Conn, code, msg string) {
	h.conns.Emit(client.ID, relay.Event{
		Kind:  relay.EventError,
		Error: &relay.Error{Code: code, Message: msg},
	})
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *relay.Conn) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
