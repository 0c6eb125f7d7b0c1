package relay

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/khxzi/ticketbridge/internal/log"
	"github.com/khxzi/ticketbridge/internal/platform"
	"github.com/khxzi/ticketbridge/internal/ticket"
)

// Engine orchestrates ticket creation, bidirectional message relay, and
// symmetric closure between live connections and platform channels. All
// ticket state lives in the store; the engine never keeps private copies.
type Engine struct {
	store    *ticket.Store
	conns    *Registry
	client   platform.Client
	notifier platform.Notifier
	log      zerolog.Logger

	locksMu sync.Mutex
	locks   map[string]*userLock
}

// userLock serializes the resolve-or-create path for one user. refs counts
// holders and waiters so the map entry can be dropped once the last one
// releases.
type userLock struct {
	mu   sync.Mutex
	refs int
}

// New constructs a relay engine. notifier may be nil to skip the opening
// announcement.
func New(store *ticket.Store, conns *Registry, client platform.Client, notifier platform.Notifier, logger *zerolog.Logger) *Engine {
	return &Engine{
		store:    store,
		conns:    conns,
		client:   client,
		notifier: notifier,
		log:      log.Component(logger, "relay"),
		locks:    make(map[string]*userLock),
	}
}

// lockUser acquires the per-user creation lock. Two racing first messages
// from the same user must never create two channels; the store's quota
// check alone cannot prevent that because channel creation happens before
// the insert.
func (e *Engine) lockUser(userID string) *userLock {
	e.locksMu.Lock()
	l, ok := e.locks[userID]
	if !ok {
		l = &userLock{}
		e.locks[userID] = l
	}
	l.refs++
	e.locksMu.Unlock()

	l.mu.Lock()
	return l
}

// unlockUser releases the per-user lock and removes the map entry when no
// other goroutine holds or waits on it, so the map does not accumulate an
// entry per user id seen over the process lifetime.
func (e *Engine) unlockUser(userID string, l *userLock) {
	l.mu.Unlock()

	e.locksMu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(e.locks, userID)
	}
	e.locksMu.Unlock()
}

// HandleUserMessage relays a website visitor's message into their ticket's
// platform channel, creating the ticket (and channel) on the first message.
// explicitTicketID targets a specific ticket; otherwise the user's most
// recently created open ticket is used. Empty text is ignored.
func (e *Engine) HandleUserMessage(ctx context.Context, connID string, user ticket.User, text, explicitTicketID string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	lock := e.lockUser(user.ID)
	tk, ok := e.resolveTicket(user, explicitTicketID)
	if !ok {
		if !e.store.CanOpen(user.ID) {
			e.unlockUser(user.ID, lock)
			e.emitError(connID, relayError(ErrCodeQuotaExceeded,
				fmt.Sprintf("You have reached the maximum of %d open tickets. Please close one first.", e.store.MaxOpen())))
			return
		}

		channelID, err := e.client.CreateChannel(ctx, channelName(user.Username, time.Now()))
		if err != nil {
			e.unlockUser(user.ID, lock)
			e.log.Error().Err(err).Str("user_id", user.ID).Msg("create channel")
			e.emitError(connID, relayError(ErrCodePlatformFailed, "Server error: "+err.Error()))
			return
		}

		tk, err = e.store.Create(user, channelID, connID)
		if err != nil {
			e.unlockUser(user.ID, lock)
			// Channel exists but no ticket may reference it; drop it.
			if delErr := e.client.DeleteChannel(ctx, channelID, "ticket registration failed"); delErr != nil {
				e.log.Warn().Err(delErr).Str("channel_id", channelID).Msg("delete orphaned channel")
			}
			e.emitError(connID, relayError(ErrCodeQuotaExceeded,
				fmt.Sprintf("You have reached the maximum of %d open tickets. Please close one first.", e.store.MaxOpen())))
			return
		}
		e.unlockUser(user.ID, lock)

		e.log.Info().Str("ticket_id", tk.ID).Str("channel_id", channelID).Str("user_id", user.ID).Msg("ticket opened")
		e.conns.Emit(connID, Event{Kind: EventTicketOpened, TicketID: tk.ID, ChannelID: channelID})

		if e.notifier != nil {
			if err := e.notifier.AnnounceTicket(ctx, channelID, user); err != nil {
				e.log.Warn().Err(err).Str("channel_id", channelID).Msg("ticket announcement")
			}
		}
	} else {
		e.store.RebindConnection(tk.ID, connID)
		e.unlockUser(user.ID, lock)
	}

	// Re-read through the store; the record above may be stale.
	tk, ok = e.store.FindByID(tk.ID)
	if !ok {
		e.emitError(connID, relayError(ErrCodeTicketMapping, "Ticket mapping error."))
		return
	}

	if err := e.client.SendMessage(ctx, tk.ChannelID, fmt.Sprintf("**%s (website):** %s", user.Username, text)); err != nil {
		e.log.Error().Err(err).Str("ticket_id", tk.ID).Msg("relay to channel")
		e.emitError(connID, relayError(ErrCodePlatformFailed, "Server error: "+err.Error()))
		return
	}
	// The sender's client already rendered the text locally; no echo.
}

// resolveTicket picks the target ticket for a user message: the explicit id
// when it belongs to the user, else the most recently created open ticket.
func (e *Engine) resolveTicket(user ticket.User, explicitTicketID string) (ticket.Ticket, bool) {
	if explicitTicketID != "" {
		if tk, ok := e.store.FindByID(explicitTicketID); ok && tk.User.ID == user.ID {
			return tk, true
		}
	}
	return e.store.FindOpenTicketFor(user.ID)
}

// HandlePlatformMessage relays a staff message on a ticket channel to the
// connection currently bound to that ticket. Messages on channels without a
// ticket are ignored; messages to a connection that has gone away are
// dropped.
func (e *Engine) HandlePlatformMessage(channelID, authorName, authorAvatar, text string, at time.Time) {
	tk, ok := e.store.FindByChannel(channelID)
	if !ok {
		return
	}

	delivered := e.conns.Emit(tk.ConnectionID, Event{
		Kind:     EventMessage,
		TicketID: tk.ID,
		Message: &InboundMessage{
			Text:         text,
			AuthorName:   authorName,
			AuthorAvatar: authorAvatar,
			Time:         at,
		},
	})
	if !delivered {
		e.log.Debug().Str("ticket_id", tk.ID).Str("conn_id", tk.ConnectionID).Msg("dropped message for absent connection")
	}
}

// HandleChannelRemoved closes the ticket whose channel was deleted on the
// platform side. Unmanaged channels are ignored.
func (e *Engine) HandleChannelRemoved(channelID string) {
	tk, ok := e.store.FindByChannel(channelID)
	if !ok {
		return
	}

	e.conns.Emit(tk.ConnectionID, Event{Kind: EventTicketClosed, TicketID: tk.ID})
	if _, err := e.store.Close(tk.ID); err != nil {
		return
	}
	e.log.Info().Str("ticket_id", tk.ID).Str("channel_id", channelID).Msg("ticket closed by platform")
}

// CloseTicket closes a ticket on the user's behalf: best-effort deletes the
// platform channel, notifies the ticket's connection, and removes the
// ticket. The relay's own bookkeeping is authoritative, so a failed channel
// delete is logged but does not fail the close. Closing an unknown id
// returns ticket.ErrNotFound.
func (e *Engine) CloseTicket(ctx context.Context, ticketID string) error {
	tk, ok := e.store.FindByID(ticketID)
	if !ok {
		return ticket.ErrNotFound
	}

	if err := e.client.DeleteChannel(ctx, tk.ChannelID, "Closed by website user"); err != nil {
		e.log.Warn().Err(err).Str("ticket_id", ticketID).Str("channel_id", tk.ChannelID).Msg("delete channel")
	}

	e.conns.Emit(tk.ConnectionID, Event{Kind: EventTicketClosed, TicketID: tk.ID})
	if _, err := e.store.Close(tk.ID); err != nil {
		return err
	}
	e.log.Info().Str("ticket_id", tk.ID).Msg("ticket closed by user")
	return nil
}

func (e *Engine) emitError(connID string, relErr *Error) {
	e.conns.Emit(connID, Event{Kind: EventError, Error: relErr})
}

var channelNameSanitizer = regexp.MustCompile(`[^a-z0-9-]`)

// channelName derives a platform-safe channel name from the username, with
// a short time-based suffix so repeat tickets from one user stay distinct.
func channelName(username string, now time.Time) string {
	name := "ticket-" + strings.ToLower(username)
	name = channelNameSanitizer.ReplaceAllString(name, "-")
	if len(name) > 80 {
		name = name[:80]
	}
	millis := strconv.FormatInt(now.UnixMilli(), 10)
	return name + "-" + millis[len(millis)-5:]
}
