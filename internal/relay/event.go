package relay

import "time"

// EventKind is a notification the relay emits to a live connection.
type EventKind int

const (
	// EventMessage delivers a staff message from the ticket's channel.
	EventMessage EventKind = iota
	// EventTicketOpened confirms that a new ticket was created.
	EventTicketOpened
	// EventTicketClosed signals that the ticket was closed on either side.
	EventTicketClosed
	// EventError reports a failed user action.
	EventError
)

// Event is sent to a connection to describe what happened to its tickets.
type Event struct {
	Kind      EventKind
	TicketID  string
	ChannelID string
	Message   *InboundMessage
	Error     *Error
}

// InboundMessage is a staff message relayed from the platform channel to
// the website visitor.
type InboundMessage struct {
	Text         string
	AuthorName   string
	AuthorAvatar string
	Time         time.Time
}
