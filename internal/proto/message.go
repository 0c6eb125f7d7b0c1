package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeInit    = "init"
	InboundTypeMessage = "message"

	OutboundTypeMessage      = "message"
	OutboundTypeTicketOpened = "ticket:opened"
	OutboundTypeTicketClosed = "ticket:closed"
	OutboundTypeError        = "error_msg"
)

// InitData binds the connection to an authenticated session for the rest of
// its lifetime.
type InitData struct {
	Token string `json:"token"`
}

// MessageData is a visitor message, optionally addressed at a specific
// ticket. Without a ticket id the most recent open ticket is used.
type MessageData struct {
	Text     string `json:"text"`
	TicketID string `json:"ticketId,omitempty"`
}

// Outbound is the envelope for messages sent to the client. For error_msg
// the data is a plain human-readable string.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// EventMessage is a staff reply relayed from the ticket channel.
type EventMessage struct {
	Text       string `json:"text"`
	AuthorName string `json:"authorName"`
	Avatar     string `json:"avatar,omitempty"`
	Time       int64  `json:"time"` // unix milliseconds
}

// EventTicketOpened confirms a newly created ticket.
type EventTicketOpened struct {
	TicketID  string `json:"ticketId"`
	ChannelID string `json:"channelId"`
}

// EventTicketClosed signals that a ticket was closed on either side.
type EventTicketClosed struct {
	TicketID string `json:"ticketId"`
}
