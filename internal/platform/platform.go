package platform

import (
	"context"
	"time"

	"github.com/khxzi/ticketbridge/internal/ticket"
)

// Client abstracts the chat platform's channel lifecycle: one channel per
// ticket, created under a configured parent category.
type Client interface {
	// CreateChannel creates a ticket channel and returns its platform id.
	CreateChannel(ctx context.Context, name string) (channelID string, err error)

	// SendMessage posts plain text into a channel.
	SendMessage(ctx context.Context, channelID, text string) error

	// DeleteChannel removes a channel. reason is shown in the platform's
	// audit log where supported.
	DeleteChannel(ctx context.Context, channelID, reason string) error
}

// Notifier posts the opening announcement into a freshly created ticket
// channel. It is separate from Client so the announcement's presentation
// stays swappable without touching the relay.
type Notifier interface {
	AnnounceTicket(ctx context.Context, channelID string, user ticket.User) error
}

// Handler receives the platform-originated events the relay consumes. The
// adapter filters out its own messages before calling it.
type Handler interface {
	// HandlePlatformMessage delivers a staff message on a ticket channel.
	HandlePlatformMessage(channelID, authorName, authorAvatar, text string, at time.Time)

	// HandleChannelRemoved signals that a channel was deleted on the
	// platform side.
	HandleChannelRemoved(channelID string)
}
