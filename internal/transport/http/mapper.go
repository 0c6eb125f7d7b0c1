package http

import (
	"github.com/khxzi/ticketbridge/internal/proto"
	"github.com/khxzi/ticketbridge/internal/relay"
)

func outboundFromEvent(event relay.Event) proto.Outbound {
	switch event.Kind {
	case relay.EventMessage:
		msg := event.Message
		if msg == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Data: "unknown error"}
		}
		return proto.Outbound{
			Type: proto.OutboundTypeMessage,
			Data: proto.EventMessage{
				Text:       msg.Text,
				AuthorName: msg.AuthorName,
				Avatar:     msg.AuthorAvatar,
				Time:       msg.Time.UnixMilli(),
			},
		}
	case relay.EventTicketOpened:
		return proto.Outbound{
			Type: proto.OutboundTypeTicketOpened,
			Data: proto.EventTicketOpened{
				TicketID:  event.TicketID,
				ChannelID: event.ChannelID,
			},
		}
	case relay.EventTicketClosed:
		return proto.Outbound{
			Type: proto.OutboundTypeTicketClosed,
			Data: proto.EventTicketClosed{TicketID: event.TicketID},
		}
	case relay.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Data: "unknown error"}
		}
		return proto.Outbound{Type: proto.OutboundTypeError, Data: event.Error.Message}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Data: "unknown error"}
	}
}
