package http

import (
	"testing"
	"time"

	"github.com/khxzi/ticketbridge/internal/proto"
	"github.com/khxzi/ticketbridge/internal/relay"
)

func TestOutboundFromEvent(t *testing.T) {
	at := time.UnixMilli(1700000000000)

	out := outboundFromEvent(relay.Event{
		Kind:     relay.EventMessage,
		TicketID: "T1",
		Message: &relay.InboundMessage{
			Text:         "hi",
			AuthorName:   "staff",
			AuthorAvatar: "https://cdn.example/s.png",
			Time:         at,
		},
	})
	if out.Type != proto.OutboundTypeMessage {
		t.Fatalf("unexpected type: %s", out.Type)
	}
	msg, ok := out.Data.(proto.EventMessage)
	if !ok || msg.Text != "hi" || msg.AuthorName != "staff" || msg.Time != at.UnixMilli() {
		t.Fatalf("unexpected data: %+v", out.Data)
	}

	out = outboundFromEvent(relay.Event{Kind: relay.EventTicketOpened, TicketID: "T1", ChannelID: "chan-1"})
	if out.Type != proto.OutboundTypeTicketOpened {
		t.Fatalf("unexpected type: %s", out.Type)
	}
	opened, ok := out.Data.(proto.EventTicketOpened)
	if !ok || opened.TicketID != "T1" || opened.ChannelID != "chan-1" {
		t.Fatalf("unexpected data: %+v", out.Data)
	}

	out = outboundFromEvent(relay.Event{Kind: relay.EventTicketClosed, TicketID: "T1"})
	if out.Type != proto.OutboundTypeTicketClosed {
		t.Fatalf("unexpected type: %s", out.Type)
	}

	out = outboundFromEvent(relay.Event{Kind: relay.EventError, Error: &relay.Error{Code: relay.ErrCodeQuotaExceeded, Message: "too many"}})
	if out.Type != proto.OutboundTypeError || out.Data != "too many" {
		t.Fatalf("unexpected error outbound: %+v", out)
	}
}
