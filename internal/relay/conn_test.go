package relay

import (
	"strings"
	"testing"
	"time"

	"github.com/khxzi/ticketbridge/internal/ticket"
)

func TestConnBind(t *testing.T) {
	c := NewConn("conn-1")

	if _, ok := c.User(); ok {
		t.Fatal("fresh connection must be anonymous")
	}

	c.Bind(ticket.User{ID: "1", Username: "ann"})
	user, ok := c.User()
	if !ok || user.ID != "1" {
		t.Fatalf("bound user mismatch: %+v ok=%v", user, ok)
	}
}

func TestRegistryEmit(t *testing.T) {
	r := NewRegistry()
	c := NewConn("conn-1")
	r.Register(c)

	if !r.Emit("conn-1", Event{Kind: EventTicketClosed, TicketID: "T1"}) {
		t.Fatal("emit to live connection failed")
	}
	ev := <-c.Events
	if ev.TicketID != "T1" {
		t.Fatalf("unexpected event: %+v", ev)
	}

	if r.Emit("conn-gone", Event{Kind: EventTicketClosed}) {
		t.Fatal("emit to unknown connection must be dropped")
	}

	r.Unregister(c)
	if r.Emit("conn-1", Event{Kind: EventTicketClosed}) {
		t.Fatal("emit to unregistered connection must be dropped")
	}
}

func TestRegistryEmitDropsWhenBufferFull(t *testing.T) {
	r := NewRegistry()
	c := NewConn("conn-1")
	r.Register(c)

	for i := 0; i < cap(c.Events); i++ {
		if !r.Emit("conn-1", Event{Kind: EventTicketClosed}) {
			t.Fatalf("emit %d should fit the buffer", i)
		}
	}
	if r.Emit("conn-1", Event{Kind: EventTicketClosed}) {
		t.Fatal("emit past the buffer must be dropped, not block")
	}
}

func TestChannelName(t *testing.T) {
	now := time.UnixMilli(1700000012345)

	name := channelName("Ann Smith!", now)
	if !strings.HasPrefix(name, "ticket-ann-smith--") {
		t.Fatalf("unexpected sanitized name: %s", name)
	}
	if !strings.HasSuffix(name, "12345") {
		t.Fatalf("missing time suffix: %s", name)
	}

	long := channelName(strings.Repeat("x", 200), now)
	if len(long) > 86 { // 80 chars + dash + 5 digit suffix
		t.Fatalf("name too long: %d", len(long))
	}
}
