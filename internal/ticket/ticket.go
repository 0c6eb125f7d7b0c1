package ticket

import (
	"strconv"
	"sync/atomic"
	"time"
)

// Status of a ticket. Closed tickets are removed from the store entirely,
// so only Open records are ever observable.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// User is the verified identity record attached to a ticket. The store
// treats it as opaque; only ID is used as a key.
type User struct {
	ID       string
	Username string
	Avatar   string
}

// Ticket binds one support conversation to one platform channel and to the
// live connection that currently receives its replies.
type Ticket struct {
	ID           string
	User         User
	ChannelID    string
	ConnectionID string
	CreatedAt    time.Time
	Status       Status
}

var idCounter atomic.Uint64

// newID returns a ticket id unique within process lifetime. Base36 millis
// keep ids short and roughly sortable; the counter disambiguates ids minted
// in the same millisecond.
func newID(now time.Time) string {
	n := idCounter.Add(1)
	return "T" + strconv.FormatInt(now.UnixMilli(), 36) + "-" + strconv.FormatUint(n, 36)
}
