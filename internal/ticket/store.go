package ticket

import (
	"errors"
	"sync"
	"time"
)

// DefaultMaxOpen is the per-user open ticket limit when none is configured.
const DefaultMaxOpen = 3

var (
	// ErrQuotaExceeded means the user already holds the maximum number of
	// open tickets.
	ErrQuotaExceeded = errors.New("open ticket quota exceeded")
	// ErrNotFound means no ticket with the given id is currently open.
	ErrNotFound = errors.New("ticket not found")
)

// Store holds every open ticket and the three indices that address them:
// by ticket id, by platform channel, and per user in creation order. All
// mutation goes through Store methods so the indices can never drift apart.
type Store struct {
	mu      sync.RWMutex
	maxOpen int

	byID      map[string]*Ticket
	byChannel map[string]string   // channelID -> ticketID
	byUser    map[string][]string // userID -> ticketIDs, append order
}

// NewStore builds an empty store. maxOpen <= 0 selects DefaultMaxOpen.
func NewStore(maxOpen int) *Store {
	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpen
	}
	return &Store{
		maxOpen:   maxOpen,
		byID:      make(map[string]*Ticket),
		byChannel: make(map[string]string),
		byUser:    make(map[string][]string),
	}
}

// MaxOpen returns the per-user open ticket limit.
func (s *Store) MaxOpen() int {
	return s.maxOpen
}

// CanOpen reports whether the user is below the open ticket limit.
func (s *Store) CanOpen(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byUser[userID]) < s.maxOpen
}

// OpenCount returns how many tickets the user currently holds open.
func (s *Store) OpenCount(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byUser[userID])
}

// Create registers a new open ticket for the user, bound to the given
// channel and connection, inserting it into all three indices atomically.
// Fails with ErrQuotaExceeded when the user is at the limit.
func (s *Store) Create(user User, channelID, connectionID string) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.byUser[user.ID]) >= s.maxOpen {
		return Ticket{}, ErrQuotaExceeded
	}

	now := time.Now()
	t := &Ticket{
		ID:           newID(now),
		User:         user,
		ChannelID:    channelID,
		ConnectionID: connectionID,
		CreatedAt:    now,
		Status:       StatusOpen,
	}

	s.byID[t.ID] = t
	s.byChannel[channelID] = t.ID
	s.byUser[user.ID] = append(s.byUser[user.ID], t.ID)
	return *t, nil
}

// FindByID returns a copy of the ticket with the given id.
func (s *Store) FindByID(ticketID string) (Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.byID[ticketID]
	if !ok {
		return Ticket{}, false
	}
	return *t, true
}

// FindByChannel returns a copy of the ticket bound to the given channel.
func (s *Store) FindByChannel(channelID string) (Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byChannel[channelID]
	if !ok {
		return Ticket{}, false
	}
	t, ok := s.byID[id]
	if !ok {
		return Ticket{}, false
	}
	return *t, true
}

// FindOpenTicketFor returns the user's most recently created open ticket.
// This is the implicit target when a message carries no explicit ticket id.
func (s *Store) FindOpenTicketFor(userID string) (Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byUser[userID]
	if len(ids) == 0 {
		return Ticket{}, false
	}
	t, ok := s.byID[ids[len(ids)-1]]
	if !ok {
		return Ticket{}, false
	}
	return *t, true
}

// RebindConnection points the ticket's delivery target at a new live
// connection. Returns false if the ticket is not open.
func (s *Store) RebindConnection(ticketID, connectionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[ticketID]
	if !ok {
		return false
	}
	t.ConnectionID = connectionID
	return true
}

// Close removes the ticket from all three indices atomically and returns
// the removed record for notification purposes. Closing an id that is not
// open fails with ErrNotFound, so double closes are detectable.
func (s *Store) Close(ticketID string) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[ticketID]
	if !ok {
		return Ticket{}, ErrNotFound
	}

	delete(s.byID, ticketID)
	delete(s.byChannel, t.ChannelID)

	ids := s.byUser[t.User.ID]
	kept := ids[:0]
	for _, id := range ids {
		if id != ticketID {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		delete(s.byUser, t.User.ID)
	} else {
		s.byUser[t.User.ID] = kept
	}

	removed := *t
	removed.Status = StatusClosed
	return removed, nil
}
