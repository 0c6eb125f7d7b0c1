package relay

import (
	"sync"

	"github.com/khxzi/ticketbridge/internal/ticket"
)

// Conn is one live website session as seen by the relay. A connection is
// anonymous until Bind associates it with an authenticated user; the
// association holds for the connection's remaining lifetime.
type Conn struct {
	ID     string
	Events chan Event

	mu   sync.Mutex
	user *ticket.User
}

// NewConn constructs a connection with an initialized event channel.
func NewConn(id string) *Conn {
	return &Conn{
		ID:     id,
		Events: make(chan Event, 8),
	}
}

// Bind attaches the authenticated user to the connection.
func (c *Conn) Bind(u ticket.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = &u
}

// User returns the bound user, or false if the connection is anonymous.
func (c *Conn) User() (ticket.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return ticket.User{}, false
	}
	return *c.user, true
}

// Registry tracks live connections by id and delivers events to them.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewRegistry constructs an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Conn)}
}

// Register inserts a connection into the registry.
func (r *Registry) Register(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID] = c
}

// Unregister removes a connection from the registry.
func (r *Registry) Unregister(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, c.ID)
}

// Get returns the connection with the given id.
func (r *Registry) Get(id string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

// Emit delivers an event to the connection with the given id. Events to a
// connection that has gone away, or whose buffer is full, are dropped;
// the relay keeps no queue for absent receivers.
func (r *Registry) Emit(id string, event Event) bool {
	r.mu.RLock()
	c, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	select {
	case c.Events <- event:
		return true
	default:
		return false
	}
}
