package http

import (
	"context"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/khxzi/ticketbridge/internal/auth"
	"github.com/khxzi/ticketbridge/internal/config"
	"github.com/khxzi/ticketbridge/internal/relay"
	"github.com/khxzi/ticketbridge/internal/ticket"
)

// stubPlatform stands in for the Discord adapter in transport tests.
type stubPlatform struct {
	mu       sync.Mutex
	nextID   int
	messages map[string][]string
	deleted  []string
}

func newStubPlatform() *stubPlatform {
	return &stubPlatform{messages: make(map[string][]string)}
}

func (f *stubPlatform) CreateChannel(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return fmt.Sprintf("chan-%d", f.nextID), nil
}

func (f *stubPlatform) SendMessage(_ context.Context, channelID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[channelID] = append(f.messages[channelID], text)
	return nil
}

func (f *stubPlatform) DeleteChannel(_ context.Context, channelID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, channelID)
	return nil
}

func testSessionConfig() *auth.SessionConfig {
	return &auth.SessionConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "ticketbridge-test",
		Audience: "ticketbridge-web",
		TTL:      time.Hour,
	}
}

// startTestServer wires a relay engine with a stub platform behind the real
// router and returns everything a test needs to drive it.
func startTestServer(t *testing.T) (*httptest.Server, *relay.Engine, *ticket.Store, *stubPlatform, *auth.SessionConfig) {
	t.Helper()

	logger := zerolog.Nop()
	store := ticket.NewStore(3)
	conns := relay.NewRegistry()
	pf := newStubPlatform()
	engine := relay.New(store, conns, pf, nil, &logger)

	session := testSessionConfig()
	oauth := auth.NewOAuth(auth.OAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:3000/auth/discord/callback",
	})

	server := NewServer(engine, conns, oauth, session, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, engine, store, pf, session
}

func sessionToken(t *testing.T, session *auth.SessionConfig, user ticket.User) string {
	t.Helper()
	token, err := auth.GenerateToken(session, user)
	if err != nil {
		t.Fatalf("generate session token: %v", err)
	}
	return token
}
