package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestOAuth(t *testing.T, handler http.Handler) *OAuth {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	o := NewOAuth(OAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:3000/auth/discord/callback",
	})
	o.tokenURL = ts.URL + "/oauth2/token"
	o.userURL = ts.URL + "/users/@me"
	return o
}

func TestAuthURL(t *testing.T) {
	o := NewOAuth(OAuthConfig{
		ClientID:    "client-id",
		RedirectURI: "http://localhost:3000/auth/discord/callback",
	})

	u := o.AuthURL()
	for _, want := range []string{
		"client_id=client-id",
		"response_type=code",
		"scope=identify+email",
	} {
		if !strings.Contains(u, want) {
			t.Fatalf("auth url missing %q: %s", want, u)
		}
	}
}

func TestExchangeAndFetchUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("code") != "the-code" || r.PostForm.Get("grant_type") != "authorization_code" {
			t.Fatalf("unexpected form: %v", r.PostForm)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"the-token","token_type":"Bearer"}`))
	})
	mux.HandleFunc("/users/@me", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer the-token" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","username":"ann","avatar":"abcd"}`))
	})

	o := newTestOAuth(t, mux)

	token, err := o.Exchange(context.Background(), "the-code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if token != "the-token" {
		t.Fatalf("unexpected token: %q", token)
	}

	user, err := o.FetchUser(context.Background(), token)
	if err != nil {
		t.Fatalf("fetch user: %v", err)
	}
	if user.ID != "1" || user.Username != "ann" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.Avatar != "https://cdn.discordapp.com/avatars/1/abcd.png" {
		t.Fatalf("unexpected avatar url: %s", user.Avatar)
	}
}

func TestExchangeRejectsErrorStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	})

	o := newTestOAuth(t, mux)
	if _, err := o.Exchange(context.Background(), "stale-code"); err == nil {
		t.Fatal("expected error for non-200 token response")
	}
}

func TestFetchUserWithoutAvatar(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/@me", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"2","username":"bob","avatar":null}`))
	})

	o := newTestOAuth(t, mux)
	user, err := o.FetchUser(context.Background(), "tok")
	if err != nil {
		t.Fatalf("fetch user: %v", err)
	}
	if user.Avatar != "" {
		t.Fatalf("expected empty avatar, got %q", user.Avatar)
	}
}
