package ticket

import (
	"fmt"
	"sync"
	"testing"
)

func TestStoreCreateAndLookups(t *testing.T) {
	s := NewStore(3)
	ann := User{ID: "1", Username: "ann"}

	tk, err := s.Create(ann, "chan-1", "conn-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tk.ID == "" || tk.Status != StatusOpen {
		t.Fatalf("unexpected ticket: %+v", tk)
	}

	byID, ok := s.FindByID(tk.ID)
	if !ok || byID.ChannelID != "chan-1" {
		t.Fatalf("FindByID mismatch: %+v ok=%v", byID, ok)
	}

	byChan, ok := s.FindByChannel("chan-1")
	if !ok || byChan.ID != tk.ID {
		t.Fatalf("FindByChannel mismatch: %+v ok=%v", byChan, ok)
	}

	latest, ok := s.FindOpenTicketFor("1")
	if !ok || latest.ID != tk.ID {
		t.Fatalf("FindOpenTicketFor mismatch: %+v ok=%v", latest, ok)
	}
}

func TestStoreLastTicketWins(t *testing.T) {
	s := NewStore(3)
	ann := User{ID: "1", Username: "ann"}

	first, _ := s.Create(ann, "chan-1", "conn-1")
	second, _ := s.Create(ann, "chan-2", "conn-1")

	latest, ok := s.FindOpenTicketFor("1")
	if !ok || latest.ID != second.ID {
		t.Fatalf("expected most recent ticket %s, got %+v", second.ID, latest)
	}

	// Closing the newest one falls back to the older ticket.
	if _, err := s.Close(second.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	latest, ok = s.FindOpenTicketFor("1")
	if !ok || latest.ID != first.ID {
		t.Fatalf("expected fallback to %s, got %+v", first.ID, latest)
	}
}

func TestStoreQuota(t *testing.T) {
	s := NewStore(3)
	ann := User{ID: "1", Username: "ann"}

	for i := 0; i < 3; i++ {
		if _, err := s.Create(ann, fmt.Sprintf("chan-%d", i), "conn-1"); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	if s.CanOpen("1") {
		t.Fatal("CanOpen should report false at the limit")
	}
	if _, err := s.Create(ann, "chan-4", "conn-1"); err != ErrQuotaExceeded {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if got := s.OpenCount("1"); got != 3 {
		t.Fatalf("open count changed on rejected create: %d", got)
	}

	// Another user is unaffected by ann's quota.
	if !s.CanOpen("2") {
		t.Fatal("quota must be per user")
	}
}

func TestStoreCloseRemovesAllIndices(t *testing.T) {
	s := NewStore(3)
	ann := User{ID: "1", Username: "ann"}
	tk, _ := s.Create(ann, "chan-1", "conn-1")

	removed, err := s.Close(tk.ID)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if removed.Status != StatusClosed || removed.ChannelID != "chan-1" {
		t.Fatalf("unexpected removed record: %+v", removed)
	}

	if _, ok := s.FindByID(tk.ID); ok {
		t.Fatal("byID still references closed ticket")
	}
	if _, ok := s.FindByChannel("chan-1"); ok {
		t.Fatal("byChannel still references closed ticket")
	}
	if got := s.OpenCount("1"); got != 0 {
		t.Fatalf("byUser still references closed ticket: %d", got)
	}

	// Double close is NotFound, not a silent success.
	if _, err := s.Close(tk.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreRebindConnection(t *testing.T) {
	s := NewStore(3)
	tk, _ := s.Create(User{ID: "1", Username: "ann"}, "chan-1", "conn-1")

	if !s.RebindConnection(tk.ID, "conn-2") {
		t.Fatal("rebind on open ticket failed")
	}
	got, _ := s.FindByID(tk.ID)
	if got.ConnectionID != "conn-2" {
		t.Fatalf("connection not rebound: %+v", got)
	}

	if s.RebindConnection("missing", "conn-3") {
		t.Fatal("rebind on unknown ticket should fail")
	}
}

func TestStoreQuotaUnderConcurrentCreates(t *testing.T) {
	s := NewStore(3)
	ann := User{ID: "1", Username: "ann"}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Create(ann, fmt.Sprintf("chan-%d", i), "conn-1")
		}(i)
	}
	wg.Wait()

	if got := s.OpenCount("1"); got != 3 {
		t.Fatalf("quota violated under concurrency: %d open", got)
	}
}
