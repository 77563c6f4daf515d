// ABOUTME: Tests for the disabled and in-memory remote stores
// ABOUTME: Verifies ordering, day filtering, failure injection, and create gating

package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harper/daybook/internal/models"
)

func TestDisabled(t *testing.T) {
	var s Store = Disabled{}
	ctx := context.Background()

	days, err := s.FetchByDayKeys(ctx, []string{"2024-01-01"})
	if err != nil || len(days) != 0 {
		t.Errorf("FetchByDayKeys() = (%v, %v), want empty", days, err)
	}
	if _, err := s.Create(ctx, models.RemoteFields{Title: "A"}); !errors.Is(err, ErrDisabled) {
		t.Errorf("Create() error = %v, want ErrDisabled", err)
	}
	if err := s.Remove(ctx, "r1"); err != nil {
		t.Errorf("Remove() error = %v", err)
	}
}

func TestEnabled(t *testing.T) {
	if Enabled(nil) {
		t.Error("nil store should not be enabled")
	}
	if Enabled(Disabled{}) || Enabled(&Disabled{}) {
		t.Error("Disabled should not be enabled")
	}
	if !Enabled(NewMemory()) {
		t.Error("Memory should be enabled")
	}
}

func TestMemoryFetchFiltersAndOrders(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Put(Document{ID: "late", Title: "Late", DayKey: "2024-01-01", CreatedAt: 300})
	m.Put(Document{ID: "early", Title: "Early", DayKey: "2024-01-01", CreatedAt: 100})
	m.Put(Document{ID: "other", Title: "Other", DayKey: "2023-12-01", CreatedAt: 200})

	days, err := m.FetchByDayKeys(ctx, []string{"2024-01-01", "2024-01-02"})
	if err != nil {
		t.Fatalf("FetchByDayKeys: %v", err)
	}
	if _, ok := days["2023-12-01"]; ok {
		t.Error("expected unrequested day to be excluded")
	}

	items := days["2024-01-01"]
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Title != "Early" || items[1].Title != "Late" {
		t.Errorf("unexpected order: %s, %s", items[0].Title, items[1].Title)
	}
	for _, it := range items {
		if it.Pending() {
			t.Errorf("remote item %s should be confirmed", it.ID)
		}
	}
}

func TestMemoryCreateAndRemove(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.Create(ctx, models.RemoteFields{Title: "A", DayKey: "2024-01-01", CreatedAt: 1000, Nonce: "n1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	docs := m.Documents()
	if len(docs) != 1 || docs[0].ID != id || docs[0].Nonce != "n1" {
		t.Fatalf("unexpected documents: %+v", docs)
	}
	if docs[0].CreatedAtServer == 0 {
		t.Error("expected server timestamp to be assigned")
	}

	if err := m.Remove(ctx, id); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := m.Remove(ctx, "unknown"); err != nil {
		t.Errorf("removing unknown id should succeed, got %v", err)
	}
	if len(m.Documents()) != 0 {
		t.Error("expected store to be empty")
	}

	creates, removes, _ := m.Calls()
	if creates != 1 || removes != 2 {
		t.Errorf("Calls() = (%d, %d), want (1, 2)", creates, removes)
	}
}

func TestMemoryOffline(t *testing.T) {
	m := NewMemory()
	m.SetOffline(true)
	ctx := context.Background()

	if _, err := m.FetchByDayKeys(ctx, []string{"2024-01-01"}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("FetchByDayKeys() error = %v", err)
	}
	if _, err := m.Create(ctx, models.RemoteFields{}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Create() error = %v", err)
	}
	if err := m.Remove(ctx, "x"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Remove() error = %v", err)
	}
}

func TestMemoryHoldCreates(t *testing.T) {
	m := NewMemory()
	release := m.HoldCreates()

	done := make(chan string, 1)
	go func() {
		id, _ := m.Create(context.Background(), models.RemoteFields{Title: "held"})
		done <- id
	}()

	select {
	case <-done:
		t.Fatal("create returned while held")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	select {
	case id := <-done:
		if id == "" {
			t.Error("expected identity after release")
		}
	case <-time.After(time.Second):
		t.Fatal("create did not complete after release")
	}
}

func TestMemoryHoldFetches(t *testing.T) {
	m := NewMemory()
	m.Put(Document{Title: "before", DayKey: "2024-01-01", CreatedAt: 1})
	release := m.HoldFetches()

	done := make(chan models.Days, 1)
	go func() {
		days, _ := m.FetchByDayKeys(context.Background(), []string{"2024-01-01"})
		done <- days
	}()

	select {
	case <-done:
		t.Fatal("fetch returned while held")
	case <-time.After(20 * time.Millisecond):
	}

	m.Put(Document{Title: "after", DayKey: "2024-01-01", CreatedAt: 2})
	release()

	select {
	case days := <-done:
		if len(days["2024-01-01"]) != 1 || days["2024-01-01"][0].Title != "before" {
			t.Errorf("expected only the document present at call time, got %+v", days)
		}
	case <-time.After(time.Second):
		t.Fatal("fetch did not complete after release")
	}
}

func TestMemoryCreateCanceled(t *testing.T) {
	m := NewMemory()
	release := m.HoldCreates()
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Create(ctx, models.RemoteFields{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
