// ABOUTME: In-process remote document store
// ABOUTME: Backs tests; supports going offline, holding calls open and call counting

package remote

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harper/daybook/internal/models"
)

// ErrUnavailable is the failure Memory returns when set offline.
var ErrUnavailable = errors.New("remote unavailable")

// Document is a stored remote record.
type Document struct {
	ID              string
	Title           string
	Link            string
	DayKey          string
	CreatedAt       int64
	CreatedAtServer int64
	Nonce           string
}

// Memory is a Store kept entirely in memory.
type Memory struct {
	mu      sync.Mutex
	docs    map[string]Document
	offline bool
	creates int
	removes int
	fetches int
	// createGate and fetchGate, when set, block calls until closed.
	createGate chan struct{}
	fetchGate  chan struct{}
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]Document)}
}

// SetOffline makes every subsequent call fail with ErrUnavailable.
func (m *Memory) SetOffline(offline bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline = offline
}

// HoldCreates blocks Create calls until the returned release func runs.
func (m *Memory) HoldCreates() (release func()) {
	return m.hold(&m.createGate)
}

// HoldFetches blocks FetchByDayKeys until the returned release func runs.
// A held fetch returns the documents present when it was called.
func (m *Memory) HoldFetches() (release func()) {
	return m.hold(&m.fetchGate)
}

func (m *Memory) hold(slot *chan struct{}) func() {
	gate := make(chan struct{})
	m.mu.Lock()
	*slot = gate
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			if *slot == gate {
				*slot = nil
			}
			m.mu.Unlock()
			close(gate)
		})
	}
}

func wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Put inserts a document directly, as another device would.
func (m *Memory) Put(doc Document) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	m.docs[doc.ID] = doc
	return doc.ID
}

// Documents returns every stored document ordered by CreatedAt.
func (m *Memory) Documents() []Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.documentsLocked()
}

func (m *Memory) documentsLocked() []Document {
	out := make([]Document, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt == out[j].CreatedAt {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt < out[j].CreatedAt
	})
	return out
}

// Calls returns how many create, remove and fetch calls were made.
func (m *Memory) Calls() (creates, removes, fetches int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates, m.removes, m.fetches
}

// FetchByDayKeys implements Store.
func (m *Memory) FetchByDayKeys(ctx context.Context, keys []string) (models.Days, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	offline := m.offline
	gate := m.fetchGate
	docs := m.documentsLocked()
	m.fetches++
	m.mu.Unlock()
	if offline {
		return nil, ErrUnavailable
	}

	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}

	days := models.Days{}
	for _, d := range docs {
		if !want[d.DayKey] {
			continue
		}
		days[d.DayKey] = append(days[d.DayKey], models.Item{
			ID:        models.ConfirmedIdentity(d.ID),
			Title:     d.Title,
			Link:      d.Link,
			CreatedAt: d.CreatedAt,
			Nonce:     d.Nonce,
		})
	}
	if err := wait(ctx, gate); err != nil {
		return nil, err
	}
	return days, nil
}

// Create implements Store.
func (m *Memory) Create(ctx context.Context, fields models.RemoteFields) (string, error) {
	m.mu.Lock()
	m.creates++
	gate := m.createGate
	m.mu.Unlock()

	if err := wait(ctx, gate); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline {
		return "", ErrUnavailable
	}
	id := uuid.New().String()
	m.docs[id] = Document{
		ID:              id,
		Title:           fields.Title,
		Link:            fields.Link,
		DayKey:          fields.DayKey,
		CreatedAt:       fields.CreatedAt,
		CreatedAtServer: time.Now().UnixMilli(),
		Nonce:           fields.Nonce,
	}
	return id, nil
}

// Remove implements Store.
func (m *Memory) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removes++
	if m.offline {
		return ErrUnavailable
	}
	delete(m.docs, id)
	return nil
}
