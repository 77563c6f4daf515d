// ABOUTME: State container owning the authoritative day mapping
// ABOUTME: Atomic read-modify-write updates with ordered observer notifications

package reconcile

import (
	"sort"
	"sync"

	"github.com/harper/daybook/internal/models"
)

// Observer receives a snapshot after every installed update. Snapshots are
// private copies. Observers must not call Update or Subscribe.
type Observer func(models.Days)

// State holds the current mapping. The only way to change it is Update, so
// every transition is computed from the latest installed value.
type State struct {
	mu      sync.Mutex
	days    models.Days
	version uint64

	// notifyMu serialises delivery so observers see versions in order.
	notifyMu  sync.Mutex
	observers map[int]Observer
	nextID    int
}

// NewState creates a State holding initial (nil means empty).
func NewState(initial models.Days) *State {
	if initial == nil {
		initial = models.Days{}
	}
	return &State{days: initial.Clone(), observers: make(map[int]Observer)}
}

// Snapshot returns a copy of the current mapping.
func (s *State) Snapshot() models.Days {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.days.Clone()
}

// Version increments on every installed update.
func (s *State) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Update reads the current mapping, passes a copy to fn, and installs what
// fn returns. Returning nil leaves the state unchanged and skips observers.
// fn must not call back into the State. Update returns the installed
// mapping and whether anything was installed.
func (s *State) Update(fn func(models.Days) models.Days) (models.Days, bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	next := fn(s.days.Clone())
	if next == nil {
		s.mu.Unlock()
		return nil, false
	}
	s.days = next.Clone()
	s.version++
	observers := make([]Observer, 0, len(s.observers))
	for _, id := range sortedIDs(s.observers) {
		observers = append(observers, s.observers[id])
	}
	s.mu.Unlock()

	for _, o := range observers {
		o(next.Clone())
	}
	return next.Clone(), true
}

// Subscribe registers o and immediately delivers the current snapshot.
// The returned func unregisters it.
func (s *State) Subscribe(o Observer) (cancel func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = o
	current := s.days.Clone()
	s.mu.Unlock()

	o(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

func sortedIDs(m map[int]Observer) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
