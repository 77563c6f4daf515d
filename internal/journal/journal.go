// ABOUTME: Journal is the public item API coordinating local cache and remote store
// ABOUTME: Local writes apply and persist first; remote writes run in the background

package journal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/daybook/internal/models"
	"github.com/harper/daybook/internal/reconcile"
	"github.com/harper/daybook/internal/remote"
	"github.com/harper/daybook/internal/storage"
	"github.com/harper/daybook/internal/timeutil"
)

const (
	// DefaultRemoteTimeout bounds every remote call.
	DefaultRemoteTimeout = 30 * time.Second
	// MinPrefixLength is the shortest identity prefix Resolve accepts.
	MinPrefixLength = 6
)

var (
	// ErrInvalidDayKey is returned for malformed day keys.
	ErrInvalidDayKey = errors.New("invalid day key")
	// ErrEmptyTitle is returned when adding an item without a title.
	ErrEmptyTitle = errors.New("title is required")
	// ErrClosed is returned by mutations after Close.
	ErrClosed = errors.New("journal closed")
	// ErrNotFound is returned by Resolve when nothing matches.
	ErrNotFound = errors.New("item not found")
)

// Options configures a Journal.
type Options struct {
	// Cache persists items locally. Required.
	Cache *storage.Cache
	// Remote is the document store. Nil disables remote sync.
	Remote remote.Store
	// Logger receives diagnostics. Nil discards them.
	Logger *log.Logger
	// Now overrides the clock.
	Now func() time.Time
	// WindowSize is the number of visible days (default 7).
	WindowSize int
	// RemoteTimeout bounds each remote call (default 30s).
	RemoteTimeout time.Duration
}

// Journal owns the authoritative in-memory item mapping.
type Journal struct {
	cache   *storage.Cache
	state   *reconcile.State
	logger  *log.Logger
	now     func() time.Time
	timeout time.Duration

	persistMu sync.Mutex

	mu          sync.Mutex
	remote      remote.Store
	windowSize  int
	available   bool
	warnedDown  bool
	closed      bool
	inflight    map[string]bool
	tombstones  map[string]bool
	promotions  []promotion
	promoteSeq  uint64
	openFetches int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// promotion records an item confirmed while a fetch may be outstanding.
type promotion struct {
	seq  uint64
	day  string
	item models.Item
}

// Open creates a Journal. Call Load to populate it.
func Open(opts Options) (*Journal, error) {
	if opts.Cache == nil {
		return nil, errors.New("journal: cache is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	size := opts.WindowSize
	if size <= 0 {
		size = timeutil.DefaultWindowSize
	}
	timeout := opts.RemoteTimeout
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	store := opts.Remote
	if store == nil {
		store = remote.Disabled{}
	}
	if !remote.Enabled(store) {
		logger.Info("remote sync disabled, working locally")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Journal{
		cache:      opts.Cache,
		state:      reconcile.NewState(nil),
		logger:     logger,
		now:        now,
		windowSize: size,
		timeout:    timeout,
		remote:     store,
		inflight:   make(map[string]bool),
		tombstones: make(map[string]bool),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Load publishes the locally cached items, then fetches and merges the
// visible window from the remote store when one is configured. Remote
// failures are logged and never returned.
func (j *Journal) Load(ctx context.Context) error {
	cached := j.cache.Load()
	j.state.Update(func(models.Days) models.Days { return cached })

	if !j.RemoteEnabled() {
		return nil
	}
	j.Refresh(ctx)
	return nil
}

// Refresh fetches the visible window from the remote store and merges it
// into local state. It reports whether the fetch succeeded.
func (j *Journal) Refresh(ctx context.Context) bool {
	j.mu.Lock()
	if j.closed || !remote.Enabled(j.remote) {
		j.mu.Unlock()
		return false
	}
	store := j.remote
	keys := j.windowLocked()
	startSeq := j.promoteSeq
	j.openFetches++
	j.mu.Unlock()

	fctx, cancel := context.WithTimeout(ctx, j.timeout)
	fetched, err := store.FetchByDayKeys(fctx, keys)
	cancel()

	if err != nil {
		j.mu.Lock()
		j.openFetches--
		j.trimPromotionsLocked()
		j.available = false
		warn := !j.warnedDown
		j.warnedDown = true
		j.mu.Unlock()
		if warn {
			j.logger.Warn("remote fetch failed, continuing with local data", "err", err)
		} else {
			j.logger.Debug("remote fetch failed", "err", err)
		}
		return false
	}

	j.mu.Lock()
	if j.closed {
		j.openFetches--
		j.mu.Unlock()
		return false
	}
	fetched = j.adjustFetchedLocked(fetched, startSeq)
	j.openFetches--
	j.trimPromotionsLocked()
	j.mu.Unlock()

	j.state.Update(func(cur models.Days) models.Days {
		return reconcile.MergeDays(cur, fetched, keys)
	})
	j.persist()

	j.markAvailable()
	return true
}

// adjustFetchedLocked hides documents removed locally this session and
// restores items promoted after the fetch was issued, which the fetch
// could not have seen. Promoted items removed since stay hidden.
func (j *Journal) adjustFetchedLocked(fetched models.Days, since uint64) models.Days {
	out := models.Days{}
	for day, items := range fetched {
		for _, item := range items {
			if id, ok := item.ID.RemoteID(); ok && j.tombstones[id] {
				continue
			}
			out[day] = append(out[day], item)
		}
	}
	for _, p := range j.promotions {
		if p.seq <= since {
			continue
		}
		if id, ok := p.item.ID.RemoteID(); ok && j.tombstones[id] {
			continue
		}
		if _, _, found := out.Find(p.item.ID); found {
			continue
		}
		out[p.day] = append(out[p.day], p.item)
		models.SortItems(out[p.day])
	}
	return out
}

func (j *Journal) trimPromotionsLocked() {
	if j.openFetches == 0 {
		j.promotions = nil
	}
}

// markAvailable records a successful remote round trip. On the transition
// from unavailable it sweeps pending items once.
func (j *Journal) markAvailable() {
	j.mu.Lock()
	was := j.available
	j.available = true
	j.warnedDown = false
	j.mu.Unlock()

	if !was {
		n := j.UploadPending()
		if n > 0 {
			j.logger.Info("uploading pending items", "count", n)
		}
	}
}

// SetRemote installs store. Installing an enabled store where none was
// available counts as an availability transition and uploads pending items.
func (j *Journal) SetRemote(store remote.Store) {
	if store == nil {
		store = remote.Disabled{}
	}

	j.mu.Lock()
	j.remote = store
	enabled := remote.Enabled(store)
	if !enabled {
		j.available = false
	}
	j.mu.Unlock()

	if enabled {
		j.markAvailable()
	} else {
		j.logger.Info("remote sync disabled, working locally")
	}
}

// RemoteEnabled reports whether a real remote store is configured.
func (j *Journal) RemoteEnabled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return remote.Enabled(j.remote)
}

// Window returns the visible day keys ending at the current date, newest
// first.
func (j *Journal) Window() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.windowLocked()
}

func (j *Journal) windowLocked() []string {
	return timeutil.VisibleDayKeys(j.now(), j.windowSize)
}

// SetWindowSize changes the number of visible days and refreshes.
func (j *Journal) SetWindowSize(ctx context.Context, size int) {
	if size <= 0 {
		size = timeutil.DefaultWindowSize
	}
	j.mu.Lock()
	j.windowSize = size
	j.mu.Unlock()
	j.Refresh(ctx)
}

// Days returns a snapshot of every day, visible or not.
func (j *Journal) Days() models.Days {
	return j.state.Snapshot()
}

// Day returns a snapshot of one day's items.
func (j *Journal) Day(key string) []models.Item {
	return j.state.Snapshot()[key]
}

// Subscribe registers fn for every state change. fn is called once
// immediately with the current state.
func (j *Journal) Subscribe(fn func(models.Days)) (cancel func()) {
	return j.state.Subscribe(reconcile.Observer(fn))
}

// AddItem appends a pending item to dayKey, persists it and returns it
// without waiting for the remote store. The remote create runs in the
// background and promotes the item when it succeeds.
func (j *Journal) AddItem(dayKey, title, link string) (models.Item, error) {
	if !timeutil.ValidDayKey(dayKey) {
		return models.Item{}, fmt.Errorf("%w: %q", ErrInvalidDayKey, dayKey)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Item{}, ErrEmptyTitle
	}
	if j.isClosed() {
		return models.Item{}, ErrClosed
	}

	item := models.NewPendingItem(title, strings.TrimSpace(link), j.now())
	j.state.Update(func(cur models.Days) models.Days {
		return reconcile.Insert(cur, dayKey, item)
	})
	j.persist()

	j.upload(dayKey, item)
	return item, nil
}

// RemoveItem deletes the item with the serialized identity id from dayKey
// and persists. Confirmed identities are also removed remotely in the
// background; a remote failure is logged and the local removal stands.
func (j *Journal) RemoveItem(dayKey, id string) (bool, error) {
	ident, err := models.ParseIdentity(id)
	if err != nil {
		return false, fmt.Errorf("remove item: %w", err)
	}
	if j.isClosed() {
		return false, ErrClosed
	}

	removed := false
	j.state.Update(func(cur models.Days) models.Days {
		next, ok := reconcile.Remove(cur, dayKey, ident)
		if !ok {
			return nil
		}
		removed = true
		return next
	})
	if removed {
		j.persist()
	}

	if remoteID, ok := ident.RemoteID(); ok {
		j.mu.Lock()
		j.tombstones[remoteID] = true
		j.mu.Unlock()
		j.async(func(ctx context.Context, store remote.Store) {
			if err := store.Remove(ctx, remoteID); err != nil {
				j.logger.Warn("remote remove failed", "id", remoteID, "err", err)
			}
		})
	}
	return removed, nil
}

// Resolve finds an item by exact serialized identity or by a unique
// identity prefix of at least MinPrefixLength characters.
func (j *Journal) Resolve(ref string) (string, models.Item, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", models.Item{}, ErrNotFound
	}

	days := j.state.Snapshot()
	if id, err := models.ParseIdentity(ref); err == nil {
		if day, idx, ok := days.Find(id); ok {
			return day, days[day][idx], nil
		}
	}
	if len(ref) < MinPrefixLength {
		return "", models.Item{}, fmt.Errorf("prefix must be at least %d characters", MinPrefixLength)
	}

	var matchDay string
	var match models.Item
	count := 0
	for _, day := range days.Keys() {
		for _, item := range days[day] {
			if strings.HasPrefix(item.ID.String(), ref) {
				matchDay, match = day, item
				count++
			}
		}
	}
	switch count {
	case 0:
		return "", models.Item{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return matchDay, match, nil
	default:
		return "", models.Item{}, fmt.Errorf("ambiguous prefix %s matches %d items", ref, count)
	}
}

// UploadPending attempts one remote create for every pending item that has
// no create in flight. It returns how many uploads were started.
func (j *Journal) UploadPending() int {
	if !j.RemoteEnabled() {
		return 0
	}
	started := 0
	for _, ref := range reconcile.PendingItems(j.state.Snapshot()) {
		if j.upload(ref.DayKey, ref.Item) {
			started++
		}
	}
	return started
}

// upload starts a background create for a pending item and promotes it on
// success. It reports whether an upload was started.
func (j *Journal) upload(day string, item models.Item) bool {
	token, ok := item.ID.Token()
	if !ok {
		return false
	}

	j.mu.Lock()
	if j.inflight[token] {
		j.mu.Unlock()
		return false
	}
	j.inflight[token] = true
	j.mu.Unlock()

	started := j.async(func(ctx context.Context, store remote.Store) {
		defer func() {
			j.mu.Lock()
			delete(j.inflight, token)
			j.mu.Unlock()
		}()

		remoteID, err := store.Create(ctx, item.Fields(day))
		if err != nil {
			j.logger.Warn("remote create failed, item stays pending", "title", item.Title, "err", err)
			return
		}
		if j.isClosed() {
			return
		}
		j.promote(ctx, store, day, item, remoteID)
	})
	if !started {
		j.mu.Lock()
		delete(j.inflight, token)
		j.mu.Unlock()
	}
	return started
}

func (j *Journal) promote(ctx context.Context, store remote.Store, day string, item models.Item, remoteID string) {
	confirmed := models.ConfirmedIdentity(remoteID)
	promoted := false
	alreadyMerged := false
	j.state.Update(func(cur models.Days) models.Days {
		next, ok := reconcile.Promote(cur, item.ID, remoteID)
		if !ok {
			_, _, alreadyMerged = cur.Find(confirmed)
			return nil
		}
		promoted = true
		return next
	})

	switch {
	case promoted:
		item.ID = confirmed
		j.mu.Lock()
		j.promoteSeq++
		if j.openFetches > 0 {
			j.promotions = append(j.promotions, promotion{seq: j.promoteSeq, day: day, item: item})
		}
		j.mu.Unlock()
		j.persist()
	case alreadyMerged:
		// A fetch already replaced the pending copy with this document.
	default:
		// Removed locally while the create was in flight.
		j.logger.Debug("removing orphaned remote item", "id", remoteID)
		j.mu.Lock()
		j.tombstones[remoteID] = true
		j.mu.Unlock()
		if err := store.Remove(ctx, remoteID); err != nil {
			j.logger.Warn("remote remove of orphan failed", "id", remoteID, "err", err)
		}
	}
}

// async runs fn in the background against the current remote store. It
// reports false without running fn when the journal is closed or remote
// sync is disabled.
func (j *Journal) async(fn func(ctx context.Context, store remote.Store)) bool {
	j.mu.Lock()
	if j.closed || !remote.Enabled(j.remote) {
		j.mu.Unlock()
		return false
	}
	store := j.remote
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		ctx, cancel := context.WithTimeout(j.ctx, j.timeout)
		defer cancel()
		fn(ctx, store)
	}()
	return true
}

// persist saves the latest state. Failures are logged; the next mutation
// tries again.
func (j *Journal) persist() {
	j.persistMu.Lock()
	defer j.persistMu.Unlock()
	if err := j.cache.Save(j.state.Snapshot()); err != nil {
		j.logger.Warn("save local cache", "err", err)
	}
}

func (j *Journal) isClosed() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.closed
}

// Wait blocks until every background remote call has finished.
func (j *Journal) Wait() {
	j.wg.Wait()
}

// Close stops accepting mutations, abandons in-flight remote calls and
// waits for their goroutines to exit. Results arriving after Close are
// ignored.
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	j.mu.Unlock()

	j.cancel()
	j.wg.Wait()
	return nil
}

// Stats summarises local state.
type Stats struct {
	Days    int
	Items   int
	Pending int
	Remote  bool
}

// Stats returns counts over every locally known day.
func (j *Journal) Stats() Stats {
	days := j.state.Snapshot()
	return Stats{
		Days:    len(days),
		Items:   days.Count(),
		Pending: days.PendingCount(),
		Remote:  j.RemoteEnabled(),
	}
}
