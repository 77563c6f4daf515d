// ABOUTME: Tests for the journal façade
// ABOUTME: Covers local-first writes, background promotion, merge on load and removal

package journal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/daybook/internal/models"
	"github.com/harper/daybook/internal/remote"
	"github.com/harper/daybook/internal/storage"
	"github.com/harper/daybook/internal/timeutil"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local)

func clock() time.Time { return fixedNow }

func today() string { return timeutil.DayKey(fixedNow) }

func openJournal(t *testing.T, kv storage.KV, store remote.Store) *Journal {
	t.Helper()
	j, err := Open(Options{
		Cache:  storage.NewCache(kv, nil),
		Remote: store,
		Now:    clock,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func persisted(t *testing.T, kv storage.KV) models.Days {
	t.Helper()
	return storage.NewCache(kv, nil).Load()
}

func TestOpenRequiresCache(t *testing.T) {
	_, err := Open(Options{})
	assert.Error(t, err)
}

func TestAddItemIsLocalFirst(t *testing.T) {
	kv := storage.NewMemoryKV()
	mem := remote.NewMemory()
	j := openJournal(t, kv, mem)
	require.NoError(t, j.Load(context.Background()))

	release := mem.HoldCreates()
	item, err := j.AddItem(today(), "  coffee with sam ", "https://example.com")
	require.NoError(t, err)

	assert.True(t, item.Pending())
	assert.Equal(t, "coffee with sam", item.Title)
	assert.Equal(t, fixedNow.UnixMilli(), item.CreatedAt)
	assert.NotEmpty(t, item.Nonce)

	// Visible and persisted before the remote create resolves.
	require.Len(t, j.Day(today()), 1)
	assert.True(t, j.Day(today())[0].Pending())
	require.Len(t, persisted(t, kv)[today()], 1)
	assert.Empty(t, mem.Documents())

	release()
	j.Wait()

	got := j.Day(today())
	require.Len(t, got, 1)
	assert.False(t, got[0].Pending())
	assert.Equal(t, item.Nonce, got[0].Nonce)

	docs := mem.Documents()
	require.Len(t, docs, 1)
	id, ok := got[0].ID.RemoteID()
	require.True(t, ok)
	assert.Equal(t, docs[0].ID, id)
	assert.Equal(t, today(), docs[0].DayKey)
	assert.Equal(t, item.Nonce, docs[0].Nonce)

	onDisk := persisted(t, kv)[today()]
	require.Len(t, onDisk, 1)
	assert.False(t, onDisk[0].Pending())
}

func TestAddItemValidation(t *testing.T) {
	j := openJournal(t, storage.NewMemoryKV(), nil)

	_, err := j.AddItem("2024-13-01", "x", "")
	assert.True(t, errors.Is(err, ErrInvalidDayKey))

	_, err = j.AddItem("yesterday", "x", "")
	assert.True(t, errors.Is(err, ErrInvalidDayKey))

	_, err = j.AddItem(today(), "   ", "")
	assert.True(t, errors.Is(err, ErrEmptyTitle))

	assert.Empty(t, j.Days())
}

func TestAddItemOrdersByCreatedAt(t *testing.T) {
	kv := storage.NewMemoryKV()
	now := fixedNow
	j, err := Open(Options{
		Cache: storage.NewCache(kv, nil),
		Now:   func() time.Time { return now },
	})
	require.NoError(t, err)
	defer j.Close()

	_, err = j.AddItem(today(), "second", "")
	require.NoError(t, err)
	now = fixedNow.Add(-time.Hour)
	_, err = j.AddItem(today(), "first", "")
	require.NoError(t, err)

	items := j.Day(today())
	require.Len(t, items, 2)
	assert.Equal(t, "first", items[0].Title)
	assert.Equal(t, "second", items[1].Title)
}

func TestRemoteFailureLeavesItemPendingUntilSweep(t *testing.T) {
	mem := remote.NewMemory()
	j := openJournal(t, storage.NewMemoryKV(), mem)
	ctx := context.Background()
	require.NoError(t, j.Load(ctx))

	mem.SetOffline(true)
	_, err := j.AddItem(today(), "offline note", "")
	require.NoError(t, err)
	j.Wait()
	require.Len(t, j.Day(today()), 1)
	assert.True(t, j.Day(today())[0].Pending())

	assert.False(t, j.Refresh(ctx))
	assert.True(t, j.Day(today())[0].Pending(), "failed fetch must not touch local state")

	mem.SetOffline(false)
	assert.True(t, j.Refresh(ctx))
	j.Wait()

	items := j.Day(today())
	require.Len(t, items, 1)
	assert.False(t, items[0].Pending())
	assert.Len(t, mem.Documents(), 1)

	creates, _, _ := mem.Calls()
	assert.Equal(t, 2, creates)

	// Another successful fetch is not a transition and starts no uploads.
	assert.True(t, j.Refresh(ctx))
	j.Wait()
	creates, _, _ = mem.Calls()
	assert.Equal(t, 2, creates)
}

func TestLoadMergesRemoteIntoCache(t *testing.T) {
	kv := storage.NewMemoryKV()
	day := today()
	created := fixedNow.Add(-2 * time.Hour).UnixMilli()

	seed := models.Days{
		day: {
			{ID: models.PendingIdentity("aaa"), Title: "uploaded", CreatedAt: created},
			{ID: models.PendingIdentity("bbb"), Title: "never sent", CreatedAt: created + 10},
			{ID: models.ConfirmedIdentity("stale"), Title: "deleted elsewhere", CreatedAt: created - 10},
		},
	}
	require.NoError(t, storage.NewCache(kv, nil).Save(seed))

	mem := remote.NewMemory()
	mem.Put(remote.Document{ID: "r1", Title: "uploaded", DayKey: day, CreatedAt: created})
	mem.Put(remote.Document{ID: "r2", Title: "from phone", DayKey: day, CreatedAt: created + 5})

	release := mem.HoldCreates()
	defer release()

	j := openJournal(t, kv, mem)
	require.NoError(t, j.Load(context.Background()))

	items := j.Day(day)
	require.Len(t, items, 3)
	assert.Equal(t, models.ConfirmedIdentity("r1"), items[0].ID)
	assert.Equal(t, models.ConfirmedIdentity("r2"), items[1].ID)
	assert.Equal(t, "never sent", items[2].Title)
	assert.True(t, items[2].Pending())

	assert.Equal(t, j.Days(), persisted(t, kv))
}

func TestLoadWithUnavailableRemoteKeepsLocal(t *testing.T) {
	kv := storage.NewMemoryKV()
	seed := models.Days{today(): {{ID: models.ConfirmedIdentity("c1"), Title: "kept", CreatedAt: 1}}}
	require.NoError(t, storage.NewCache(kv, nil).Save(seed))

	mem := remote.NewMemory()
	mem.SetOffline(true)
	j := openJournal(t, kv, mem)

	require.NoError(t, j.Load(context.Background()))
	assert.Equal(t, seed, j.Days())
}

func TestLoadRecoversFromCorruptCache(t *testing.T) {
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(storage.ItemsKey, []byte("{not json")))

	j := openJournal(t, kv, nil)
	require.NoError(t, j.Load(context.Background()))
	assert.Empty(t, j.Days())

	_, err := j.AddItem(today(), "fresh start", "")
	require.NoError(t, err)
	assert.Len(t, persisted(t, kv)[today()], 1)
}

func TestRemoveConfirmedItemRemovesRemotely(t *testing.T) {
	kv := storage.NewMemoryKV()
	mem := remote.NewMemory()
	j := openJournal(t, kv, mem)
	require.NoError(t, j.Load(context.Background()))

	_, err := j.AddItem(today(), "to delete", "")
	require.NoError(t, err)
	j.Wait()

	item := j.Day(today())[0]
	require.False(t, item.Pending())

	removed, err := j.RemoveItem(today(), item.ID.String())
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, j.Days())
	assert.Empty(t, persisted(t, kv))

	j.Wait()
	assert.Empty(t, mem.Documents())
	_, removes, _ := mem.Calls()
	assert.Equal(t, 1, removes)
}

func TestRemoveStandsWhenRemoteRemoveFails(t *testing.T) {
	mem := remote.NewMemory()
	j := openJournal(t, storage.NewMemoryKV(), mem)
	ctx := context.Background()
	require.NoError(t, j.Load(ctx))

	_, err := j.AddItem(today(), "sticky", "")
	require.NoError(t, err)
	j.Wait()
	item := j.Day(today())[0]

	mem.SetOffline(true)
	removed, err := j.RemoveItem(today(), item.ID.String())
	require.NoError(t, err)
	assert.True(t, removed)
	j.Wait()

	assert.Empty(t, j.Days())
	assert.Len(t, mem.Documents(), 1)

	// The document survives remotely but stays hidden for this session.
	mem.SetOffline(false)
	require.True(t, j.Refresh(ctx))
	assert.Empty(t, j.Days())
}

func TestRemovePendingDuringCreateDeletesOrphan(t *testing.T) {
	mem := remote.NewMemory()
	j := openJournal(t, storage.NewMemoryKV(), mem)
	require.NoError(t, j.Load(context.Background()))

	release := mem.HoldCreates()
	item, err := j.AddItem(today(), "changed my mind", "")
	require.NoError(t, err)

	removed, err := j.RemoveItem(today(), item.ID.String())
	require.NoError(t, err)
	assert.True(t, removed)

	release()
	j.Wait()

	assert.Empty(t, j.Days())
	assert.Empty(t, mem.Documents())
	creates, removes, _ := mem.Calls()
	assert.Equal(t, 1, creates)
	assert.Equal(t, 1, removes)
}

func TestRemoveUnknownItem(t *testing.T) {
	j := openJournal(t, storage.NewMemoryKV(), nil)

	removed, err := j.RemoveItem(today(), models.NewLocalIdentity().String())
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = j.RemoveItem(today(), "")
	assert.Error(t, err)
}

func TestDisabledRemoteWorksLocally(t *testing.T) {
	kv := storage.NewMemoryKV()
	j := openJournal(t, kv, nil)
	require.NoError(t, j.Load(context.Background()))

	assert.False(t, j.RemoteEnabled())
	assert.False(t, j.Refresh(context.Background()))

	item, err := j.AddItem(today(), "local only", "")
	require.NoError(t, err)
	j.Wait()

	assert.True(t, j.Day(today())[0].Pending())
	assert.Equal(t, 0, j.UploadPending())

	removed, err := j.RemoveItem(today(), item.ID.String())
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, persisted(t, kv))
}

func TestSetRemoteSweepsPendingOnce(t *testing.T) {
	j := openJournal(t, storage.NewMemoryKV(), nil)
	require.NoError(t, j.Load(context.Background()))

	_, err := j.AddItem(today(), "one", "")
	require.NoError(t, err)
	_, err = j.AddItem(timeutil.DayKey(fixedNow.AddDate(0, 0, -1)), "two", "")
	require.NoError(t, err)
	assert.Equal(t, 2, j.Days().PendingCount())

	mem := remote.NewMemory()
	j.SetRemote(mem)
	j.Wait()

	assert.Equal(t, 0, j.Days().PendingCount())
	assert.Len(t, mem.Documents(), 2)

	j.SetRemote(mem)
	j.Wait()
	creates, _, _ := mem.Calls()
	assert.Equal(t, 2, creates)
}

func TestSweepSkipsItemsWithCreateInFlight(t *testing.T) {
	mem := remote.NewMemory()
	j := openJournal(t, storage.NewMemoryKV(), mem)
	require.NoError(t, j.Load(context.Background()))

	release := mem.HoldCreates()
	_, err := j.AddItem(today(), "once", "")
	require.NoError(t, err)

	assert.Equal(t, 0, j.UploadPending())

	release()
	j.Wait()
	creates, _, _ := mem.Calls()
	assert.Equal(t, 1, creates)
	assert.Len(t, mem.Documents(), 1)
}

func TestFetchAfterCreateDoesNotDuplicate(t *testing.T) {
	mem := remote.NewMemory()
	j := openJournal(t, storage.NewMemoryKV(), mem)
	ctx := context.Background()
	require.NoError(t, j.Load(ctx))

	_, err := j.AddItem(today(), "same title", "")
	require.NoError(t, err)
	_, err = j.AddItem(today(), "same title", "")
	require.NoError(t, err)
	j.Wait()

	require.True(t, j.Refresh(ctx))
	require.True(t, j.Refresh(ctx))

	items := j.Day(today())
	assert.Len(t, items, 2)
	assert.Len(t, mem.Documents(), 2)
}

// refreshHeld starts a Refresh whose fetch stays open until finish is
// called. finish releases the fetch and waits for Refresh to return.
func refreshHeld(t *testing.T, j *Journal, mem *remote.Memory) (finish func() bool) {
	t.Helper()
	_, _, before := mem.Calls()
	release := mem.HoldFetches()

	done := make(chan bool, 1)
	go func() { done <- j.Refresh(context.Background()) }()

	require.Eventually(t, func() bool {
		_, _, fetches := mem.Calls()
		return fetches > before
	}, time.Second, time.Millisecond)

	return func() bool {
		release()
		select {
		case ok := <-done:
			return ok
		case <-time.After(time.Second):
			t.Fatal("refresh did not return after release")
			return false
		}
	}
}

func TestPromotionDuringFetchSurvivesMerge(t *testing.T) {
	kv := storage.NewMemoryKV()
	mem := remote.NewMemory()
	j := openJournal(t, kv, mem)
	require.NoError(t, j.Load(context.Background()))

	finish := refreshHeld(t, j, mem)

	_, err := j.AddItem(today(), "written mid-fetch", "")
	require.NoError(t, err)
	j.Wait()
	require.Len(t, j.Day(today()), 1)
	require.False(t, j.Day(today())[0].Pending())

	require.True(t, finish())

	got := j.Day(today())
	require.Len(t, got, 1)
	assert.False(t, got[0].Pending())
	assert.Equal(t, "written mid-fetch", got[0].Title)
	assert.Len(t, persisted(t, kv)[today()], 1)
}

func TestRemoveDuringFetchStaysRemoved(t *testing.T) {
	kv := storage.NewMemoryKV()
	mem := remote.NewMemory()
	j := openJournal(t, kv, mem)
	require.NoError(t, j.Load(context.Background()))

	_, err := j.AddItem(today(), "short lived", "")
	require.NoError(t, err)
	j.Wait()
	item := j.Day(today())[0]
	require.False(t, item.Pending())

	// The held fetch already holds the document.
	finish := refreshHeld(t, j, mem)

	removed, err := j.RemoveItem(today(), item.ID.String())
	require.NoError(t, err)
	require.True(t, removed)
	j.Wait()
	assert.Empty(t, mem.Documents())

	require.True(t, finish())

	assert.Empty(t, j.Day(today()))
	assert.Empty(t, persisted(t, kv)[today()])
}

func TestRemovePromotedItemDuringFetchStaysRemoved(t *testing.T) {
	kv := storage.NewMemoryKV()
	mem := remote.NewMemory()
	j := openJournal(t, kv, mem)
	require.NoError(t, j.Load(context.Background()))

	finish := refreshHeld(t, j, mem)

	_, err := j.AddItem(today(), "A", "")
	require.NoError(t, err)
	j.Wait()
	item := j.Day(today())[0]
	require.False(t, item.Pending())

	removed, err := j.RemoveItem(today(), item.ID.String())
	require.NoError(t, err)
	require.True(t, removed)
	j.Wait()
	assert.Empty(t, mem.Documents())

	require.True(t, finish())

	assert.Empty(t, j.Day(today()), "removed item came back after fetch")
	assert.Empty(t, persisted(t, kv)[today()])
}

func TestCloseDropsLateResults(t *testing.T) {
	mem := remote.NewMemory()
	j := openJournal(t, storage.NewMemoryKV(), mem)
	require.NoError(t, j.Load(context.Background()))

	release := mem.HoldCreates()
	defer release()

	_, err := j.AddItem(today(), "racing close", "")
	require.NoError(t, err)
	require.NoError(t, j.Close())

	assert.True(t, j.Day(today())[0].Pending())

	_, err = j.AddItem(today(), "too late", "")
	assert.True(t, errors.Is(err, ErrClosed))
	_, err = j.RemoveItem(today(), "local-x")
	assert.True(t, errors.Is(err, ErrClosed))
	assert.NoError(t, j.Close())
}

func TestLocalWriteFailureKeepsMemoryState(t *testing.T) {
	kv := storage.NewMemoryKV()
	j := openJournal(t, kv, nil)

	kv.FailWrites(errors.New("disk full"))
	_, err := j.AddItem(today(), "survives", "")
	require.NoError(t, err)
	assert.Len(t, j.Day(today()), 1)
	assert.Empty(t, persisted(t, kv))

	kv.FailWrites(nil)
	_, err = j.AddItem(today(), "retried", "")
	require.NoError(t, err)
	assert.Len(t, persisted(t, kv)[today()], 2)
}

func TestEveryMutationPersists(t *testing.T) {
	kv := storage.NewMemoryKV()
	j := openJournal(t, kv, nil)

	item, err := j.AddItem(today(), "a", "")
	require.NoError(t, err)
	assert.Equal(t, 1, kv.Writes())

	_, err = j.RemoveItem(today(), item.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 2, kv.Writes())
}

func TestSubscribeSeesEveryChange(t *testing.T) {
	mem := remote.NewMemory()
	j := openJournal(t, storage.NewMemoryKV(), mem)
	require.NoError(t, j.Load(context.Background()))

	var mu sync.Mutex
	var pending []int
	cancel := j.Subscribe(func(d models.Days) {
		mu.Lock()
		pending = append(pending, d.PendingCount())
		mu.Unlock()
	})
	defer cancel()

	_, err := j.AddItem(today(), "watched", "")
	require.NoError(t, err)
	j.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 0}, pending)
}

func TestWindow(t *testing.T) {
	j := openJournal(t, storage.NewMemoryKV(), nil)

	w := j.Window()
	require.Len(t, w, timeutil.DefaultWindowSize)
	assert.Equal(t, today(), w[0])

	j.SetWindowSize(context.Background(), 3)
	assert.Len(t, j.Window(), 3)
}

func TestWindowFollowsClock(t *testing.T) {
	var mu sync.Mutex
	now := fixedNow
	j, err := Open(Options{
		Cache: storage.NewCache(storage.NewMemoryKV(), nil),
		Now: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		},
	})
	require.NoError(t, err)
	defer j.Close()
	require.NoError(t, j.Load(context.Background()))
	assert.Equal(t, today(), j.Window()[0])

	mu.Lock()
	now = fixedNow.AddDate(0, 0, 1)
	mu.Unlock()

	w := j.Window()
	require.Len(t, w, timeutil.DefaultWindowSize)
	assert.Equal(t, timeutil.DayKey(fixedNow.AddDate(0, 0, 1)), w[0])
	assert.Equal(t, today(), w[1])
}

func TestResolve(t *testing.T) {
	j := openJournal(t, storage.NewMemoryKV(), nil)

	item, err := j.AddItem(today(), "findable", "")
	require.NoError(t, err)

	day, got, err := j.Resolve(item.ID.String())
	require.NoError(t, err)
	assert.Equal(t, today(), day)
	assert.Equal(t, item.ID, got.ID)

	_, got, err = j.Resolve(item.ID.String()[:12])
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)

	_, _, err = j.Resolve("local")
	assert.Error(t, err)

	_, _, err = j.Resolve("nothing-like-this")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStats(t *testing.T) {
	j := openJournal(t, storage.NewMemoryKV(), nil)
	_, err := j.AddItem(today(), "a", "")
	require.NoError(t, err)

	s := j.Stats()
	assert.Equal(t, Stats{Days: 1, Items: 1, Pending: 1}, s)
}
