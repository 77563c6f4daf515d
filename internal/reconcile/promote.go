// ABOUTME: Promotion of pending items and the pending-upload scan
// ABOUTME: Pure functions over Days used by the journal after remote writes

package reconcile

import "github.com/harper/daybook/internal/models"

// Promote replaces the pending identity local with the confirmed identity
// remoteID, in place. Position and CreatedAt are unchanged so no re-sort is
// needed. It reports false, returning days untouched, when local is gone.
func Promote(days models.Days, local models.Identity, remoteID string) (models.Days, bool) {
	day, idx, ok := days.Find(local)
	if !ok || !local.IsPending() {
		return days, false
	}

	next := days.Clone()
	next[day][idx].ID = models.ConfirmedIdentity(remoteID)
	return next, true
}

// PendingRef locates one pending item.
type PendingRef struct {
	DayKey string
	Item   models.Item
}

// PendingItems lists every pending item across all days, oldest day first
// and in bucket order within a day.
func PendingItems(days models.Days) []PendingRef {
	var refs []PendingRef
	for _, k := range days.Keys() {
		for _, item := range days[k] {
			if item.Pending() {
				refs = append(refs, PendingRef{DayKey: k, Item: item})
			}
		}
	}
	return refs
}

// Insert adds item to day, keeping the bucket sorted.
func Insert(days models.Days, day string, item models.Item) models.Days {
	next := days.Clone()
	bucket := append(next[day], item)
	models.SortItems(bucket)
	next[day] = bucket
	return next
}

// Remove drops the item with id from day. Buckets left empty are deleted.
// It reports whether anything was removed.
func Remove(days models.Days, day string, id models.Identity) (models.Days, bool) {
	bucket, ok := days[day]
	if !ok {
		return days, false
	}

	kept := make([]models.Item, 0, len(bucket))
	removed := false
	for _, item := range bucket {
		if item.ID == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return days, false
	}

	next := days.Clone()
	if len(kept) == 0 {
		delete(next, day)
	} else {
		next[day] = kept
	}
	return next, true
}
