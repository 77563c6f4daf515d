// ABOUTME: Merges locally pending items with remote-confirmed items per day
// ABOUTME: Drops local copies the remote already has and keeps chronological order

package reconcile

import "github.com/harper/daybook/internal/models"

// contentKey identifies an item by what it says rather than by identity.
// Two distinct items with the same title created in the same millisecond
// collide; nonces take precedence when both sides carry one.
type contentKey struct {
	title     string
	createdAt int64
}

func keyOf(item models.Item) contentKey {
	return contentKey{title: item.Title, createdAt: item.CreatedAt}
}

// remoteIndex holds the duplicate-suppression keys of one fetched day.
type remoteIndex struct {
	nonces map[string]bool
	// all covers every remote item; unnonced only those without a nonce.
	all      map[contentKey]bool
	unnonced map[contentKey]bool
}

func indexRemote(fetched []models.Item) remoteIndex {
	idx := remoteIndex{
		nonces:   make(map[string]bool, len(fetched)),
		all:      make(map[contentKey]bool, len(fetched)),
		unnonced: make(map[contentKey]bool),
	}
	for _, r := range fetched {
		k := keyOf(r)
		idx.all[k] = true
		if r.Nonce != "" {
			idx.nonces[r.Nonce] = true
		} else {
			idx.unnonced[k] = true
		}
	}
	return idx
}

// isDuplicate reports whether a pending item already has a remote copy.
// A nonce match is decisive. A local item with a nonce only falls back to
// content matching against remote items that carry no nonce, so two
// distinct items with identical content are both kept.
func (idx remoteIndex) isDuplicate(local models.Item) bool {
	if local.Nonce == "" {
		return idx.all[keyOf(local)]
	}
	if idx.nonces[local.Nonce] {
		return true
	}
	return idx.unnonced[keyOf(local)]
}

// Merge combines the current bucket for a day with a freshly fetched remote
// list for the same day. Confirmed items in current are discarded because
// the remote list is authoritative for them. Pending items survive unless a
// remote item duplicates them. The result is stably sorted by CreatedAt with
// remote items ahead of pending ones on ties. Merge does not modify its
// inputs.
func Merge(current, fetched []models.Item) []models.Item {
	idx := indexRemote(fetched)

	out := make([]models.Item, 0, len(fetched)+len(current))
	for _, r := range fetched {
		if r.ID.IsPending() {
			// Remote results are confirmed by definition; anything else is
			// a bug in the adapter and is not allowed to masquerade.
			continue
		}
		out = append(out, r)
	}

	for _, local := range current {
		if !local.Pending() {
			continue
		}
		if idx.isDuplicate(local) {
			continue
		}
		out = append(out, local)
	}

	models.SortItems(out)
	return out
}

// MergeDays applies Merge to every day in keys, returning a new mapping.
// Days outside keys are copied unchanged. A key absent from fetched means
// the remote has nothing for that day. Days that end up empty are dropped.
func MergeDays(current, fetched models.Days, keys []string) models.Days {
	next := current.Clone()
	for _, k := range keys {
		merged := Merge(current[k], fetched[k])
		if len(merged) == 0 {
			delete(next, k)
			continue
		}
		next[k] = merged
	}
	return next
}
