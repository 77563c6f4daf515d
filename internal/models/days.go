// ABOUTME: Days maps day keys to ordered item buckets
// ABOUTME: Copy, lookup, and pruning helpers used by the cache and reconciler

package models

import "sort"

// Days maps a day key to that day's items in chronological order.
type Days map[string][]Item

// Clone returns a deep copy so callers can mutate it freely.
func (d Days) Clone() Days {
	out := make(Days, len(d))
	for k, items := range d {
		cp := make([]Item, len(items))
		copy(cp, items)
		out[k] = cp
	}
	return out
}

// Keys returns the day keys in ascending order.
func (d Days) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Find returns the day key and index of the item with id.
func (d Days) Find(id Identity) (string, int, bool) {
	for _, k := range d.Keys() {
		for i, item := range d[k] {
			if item.ID == id {
				return k, i, true
			}
		}
	}
	return "", -1, false
}

// Pruned returns a copy without empty buckets.
func (d Days) Pruned() Days {
	out := make(Days, len(d))
	for k, items := range d {
		if len(items) == 0 {
			continue
		}
		out[k] = items
	}
	return out
}

// Count returns the total number of items across all days.
func (d Days) Count() int {
	n := 0
	for _, items := range d {
		n += len(items)
	}
	return n
}

// PendingCount returns the number of unconfirmed items across all days.
func (d Days) PendingCount() int {
	n := 0
	for _, items := range d {
		for _, item := range items {
			if item.Pending() {
				n++
			}
		}
	}
	return n
}
