// ABOUTME: Item model for a single journal record on a day
// ABOUTME: Provides pending item construction, ordering, and the remote field set

package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Item is a single journal record. CreatedAt is unix milliseconds.
type Item struct {
	ID        Identity `json:"identity"`
	Title     string   `json:"title"`
	Link      string   `json:"link"`
	CreatedAt int64    `json:"createdAt"`
	// Nonce is a client-generated idempotency token carried to the remote
	// document so a confirmed copy can be matched to its pending original.
	Nonce string `json:"nonce,omitempty"`
}

// NewPendingItem creates an unconfirmed item stamped with now.
func NewPendingItem(title, link string, now time.Time) Item {
	return Item{
		ID:        NewLocalIdentity(),
		Title:     title,
		Link:      link,
		CreatedAt: now.UnixMilli(),
		Nonce:     uuid.New().String(),
	}
}

// Pending reports whether the item is still waiting for remote confirmation.
func (i Item) Pending() bool {
	return i.ID.IsPending()
}

// CreatedTime returns CreatedAt as a time.Time in local time.
func (i Item) CreatedTime() time.Time {
	return time.UnixMilli(i.CreatedAt)
}

// RemoteFields is the payload sent to the remote store on create.
type RemoteFields struct {
	Title     string
	Link      string
	DayKey    string
	CreatedAt int64
	Nonce     string
}

// Fields returns the item's remote payload for dayKey.
func (i Item) Fields(dayKey string) RemoteFields {
	return RemoteFields{
		Title:     i.Title,
		Link:      i.Link,
		DayKey:    dayKey,
		CreatedAt: i.CreatedAt,
		Nonce:     i.Nonce,
	}
}

// SortItems orders items by CreatedAt ascending, keeping insertion order on ties.
func SortItems(items []Item) {
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].CreatedAt < items[b].CreatedAt
	})
}
