// ABOUTME: Remote document store contract used by the journal
// ABOUTME: Includes the Disabled no-op store used when sync is not configured

package remote

import (
	"context"

	"github.com/harper/daybook/internal/models"
)

// Store is the query/write surface of the remote document service.
type Store interface {
	// FetchByDayKeys returns confirmed items for keys, each day ascending
	// by CreatedAt. Days with no documents may be absent from the result.
	FetchByDayKeys(ctx context.Context, keys []string) (models.Days, error)

	// Create stores a new document and returns its remote identity.
	Create(ctx context.Context, fields models.RemoteFields) (string, error)

	// Remove deletes a document. Unknown ids are not an error.
	Remove(ctx context.Context, id string) error
}

// Disabled is a Store that does nothing. It stands in when remote sync is
// unconfigured or failed to initialise.
type Disabled struct{}

// FetchByDayKeys implements Store.
func (Disabled) FetchByDayKeys(context.Context, []string) (models.Days, error) {
	return models.Days{}, nil
}

// Create implements Store. It returns no identity, leaving items pending.
func (Disabled) Create(context.Context, models.RemoteFields) (string, error) {
	return "", ErrDisabled
}

// Remove implements Store.
func (Disabled) Remove(context.Context, string) error {
	return nil
}

// Enabled reports whether s is a real remote store.
func Enabled(s Store) bool {
	if s == nil {
		return false
	}
	switch s.(type) {
	case Disabled, *Disabled:
		return false
	}
	return true
}
