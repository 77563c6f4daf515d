// ABOUTME: Item identity as an explicit pending-or-confirmed variant
// ABOUTME: The local-token string prefix only exists at the serialization boundary

package models

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// LocalPrefix marks serialized identities that were minted on this device
// and have not been confirmed by the remote store.
const LocalPrefix = "local-"

// ErrEmptyIdentity is returned when decoding a blank identity.
var ErrEmptyIdentity = errors.New("empty identity")

type identityKind uint8

const (
	kindNone identityKind = iota
	kindPending
	kindConfirmed
)

// Identity names an item. It is either a Pending local token or a
// Confirmed identity assigned by the remote store, never both.
type Identity struct {
	kind  identityKind
	value string
}

// PendingIdentity wraps a locally generated token.
func PendingIdentity(token string) Identity {
	return Identity{kind: kindPending, value: token}
}

// ConfirmedIdentity wraps a remote-assigned identity.
func ConfirmedIdentity(remoteID string) Identity {
	return Identity{kind: kindConfirmed, value: remoteID}
}

// NewLocalIdentity mints a fresh pending identity.
func NewLocalIdentity() Identity {
	return PendingIdentity(uuid.New().String())
}

// ParseIdentity decodes the serialized form produced by String.
func ParseIdentity(s string) (Identity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Identity{}, ErrEmptyIdentity
	}
	if token, ok := strings.CutPrefix(s, LocalPrefix); ok {
		if token == "" {
			return Identity{}, ErrEmptyIdentity
		}
		return PendingIdentity(token), nil
	}
	return ConfirmedIdentity(s), nil
}

// IsZero reports whether the identity was never set.
func (id Identity) IsZero() bool {
	return id.kind == kindNone
}

// IsPending reports whether the identity is a local token awaiting confirmation.
func (id Identity) IsPending() bool {
	return id.kind == kindPending
}

// Token returns the local token of a pending identity.
func (id Identity) Token() (string, bool) {
	if id.kind != kindPending {
		return "", false
	}
	return id.value, true
}

// RemoteID returns the remote identity of a confirmed identity.
func (id Identity) RemoteID() (string, bool) {
	if id.kind != kindConfirmed {
		return "", false
	}
	return id.value, true
}

// String returns the serialized form: LocalPrefix+token for pending
// identities, the bare remote id for confirmed ones.
func (id Identity) String() string {
	switch id.kind {
	case kindPending:
		return LocalPrefix + id.value
	case kindConfirmed:
		return id.value
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
