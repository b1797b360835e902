package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Key identifies an entity in the store. A key carries the entity kind, a
// stable identifier, and optionally the parent key it descends from. The
// topmost ancestor defines the entity group the entity belongs to.
type Key struct {
	Kind   string
	ID     string
	Parent *Key
}

// NewKey returns a root-level key for the given kind and identifier.
func NewKey(kind, id string) *Key {
	return &Key{Kind: kind, ID: id}
}

// ChildKey returns a key for an entity owned by parent.
func ChildKey(parent *Key, kind, id string) *Key {
	return &Key{Kind: kind, ID: id, Parent: parent}
}

// Path returns the slash-separated ancestor path of the key, parent first,
// e.g. "Profile/bob@example.com/Conference/42".
func (k *Key) Path() string {
	if k.Parent == nil {
		return k.Kind + "/" + k.ID
	}
	return k.Parent.Path() + "/" + k.Kind + "/" + k.ID
}

// Root returns the topmost ancestor of the key, which identifies the
// entity group the entity belongs to. A key with no parent is its own root.
func (k *Key) Root() *Key {
	if k.Parent == nil {
		return k
	}
	return k.Parent.Root()
}

// Equal reports whether two keys name the same entity.
func (k *Key) Equal(other *Key) bool {
	if k == nil || other == nil {
		return k == other
	}
	return k.Path() == other.Path()
}

// Websafe returns an opaque, URL-safe encoding of the key that round-trips
// through DecodeKey. Safe to hand to external callers.
func (k *Key) Websafe() string {
	return base64.RawURLEncoding.EncodeToString([]byte(k.Path()))
}

func (k *Key) String() string {
	return k.Path()
}

// DecodeKey reverses Websafe back into a key.
func DecodeKey(websafe string) (*Key, error) {
	raw, err := base64.RawURLEncoding.DecodeString(websafe)
	if err != nil {
		return nil, fmt.Errorf("%w: not a valid websafe key", ErrBadRequest)
	}
	parts := strings.Split(string(raw), "/")
	if len(parts) < 2 || len(parts)%2 != 0 {
		return nil, fmt.Errorf("%w: not a valid websafe key", ErrBadRequest)
	}
	var key *Key
	for i := 0; i < len(parts); i += 2 {
		if parts[i] == "" || parts[i+1] == "" {
			return nil, fmt.Errorf("%w: not a valid websafe key", ErrBadRequest)
		}
		key = &Key{Kind: parts[i], ID: parts[i+1], Parent: key}
	}
	return key, nil
}

// DecodeKeyKind decodes a websafe key and verifies it names an entity of
// the expected kind.
func DecodeKeyKind(websafe, kind string) (*Key, error) {
	key, err := DecodeKey(websafe)
	if err != nil {
		return nil, err
	}
	if key.Kind != kind {
		return nil, fmt.Errorf("%w: key is not a valid %s key", ErrBadRequest, kind)
	}
	return key, nil
}
