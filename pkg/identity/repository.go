package identity

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RootRealm is the realm used when none is given.
const RootRealm = "/"

// Common errors
var (
	ErrIdentityNotFound = errors.New("identity not found")
)

// Identity is a principal in the identity store with its profile attributes.
type Identity struct {
	ID             uuid.UUID           `json:"id"`
	Realm          string              `json:"realm"`
	Username       string              `json:"username"`
	Attributes     map[string][]string `json:"attributes"`
	CreatedAt      time.Time           `json:"created_at"`
	LastModifiedAt time.Time           `json:"last_modified_at"`
}

// Ref returns the resolved reference for this identity.
func (i Identity) Ref() PrincipalRef {
	return PrincipalRef{ID: i.ID, Realm: i.Realm, Username: i.Username}
}

// PrincipalRef identifies a resolved principal.
type PrincipalRef struct {
	ID       uuid.UUID
	Realm    string
	Username string
}

// IdentityRepository resolves principals and reads their attributes.
type IdentityRepository interface {
	// FindIdentityByUsername resolves a username within a realm. It returns
	// ErrIdentityNotFound when no such principal exists.
	FindIdentityByUsername(ctx context.Context, realm, username string) (PrincipalRef, error)

	// GetAttributes fetches all requested attributes in one call. Attributes
	// with no values are left out of the result.
	GetAttributes(ctx context.Context, principal PrincipalRef, names []string) (AttributeValues, error)
}

// IdentityStore is an IdentityRepository that can also be written to.
type IdentityStore interface {
	IdentityRepository
	SaveIdentity(ctx context.Context, identity Identity) (Identity, error)
}

// AttributeValues maps attribute names to their set of values.
type AttributeValues map[string][]string

// NewAttributeValues normalises raw values: duplicates and empty strings are
// dropped, and names left with no values are removed.
func NewAttributeValues(raw map[string][]string) AttributeValues {
	values := make(AttributeValues, len(raw))
	for name, vals := range raw {
		set := dedupe(vals)
		if len(set) == 0 {
			continue
		}
		values[name] = set
	}
	return values
}

// Values returns the values of one attribute, or nil.
func (a AttributeValues) Values(name string) []string {
	return a[name]
}

// Names returns the attribute names in sorted order.
func (a AttributeValues) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// only keeps the requested names.
func (a AttributeValues) only(names []string) AttributeValues {
	out := make(AttributeValues, len(names))
	for _, name := range names {
		if vals, ok := a[name]; ok {
			out[name] = vals
		}
	}
	return out
}

// NormalizeRealm maps the empty realm to the root realm.
func NormalizeRealm(realm string) string {
	realm = strings.TrimSpace(realm)
	if realm == "" {
		return RootRealm
	}
	return realm
}

func dedupe(vals []string) []string {
	seen := make(map[string]bool, len(vals))
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// prepareIdentity fills defaults before an identity is stored.
func prepareIdentity(identity Identity) Identity {
	now := time.Now().UTC()
	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = now
	}
	identity.LastModifiedAt = now
	identity.Realm = NormalizeRealm(identity.Realm)
	identity.Attributes = NewAttributeValues(identity.Attributes)
	return identity
}
