package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// InMemoryIdentityRepository implements IdentityStore using in-memory storage
type InMemoryIdentityRepository struct {
	mu         sync.RWMutex
	identities map[uuid.UUID]Identity // identityID -> Identity
	byUsername map[string]uuid.UUID   // realm + username -> identityID
}

// NewInMemoryIdentityRepository creates a new in-memory identity repository
func NewInMemoryIdentityRepository() *InMemoryIdentityRepository {
	return &InMemoryIdentityRepository{
		identities: make(map[uuid.UUID]Identity),
		byUsername: make(map[string]uuid.UUID),
	}
}

// AddIdentity adds an identity to the in-memory store (for testing/seeding)
func (r *InMemoryIdentityRepository) AddIdentity(identity Identity) Identity {
	identity = prepareIdentity(identity)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byUsername[usernameKey(identity.Realm, identity.Username)]; ok && existing != identity.ID {
		delete(r.identities, existing)
	}
	r.identities[identity.ID] = identity
	r.byUsername[usernameKey(identity.Realm, identity.Username)] = identity.ID
	return identity
}

// SaveIdentity upserts an identity by realm and username
func (r *InMemoryIdentityRepository) SaveIdentity(ctx context.Context, identity Identity) (Identity, error) {
	return r.AddIdentity(identity), nil
}

// FindIdentityByUsername resolves a username within a realm
func (r *InMemoryIdentityRepository) FindIdentityByUsername(ctx context.Context, realm, username string) (PrincipalRef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[usernameKey(NormalizeRealm(realm), username)]
	if !ok {
		return PrincipalRef{}, ErrIdentityNotFound
	}
	return r.identities[id].Ref(), nil
}

// GetAttributes returns the requested attributes of a principal
func (r *InMemoryIdentityRepository) GetAttributes(ctx context.Context, principal PrincipalRef, names []string) (AttributeValues, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identity, ok := r.identities[principal.ID]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	return copyAttributes(identity.Attributes, names), nil
}

func usernameKey(realm, username string) string {
	return realm + "\x00" + username
}

func copyAttributes(attributes map[string][]string, names []string) AttributeValues {
	values := make(AttributeValues, len(names))
	for _, name := range names {
		vals, ok := attributes[name]
		if !ok || len(vals) == 0 {
			continue
		}
		values[name] = append([]string(nil), vals...)
	}
	return values
}
