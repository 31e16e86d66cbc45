package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

const identitiesFile = "identities.json"

// FileIdentityRepository implements IdentityStore using file-based storage
type FileIdentityRepository struct {
	dataDir    string
	identities map[uuid.UUID]Identity // keyed by identity ID
	mutex      sync.RWMutex
}

// NewFileIdentityRepository creates a new file-based identity repository
func NewFileIdentityRepository(dataDir string) (*FileIdentityRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileIdentityRepository{
		dataDir:    dataDir,
		identities: make(map[uuid.UUID]Identity),
	}

	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return repo, nil
}

// FindIdentityByUsername resolves a username within a realm
func (r *FileIdentityRepository) FindIdentityByUsername(ctx context.Context, realm, username string) (PrincipalRef, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	realm = NormalizeRealm(realm)
	for _, identity := range r.identities {
		if identity.Realm == realm && identity.Username == username {
			return identity.Ref(), nil
		}
	}
	return PrincipalRef{}, ErrIdentityNotFound
}

// GetAttributes returns the requested attributes of a principal
func (r *FileIdentityRepository) GetAttributes(ctx context.Context, principal PrincipalRef, names []string) (AttributeValues, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	identity, exists := r.identities[principal.ID]
	if !exists {
		return nil, ErrIdentityNotFound
	}
	return copyAttributes(identity.Attributes, names), nil
}

// SaveIdentity upserts an identity by realm and username and persists the file
func (r *FileIdentityRepository) SaveIdentity(ctx context.Context, identity Identity) (Identity, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	identity = prepareIdentity(identity)
	for id, existing := range r.identities {
		if existing.Realm == identity.Realm && existing.Username == identity.Username {
			identity.ID = id
			identity.CreatedAt = existing.CreatedAt
		}
	}
	r.identities[identity.ID] = identity

	if err := r.save(); err != nil {
		return Identity{}, err
	}
	return identity, nil
}

// load reads identity data from file
func (r *FileIdentityRepository) load() error {
	filePath := filepath.Join(r.dataDir, identitiesFile)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	var identities []Identity
	if err := json.Unmarshal(data, &identities); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	r.identities = make(map[uuid.UUID]Identity)
	for _, identity := range identities {
		identity.Realm = NormalizeRealm(identity.Realm)
		identity.Attributes = NewAttributeValues(identity.Attributes)
		r.identities[identity.ID] = identity
	}

	return nil
}

// save writes identity data to file atomically
func (r *FileIdentityRepository) save() error {
	identities := make([]Identity, 0, len(r.identities))
	for _, identity := range r.identities {
		identities = append(identities, identity)
	}

	data, err := json.MarshalIndent(identities, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tempFile := filepath.Join(r.dataDir, identitiesFile+".tmp")
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	finalFile := filepath.Join(r.dataDir, identitiesFile)
	if err := os.Rename(tempFile, finalFile); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}
