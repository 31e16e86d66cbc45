package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// SeedFromFile saves every identity listed in a JSON file into store and
// returns how many were written.
func SeedFromFile(ctx context.Context, store IdentityStore, path string) (int, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}

	var identities []Identity
	if err := json.Unmarshal(data, &identities); err != nil {
		return 0, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i, identity := range identities {
		if identity.Username == "" {
			return i, fmt.Errorf("seed entry %d has no username", i)
		}
		if _, err := store.SaveIdentity(ctx, identity); err != nil {
			return i, fmt.Errorf("failed to seed identity %q: %w", identity.Username, err)
		}
		slog.Debug("Seeded identity", "realm", NormalizeRealm(identity.Realm), "username", identity.Username)
	}
	return len(identities), nil
}
