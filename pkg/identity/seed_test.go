package identity

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedFromFile(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	path := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"username": "bob", "attributes": {"fizz": ["aldrin"], "foo": ["hello", "world"]}},
		{"realm": "/partners", "username": "carol", "attributes": {"mail": ["carol@example.com"]}}
	]`), 0644))

	store := NewInMemoryIdentityRepository()
	count, err := SeedFromFile(ctx, store, path)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	result := Lookup(ctx, store, "", "bob", []string{"foo"})
	require.Equal(t, LookupResolved, result.Status)
	assert.Equal(t, []string{"hello", "world"}, result.Values.Values("foo"))

	_, err = store.FindIdentityByUsername(ctx, "/partners", "carol")
	assert.NoError(t, err)
}

func TestSeedFromFile_Errors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store := NewInMemoryIdentityRepository()

	_, err := SeedFromFile(ctx, store, filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"username": "bob"}`), 0644))
	_, err = SeedFromFile(ctx, store, bad)
	assert.Error(t, err)

	noName := filepath.Join(dir, "noname.json")
	require.NoError(t, os.WriteFile(noName, []byte(`[{"username": "bob"}, {"attributes": {}}]`), 0644))
	count, err := SeedFromFile(ctx, store, noName)
	assert.Error(t, err)
	assert.Equal(t, 1, count)
}
