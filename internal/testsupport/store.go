package testsupport

import (
	"testing"

	"parley/internal/config"
	"parley/internal/stagecache"
)

// MustOpenStore opens a stagecache.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *stagecache.Store {
	t.Helper()

	store, err := stagecache.Open(cfg)
	if err != nil {
		t.Fatalf("stagecache.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
