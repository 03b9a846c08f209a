package testsupport

import (
	"testing"

	"github.com/randysalars/dreamweaving-sub000/internal/config"
	"github.com/randysalars/dreamweaving-sub000/internal/sessionstore"
)

// MustOpenStore opens a session store for the test configuration and closes
// it when the test finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *sessionstore.Store {
	t.Helper()
	store, err := sessionstore.Open(cfg)
	if err != nil {
		t.Fatalf("open session store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
