// Package catalogtest builds catalog fixtures for tests.
package catalogtest

import (
	"testing"

	"roomservice/internal/catalog"
)

// New returns a fresh Store loaded with the fixture menu and stock
func New(t testing.TB) *catalog.Store {
	t.Helper()

	store, err := catalog.New([]byte(MenuJSON), []byte(InventoryJSON), nil)
	if err != nil {
		t.Fatalf("failed to load catalog fixture: %v", err)
	}
	return store
}
