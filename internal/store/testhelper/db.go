// Package testhelper opens throwaway databases for tests.
package testhelper

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"textile-backoffice/internal/store"
)

var dbSeq atomic.Int64

// NewStore returns a migrated store backed by a private in-memory sqlite
// database that is closed when the test ends.
func NewStore(t testing.TB) *store.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_foreign_keys=off", dbSeq.Add(1))
	s, err := store.NewStore(store.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate test store: %v", err)
	}
	return s
}
