// Package sqlite provides the public API for the SQLite collection backend.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"github.com/mesh-intelligence/notechain/internal/sqlite"
	"github.com/mesh-intelligence/notechain/pkg/types"
)

// NewBackend creates a new SQLite collection.
// The collection is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	coll := sqlite.NewBackend()
//	err := coll.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".notechain-db",
//	})
//	defer coll.Detach()
func NewBackend() types.Collection {
	return sqlite.NewBackend()
}
