// Package store persists the shared family document. The contract mirrors a
// single-document realtime store: subscribers get a push whenever the
// document changes (including writes by other consoles), writes replace the
// whole document, and creation is a separate create-if-absent operation.
// There are no partial-field updates and no server-side validation;
// concurrent writers resolve by last-writer-wins.
package store

import (
	"context"
	"errors"

	"homeheroes/internal/models"
)

// ErrNotFound is returned by Write when the document does not exist yet.
// Creation only happens through CreateIfAbsent.
var ErrNotFound = errors.New("document not found")

// Snapshot is one subscription push: either the current document, or a
// marker that the document is absent so the subscriber can seed it.
type Snapshot struct {
	Exists bool
	State  models.FamilyState
	// Err is set instead of a document when reading the store failed.
	// The subscription stays open and recovers on the next good read.
	Err error
}

// Store is the document store contract the reconciler is built against.
// The SQL-backed implementation is used in production; the in-memory one
// backs tests and local development.
type Store interface {
	// Subscribe returns a channel that receives the current snapshot
	// immediately and a new snapshot after every change until ctx is done.
	// The channel is closed when the subscription ends.
	Subscribe(ctx context.Context, key string) (<-chan Snapshot, error)

	// Write replaces the whole document. It fails with ErrNotFound when
	// the document has not been created.
	Write(ctx context.Context, key string, state models.FamilyState) error

	// CreateIfAbsent stores the document only if no document exists under
	// the key. It is a no-op (not an error) when one already does.
	CreateIfAbsent(ctx context.Context, key string, state models.FamilyState) error
}
