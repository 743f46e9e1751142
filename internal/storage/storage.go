// Package storage defines the Storage interface, the contract any database
// backend must satisfy to serve the personas API.
//
// Handlers depend only on this interface, so tests can swap in another
// implementation and a different database needs no handler changes.
package storage

import (
	"context"
	"errors"

	"github.com/personas-team/personas-api/internal/types"
)

// ErrNotFound is returned when no person exists with the requested id.
// Callers check it with errors.Is; it is the only error kind the HTTP layer
// maps to something other than a generic failure.
var ErrNotFound = errors.New("person not found")

// Storage is the person registry.
type Storage interface {
	// CreatePerson inserts a new row and returns it with its generated id.
	CreatePerson(ctx context.Context, in types.PersonCreate) (types.Person, error)

	// GetPersonByID returns the person or ErrNotFound.
	GetPersonByID(ctx context.Context, id int64) (types.Person, error)

	// ListPersons returns at most p.Limit persons in id order, after
	// skipping p.Skip rows. It returns an empty slice, never nil.
	ListPersons(ctx context.Context, p types.ListParams) ([]types.Person, error)

	// UpdatePersonByID applies only the fields set in u and returns the
	// stored record. An empty u returns the current record untouched.
	UpdatePersonByID(ctx context.Context, id int64, u types.PersonUpdate) (types.Person, error)

	// DeletePersonByID removes the row and returns what it held.
	DeletePersonByID(ctx context.Context, id int64) (types.Person, error)

	// Close releases the underlying connection pool.
	Close() error
}
