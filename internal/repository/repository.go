// Package repository defines the store-agnostic data access contract used
// by the services. Concrete adapters live under internal/infrastructure.
package repository

import (
	"context"
	"errors"

	"github.com/example/order-backend/internal/apperror"
)

var (
	// ErrNotFound is returned by Update when the keyed record is absent.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write condition did not hold.
	ErrConflict = errors.New("write condition failed")
	// ErrInvalidToken is returned for a continuation token the store did not issue.
	ErrInvalidToken = errors.New("invalid continuation token")
)

// StoreFailure tags err as an external service failure. The sentinels above
// are returned as they are, since callers branch on them.
func StoreFailure(err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrInvalidToken) {
		return err
	}
	return apperror.External(err)
}

// Repository is typed CRUD plus paginated scan/index queries over a
// document store. Every remote call is retried by the adapter.
type Repository[T any] interface {
	// FindByID returns nil, nil when no record has the id.
	FindByID(ctx context.Context, id string) (*T, error)
	FindAll(ctx context.Context, params PageParams) (*Page[T], error)
	// Save is an unconditional upsert keyed by the entity's id.
	Save(ctx context.Context, entity *T) (*T, error)
	// Update applies patch to the keyed record and returns the record as
	// confirmed by the store.
	Update(ctx context.Context, id string, patch Patch) (*T, error)
	// Delete does not fail when the id is absent.
	Delete(ctx context.Context, id string) error
	QueryByIndex(ctx context.Context, index string, cond KeyCondition, params PageParams) (*Page[T], error)
}

// PageParams bounds a scan or query. A zero Limit leaves the page size to the store.
type PageParams struct {
	Limit             int
	ContinuationToken string
}

// Page is one page of results. ContinuationToken is empty on the last page
// and must be passed back unchanged to resume.
type Page[T any] struct {
	Items             []T    `json:"items"`
	ContinuationToken string `json:"continuationToken,omitempty"`
	Count             int    `json:"count"`
}

// KeyCondition is an equality on the partition attribute of an index.
type KeyCondition struct {
	Attribute string
	Value     any
}

// Assignment sets one top-level attribute.
type Assignment struct {
	Attribute string
	Value     any
}

// Condition requires Attribute to currently equal Value for a write to apply.
type Condition struct {
	Attribute string
	Value     any
}

// Patch is a closed set of attribute assignments produced by an entity's
// typed patch. Condition may be nil.
type Patch interface {
	Assignments() []Assignment
	Condition() *Condition
}
