package metadata

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the metadata provider has no definition for
// the requested entity or attribute. Callers that tolerate schema drift
// (the view importer) check for it with errors.Is.
var ErrNotFound = errors.New("metadata: not found")

// Source is the narrow contract a metadata provider must satisfy. The live
// Web API source, the CUE snapshot loader, and test fakes all implement it.
type Source interface {
	// Entity returns the descriptor for one logical name, or an error
	// wrapping ErrNotFound when the provider has no such entity.
	Entity(ctx context.Context, logicalName string) (*EntityDescriptor, error)

	// Attributes returns every attribute defined on the entity.
	Attributes(ctx context.Context, logicalName string) ([]AttributeDescriptor, error)

	// Relationships returns the entity's directional relationships for one
	// direction. ManyToOne lists relationships where the entity is the
	// referencing side; OneToMany lists those where it is referenced.
	Relationships(ctx context.Context, logicalName string, dir RelationshipType) ([]RelationshipDescriptor, error)

	// ManyToMany returns the entity's symmetric relationships. They have a
	// different wire shape (entity1/entity2 instead of referencing/referenced)
	// and are fetched separately.
	ManyToMany(ctx context.Context, logicalName string) ([]RelationshipDescriptor, error)
}
