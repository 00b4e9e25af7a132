package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"
)

// Resolver wraps a Source with a cache and request deduplication. Within one
// import or compile session, repeated lookups for the same key issue no
// duplicate requests; concurrent lookups for the same key (a view with
// several joins resolves relationships in parallel) collapse into one fetch
// via singleflight.
type Resolver struct {
	source Source
	cache  Cache
	group  singleflight.Group
}

// NewResolver builds a Resolver over the given source. A nil cache gets a
// fresh in-memory one.
func NewResolver(source Source, cache Cache) *Resolver {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Resolver{source: source, cache: cache}
}

// Entity returns the cached descriptor for a logical name, fetching on miss.
func (r *Resolver) Entity(ctx context.Context, logicalName string) (*EntityDescriptor, error) {
	key := cacheKey("entity", logicalName)
	var ent EntityDescriptor
	err := r.cached(key, &ent, func() (any, error) {
		return r.source.Entity(ctx, logicalName)
	})
	if err != nil {
		return nil, err
	}
	return &ent, nil
}

// Attributes returns the cached attribute set for an entity.
func (r *Resolver) Attributes(ctx context.Context, logicalName string) ([]AttributeDescriptor, error) {
	key := cacheKey("attributes", logicalName)
	var attrs []AttributeDescriptor
	err := r.cached(key, &attrs, func() (any, error) {
		return r.source.Attributes(ctx, logicalName)
	})
	if err != nil {
		return nil, err
	}
	return attrs, nil
}

// Attribute finds one attribute on an entity by logical name,
// case-insensitively. Returns an error wrapping ErrNotFound when the
// attribute is absent from current metadata.
func (r *Resolver) Attribute(ctx context.Context, entityName, attributeName string) (*AttributeDescriptor, error) {
	attrs, err := r.Attributes(ctx, entityName)
	if err != nil {
		return nil, err
	}
	for i := range attrs {
		if EqualFold(attrs[i].LogicalName, attributeName) {
			return &attrs[i], nil
		}
	}
	return nil, fmt.Errorf("attribute %s.%s: %w", entityName, attributeName, ErrNotFound)
}

// Relationships returns the cached directional relationships for an entity.
func (r *Resolver) Relationships(ctx context.Context, logicalName string, dir RelationshipType) ([]RelationshipDescriptor, error) {
	key := cacheKey("relationships", logicalName, string(dir))
	var rels []RelationshipDescriptor
	err := r.cached(key, &rels, func() (any, error) {
		return r.source.Relationships(ctx, logicalName, dir)
	})
	if err != nil {
		return nil, err
	}
	return rels, nil
}

// ManyToMany returns the cached symmetric relationships for an entity.
func (r *Resolver) ManyToMany(ctx context.Context, logicalName string) ([]RelationshipDescriptor, error) {
	key := cacheKey("manytomany", logicalName)
	var rels []RelationshipDescriptor
	err := r.cached(key, &rels, func() (any, error) {
		return r.source.ManyToMany(ctx, logicalName)
	})
	if err != nil {
		return nil, err
	}
	return rels, nil
}

// ResolveNavigation turns a join hint into the traversal usable from the
// parent entity. It searches the parent's ManyToOne relationships for one
// referencing the child (matching referencingAttribute against toAttribute
// when given), then its OneToMany relationships for one referenced by the
// child (matching against fromAttribute when given).
//
// Returns (nil, nil) when no relationship matches: an externally authored
// join may name a relationship that no longer exists, and the caller decides
// whether to drop it. An error is returned only for fetch failures.
func (r *Resolver) ResolveNavigation(ctx context.Context, parent, child, fromAttribute, toAttribute string) (*Navigation, error) {
	manyToOne, err := r.Relationships(ctx, parent, ManyToOne)
	if err != nil {
		return nil, err
	}
	for _, rel := range manyToOne {
		if !EqualFold(rel.ReferencedEntity, child) {
			continue
		}
		if toAttribute != "" && !EqualFold(rel.ReferencingAttribute, toAttribute) {
			continue
		}
		return &Navigation{
			Relationship: rel,
			Property:     rel.ReferencingNavigationProperty,
			Type:         ManyToOne,
		}, nil
	}

	oneToMany, err := r.Relationships(ctx, parent, OneToMany)
	if err != nil {
		return nil, err
	}
	for _, rel := range oneToMany {
		if !EqualFold(rel.ReferencingEntity, child) {
			continue
		}
		if fromAttribute != "" && !EqualFold(rel.ReferencingAttribute, fromAttribute) {
			continue
		}
		return &Navigation{
			Relationship: rel,
			Property:     rel.ReferencedNavigationProperty,
			Type:         OneToMany,
		}, nil
	}

	return nil, nil
}

// cached runs the check-then-fetch-then-store sequence for one key,
// decoding the cached or fetched value into out.
func (r *Resolver) cached(key string, out any, fetch func() (any, error)) error {
	if blob, ok := r.cache.Get(key); ok {
		return json.Unmarshal(blob, out)
	}

	blob, err, _ := r.group.Do(key, func() (any, error) {
		// Re-check under the flight: another caller may have stored the
		// value between our miss and this fetch.
		if blob, ok := r.cache.Get(key); ok {
			return blob, nil
		}
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		blob, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", key, err)
		}
		if err := r.cache.Put(key, blob); err != nil {
			return nil, err
		}
		return blob, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(blob.([]byte), out)
}

func cacheKey(parts ...string) string {
	lowered := make([]string, len(parts))
	for i, p := range parts {
		lowered[i] = strings.ToLower(p)
	}
	return strings.Join(lowered, "/")
}
