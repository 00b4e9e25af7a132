package schemafile

import (
	"context"
	"fmt"
	"strings"

	"github.com/fetchview/fetchview/internal/metadata"
)

// Snapshot is a compiled schema directory. It implements metadata.Source,
// so the importer and compiler run against it exactly as they would against
// a live endpoint.
type Snapshot struct {
	entities map[string]*entityDef
	// relationships is the global list: every relationship declared under
	// any entity, visible from both of its ends.
	relationships []metadata.RelationshipDescriptor
}

func newSnapshot() *Snapshot {
	return &Snapshot{entities: make(map[string]*entityDef)}
}

func (s *Snapshot) add(def *entityDef) {
	s.entities[strings.ToLower(def.descriptor.LogicalName)] = def
	s.relationships = append(s.relationships, def.relationships...)
}

// EntityNames returns every defined logical name, for diagnostics.
func (s *Snapshot) EntityNames() []string {
	names := make([]string, 0, len(s.entities))
	for _, def := range s.entities {
		names = append(names, def.descriptor.LogicalName)
	}
	return names
}

func (s *Snapshot) Entity(_ context.Context, logicalName string) (*metadata.EntityDescriptor, error) {
	def, ok := s.entities[strings.ToLower(logicalName)]
	if !ok {
		return nil, fmt.Errorf("entity %s: %w", logicalName, metadata.ErrNotFound)
	}
	desc := def.descriptor
	return &desc, nil
}

func (s *Snapshot) Attributes(_ context.Context, logicalName string) ([]metadata.AttributeDescriptor, error) {
	def, ok := s.entities[strings.ToLower(logicalName)]
	if !ok {
		return nil, fmt.Errorf("entity %s: %w", logicalName, metadata.ErrNotFound)
	}
	return append([]metadata.AttributeDescriptor(nil), def.attributes...), nil
}

// Relationships filters the global list by end: ManyToOne returns the
// relationships the entity participates in as the referencing side,
// OneToMany those where it is referenced. One declared relationship is
// therefore visible from both ends with the appropriate shape, matching how
// the live API serves the two directional collections.
func (s *Snapshot) Relationships(_ context.Context, logicalName string, dir metadata.RelationshipType) ([]metadata.RelationshipDescriptor, error) {
	var out []metadata.RelationshipDescriptor
	for _, rel := range s.relationships {
		if rel.Type == metadata.ManyToMany {
			continue
		}
		switch dir {
		case metadata.ManyToOne:
			if metadata.EqualFold(rel.ReferencingEntity, logicalName) {
				rel.Type = metadata.ManyToOne
				out = append(out, rel)
			}
		case metadata.OneToMany:
			if metadata.EqualFold(rel.ReferencedEntity, logicalName) {
				rel.Type = metadata.OneToMany
				out = append(out, rel)
			}
		default:
			return nil, fmt.Errorf("relationships for %s: direction %q is not directional", logicalName, dir)
		}
	}
	return out, nil
}

func (s *Snapshot) ManyToMany(_ context.Context, logicalName string) ([]metadata.RelationshipDescriptor, error) {
	var out []metadata.RelationshipDescriptor
	for _, rel := range s.relationships {
		if rel.Type != metadata.ManyToMany {
			continue
		}
		if metadata.EqualFold(rel.ReferencingEntity, logicalName) || metadata.EqualFold(rel.ReferencedEntity, logicalName) {
			out = append(out, rel)
		}
	}
	return out, nil
}
