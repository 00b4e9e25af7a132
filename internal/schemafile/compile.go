package schemafile

import (
	"strings"

	"cuelang.org/go/cue"

	"github.com/fetchview/fetchview/internal/metadata"
)

// entityDef is one compiled entity: its descriptor, attributes, and the
// relationships declared under it.
type entityDef struct {
	descriptor    metadata.EntityDescriptor
	attributes    []metadata.AttributeDescriptor
	relationships []metadata.RelationshipDescriptor
}

// compileEntity parses one entity struct into its definition, validating
// required fields with positioned errors.
func compileEntity(name string, v cue.Value) (*entityDef, error) {
	def := &entityDef{}
	def.descriptor.LogicalName = name

	var err error
	if def.descriptor.EntitySetName, err = requiredString(v, name, "entitySetName"); err != nil {
		return nil, err
	}
	if def.descriptor.PrimaryIDAttribute, err = requiredString(v, name, "primaryId"); err != nil {
		return nil, err
	}
	def.descriptor.DisplayName = optionalString(v, "displayName")
	def.descriptor.PrimaryNameAttribute = optionalString(v, "primaryName")

	attrsVal := v.LookupPath(cue.ParsePath("attribute"))
	if attrsVal.Exists() {
		iter, iterErr := attrsVal.Fields()
		if iterErr != nil {
			return nil, &CompileError{Field: name + ".attribute", Message: iterErr.Error(), Pos: attrsVal.Pos()}
		}
		for iter.Next() {
			attr, err := compileAttribute(name, iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			def.attributes = append(def.attributes, attr)
		}
	}

	relsVal := v.LookupPath(cue.ParsePath("relationship"))
	if relsVal.Exists() {
		iter, iterErr := relsVal.Fields()
		if iterErr != nil {
			return nil, &CompileError{Field: name + ".relationship", Message: iterErr.Error(), Pos: relsVal.Pos()}
		}
		for iter.Next() {
			rel, err := compileRelationship(name, iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			def.relationships = append(def.relationships, rel)
		}
	}

	return def, nil
}

var knownTypes = map[string]metadata.AttributeType{
	"string":           metadata.TypeString,
	"memo":             metadata.TypeMemo,
	"integer":          metadata.TypeInteger,
	"bigint":           metadata.TypeBigInt,
	"decimal":          metadata.TypeDecimal,
	"double":           metadata.TypeDouble,
	"money":            metadata.TypeMoney,
	"boolean":          metadata.TypeBoolean,
	"datetime":         metadata.TypeDateTime,
	"lookup":           metadata.TypeLookup,
	"owner":            metadata.TypeOwner,
	"customer":         metadata.TypeCustomer,
	"picklist":         metadata.TypePicklist,
	"state":            metadata.TypeState,
	"status":           metadata.TypeStatus,
	"uniqueidentifier": metadata.TypeUniqueidentifier,
}

func compileAttribute(entity, name string, v cue.Value) (metadata.AttributeDescriptor, error) {
	field := entity + ".attribute." + name

	rawType, err := requiredString(v, field, "type")
	if err != nil {
		return metadata.AttributeDescriptor{}, err
	}
	typ, ok := knownTypes[strings.ToLower(rawType)]
	if !ok {
		return metadata.AttributeDescriptor{}, &CompileError{
			Field:   field + ".type",
			Message: "unknown attribute type " + rawType,
			Pos:     v.Pos(),
		}
	}

	attr := metadata.AttributeDescriptor{
		LogicalName: name,
		DisplayName: optionalString(v, "displayName"),
		Type:        typ,
	}
	if targets := v.LookupPath(cue.ParsePath("targets")); targets.Exists() {
		iter, err := targets.List()
		if err == nil {
			for iter.Next() {
				if s, err := iter.Value().String(); err == nil {
					attr.LookupTargets = append(attr.LookupTargets, s)
				}
			}
		}
		attr.IsPolymorphic = len(attr.LookupTargets) > 1
	}
	return attr, nil
}

func compileRelationship(entity, schemaName string, v cue.Value) (metadata.RelationshipDescriptor, error) {
	field := entity + ".relationship." + schemaName

	rel := metadata.RelationshipDescriptor{SchemaName: schemaName}
	var err error
	if rel.ReferencingEntity, err = requiredString(v, field, "referencing"); err != nil {
		return rel, err
	}
	if rel.ReferencedEntity, err = requiredString(v, field, "referenced"); err != nil {
		return rel, err
	}
	rel.ReferencingAttribute = optionalString(v, "referencingAttribute")
	rel.ReferencingNavigationProperty = optionalString(v, "referencingNavigation")
	rel.ReferencedNavigationProperty = optionalString(v, "referencedNavigation")
	if t := optionalString(v, "type"); strings.EqualFold(t, "manytomany") {
		rel.Type = metadata.ManyToMany
	}
	return rel, nil
}

func requiredString(v cue.Value, field, path string) (string, error) {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() {
		return "", &CompileError{Field: field + "." + path, Message: path + " is required", Pos: v.Pos()}
	}
	s, err := val.String()
	if err != nil {
		return "", &CompileError{Field: field + "." + path, Message: err.Error(), Pos: val.Pos()}
	}
	return s, nil
}

func optionalString(v cue.Value, path string) string {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() {
		return ""
	}
	s, err := val.String()
	if err != nil {
		return ""
	}
	return s
}
