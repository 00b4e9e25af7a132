package metadata

import "strings"

// AttributeType classifies an attribute for operator legality and wire-level
// field naming. Values mirror the Web API's AttributeTypeCode names.
type AttributeType string

const (
	TypeString           AttributeType = "String"
	TypeMemo             AttributeType = "Memo"
	TypeInteger          AttributeType = "Integer"
	TypeBigInt           AttributeType = "BigInt"
	TypeDecimal          AttributeType = "Decimal"
	TypeDouble           AttributeType = "Double"
	TypeMoney            AttributeType = "Money"
	TypeBoolean          AttributeType = "Boolean"
	TypeDateTime         AttributeType = "DateTime"
	TypeLookup           AttributeType = "Lookup"
	TypeOwner            AttributeType = "Owner"
	TypeCustomer         AttributeType = "Customer"
	TypePicklist         AttributeType = "Picklist"
	TypeState            AttributeType = "State"
	TypeStatus           AttributeType = "Status"
	TypeUniqueidentifier AttributeType = "Uniqueidentifier"
)

// IsNumeric reports whether values of this type are compared numerically.
func (t AttributeType) IsNumeric() bool {
	switch t {
	case TypeInteger, TypeBigInt, TypeDecimal, TypeDouble, TypeMoney,
		TypePicklist, TypeState, TypeStatus:
		return true
	}
	return false
}

// IsText reports whether the type supports substring operators.
func (t AttributeType) IsText() bool {
	return t == TypeString || t == TypeMemo
}

// IsDate reports whether the type supports relative-date operators.
func (t AttributeType) IsDate() bool {
	return t == TypeDateTime
}

// IsReference reports whether the attribute is a pointer to another record.
// Reference attributes are selected through a synthesized _name_value field.
func (t AttributeType) IsReference() bool {
	return t == TypeLookup || t == TypeOwner || t == TypeCustomer
}

// RelationshipType distinguishes the two directional relationship shapes
// from the symmetric one.
type RelationshipType string

const (
	ManyToOne  RelationshipType = "ManyToOne"
	OneToMany  RelationshipType = "OneToMany"
	ManyToMany RelationshipType = "ManyToMany"
)

// EntityDescriptor identifies one data type and its collection endpoint.
// Immutable once fetched; cached for the process lifetime.
type EntityDescriptor struct {
	LogicalName          string `json:"logicalName"`
	EntitySetName        string `json:"entitySetName"`
	DisplayName          string `json:"displayName"`
	PrimaryIDAttribute   string `json:"primaryIdAttribute"`
	PrimaryNameAttribute string `json:"primaryNameAttribute"`
}

// AttributeDescriptor describes one field on an entity.
type AttributeDescriptor struct {
	LogicalName   string        `json:"logicalName"`
	DisplayName   string        `json:"displayName"`
	Type          AttributeType `json:"attributeType"`
	RequiredLevel string        `json:"requiredLevel,omitempty"`
	MaxLength     int           `json:"maxLength,omitempty"`
	Precision     int           `json:"precision,omitempty"`
	LookupTargets []string      `json:"lookupTargets,omitempty"`
	IsPolymorphic bool          `json:"isPolymorphic,omitempty"`
}

// SelectName returns the field name to request on the wire. Reference
// attributes are exposed by the API as a synthesized "_<name>_value" field;
// everything else selects its logical name directly.
func (a AttributeDescriptor) SelectName() string {
	if a.Type.IsReference() {
		return "_" + a.LogicalName + "_value"
	}
	return a.LogicalName
}

// Label returns the display name, falling back to the logical name when the
// metadata carries no label.
func (a AttributeDescriptor) Label() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.LogicalName
}

// RelationshipDescriptor describes a directional association between two
// entities.
//
// The navigation property usable in an expansion depends on which side the
// query stands on: from the referencing (child) side of a ManyToOne the
// property is ReferencingNavigationProperty; from the referenced (parent)
// side of a OneToMany it is ReferencedNavigationProperty. Using the wrong
// side produces a query the API rejects.
type RelationshipDescriptor struct {
	SchemaName                    string           `json:"schemaName"`
	ReferencingEntity             string           `json:"referencingEntity"`
	ReferencedEntity              string           `json:"referencedEntity"`
	ReferencingAttribute          string           `json:"referencingAttribute"`
	ReferencingNavigationProperty string           `json:"referencingNavigationProperty"`
	ReferencedNavigationProperty  string           `json:"referencedNavigationProperty"`
	Type                          RelationshipType `json:"relationshipType"`
}

// Navigation is the result of resolving a relationship into the traversal
// usable from a specific side.
type Navigation struct {
	Relationship RelationshipDescriptor
	// Property is the navigation property to place in an $expand clause.
	Property string
	// Type is the relationship shape as seen from the parent: ManyToOne when
	// the parent is the referencing side, OneToMany when it is referenced.
	Type RelationshipType
}

// EqualFold matches logical names the way the API does: case-insensitively.
func EqualFold(a, b string) bool {
	return strings.EqualFold(a, b)
}
