// Package fetchxml parses externally authored view definitions: XML
// documents with one root entity element containing attribute, filter, and
// recursively nested link-entity elements.
package fetchxml

import (
	"encoding/xml"
	"errors"
	"fmt"
)

// ErrNoEntity marks a document whose root entity element is missing or
// carries no name. Importing such a document aborts entirely.
var ErrNoEntity = errors.New("fetchxml: missing entity element")

// Document is the parsed <fetch> root.
type Document struct {
	XMLName xml.Name `xml:"fetch"`
	Top     int      `xml:"top,attr"`
	Entity  *Entity  `xml:"entity"`
}

// Entity is the root <entity> element. LinkEntity shares the same child
// shape, so both embed Members.
type Entity struct {
	Name string `xml:"name,attr"`
	Members
}

// Members are the child elements an entity-like element may carry.
type Members struct {
	Attributes   []Attribute  `xml:"attribute"`
	AllAttrs     *struct{}    `xml:"all-attributes"`
	Filters      []Filter     `xml:"filter"`
	Orders       []Order      `xml:"order"`
	LinkEntities []LinkEntity `xml:"link-entity"`
}

// Attribute is one <attribute> selection.
type Attribute struct {
	Name  string `xml:"name,attr"`
	Alias string `xml:"alias,attr"`
}

// Order is one <order> sort hint.
type Order struct {
	Attribute  string `xml:"attribute,attr"`
	Descending bool   `xml:"descending,attr"`
}

// Filter is a boolean group: and/or over conditions and nested filters.
type Filter struct {
	Type       string      `xml:"type,attr"`
	Conditions []Condition `xml:"condition"`
	Filters    []Filter    `xml:"filter"`
}

// Condition is one <condition> predicate. Values may appear as a value
// attribute or as nested <value> elements (the in/between forms).
type Condition struct {
	Attribute string   `xml:"attribute,attr"`
	Operator  string   `xml:"operator,attr"`
	Value     string   `xml:"value,attr"`
	Values    []string `xml:"value"`
}

// LinkEntity is one <link-entity> join: the target entity name plus the
// from/to attribute hints that disambiguate which relationship it rides.
type LinkEntity struct {
	Name     string `xml:"name,attr"`
	From     string `xml:"from,attr"`
	To       string `xml:"to,attr"`
	Alias    string `xml:"alias,attr"`
	LinkType string `xml:"link-type,attr"`
	Members
}

// Parse decodes a FetchXML document. It fails only on malformed XML or a
// missing root entity; everything else (stale attributes, dead joins) is
// the importer's tolerance problem, not the parser's.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("fetchxml: %w", err)
	}
	if doc.Entity == nil || doc.Entity.Name == "" {
		return nil, ErrNoEntity
	}
	return &doc, nil
}
