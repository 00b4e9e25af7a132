package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// WebAPISource fetches definitions from the EntityDefinitions endpoints of a
// Dataverse-style Web API. It does not construct authentication beyond an
// optional bearer token; the caller's HTTP client is assumed to carry
// ambient credentials otherwise.
type WebAPISource struct {
	base   *url.URL
	token  string
	client *http.Client
}

// NewWebAPISource builds a source rooted at the API base URL, e.g.
// "https://org.crm.dynamics.com/api/data/v9.2".
func NewWebAPISource(base string, token string) (*WebAPISource, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata base URL %q: %w", base, err)
	}
	return &WebAPISource{
		base:  u,
		token: token,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// SetHTTPClient replaces the HTTP client, for callers that carry their own
// transport or cookie-based credentials.
func (s *WebAPISource) SetHTTPClient(client *http.Client) {
	s.client = client
}

// label is the Web API's localized label envelope.
type label struct {
	UserLocalizedLabel *struct {
		Label string `json:"Label"`
	} `json:"UserLocalizedLabel"`
}

func (l label) text() string {
	if l.UserLocalizedLabel == nil {
		return ""
	}
	return l.UserLocalizedLabel.Label
}

type wireEntity struct {
	LogicalName          string `json:"LogicalName"`
	EntitySetName        string `json:"EntitySetName"`
	DisplayName          label  `json:"DisplayName"`
	PrimaryIDAttribute   string `json:"PrimaryIdAttribute"`
	PrimaryNameAttribute string `json:"PrimaryNameAttribute"`
}

type wireAttribute struct {
	LogicalName   string `json:"LogicalName"`
	AttributeType string `json:"AttributeType"`
	DisplayName   label  `json:"DisplayName"`
	RequiredLevel *struct {
		Value string `json:"Value"`
	} `json:"RequiredLevel"`
	MaxLength int      `json:"MaxLength"`
	Precision int      `json:"Precision"`
	Targets   []string `json:"Targets"`
}

type wireRelationship struct {
	SchemaName                              string `json:"SchemaName"`
	ReferencingEntity                       string `json:"ReferencingEntity"`
	ReferencedEntity                        string `json:"ReferencedEntity"`
	ReferencingAttribute                    string `json:"ReferencingAttribute"`
	ReferencingEntityNavigationPropertyName string `json:"ReferencingEntityNavigationPropertyName"`
	ReferencedEntityNavigationPropertyName  string `json:"ReferencedEntityNavigationPropertyName"`
}

type wireManyToMany struct {
	SchemaName                    string `json:"SchemaName"`
	Entity1LogicalName            string `json:"Entity1LogicalName"`
	Entity2LogicalName            string `json:"Entity2LogicalName"`
	Entity1NavigationPropertyName string `json:"Entity1NavigationPropertyName"`
	Entity2NavigationPropertyName string `json:"Entity2NavigationPropertyName"`
}

func (s *WebAPISource) Entity(ctx context.Context, logicalName string) (*EntityDescriptor, error) {
	path := fmt.Sprintf("EntityDefinitions(LogicalName='%s')", logicalName)
	query := "$select=LogicalName,EntitySetName,DisplayName,PrimaryIdAttribute,PrimaryNameAttribute"

	var ent wireEntity
	if err := s.get(ctx, path, query, &ent); err != nil {
		return nil, err
	}
	if ent.LogicalName == "" {
		return nil, fmt.Errorf("entity %s: %w", logicalName, ErrNotFound)
	}
	return &EntityDescriptor{
		LogicalName:          ent.LogicalName,
		EntitySetName:        ent.EntitySetName,
		DisplayName:          ent.DisplayName.text(),
		PrimaryIDAttribute:   ent.PrimaryIDAttribute,
		PrimaryNameAttribute: ent.PrimaryNameAttribute,
	}, nil
}

func (s *WebAPISource) Attributes(ctx context.Context, logicalName string) ([]AttributeDescriptor, error) {
	path := fmt.Sprintf("EntityDefinitions(LogicalName='%s')/Attributes", logicalName)
	query := "$select=LogicalName,AttributeType,DisplayName,RequiredLevel,Targets"

	var page struct {
		Value []wireAttribute `json:"value"`
	}
	if err := s.get(ctx, path, query, &page); err != nil {
		return nil, err
	}

	attrs := make([]AttributeDescriptor, 0, len(page.Value))
	for _, a := range page.Value {
		attr := AttributeDescriptor{
			LogicalName:   a.LogicalName,
			DisplayName:   a.DisplayName.text(),
			Type:          AttributeType(a.AttributeType),
			MaxLength:     a.MaxLength,
			Precision:     a.Precision,
			LookupTargets: a.Targets,
			IsPolymorphic: len(a.Targets) > 1,
		}
		if a.RequiredLevel != nil {
			attr.RequiredLevel = a.RequiredLevel.Value
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

func (s *WebAPISource) Relationships(ctx context.Context, logicalName string, dir RelationshipType) ([]RelationshipDescriptor, error) {
	var segment string
	switch dir {
	case ManyToOne:
		segment = "ManyToOneRelationships"
	case OneToMany:
		segment = "OneToManyRelationships"
	default:
		return nil, fmt.Errorf("relationships for %s: direction %q is not directional", logicalName, dir)
	}

	path := fmt.Sprintf("EntityDefinitions(LogicalName='%s')/%s", logicalName, segment)
	query := "$select=SchemaName,ReferencingEntity,ReferencedEntity,ReferencingAttribute," +
		"ReferencingEntityNavigationPropertyName,ReferencedEntityNavigationPropertyName"

	var page struct {
		Value []wireRelationship `json:"value"`
	}
	if err := s.get(ctx, path, query, &page); err != nil {
		return nil, err
	}

	rels := make([]RelationshipDescriptor, 0, len(page.Value))
	for _, r := range page.Value {
		rels = append(rels, RelationshipDescriptor{
			SchemaName:                    r.SchemaName,
			ReferencingEntity:             r.ReferencingEntity,
			ReferencedEntity:              r.ReferencedEntity,
			ReferencingAttribute:          r.ReferencingAttribute,
			ReferencingNavigationProperty: r.ReferencingEntityNavigationPropertyName,
			ReferencedNavigationProperty:  r.ReferencedEntityNavigationPropertyName,
			Type:                          dir,
		})
	}
	return rels, nil
}

func (s *WebAPISource) ManyToMany(ctx context.Context, logicalName string) ([]RelationshipDescriptor, error) {
	path := fmt.Sprintf("EntityDefinitions(LogicalName='%s')/ManyToManyRelationships", logicalName)
	query := "$select=SchemaName,Entity1LogicalName,Entity2LogicalName," +
		"Entity1NavigationPropertyName,Entity2NavigationPropertyName"

	var page struct {
		Value []wireManyToMany `json:"value"`
	}
	if err := s.get(ctx, path, query, &page); err != nil {
		return nil, err
	}

	// Map the symmetric entity1/entity2 shape onto the directional fields so
	// callers see one descriptor type: entity1 takes the referencing slots.
	rels := make([]RelationshipDescriptor, 0, len(page.Value))
	for _, r := range page.Value {
		rels = append(rels, RelationshipDescriptor{
			SchemaName:                    r.SchemaName,
			ReferencingEntity:             r.Entity1LogicalName,
			ReferencedEntity:              r.Entity2LogicalName,
			ReferencingNavigationProperty: r.Entity1NavigationPropertyName,
			ReferencedNavigationProperty:  r.Entity2NavigationPropertyName,
			Type:                          ManyToMany,
		})
	}
	return rels, nil
}

// get issues one GET against the definitions API and decodes the JSON body.
func (s *WebAPISource) get(ctx context.Context, path, query string, out any) error {
	reqURL := *s.base
	reqURL.Path = strings.TrimSuffix(reqURL.Path, "/") + "/" + path
	reqURL.RawQuery = query

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("build metadata request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch metadata %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read metadata response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("metadata %s: %w", path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = resp.Status
		}
		return fmt.Errorf("metadata %s: status %d: %s", path, resp.StatusCode, msg)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode metadata response: %w", err)
	}
	return nil
}
