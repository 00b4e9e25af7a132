package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebAPISourceEntity(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"LogicalName": "contact",
			"EntitySetName": "contacts",
			"DisplayName": {"UserLocalizedLabel": {"Label": "Contact"}},
			"PrimaryIdAttribute": "contactid",
			"PrimaryNameAttribute": "fullname"
		}`))
	}))
	defer server.Close()

	src, err := NewWebAPISource(server.URL, "secret-token")
	require.NoError(t, err)

	ent, err := src.Entity(context.Background(), "contact")
	require.NoError(t, err)

	assert.Equal(t, "/EntityDefinitions(LogicalName='contact')", gotPath)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "contacts", ent.EntitySetName)
	assert.Equal(t, "Contact", ent.DisplayName)
	assert.Equal(t, "contactid", ent.PrimaryIDAttribute)
}

func TestWebAPISourceEntityNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	}))
	defer server.Close()

	src, err := NewWebAPISource(server.URL, "")
	require.NoError(t, err)

	_, err = src.Entity(context.Background(), "widget")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWebAPISourceAttributes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/EntityDefinitions(LogicalName='contact')/Attributes", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value": [
			{"LogicalName": "fullname", "AttributeType": "String",
			 "DisplayName": {"UserLocalizedLabel": {"Label": "Full Name"}},
			 "RequiredLevel": {"Value": "ApplicationRequired"}},
			{"LogicalName": "parentcustomerid", "AttributeType": "Customer",
			 "DisplayName": {},
			 "Targets": ["account", "contact"]}
		]}`))
	}))
	defer server.Close()

	src, err := NewWebAPISource(server.URL, "")
	require.NoError(t, err)

	attrs, err := src.Attributes(context.Background(), "contact")
	require.NoError(t, err)
	require.Len(t, attrs, 2)

	assert.Equal(t, "Full Name", attrs[0].DisplayName)
	assert.Equal(t, TypeString, attrs[0].Type)
	assert.Equal(t, "ApplicationRequired", attrs[0].RequiredLevel)

	assert.Equal(t, TypeCustomer, attrs[1].Type)
	assert.True(t, attrs[1].IsPolymorphic)
	assert.Equal(t, []string{"account", "contact"}, attrs[1].LookupTargets)
}

func TestWebAPISourceRelationshipDirections(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value": [
			{"SchemaName": "contact_customer_accounts",
			 "ReferencingEntity": "contact",
			 "ReferencedEntity": "account",
			 "ReferencingAttribute": "parentcustomerid",
			 "ReferencingEntityNavigationPropertyName": "parentcustomerid_account",
			 "ReferencedEntityNavigationPropertyName": "contact_customer_accounts"}
		]}`))
	}))
	defer server.Close()

	src, err := NewWebAPISource(server.URL, "")
	require.NoError(t, err)

	rels, err := src.Relationships(context.Background(), "contact", ManyToOne)
	require.NoError(t, err)
	require.Len(t, rels, 1)

	assert.Equal(t, ManyToOne, rels[0].Type)
	assert.Equal(t, "parentcustomerid_account", rels[0].ReferencingNavigationProperty)
	assert.Equal(t, "contact_customer_accounts", rels[0].ReferencedNavigationProperty)
}

func TestWebAPISourceRelationshipsRejectsManyToMany(t *testing.T) {
	src, err := NewWebAPISource("http://unused.example", "")
	require.NoError(t, err)

	_, err = src.Relationships(context.Background(), "contact", ManyToMany)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not directional")
}

func TestWebAPISourceManyToMany(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/EntityDefinitions(LogicalName='systemuser')/ManyToManyRelationships", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value": [
			{"SchemaName": "teammembership",
			 "Entity1LogicalName": "systemuser",
			 "Entity2LogicalName": "team",
			 "Entity1NavigationPropertyName": "teammembership_association",
			 "Entity2NavigationPropertyName": "teammembership_association_team"}
		]}`))
	}))
	defer server.Close()

	src, err := NewWebAPISource(server.URL, "")
	require.NoError(t, err)

	rels, err := src.ManyToMany(context.Background(), "systemuser")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, ManyToMany, rels[0].Type)
	assert.Equal(t, "systemuser", rels[0].ReferencingEntity)
	assert.Equal(t, "team", rels[0].ReferencedEntity)
}

func TestWebAPISourceServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal failure", http.StatusInternalServerError)
	}))
	defer server.Close()

	src, err := NewWebAPISource(server.URL, "")
	require.NoError(t, err)

	_, err = src.Entity(context.Background(), "contact")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "internal failure")
}
