package fetchxml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFullView(t *testing.T) {
	doc, err := Parse([]byte(`
		<fetch top="50">
		  <entity name="contact">
		    <attribute name="fullname" />
		    <attribute name="emailaddress1" alias="email" />
		    <order attribute="fullname" descending="true" />
		    <filter type="and">
		      <condition attribute="statecode" operator="eq" value="0" />
		      <filter type="or">
		        <condition attribute="createdon" operator="last-x-days" value="30" />
		        <condition attribute="birthdate" operator="between">
		          <value>1980-01-01</value>
		          <value>1989-12-31</value>
		        </condition>
		      </filter>
		    </filter>
		    <link-entity name="account" from="accountid" to="parentcustomerid" alias="acct" link-type="outer">
		      <attribute name="name" />
		      <filter type="and">
		        <condition attribute="revenue" operator="gt" value="100000" />
		      </filter>
		    </link-entity>
		  </entity>
		</fetch>`))
	require.NoError(t, err)

	assert.Equal(t, 50, doc.Top)
	assert.Equal(t, "contact", doc.Entity.Name)
	require.Len(t, doc.Entity.Attributes, 2)
	assert.Equal(t, "email", doc.Entity.Attributes[1].Alias)

	require.Len(t, doc.Entity.Orders, 1)
	assert.True(t, doc.Entity.Orders[0].Descending)

	require.Len(t, doc.Entity.Filters, 1)
	outer := doc.Entity.Filters[0]
	assert.Equal(t, "and", outer.Type)
	require.Len(t, outer.Conditions, 1)
	require.Len(t, outer.Filters, 1)

	inner := outer.Filters[0]
	assert.Equal(t, "or", inner.Type)
	require.Len(t, inner.Conditions, 2)
	assert.Equal(t, "30", inner.Conditions[0].Value)
	assert.Equal(t, []string{"1980-01-01", "1989-12-31"}, inner.Conditions[1].Values)

	require.Len(t, doc.Entity.LinkEntities, 1)
	link := doc.Entity.LinkEntities[0]
	assert.Equal(t, "account", link.Name)
	assert.Equal(t, "accountid", link.From)
	assert.Equal(t, "parentcustomerid", link.To)
	assert.Equal(t, "acct", link.Alias)
	require.Len(t, link.Attributes, 1)
	require.Len(t, link.Filters, 1)
}

func TestParseNestedLinkEntities(t *testing.T) {
	doc, err := Parse([]byte(`
		<fetch>
		  <entity name="contact">
		    <link-entity name="account" to="parentcustomerid">
		      <link-entity name="systemuser" to="ownerid" alias="owner">
		        <attribute name="fullname" />
		      </link-entity>
		    </link-entity>
		  </entity>
		</fetch>`))
	require.NoError(t, err)

	require.Len(t, doc.Entity.LinkEntities, 1)
	require.Len(t, doc.Entity.LinkEntities[0].LinkEntities, 1)
	assert.Equal(t, "owner", doc.Entity.LinkEntities[0].LinkEntities[0].Alias)
}

func TestParseAllAttributes(t *testing.T) {
	doc, err := Parse([]byte(`<fetch><entity name="contact"><all-attributes /></entity></fetch>`))
	require.NoError(t, err)
	assert.NotNil(t, doc.Entity.AllAttrs)
	assert.Empty(t, doc.Entity.Attributes)
}

func TestParseMissingEntity(t *testing.T) {
	_, err := Parse([]byte(`<fetch></fetch>`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoEntity)
}

func TestParseUnnamedEntity(t *testing.T) {
	_, err := Parse([]byte(`<fetch><entity></entity></fetch>`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoEntity)
}

func TestParseMalformedXML(t *testing.T) {
	_, err := Parse([]byte(`<fetch><entity name="contact">`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoEntity)
}

func TestParseUnknownElementsIgnored(t *testing.T) {
	doc, err := Parse([]byte(`
		<fetch distinct="true" mapping="logical">
		  <entity name="contact">
		    <attribute name="fullname" groupby="true" />
		  </entity>
		</fetch>`))
	require.NoError(t, err)
	require.Len(t, doc.Entity.Attributes, 1)
}
