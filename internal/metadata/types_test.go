package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectName(t *testing.T) {
	tests := []struct {
		name string
		attr AttributeDescriptor
		want string
	}{
		{"plain string", AttributeDescriptor{LogicalName: "fullname", Type: TypeString}, "fullname"},
		{"lookup", AttributeDescriptor{LogicalName: "primarycontactid", Type: TypeLookup}, "_primarycontactid_value"},
		{"owner", AttributeDescriptor{LogicalName: "ownerid", Type: TypeOwner}, "_ownerid_value"},
		{"customer", AttributeDescriptor{LogicalName: "parentcustomerid", Type: TypeCustomer}, "_parentcustomerid_value"},
		{"picklist", AttributeDescriptor{LogicalName: "statecode", Type: TypeState}, "statecode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.attr.SelectName())
		})
	}
}

func TestLabelFallback(t *testing.T) {
	labeled := AttributeDescriptor{LogicalName: "fullname", DisplayName: "Full Name"}
	assert.Equal(t, "Full Name", labeled.Label())

	bare := AttributeDescriptor{LogicalName: "new_customfield"}
	assert.Equal(t, "new_customfield", bare.Label())
}

func TestTypeClassification(t *testing.T) {
	assert.True(t, TypeMoney.IsNumeric())
	assert.True(t, TypeStatus.IsNumeric())
	assert.False(t, TypeString.IsNumeric())

	assert.True(t, TypeMemo.IsText())
	assert.False(t, TypeDateTime.IsText())

	assert.True(t, TypeDateTime.IsDate())

	assert.True(t, TypeOwner.IsReference())
	assert.False(t, TypeUniqueidentifier.IsReference())
}
