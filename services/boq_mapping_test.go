package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestFieldMapping(t *testing.T) {
	headers := []string{"S.No", "Description *", "QTY", "Unit", "Remarks", "Rate", "Bill No", "Sub-Item", "Qty."}

	mapping, ignored := SuggestFieldMapping(headers)

	assert.Equal(t, "S.No", mapping[FieldItemNumber])
	assert.Equal(t, "Description *", mapping[FieldDescription])
	assert.Equal(t, "QTY", mapping[FieldQuantity], "first matching column wins")
	assert.Equal(t, "Unit", mapping[FieldUOM])
	assert.Equal(t, "Remarks", mapping[FieldNotes])
	assert.Equal(t, "Bill No", mapping[FieldBillNumber])
	assert.Equal(t, "Sub-Item", mapping[FieldSubItemLabel])
	assert.Equal(t, []string{"Rate"}, ignored)
}

func TestFieldMapping_Value(t *testing.T) {
	m := FieldMapping{FieldItemNumber: "No", FieldQuantity: "Qty", FieldNotes: "Notes"}
	row := Row{"No": "  1.1 ", "Qty": 12.5, "Notes": nil}

	assert.Equal(t, "1.1", m.Value(row, FieldItemNumber))
	assert.Equal(t, "12.5", m.Value(row, FieldQuantity), "non-string cells are cast")
	assert.Equal(t, "", m.Value(row, FieldNotes))
	assert.Equal(t, "", m.Value(row, FieldUOM), "unmapped field")
	assert.True(t, m.Has(FieldItemNumber))
	assert.False(t, m.Has(FieldUOM))
}

func TestLoadMappingProfile(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		m, err := LoadMappingProfile(strings.NewReader("item_number: Ref\nDescription: Work\nuom: \"\"\n"))
		require.NoError(t, err)
		assert.Equal(t, FieldMapping{FieldItemNumber: "Ref", FieldDescription: "Work"}, m)
	})

	t.Run("json", func(t *testing.T) {
		m, err := LoadMappingProfile(strings.NewReader(`{"quantity": "Qty", "bill_number": "Bill"}`))
		require.NoError(t, err)
		assert.Equal(t, "Qty", m[FieldQuantity])
		assert.Equal(t, "Bill", m[FieldBillNumber])
	})

	t.Run("empty document", func(t *testing.T) {
		m, err := LoadMappingProfile(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, m)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := LoadMappingProfile(strings.NewReader("rate: Rate\n"))
		assert.ErrorContains(t, err, "unknown mapping field")
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := LoadMappingProfile(strings.NewReader("item_number: [unclosed\n"))
		assert.Error(t, err)
	})
}

func TestFieldMapping_MissingColumns(t *testing.T) {
	m := FieldMapping{FieldItemNumber: "No", FieldDescription: "Desc", FieldUOM: "Unit"}
	assert.Equal(t, []string{"No", "Unit"}, m.MissingColumns([]string{"Desc", "Qty"}))
	assert.Empty(t, m.MissingColumns([]string{"No", "Desc", "Unit"}))
}
