package services

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// FieldMapping maps a logical field to the spreadsheet column holding it.
// A missing entry means the signal is unavailable for this import.
type FieldMapping map[BOQField]string

// Has reports whether field is mapped to a column.
func (m FieldMapping) Has(field BOQField) bool {
	return strings.TrimSpace(m[field]) != ""
}

// Value extracts the trimmed string value of field from row. It returns ""
// when the field is unmapped, the column is missing or the cell is blank.
func (m FieldMapping) Value(row Row, field BOQField) string {
	column := strings.TrimSpace(m[field])
	if column == "" {
		return ""
	}
	raw, ok := row[column]
	if !ok || raw == nil {
		return ""
	}
	return strings.TrimSpace(cast.ToString(raw))
}

// fieldAliases are the header spellings recognised by SuggestFieldMapping.
var fieldAliases = map[BOQField][]string{
	FieldItemNumber:   {"item number", "item no", "item no.", "item", "s.no", "s. no.", "sl no", "sl. no.", "ref", "item ref"},
	FieldDescription:  {"description", "item description", "particulars", "description of work", "description of item", "work description"},
	FieldQuantity:     {"quantity", "qty", "qty.", "quantities"},
	FieldUOM:          {"uom", "unit", "units", "unit of measure", "unit of measurement"},
	FieldNotes:        {"notes", "remarks", "comments", "note"},
	FieldBillNumber:   {"bill number", "bill no", "bill no.", "bill"},
	FieldSubItemLabel: {"sub item", "sub-item", "sub item label", "sub-item label", "sub item no"},
}

// SuggestFieldMapping matches uploaded column headers against known aliases.
// It returns the suggested mapping and the headers that matched nothing.
func SuggestFieldMapping(headers []string) (FieldMapping, []string) {
	aliasToField := make(map[string]BOQField)
	for _, field := range AllBOQFields {
		for _, alias := range fieldAliases[field] {
			aliasToField[alias] = field
		}
	}

	mapping := make(FieldMapping)
	var unrecognized []string

	for _, h := range headers {
		norm := strings.ToLower(strings.TrimSpace(h))
		// Template headers mark required columns with a trailing " *"
		norm = strings.TrimSpace(strings.TrimSuffix(norm, " *"))

		field, ok := aliasToField[norm]
		if !ok {
			if strings.TrimSpace(h) != "" {
				unrecognized = append(unrecognized, h)
			}
			continue
		}
		// First matching column wins.
		if _, taken := mapping[field]; !taken {
			mapping[field] = h
		}
	}
	return mapping, unrecognized
}

// LoadMappingProfile parses a YAML (or JSON) document of field -> column
// entries, e.g. `item_number: "Item No"`. Unknown field keys are rejected.
func LoadMappingProfile(r io.Reader) (FieldMapping, error) {
	raw := make(map[string]string)
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return FieldMapping{}, nil
		}
		return nil, errors.Wrap(err, "decode mapping profile")
	}

	known := make(map[BOQField]bool, len(AllBOQFields))
	for _, f := range AllBOQFields {
		known[f] = true
	}

	mapping := make(FieldMapping, len(raw))
	for key, column := range raw {
		field := BOQField(strings.ToLower(strings.TrimSpace(key)))
		if !known[field] {
			return nil, errors.Errorf("unknown mapping field %q", key)
		}
		if strings.TrimSpace(column) == "" {
			continue
		}
		mapping[field] = column
	}
	return mapping, nil
}

// MissingColumns returns the mapped columns that are absent from headers.
func (m FieldMapping) MissingColumns(headers []string) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	var missing []string
	for _, field := range AllBOQFields {
		column := m[field]
		if column != "" && !present[column] {
			missing = append(missing, column)
		}
	}
	return missing
}
