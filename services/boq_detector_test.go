package services

import (
	"testing"
)

func TestNumberingDetector_ParentSectionNumber(t *testing.T) {
	d := NewNumberingDetector()
	tests := []struct {
		in, want string
	}{
		{"1.2.3", "1.2"},
		{"1.2", "1"},
		{"1", ""},
		{"1.0", ""},
		{"2.1a", "2.1"},
		{"2.1(b)", "2.1"},
		{"A-4", "A"},
		{"3/2", "3"},
		{"  4.5.  ", "4"},
		{"", ""},
		{"II", ""},
	}
	for _, tt := range tests {
		if got := d.ParentSectionNumber(tt.in); got != tt.want {
			t.Errorf("ParentSectionNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNumberingDetector_IsSectionHeaderRow(t *testing.T) {
	d := NewNumberingDetector()
	tests := []struct {
		name             string
		number, qty, uom string
		want             bool
	}{
		{"top level, empty", "1", "", "", true},
		{"roman numeral", "II", "", "", true},
		{"dotted zero", "1.0", "", "", true},
		{"zero quantity", "A", "0", "", true},
		{"nested number", "1.1", "", "", false},
		{"has quantity", "1", "5", "", false},
		{"has uom", "1", "", "m3", false},
		{"no number", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.IsSectionHeaderRow(tt.number, tt.qty, tt.uom); got != tt.want {
				t.Errorf("IsSectionHeaderRow(%q, %q, %q) = %v, want %v", tt.number, tt.qty, tt.uom, got, tt.want)
			}
		})
	}
}

func TestNumberingDetector_FindBestSection(t *testing.T) {
	d := NewNumberingDetector()
	known := []string{"1", "1.2", "2"}

	tests := []struct {
		item, want string
	}{
		{"1.2.3", "1.2"},
		{"1.3", "1"},
		{"2.1a", "2"},
		{"1.2", "1.2"},
		{"3.1", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := d.FindBestSection(tt.item, known); got != tt.want {
			t.Errorf("FindBestSection(%q) = %q, want %q", tt.item, got, tt.want)
		}
	}
}

func TestNumberingDetector_DetectItemHierarchy(t *testing.T) {
	d := NewNumberingDetector()
	rows := []RowContext{
		{ItemNumber: "Bill No. 2", Description: "Electrical"},
		{ItemNumber: "1", Description: "Earthwork"},
		{ItemNumber: "1.1", Description: "Excavation group"},
		{ItemNumber: "1.1.1", Description: "Soft soil", Quantity: "10", UOM: "m3"},
		{ItemNumber: "1.1.2", Description: "Hard rock", Quantity: "4", UOM: "m3"},
		{ItemNumber: "1.2", Description: "Backfill", Quantity: "3", UOM: "m3"},
		{ItemNumber: "", Description: "Unnumbered note"},
	}

	infos := d.DetectItemHierarchy(rows)
	if len(infos) != len(rows) {
		t.Fatalf("expected %d infos, got %d", len(rows), len(infos))
	}

	want := []HierarchyRole{RoleBillHeader, RoleStandalone, RoleGroup, RoleSubItem, RoleSubItem, RoleStandalone, RoleStandalone}
	for i, role := range want {
		if infos[i].RowIndex != i {
			t.Errorf("row %d: RowIndex = %d", i, infos[i].RowIndex)
		}
		if infos[i].Role != role {
			t.Errorf("row %d (%s): role = %s, want %s", i, rows[i].ItemNumber, infos[i].Role, role)
		}
	}
	if infos[3].ParentItemNumber != "1.1" || infos[4].ParentItemNumber != "1.1" {
		t.Errorf("sub-item parents = %q, %q; want 1.1", infos[3].ParentItemNumber, infos[4].ParentItemNumber)
	}
	if infos[5].ParentItemNumber != "" {
		t.Errorf("standalone row should have no parent, got %q", infos[5].ParentItemNumber)
	}
}

func TestNumberingDetector_GroupWithQuantityIsStandalone(t *testing.T) {
	d := NewNumberingDetector()
	infos := d.DetectItemHierarchy([]RowContext{
		{ItemNumber: "3.1", Quantity: "2", UOM: "Nos"},
		{ItemNumber: "3.1.1", Quantity: "1", UOM: "Nos"},
	})
	if infos[0].Role != RoleStandalone || infos[1].Role != RoleStandalone {
		t.Errorf("roles = %s, %s; want standalone, standalone", infos[0].Role, infos[1].Role)
	}
}

func TestNumberingDetector_DetectSections(t *testing.T) {
	d := NewNumberingDetector()
	rows := []RowContext{
		{ItemNumber: "2", Description: "Concrete"},
		{ItemNumber: "2.1", Description: "PCC", Quantity: "5", UOM: "m3"},
		{ItemNumber: "1", Description: "Earthwork"},
		{ItemNumber: "1", Description: "Earthwork again"},
		{ItemNumber: "Bill 3", Description: "Finishes"},
	}

	got := d.DetectSections(rows)
	if len(got) != 2 {
		t.Fatalf("expected 2 sections, got %d: %+v", len(got), got)
	}
	if got[0].SectionNumber != "2" || got[0].Title != "Concrete" {
		t.Errorf("first section = %+v", got[0])
	}
	if got[1].SectionNumber != "1" || got[1].Title != "Earthwork" {
		t.Errorf("second section = %+v", got[1])
	}
	for _, s := range got {
		if s.Level != 1 || s.ParentSectionNumber != "" {
			t.Errorf("section %s: level %d parent %q", s.SectionNumber, s.Level, s.ParentSectionNumber)
		}
	}
}

func TestHierarchyRole_String(t *testing.T) {
	if RoleGroup.String() != "group" || RoleSubItem.String() != "sub_item" ||
		RoleBillHeader.String() != "bill_header" || RoleStandalone.String() != "standalone" {
		t.Error("unexpected role names")
	}
}
