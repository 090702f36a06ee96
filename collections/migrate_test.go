package collections_test

import (
	"testing"

	"tenderboq/collections"
	"tenderboq/testhelpers"
)

func TestMigrateSectionlessItems_UsesFirstSection(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	tender := testhelpers.CreateTestTender(t, app, "Migrate Tender")
	testhelpers.CreateTestSection(t, app, tender.Id, "2", "Second", 1)
	first := testhelpers.CreateTestSection(t, app, tender.Id, "1", "First", 0)
	item := testhelpers.CreateTestItem(t, app, tender.Id, "", "1.1", "Loose item")

	if err := collections.MigrateSectionlessItems(app, "General"); err != nil {
		t.Fatalf("MigrateSectionlessItems() error: %v", err)
	}

	got, err := app.FindRecordById("boq_items", item.Id)
	if err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if got.GetString("section") != first.Id {
		t.Errorf("item section = %q, want %q", got.GetString("section"), first.Id)
	}
}

func TestMigrateSectionlessItems_CreatesDefaultSection(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	tender := testhelpers.CreateTestTender(t, app, "No Sections")
	a := testhelpers.CreateTestItem(t, app, tender.Id, "", "1", "A")
	b := testhelpers.CreateTestItem(t, app, tender.Id, "", "2", "B")

	if err := collections.MigrateSectionlessItems(app, "General"); err != nil {
		t.Fatalf("MigrateSectionlessItems() error: %v", err)
	}

	sections, _ := app.FindRecordsByFilter("boq_sections", "tender = {:t}", "", 0, 0, map[string]any{"t": tender.Id})
	if len(sections) != 1 {
		t.Fatalf("expected 1 default section, got %d", len(sections))
	}
	if sections[0].GetString("section_number") != "1" || sections[0].GetString("title") != "General" {
		t.Errorf("default section = %q %q", sections[0].GetString("section_number"), sections[0].GetString("title"))
	}

	for _, id := range []string{a.Id, b.Id} {
		rec, _ := app.FindRecordById("boq_items", id)
		if rec.GetString("section") != sections[0].Id {
			t.Errorf("item %s not attached to default section", id)
		}
	}
}

func TestMigrateSectionlessItems_Noop(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.MigrateSectionlessItems(app, "General"); err != nil {
		t.Fatalf("first run error: %v", err)
	}
	if err := collections.MigrateSectionlessItems(app, "General"); err != nil {
		t.Fatalf("second run error: %v", err)
	}
	sections, _ := app.FindAllRecords("boq_sections")
	if len(sections) != 0 {
		t.Errorf("expected no sections created, got %d", len(sections))
	}
}
