package collections

import (
	"github.com/pkg/errors"
	"github.com/pocketbase/pocketbase/core"
	"github.com/sirupsen/logrus"
)

// Setup programmatically creates/ensures the tenders, boq_sections,
// boq_items and boq_imports collections exist. It is safe to call on every
// start.
func Setup(app core.App) error {
	tenders, err := ensureCollection(app, "tenders", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "title", Required: true})
		c.Fields.Add(&core.TextField{Name: "reference_number"})
		c.Fields.Add(&core.TextField{Name: "client_name"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})
	if err != nil {
		return err
	}

	sections, err := ensureCollection(app, "boq_sections", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "tender",
			Required:      true,
			CollectionId:  tenders.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "section_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "title"})
		// sort_order starts at 0, which a required number field rejects.
		c.Fields.Add(&core.NumberField{Name: "sort_order", OnlyInt: true})
		c.AddIndex("idx_boq_sections_tender_number", true, "tender, section_number", "")
	})
	if err != nil {
		return err
	}
	if err := ensureSelfRelation(app, sections, "parent_section"); err != nil {
		return err
	}

	items, err := ensureCollection(app, "boq_items", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "tender",
			Required:      true,
			CollectionId:  tenders.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:          "section",
			CollectionId:  sections.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "item_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "description"})
		c.Fields.Add(&core.TextField{Name: "quantity"})
		c.Fields.Add(&core.TextField{Name: "uom"})
		c.Fields.Add(&core.TextField{Name: "notes"})
		c.Fields.Add(&core.NumberField{Name: "sort_order", OnlyInt: true})
		c.Fields.Add(&core.BoolField{Name: "is_group"})
		c.Fields.Add(&core.NumberField{Name: "source_row", OnlyInt: true})
		c.AddIndex("idx_boq_items_tender_number", true, "tender, item_number", "")
	})
	if err != nil {
		return err
	}
	if err := ensureSelfRelation(app, items, "parent_item"); err != nil {
		return err
	}

	_, err = ensureCollection(app, "boq_imports", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "tender",
			Required:      true,
			CollectionId:  tenders.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "file_name"})
		c.Fields.Add(&core.FileField{Name: "original_file", MaxSelect: 1, MaxSize: 50 << 20})
		c.Fields.Add(&core.NumberField{Name: "total_rows", OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "items_created", OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "skipped_rows", OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "sections_created", OnlyInt: true})
		c.Fields.Add(&core.JSONField{Name: "result", MaxSize: 5 << 20})
		c.Fields.Add(&core.JSONField{Name: "warnings", MaxSize: 5 << 20})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})
	return err
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app core.App, name string, addFields func(*core.Collection)) (*core.Collection, error) {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		logrus.Debugf("setup: collection %q already exists, skipping creation", name)
		return existing, nil
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		return nil, errors.Wrapf(err, "create collection %q", name)
	}

	logrus.Infof("setup: created collection %q (id=%s)", name, collection.Id)
	return collection, nil
}

// ensureSelfRelation adds an optional relation from c to itself. It needs the
// saved collection id, so it runs after ensureCollection.
func ensureSelfRelation(app core.App, c *core.Collection, field string) error {
	if c.Fields.GetByName(field) != nil {
		return nil
	}
	c.Fields.Add(&core.RelationField{
		Name:         field,
		CollectionId: c.Id,
		MaxSelect:    1,
	})
	if err := app.Save(c); err != nil {
		return errors.Wrapf(err, "add %s to %q", field, c.Name)
	}
	return nil
}
