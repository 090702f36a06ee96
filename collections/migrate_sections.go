package collections

import (
	"github.com/pkg/errors"
	"github.com/pocketbase/pocketbase/core"
	"github.com/sirupsen/logrus"
)

// MigrateSectionlessItems finds boq_items with no section and attaches each
// to its tender's first section, creating a section "1" titled defaultTitle
// when the tender has none. Safe to call on every startup -- returns early if
// nothing to migrate.
func MigrateSectionlessItems(app core.App, defaultTitle string) error {
	itemsCol, err := app.FindCollectionByNameOrId("boq_items")
	if err != nil {
		return errors.Wrap(err, "migrate: could not find boq_items collection")
	}
	sectionsCol, err := app.FindCollectionByNameOrId("boq_sections")
	if err != nil {
		return errors.Wrap(err, "migrate: could not find boq_sections collection")
	}

	orphans, err := app.FindRecordsByFilter(itemsCol, "section = ''", "sort_order", 0, 0, nil)
	if err != nil {
		return errors.Wrap(err, "migrate: could not query sectionless items")
	}
	if len(orphans) == 0 {
		return nil
	}

	logrus.Infof("migrate: found %d item(s) without a section -- attaching to default sections...", len(orphans))

	defaults := make(map[string]string)
	for _, item := range orphans {
		tenderID := item.GetString("tender")

		sectionID, ok := defaults[tenderID]
		if !ok {
			sectionID, err = defaultSection(app, sectionsCol, tenderID, defaultTitle)
			if err != nil {
				logrus.Warnf("migrate: no default section for tender %s: %v", tenderID, err)
				continue
			}
			defaults[tenderID] = sectionID
		}

		item.Set("section", sectionID)
		if err := app.Save(item); err != nil {
			logrus.Warnf("migrate: failed to attach item %s to section %s: %v", item.Id, sectionID, err)
			continue
		}
	}

	logrus.Info("migrate: sectionless item migration complete")
	return nil
}

// defaultSection returns the tender's lowest sort_order section, creating
// section "1" when the tender has none.
func defaultSection(app core.App, sectionsCol *core.Collection, tenderID, title string) (string, error) {
	existing, err := app.FindRecordsByFilter(sectionsCol, "tender = {:tender}", "sort_order", 1, 0,
		map[string]any{"tender": tenderID})
	if err != nil {
		return "", err
	}
	if len(existing) > 0 {
		return existing[0].Id, nil
	}

	rec := core.NewRecord(sectionsCol)
	rec.Set("tender", tenderID)
	rec.Set("section_number", "1")
	rec.Set("title", title)
	rec.Set("sort_order", 0)
	if err := app.Save(rec); err != nil {
		return "", err
	}
	return rec.Id, nil
}
