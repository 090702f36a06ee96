package services

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/filesystem"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrTenderNotFound is returned when an import targets an unknown tender.
var ErrTenderNotFound = errors.New("tender not found")

// CommitOptions controls how a built hierarchy is written.
type CommitOptions struct {
	// ReplaceExisting clears the tender's sections and items first.
	ReplaceExisting bool
	// FileName and OriginalFile are stored on the boq_imports audit record.
	FileName     string
	OriginalFile []byte
	Logger       *logrus.Entry
}

// CommitResult maps in-memory ids to the record ids they were stored under.
type CommitResult struct {
	ImportID  string
	SectionID map[string]string
	ItemID    map[string]string
}

// CommitBOQ writes a built hierarchy in one transaction: sections, then
// their parent links, then items in build order, then the audit record.
func CommitBOQ(app core.App, tenderID string, h *BOQHierarchy, opts CommitOptions) (*CommitResult, error) {
	log := orDiscard(opts.Logger).WithField("tender", tenderID)

	if _, err := app.FindRecordById("tenders", tenderID); err != nil {
		return nil, errors.Wrapf(ErrTenderNotFound, "tender %s", tenderID)
	}

	result := &CommitResult{
		SectionID: make(map[string]string, len(h.Sections)),
		ItemID:    make(map[string]string, len(h.Items)),
	}

	err := app.RunInTransaction(func(txApp core.App) error {
		if opts.ReplaceExisting {
			if err := deleteTenderBOQ(txApp, tenderID); err != nil {
				return err
			}
		}

		sectionsCol, err := txApp.FindCollectionByNameOrId("boq_sections")
		if err != nil {
			return errors.Wrap(err, "find boq_sections collection")
		}
		itemsCol, err := txApp.FindCollectionByNameOrId("boq_items")
		if err != nil {
			return errors.Wrap(err, "find boq_items collection")
		}
		importsCol, err := txApp.FindCollectionByNameOrId("boq_imports")
		if err != nil {
			return errors.Wrap(err, "find boq_imports collection")
		}

		// Pass 1: sections without parents.
		records := make(map[string]*core.Record, len(h.Sections))
		for _, s := range h.Sections {
			rec := core.NewRecord(sectionsCol)
			rec.Set("tender", tenderID)
			rec.Set("section_number", s.SectionNumber)
			rec.Set("title", s.Title)
			rec.Set("sort_order", s.SortOrder)
			if err := txApp.Save(rec); err != nil {
				return errors.Wrapf(err, "save section %q", s.SectionNumber)
			}
			records[s.ID] = rec
			result.SectionID[s.ID] = rec.Id
		}

		// Pass 2: parent links.
		for _, s := range h.Sections {
			if s.ParentSectionID == "" {
				continue
			}
			parentID, ok := result.SectionID[s.ParentSectionID]
			if !ok {
				continue
			}
			rec := records[s.ID]
			rec.Set("parent_section", parentID)
			if err := txApp.Save(rec); err != nil {
				return errors.Wrapf(err, "link section %q", s.SectionNumber)
			}
		}

		// Parents are always built before their sub-items.
		for _, it := range h.Items {
			rec := core.NewRecord(itemsCol)
			rec.Set("tender", tenderID)
			rec.Set("section", result.SectionID[it.SectionID])
			rec.Set("item_number", it.ItemNumber)
			rec.Set("description", it.Description)
			rec.Set("quantity", it.Quantity.String())
			rec.Set("uom", it.UnitOfMeasure)
			rec.Set("notes", it.Notes)
			rec.Set("sort_order", it.SortOrder)
			rec.Set("is_group", it.IsGroup)
			rec.Set("source_row", it.RowNumber)
			if it.ParentItemID != "" {
				rec.Set("parent_item", result.ItemID[it.ParentItemID])
			}
			if err := txApp.Save(rec); err != nil {
				return errors.Wrapf(err, "save item %q (row %d)", it.ItemNumber, it.RowNumber)
			}
			result.ItemID[it.ID] = rec.Id
		}

		audit := core.NewRecord(importsCol)
		audit.Set("tender", tenderID)
		audit.Set("file_name", opts.FileName)
		audit.Set("total_rows", h.Result.TotalRows)
		audit.Set("items_created", h.Result.ItemsCreated)
		audit.Set("skipped_rows", h.Result.SkippedRows)
		audit.Set("sections_created", h.Result.SectionsCreated)
		audit.Set("result", h.Result)
		audit.Set("warnings", h.Result.Warnings)
		if len(opts.OriginalFile) > 0 && opts.FileName != "" {
			file, err := filesystem.NewFileFromBytes(opts.OriginalFile, opts.FileName)
			if err != nil {
				return errors.Wrap(err, "prepare original file")
			}
			audit.Set("original_file", file)
		}
		if err := txApp.Save(audit); err != nil {
			return errors.Wrap(err, "save import record")
		}
		result.ImportID = audit.Id
		return nil
	})
	if err != nil {
		log.WithError(err).Error("boq commit rolled back")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"import":   result.ImportID,
		"sections": len(result.SectionID),
		"items":    len(result.ItemID),
	}).Info("boq committed")
	return result, nil
}

func deleteTenderBOQ(app core.App, tenderID string) error {
	params := map[string]any{"tender": tenderID}

	items, err := app.FindRecordsByFilter("boq_items", "tender = {:tender}", "", 0, 0, params)
	if err != nil {
		return errors.Wrap(err, "find existing items")
	}
	// Sub-items first so no delete leaves a dangling parent reference.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].GetString("parent_item") != "" && items[j].GetString("parent_item") == ""
	})
	for _, rec := range items {
		if err := app.Delete(rec); err != nil {
			return errors.Wrapf(err, "delete item %s", rec.Id)
		}
	}

	sections, err := app.FindRecordsByFilter("boq_sections", "tender = {:tender}", "", 0, 0, params)
	if err != nil {
		return errors.Wrap(err, "find existing sections")
	}
	for _, rec := range sections {
		rec.Set("parent_section", "")
		if err := app.Save(rec); err != nil {
			return errors.Wrapf(err, "unlink section %s", rec.Id)
		}
	}
	for _, rec := range sections {
		if err := app.Delete(rec); err != nil {
			return errors.Wrapf(err, "delete section %s", rec.Id)
		}
	}
	return nil
}

// TenderBOQ is a tender's stored hierarchy.
type TenderBOQ struct {
	Tender   *core.Record
	Sections []Section
	Items    []Item
}

// LoadTenderBOQ reads a tender's sections and items back into domain values,
// with record ids as identities.
func LoadTenderBOQ(app core.App, tenderID string) (*TenderBOQ, error) {
	tender, err := app.FindRecordById("tenders", tenderID)
	if err != nil {
		return nil, errors.Wrapf(ErrTenderNotFound, "tender %s", tenderID)
	}
	params := map[string]any{"tender": tenderID}

	sectionRecs, err := app.FindRecordsByFilter("boq_sections", "tender = {:tender}", "sort_order", 0, 0, params)
	if err != nil {
		return nil, errors.Wrap(err, "load sections")
	}
	itemRecs, err := app.FindRecordsByFilter("boq_items", "tender = {:tender}", "sort_order,source_row", 0, 0, params)
	if err != nil {
		return nil, errors.Wrap(err, "load items")
	}

	out := &TenderBOQ{Tender: tender}
	for _, rec := range sectionRecs {
		out.Sections = append(out.Sections, Section{
			ID:              rec.Id,
			TenderID:        tenderID,
			SectionNumber:   rec.GetString("section_number"),
			Title:           rec.GetString("title"),
			SortOrder:       rec.GetInt("sort_order"),
			ParentSectionID: rec.GetString("parent_section"),
		})
	}
	for _, rec := range itemRecs {
		qty, err := decimal.NewFromString(rec.GetString("quantity"))
		if err != nil {
			qty = decimal.Zero
		}
		out.Items = append(out.Items, Item{
			ID:            rec.Id,
			TenderID:      tenderID,
			ItemNumber:    rec.GetString("item_number"),
			Description:   rec.GetString("description"),
			Quantity:      qty,
			UnitOfMeasure: rec.GetString("uom"),
			Notes:         rec.GetString("notes"),
			SortOrder:     rec.GetInt("sort_order"),
			IsGroup:       rec.GetBool("is_group"),
			SectionID:     rec.GetString("section"),
			ParentItemID:  rec.GetString("parent_item"),
			RowNumber:     rec.GetInt("source_row"),
		})
	}
	return out, nil
}

// LoadImportSummary reads a boq_imports audit record back into an ImportSummary.
func LoadImportSummary(app core.App, tenderID, importID string) (*ImportSummary, error) {
	tender, err := app.FindRecordById("tenders", tenderID)
	if err != nil {
		return nil, errors.Wrapf(ErrTenderNotFound, "tender %s", tenderID)
	}
	rec, err := app.FindRecordById("boq_imports", importID)
	if err != nil || rec.GetString("tender") != tenderID {
		return nil, errors.Errorf("import %s not found for tender %s", importID, tenderID)
	}

	var result ImportResult
	if err := rec.UnmarshalJSONField("result", &result); err != nil {
		return nil, errors.Wrap(err, "decode import result")
	}
	return &ImportSummary{
		Title:           tender.GetString("title"),
		ReferenceNumber: tender.GetString("reference_number"),
		FileName:        rec.GetString("file_name"),
		CreatedDate:     rec.GetDateTime("created").Time().Format("02 Jan 2006"),
		Result:          result,
	}, nil
}
