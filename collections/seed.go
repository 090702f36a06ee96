package collections

import (
	"github.com/pkg/errors"
	"github.com/pocketbase/pocketbase/core"
	"github.com/sirupsen/logrus"

	"tenderboq/services"
)

// ── Demo sheet ───────────────────────────────────────────────────────────

type seedRow struct {
	bill        string
	itemNumber  string
	label       string
	description string
	qty         string
	uom         string
	notes       string
}

var seedMapping = services.FieldMapping{
	services.FieldBillNumber:   "Bill No",
	services.FieldItemNumber:   "Item No",
	services.FieldSubItemLabel: "Sub Item",
	services.FieldDescription:  "Description",
	services.FieldQuantity:     "Qty",
	services.FieldUOM:          "Unit",
	services.FieldNotes:        "Remarks",
}

var seedRows = []seedRow{
	{itemNumber: "1", description: "Preliminaries"},
	{itemNumber: "1.1", description: "Site establishment and mobilisation", qty: "1", uom: "LS"},
	{itemNumber: "1.2", description: "Temporary fencing", qty: "240", uom: "m"},
	{itemNumber: "2", description: "Earthworks"},
	{itemNumber: "2.1", description: "Excavation in ordinary soil"},
	{itemNumber: "2.1.1", description: "Depth up to 1.5 m", qty: "1,250", uom: "m3"},
	{itemNumber: "2.1.2", description: "Depth 1.5 m to 3.0 m", qty: "430.5", uom: "m3"},
	{itemNumber: "2.2", description: "Backfilling with approved material", qty: "980", uom: "m3"},
	{bill: "B1", description: "Civil Works"},
	{bill: "B1", itemNumber: "B1.1", description: "Reinforced concrete M25"},
	{label: "a", description: "Footings", qty: "85", uom: "m3"},
	{label: "b", description: "Columns", qty: "42.75", uom: "m3"},
	{bill: "B1", itemNumber: "B1.2", description: "TMT reinforcement Fe500", qty: "18.4", uom: "MT", notes: "Including cutting and bending"},
	{},
}

func (r seedRow) row() services.Row {
	return services.Row{
		"Bill No":     r.bill,
		"Item No":     r.itemNumber,
		"Sub Item":    r.label,
		"Description": r.description,
		"Qty":         r.qty,
		"Unit":        r.uom,
		"Remarks":     r.notes,
	}
}

// Seed creates a demo tender and imports a small BoQ sheet into it through
// the regular importer. It is safe to call on every startup because it
// returns early if any tender records already exist.
func Seed(app core.App, logger *logrus.Entry) error {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	// ── idempotency: skip if tenders already exist ───────────────────
	tendersCol, err := app.FindCollectionByNameOrId("tenders")
	if err != nil {
		return errors.Wrap(err, "seed: could not find tenders collection")
	}
	existing, err := app.FindAllRecords(tendersCol)
	if err != nil {
		return errors.Wrap(err, "seed: could not query tenders")
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	logger.Info("seed: tenders collection is empty, inserting demo tender")

	tender := core.NewRecord(tendersCol)
	tender.Set("title", "Community Hall - Phase 1")
	tender.Set("reference_number", "PWD/CH/2026/014")
	tender.Set("client_name", "Public Works Department")
	if err := app.Save(tender); err != nil {
		return errors.Wrap(err, "seed: could not save tender")
	}

	rows := make([]services.Row, len(seedRows))
	for i, r := range seedRows {
		rows[i] = r.row()
	}

	h, err := services.NewImporter(nil, logger).Build(services.ImportRequest{
		TenderID: tender.Id,
		Rows:     rows,
		Mapping:  seedMapping,
	})
	if err != nil {
		return errors.Wrap(err, "seed: build demo BoQ")
	}
	if _, err := services.CommitBOQ(app, tender.Id, h, services.CommitOptions{
		FileName: "demo-boq.csv",
		Logger:   logger,
	}); err != nil {
		return errors.Wrap(err, "seed: commit demo BoQ")
	}

	logger.WithFields(logrus.Fields{
		"tender":   tender.Id,
		"sections": h.Result.SectionsCreated,
		"items":    h.Result.ItemsCreated,
	}).Info("seed: demo tender imported")
	return nil
}
