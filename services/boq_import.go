package services

import (
	"github.com/sirupsen/logrus"
)

// DefaultSectionTitle titles the fallback section when the caller gives none.
const DefaultSectionTitle = "General"

// ImportRequest is everything one import run needs, already in memory.
type ImportRequest struct {
	TenderID string
	Rows     []Row
	Mapping  FieldMapping

	// Issues is the validation result. When nil, rows are validated with
	// ValidateBOQRows.
	Issues []ValidationIssue
	// DetectedSections are the section candidates. When nil and the detector
	// implements SectionDetector, candidates are detected from the rows.
	DetectedSections []DetectedSection

	HeaderRowOffset     int
	SkipWarningRows     bool
	DefaultSectionTitle string
}

// BOQHierarchy is the fully built, not yet persisted, outcome of an import.
type BOQHierarchy struct {
	Sections []Section
	Items    []Item
	Result   ImportResult
	Issues   []ValidationIssue
}

// Importer wires the section builder, row classification and item builder
// into a single pure run.
type Importer struct {
	detector HierarchyDetector
	logger   *logrus.Entry
}

// NewImporter returns an Importer. A nil detector selects NumberingDetector.
func NewImporter(detector HierarchyDetector, logger *logrus.Entry) *Importer {
	if detector == nil {
		detector = NewNumberingDetector()
	}
	return &Importer{detector: detector, logger: orDiscard(logger)}
}

func rowContexts(rows []Row, mapping FieldMapping) []RowContext {
	out := make([]RowContext, len(rows))
	for i, row := range rows {
		out[i] = RowContext{
			ItemNumber:  mapping.Value(row, FieldItemNumber),
			Description: mapping.Value(row, FieldDescription),
			Quantity:    mapping.Value(row, FieldQuantity),
			UOM:         mapping.Value(row, FieldUOM),
		}
	}
	return out
}

// Build runs the import in memory. The only error is ErrNoSections.
func (im *Importer) Build(req ImportRequest) (*BOQHierarchy, error) {
	log := im.logger.WithField("tender", req.TenderID)

	title := req.DefaultSectionTitle
	if title == "" {
		title = DefaultSectionTitle
	}

	issues := req.Issues
	if issues == nil {
		issues = ValidateBOQRows(req.Rows, req.Mapping, req.HeaderRowOffset)
	}

	contexts := rowContexts(req.Rows, req.Mapping)

	detected := req.DetectedSections
	if detected == nil {
		if sd, ok := im.detector.(SectionDetector); ok {
			detected = sd.DetectSections(contexts)
		}
	}

	sb := NewSectionBuilder(im.detector, log)
	registry, warnings := sb.Build(req.TenderID, detected, title)
	bills := sb.SynthesizeBillSections(registry, req.TenderID, req.Rows, req.Mapping)

	hierarchy := im.detector.DetectItemHierarchy(contexts)
	reconciler := NewRowClassificationReconciler(im.detector, req.Mapping, hierarchy)

	built, err := NewItemBuilder(reconciler, log).Build(req.TenderID, req.Rows, registry, req.Mapping, SkipPolicy{
		Issues:          issues,
		SkipWarningRows: req.SkipWarningRows,
		HeaderRowOffset: req.HeaderRowOffset,
	})
	if err != nil {
		log.WithError(err).Error("item placement aborted")
		return nil, err
	}
	warnings = append(warnings, built.Warnings...)

	sections := registry.Sections()
	result := ImportResult{
		TenderID:        req.TenderID,
		TotalRows:       len(req.Rows),
		ItemsCreated:    built.ItemCount,
		SkippedRows:     built.SkippedCount,
		SectionsCreated: len(sections),
		Sections:        AssembleImportResult(sections, built.ItemsPerSection),
		Warnings:        warnings,
		Skipped:         built.Skipped,
	}

	log.WithFields(logrus.Fields{
		"rows":          result.TotalRows,
		"items":         result.ItemsCreated,
		"skipped":       result.SkippedRows,
		"sections":      result.SectionsCreated,
		"bill_sections": bills,
		"warnings":      len(warnings),
	}).Info("boq hierarchy built")

	return &BOQHierarchy{
		Sections: sections,
		Items:    built.Items,
		Result:   result,
		Issues:   issues,
	}, nil
}
