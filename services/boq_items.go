package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// SkipPolicy decides which rows validation has ruled out.
type SkipPolicy struct {
	Issues          []ValidationIssue
	SkipWarningRows bool
	HeaderRowOffset int
}

func (p SkipPolicy) index() map[int]SkipReason {
	idx := make(map[int]SkipReason)
	for _, issue := range p.Issues {
		switch issue.Severity {
		case SeverityError:
			idx[issue.Row] = SkipValidationError
		case SeverityWarning:
			if !p.SkipWarningRows {
				continue
			}
			if _, ok := idx[issue.Row]; !ok {
				idx[issue.Row] = SkipValidationWarning
			}
		}
	}
	return idx
}

// groupBinding is the most recent group item at the moment a sub-item row
// was deferred.
type groupBinding struct {
	GroupID         string
	GroupItemNumber string
	SectionNumber   string
}

// pendingSubItem is a row deferred to the second pass.
type pendingSubItem struct {
	RowIndex         int
	Row              Row
	ParentItemNumber string
}

// itemAccumulator is the state folded through the first pass and finished
// by the second.
type itemAccumulator struct {
	items      []Item
	byID       map[string]int
	// byNumber indexes pass-1 items only; sub-items never become parents.
	byNumber   map[string]string
	usedNumber map[string]bool
	sortOrder  map[string]int
	perSection map[string]int
	lastGroup  *groupBinding

	pending  []pendingSubItem
	bindings map[int]groupBinding

	skipped  []SkippedRow
	warnings []ImportWarning
}

func newItemAccumulator() *itemAccumulator {
	return &itemAccumulator{
		byID:       make(map[string]int),
		byNumber:   make(map[string]string),
		usedNumber: make(map[string]bool),
		sortOrder:  make(map[string]int),
		perSection: make(map[string]int),
		bindings:   make(map[int]groupBinding),
	}
}

// claimItemNumber returns n, or n with a numeric suffix when n is taken.
func (acc *itemAccumulator) claimItemNumber(n string, rowNumber int) string {
	if !acc.usedNumber[n] {
		acc.usedNumber[n] = true
		return n
	}
	for i := 2; ; i++ {
		candidate := n + "-" + strconv.Itoa(i)
		if !acc.usedNumber[candidate] {
			acc.usedNumber[candidate] = true
			acc.warnings = append(acc.warnings, ImportWarning{
				Row:     rowNumber,
				Code:    WarnDuplicateItemNo,
				Message: fmt.Sprintf("Item number %q already used; stored as %q", n, candidate),
			})
			return candidate
		}
	}
}

func (acc *itemAccumulator) nextSortOrder(sectionID string) int {
	n := acc.sortOrder[sectionID]
	acc.sortOrder[sectionID] = n + 1
	return n
}

func (acc *itemAccumulator) add(item Item, lookupNumber string) {
	acc.byID[item.ID] = len(acc.items)
	acc.items = append(acc.items, item)
	acc.perSection[item.SectionID]++
	if lookupNumber != "" {
		if _, taken := acc.byNumber[lookupNumber]; !taken {
			acc.byNumber[lookupNumber] = item.ID
		}
	}
}

func (acc *itemAccumulator) item(id string) (Item, bool) {
	i, ok := acc.byID[id]
	if !ok {
		return Item{}, false
	}
	return acc.items[i], true
}

func (acc *itemAccumulator) skip(rowNumber int, reason SkipReason) {
	acc.skipped = append(acc.skipped, SkippedRow{Row: rowNumber, Reason: reason})
}

// ItemBuildResult is the output of ItemBuilder.Build.
type ItemBuildResult struct {
	Items           []Item
	ItemCount       int
	Skipped         []SkippedRow
	SkippedCount    int
	ItemsPerSection map[string]int
	Warnings        []ImportWarning
}

// ItemBuilder turns classified rows into items in two passes: groups and
// standalone items first, then the deferred sub-items.
type ItemBuilder struct {
	reconciler *RowClassificationReconciler
	logger     *logrus.Entry
}

// NewItemBuilder returns an ItemBuilder classifying rows with reconciler.
func NewItemBuilder(reconciler *RowClassificationReconciler, logger *logrus.Entry) *ItemBuilder {
	return &ItemBuilder{reconciler: reconciler, logger: orDiscard(logger)}
}

// Build creates the items of a tender. It fails only when the registry has
// no section to place items in.
func (b *ItemBuilder) Build(tenderID string, rows []Row, sections *SectionRegistry, mapping FieldMapping, policy SkipPolicy) (*ItemBuildResult, error) {
	if _, err := sections.Default(); err != nil {
		return nil, err
	}

	acc := newItemAccumulator()
	skips := policy.index()

	for i, row := range rows {
		if err := b.firstPass(acc, tenderID, i, row, sections, mapping, policy.HeaderRowOffset, skips); err != nil {
			return nil, err
		}
	}
	for _, p := range acc.pending {
		if err := b.secondPass(acc, tenderID, p, sections, mapping, policy.HeaderRowOffset); err != nil {
			return nil, err
		}
	}

	return &ItemBuildResult{
		Items:           acc.items,
		ItemCount:       len(acc.items),
		Skipped:         acc.skipped,
		SkippedCount:    len(acc.skipped),
		ItemsPerSection: acc.perSection,
		Warnings:        acc.warnings,
	}, nil
}

func (b *ItemBuilder) firstPass(acc *itemAccumulator, tenderID string, rowIndex int, row Row, sections *SectionRegistry, mapping FieldMapping, headerRowOffset int, skips map[int]SkipReason) error {
	rowNumber := RowNumber(rowIndex, headerRowOffset)
	if reason, ok := skips[rowNumber]; ok {
		acc.skip(rowNumber, reason)
		return nil
	}

	decision := b.reconciler.Classify(rowIndex, row)
	switch decision.Kind {
	case DecisionExclude:
		acc.skip(rowNumber, decision.Reason)
		return nil

	case DecisionDeferSubItem:
		acc.pending = append(acc.pending, pendingSubItem{
			RowIndex:         rowIndex,
			Row:              row,
			ParentItemNumber: decision.ParentItemNumber,
		})
		// Only a labelled row binds to the group above it.
		if acc.lastGroup != nil && mapping.Value(row, FieldSubItemLabel) != "" {
			acc.bindings[rowIndex] = *acc.lastGroup
		}
		return nil
	}

	itemNumber := mapping.Value(row, FieldItemNumber)
	section, err := sections.Resolve(mapping.Value(row, FieldBillNumber), itemNumber)
	if err != nil {
		return err
	}

	lookupNumber := itemNumber
	if itemNumber == "" {
		itemNumber = "ITEM-" + strconv.Itoa(rowNumber)
	}

	item := Item{
		ID:            itemID(tenderID, rowIndex),
		TenderID:      tenderID,
		ItemNumber:    acc.claimItemNumber(itemNumber, rowNumber),
		Description:   mapping.Value(row, FieldDescription),
		Quantity:      parseQuantity(mapping.Value(row, FieldQuantity)),
		UnitOfMeasure: mapping.Value(row, FieldUOM),
		Notes:         mapping.Value(row, FieldNotes),
		SortOrder:     acc.nextSortOrder(section.ID),
		IsGroup:       decision.Kind == DecisionGroup,
		SectionID:     section.ID,
		RowNumber:     rowNumber,
	}
	acc.add(item, lookupNumber)

	if item.IsGroup {
		acc.lastGroup = &groupBinding{
			GroupID:         item.ID,
			GroupItemNumber: item.ItemNumber,
			SectionNumber:   section.SectionNumber,
		}
	}
	return nil
}

func (b *ItemBuilder) secondPass(acc *itemAccumulator, tenderID string, p pendingSubItem, sections *SectionRegistry, mapping FieldMapping, headerRowOffset int) error {
	rowNumber := RowNumber(p.RowIndex, headerRowOffset)
	explicitNumber := mapping.Value(p.Row, FieldItemNumber)
	label := mapping.Value(p.Row, FieldSubItemLabel)

	var (
		parent        Item
		hasParent     bool
		parentSection *Section
	)
	if p.ParentItemNumber != "" {
		if id, ok := acc.byNumber[p.ParentItemNumber]; ok {
			parent, hasParent = acc.item(id)
		}
	}
	if !hasParent {
		if binding, ok := acc.bindings[p.RowIndex]; ok {
			parent, hasParent = acc.item(binding.GroupID)
			if s, ok := sections.Lookup(binding.SectionNumber); ok {
				parentSection = s
			}
		}
	}

	if !hasParent {
		b.logger.WithFields(logrus.Fields{
			"tender":      tenderID,
			"row":         rowNumber,
			"item_number": explicitNumber,
			"parent":      p.ParentItemNumber,
		}).Info("sub-item parent not found, placing as standalone")
		acc.warnings = append(acc.warnings, ImportWarning{
			Row:     rowNumber,
			Code:    WarnOrphanedSubItem,
			Message: "Sub-item has no resolvable parent; imported as a standalone item",
		})
	}

	var section *Section
	if s, ok := sections.BillSection(mapping.Value(p.Row, FieldBillNumber)); ok {
		section = s
	} else if hasParent {
		if parentSection == nil {
			parentSection, _ = sections.ByID(parent.SectionID)
		}
		section = parentSection
	}
	if section == nil {
		if s, ok := sections.BestSection(explicitNumber); ok {
			section = s
		}
	}
	if section == nil {
		s, err := sections.Default()
		if err != nil {
			return err
		}
		section = s
	}

	itemNumber := explicitNumber
	switch {
	case itemNumber != "":
	case label != "" && hasParent:
		itemNumber = parent.ItemNumber + "." + strings.TrimSpace(label)
	case label != "":
		itemNumber = strings.TrimSpace(label)
	default:
		itemNumber = "ITEM-" + strconv.Itoa(rowNumber)
	}

	item := Item{
		ID:            itemID(tenderID, p.RowIndex),
		TenderID:      tenderID,
		ItemNumber:    acc.claimItemNumber(itemNumber, rowNumber),
		Description:   mapping.Value(p.Row, FieldDescription),
		Quantity:      parseQuantity(mapping.Value(p.Row, FieldQuantity)),
		UnitOfMeasure: mapping.Value(p.Row, FieldUOM),
		Notes:         mapping.Value(p.Row, FieldNotes),
		SortOrder:     acc.nextSortOrder(section.ID),
		SectionID:     section.ID,
		RowNumber:     rowNumber,
	}
	if hasParent {
		item.ParentItemID = parent.ID
	}
	acc.add(item, "")
	return nil
}
