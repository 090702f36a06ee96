package services

// DecisionKind is the outcome of row classification.
type DecisionKind int

const (
	DecisionExclude DecisionKind = iota
	DecisionDeferSubItem
	DecisionGroup
	DecisionStandalone
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionExclude:
		return "exclude"
	case DecisionDeferSubItem:
		return "sub_item"
	case DecisionGroup:
		return "group"
	default:
		return "standalone"
	}
}

// RowSignals gathers every input the classification rules look at.
type RowSignals struct {
	RowIndex     int
	ItemNumber   string
	Description  string
	Quantity     string
	UOM          string
	BillNumber   string
	SubItemLabel string

	BillMapped  bool
	LabelMapped bool

	// Detected is the hierarchy detector's verdict, nil when it has none.
	Detected *ItemHierarchyInfo
	// HeaderShaped is the detector's section-header verdict for this row.
	HeaderShaped bool
}

func (s RowSignals) detectedRole(role HierarchyRole) bool {
	return s.Detected != nil && s.Detected.Role == role
}

// RowDecision is the authoritative role of a row.
type RowDecision struct {
	Kind DecisionKind
	// Reason is set for DecisionExclude.
	Reason SkipReason
	// ParentItemNumber is the detector-supplied parent of a deferred sub-item.
	ParentItemNumber string
	// Rule names the rule that produced the decision.
	Rule string
}

type classificationRule struct {
	name  string
	apply func(s RowSignals) (RowDecision, bool)
}

// classificationRules are evaluated in order; the first match wins. The last
// rule always matches.
var classificationRules = []classificationRule{
	{name: "bill-only", apply: ruleBillOnly},
	{name: "empty", apply: ruleEmpty},
	{name: "bill-header", apply: ruleBillHeader},
	{name: "section-header", apply: ruleSectionHeader},
	{name: "sub-item", apply: ruleSubItem},
	{name: "group-or-standalone", apply: ruleGroupOrStandalone},
}

// A bill-only row was already consumed as a bill section.
func ruleBillOnly(s RowSignals) (RowDecision, bool) {
	if s.BillMapped && s.BillNumber != "" && s.ItemNumber == "" {
		return RowDecision{Kind: DecisionExclude, Reason: SkipBillOnly}, true
	}
	return RowDecision{}, false
}

func ruleEmpty(s RowSignals) (RowDecision, bool) {
	if s.ItemNumber == "" && s.Description == "" && s.SubItemLabel == "" {
		return RowDecision{Kind: DecisionExclude, Reason: SkipEmpty}, true
	}
	return RowDecision{}, false
}

func ruleBillHeader(s RowSignals) (RowDecision, bool) {
	if s.detectedRole(RoleBillHeader) {
		return RowDecision{Kind: DecisionExclude, Reason: SkipBillHeader}, true
	}
	return RowDecision{}, false
}

// A header-shaped row is a section title unless something says it owns
// items: the detector calls it a group, or sub-item labels are in use and
// the row is numbered.
func ruleSectionHeader(s RowSignals) (RowDecision, bool) {
	if !s.HeaderShaped {
		return RowDecision{}, false
	}
	if s.detectedRole(RoleGroup) {
		return RowDecision{}, false
	}
	if s.LabelMapped && s.ItemNumber != "" {
		return RowDecision{Kind: DecisionGroup}, true
	}
	return RowDecision{Kind: DecisionExclude, Reason: SkipSectionHeader}, true
}

func ruleSubItem(s RowSignals) (RowDecision, bool) {
	if s.detectedRole(RoleSubItem) {
		return RowDecision{Kind: DecisionDeferSubItem, ParentItemNumber: s.Detected.ParentItemNumber}, true
	}
	if s.SubItemLabel != "" && !s.detectedRole(RoleGroup) {
		return RowDecision{Kind: DecisionDeferSubItem}, true
	}
	return RowDecision{}, false
}

// An item-numbered row with nothing measurable is treated as a group.
func ruleGroupOrStandalone(s RowSignals) (RowDecision, bool) {
	if s.detectedRole(RoleGroup) {
		return RowDecision{Kind: DecisionGroup}, true
	}
	if s.ItemNumber != "" && !hasQuantity(s.Quantity) && s.UOM == "" {
		return RowDecision{Kind: DecisionGroup}, true
	}
	return RowDecision{Kind: DecisionStandalone}, true
}

// ClassifyRow runs the rule list over s.
func ClassifyRow(s RowSignals) RowDecision {
	for _, rule := range classificationRules {
		if d, ok := rule.apply(s); ok {
			d.Rule = rule.name
			return d
		}
	}
	return RowDecision{Kind: DecisionStandalone}
}

// RowClassificationReconciler combines detector output, sub-item labels and
// structural heuristics into one decision per row.
type RowClassificationReconciler struct {
	detector HierarchyDetector
	mapping  FieldMapping
	hints    map[int]ItemHierarchyInfo
}

// NewRowClassificationReconciler indexes the detector verdicts by row index.
func NewRowClassificationReconciler(detector HierarchyDetector, mapping FieldMapping, hierarchy []ItemHierarchyInfo) *RowClassificationReconciler {
	hints := make(map[int]ItemHierarchyInfo, len(hierarchy))
	for _, h := range hierarchy {
		hints[h.RowIndex] = h
	}
	return &RowClassificationReconciler{detector: detector, mapping: mapping, hints: hints}
}

// Signals extracts the classification inputs for one row.
func (c *RowClassificationReconciler) Signals(rowIndex int, row Row) RowSignals {
	s := RowSignals{
		RowIndex:     rowIndex,
		ItemNumber:   c.mapping.Value(row, FieldItemNumber),
		Description:  c.mapping.Value(row, FieldDescription),
		Quantity:     c.mapping.Value(row, FieldQuantity),
		UOM:          c.mapping.Value(row, FieldUOM),
		BillNumber:   c.mapping.Value(row, FieldBillNumber),
		SubItemLabel: c.mapping.Value(row, FieldSubItemLabel),
		BillMapped:   c.mapping.Has(FieldBillNumber),
		LabelMapped:  c.mapping.Has(FieldSubItemLabel),
	}
	if h, ok := c.hints[rowIndex]; ok {
		s.Detected = &h
	}
	s.HeaderShaped = c.detector.IsSectionHeaderRow(s.ItemNumber, s.Quantity, s.UOM)
	return s
}

// Classify returns the decision for one row.
func (c *RowClassificationReconciler) Classify(rowIndex int, row Row) RowDecision {
	return ClassifyRow(c.Signals(rowIndex, row))
}
