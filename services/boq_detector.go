package services

import (
	"regexp"
	"sort"
	"strings"
)

// HierarchyRole is the structural role assigned to a row by numbering analysis.
type HierarchyRole int

const (
	RoleStandalone HierarchyRole = iota
	RoleGroup
	RoleSubItem
	RoleBillHeader
)

func (r HierarchyRole) String() string {
	switch r {
	case RoleGroup:
		return "group"
	case RoleSubItem:
		return "sub_item"
	case RoleBillHeader:
		return "bill_header"
	default:
		return "standalone"
	}
}

// RowContext is the slice of a row that numbering analysis looks at.
type RowContext struct {
	ItemNumber  string
	Description string
	Quantity    string
	UOM         string
}

// ItemHierarchyInfo is the detector's verdict for one row.
// ParentItemNumber is only set for RoleSubItem.
type ItemHierarchyInfo struct {
	RowIndex         int
	Role             HierarchyRole
	ParentItemNumber string
}

// HierarchyDetector classifies rows from item-numbering conventions.
// Implementations must be deterministic for a fixed input.
type HierarchyDetector interface {
	DetectItemHierarchy(rows []RowContext) []ItemHierarchyInfo
	IsSectionHeaderRow(itemNumber, quantity, uom string) bool
	// FindBestSection returns the known section number that best owns
	// itemNumber, or "" when none does.
	FindBestSection(itemNumber string, knownSectionNumbers []string) string
	// ParentSectionNumber returns the enclosing number, or "" at top level.
	ParentSectionNumber(sectionNumber string) string
}

// SectionDetector is implemented by detectors that can also propose section
// candidates straight from the rows.
type SectionDetector interface {
	DetectSections(rows []RowContext) []DetectedSection
}

var (
	billHeaderPattern = regexp.MustCompile(`(?i)^bill(\s*(no\.?|number|#))?\s*[a-z0-9][a-z0-9./-]*$`)
	alphaSuffix       = regexp.MustCompile(`^(.*[0-9])\s*\(?([a-z])\)?$`)
	zeroSuffix        = regexp.MustCompile(`^(.+?)(\.0+)+$`)
)

// NumberingDetector is the default HierarchyDetector. It understands dotted
// numbers ("1.2.3"), dash/slash separators and lowercase letter suffixes
// ("2.1a", "2.1(a)").
type NumberingDetector struct{}

// NewNumberingDetector returns the default detector.
func NewNumberingDetector() *NumberingDetector {
	return &NumberingDetector{}
}

func normalizeNumber(n string) string {
	n = strings.TrimSpace(n)
	n = strings.TrimRight(n, ".")
	if m := zeroSuffix.FindStringSubmatch(n); m != nil {
		n = m[1]
	}
	return n
}

// ParentSectionNumber implements HierarchyDetector.
func (d *NumberingDetector) ParentSectionNumber(sectionNumber string) string {
	n := normalizeNumber(sectionNumber)
	if n == "" {
		return ""
	}
	if m := alphaSuffix.FindStringSubmatch(n); m != nil {
		return normalizeNumber(m[1])
	}
	if i := strings.LastIndexAny(n, "./-"); i > 0 {
		return normalizeNumber(n[:i])
	}
	return ""
}

func (d *NumberingDetector) isTopLevel(itemNumber string) bool {
	n := normalizeNumber(itemNumber)
	return n != "" && d.ParentSectionNumber(n) == ""
}

func (d *NumberingDetector) level(sectionNumber string) int {
	level := 0
	for n := normalizeNumber(sectionNumber); n != ""; n = d.ParentSectionNumber(n) {
		level++
		if level > 64 {
			break
		}
	}
	return level
}

// IsSectionHeaderRow implements HierarchyDetector. A header carries a
// top-level number and nothing measurable.
func (d *NumberingDetector) IsSectionHeaderRow(itemNumber, quantity, uom string) bool {
	if strings.TrimSpace(itemNumber) == "" {
		return false
	}
	if hasQuantity(quantity) || strings.TrimSpace(uom) != "" {
		return false
	}
	return d.isTopLevel(itemNumber)
}

// FindBestSection implements HierarchyDetector by walking itemNumber up its
// ancestors until a known section number is hit.
func (d *NumberingDetector) FindBestSection(itemNumber string, knownSectionNumbers []string) string {
	known := make(map[string]string, len(knownSectionNumbers))
	for _, k := range knownSectionNumbers {
		known[normalizeNumber(k)] = k
	}
	hops := 0
	for n := normalizeNumber(itemNumber); n != "" && hops <= len(knownSectionNumbers)+64; n = d.ParentSectionNumber(n) {
		if k, ok := known[n]; ok {
			return k
		}
		hops++
	}
	return ""
}

// DetectItemHierarchy implements HierarchyDetector.
//
// A row is a group when another row numbers itself under it, it has no
// quantity and it is not header shaped. A row whose nearest numbering
// parent is such a group is a sub-item of it.
func (d *NumberingDetector) DetectItemHierarchy(rows []RowContext) []ItemHierarchyInfo {
	infos := make([]ItemHierarchyInfo, len(rows))
	parentOf := make([]int, len(rows))
	hasChild := make([]bool, len(rows))
	lastSeen := make(map[string]int)

	for i, rc := range rows {
		infos[i] = ItemHierarchyInfo{RowIndex: i, Role: RoleStandalone}
		parentOf[i] = -1

		n := normalizeNumber(rc.ItemNumber)
		if n == "" {
			continue
		}
		for p := d.ParentSectionNumber(n); p != ""; p = d.ParentSectionNumber(p) {
			if j, ok := lastSeen[p]; ok {
				parentOf[i] = j
				hasChild[j] = true
				break
			}
		}
		lastSeen[n] = i
	}

	for i, rc := range rows {
		switch {
		case billHeaderPattern.MatchString(strings.TrimSpace(rc.ItemNumber)):
			infos[i].Role = RoleBillHeader
		case hasChild[i] && !hasQuantity(rc.Quantity) && !d.IsSectionHeaderRow(rc.ItemNumber, rc.Quantity, rc.UOM):
			infos[i].Role = RoleGroup
		}
	}

	for i := range rows {
		if infos[i].Role != RoleStandalone || parentOf[i] < 0 {
			continue
		}
		if parent := infos[parentOf[i]]; parent.Role == RoleGroup {
			infos[i].Role = RoleSubItem
			infos[i].ParentItemNumber = strings.TrimSpace(rows[parentOf[i]].ItemNumber)
		}
	}
	return infos
}

// DetectSections implements SectionDetector: header-shaped rows become
// section candidates, linked to the nearest enclosing header number.
func (d *NumberingDetector) DetectSections(rows []RowContext) []DetectedSection {
	seen := make(map[string]bool)
	var out []DetectedSection
	for _, rc := range rows {
		if !d.IsSectionHeaderRow(rc.ItemNumber, rc.Quantity, rc.UOM) {
			continue
		}
		if billHeaderPattern.MatchString(strings.TrimSpace(rc.ItemNumber)) {
			continue
		}
		n := strings.TrimSpace(rc.ItemNumber)
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, DetectedSection{
			SectionNumber:       n,
			Title:               strings.TrimSpace(rc.Description),
			ParentSectionNumber: d.ParentSectionNumber(n),
			Level:               d.level(n),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out
}
