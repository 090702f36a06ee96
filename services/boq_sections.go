package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// BillSectionPrefix prefixes section numbers synthesized from a Bill-Number column.
const BillSectionPrefix = "BILL-"

// SectionRegistry holds the sections known to one tender import run and
// answers "which section owns this row" lookups.
type SectionRegistry struct {
	detector HierarchyDetector
	sections []*Section
	byNumber map[string]*Section
	byID     map[string]*Section
}

func newSectionRegistry(detector HierarchyDetector) *SectionRegistry {
	return &SectionRegistry{
		detector: detector,
		byNumber: make(map[string]*Section),
		byID:     make(map[string]*Section),
	}
}

func (r *SectionRegistry) add(s *Section) {
	r.sections = append(r.sections, s)
	r.byNumber[s.SectionNumber] = s
	r.byID[s.ID] = s
}

// Len returns the number of registered sections.
func (r *SectionRegistry) Len() int { return len(r.sections) }

// Lookup finds a section by its number.
func (r *SectionRegistry) Lookup(sectionNumber string) (*Section, bool) {
	s, ok := r.byNumber[sectionNumber]
	return s, ok
}

// ByID finds a section by id.
func (r *SectionRegistry) ByID(id string) (*Section, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// Keys returns the registered section numbers in creation order.
func (r *SectionRegistry) Keys() []string {
	keys := make([]string, len(r.sections))
	for i, s := range r.sections {
		keys[i] = s.SectionNumber
	}
	return keys
}

// Sections returns a copy of the registered sections in creation order.
func (r *SectionRegistry) Sections() []Section {
	out := make([]Section, len(r.sections))
	for i, s := range r.sections {
		out[i] = *s
	}
	return out
}

// Default returns the first registered section.
func (r *SectionRegistry) Default() (*Section, error) {
	if len(r.sections) == 0 {
		return nil, ErrNoSections
	}
	return r.sections[0], nil
}

// BestSection resolves itemNumber to its owning section by numbering:
// the detector's best match first, then the item's own ancestor numbers.
func (r *SectionRegistry) BestSection(itemNumber string) (*Section, bool) {
	if strings.TrimSpace(itemNumber) == "" || len(r.sections) == 0 {
		return nil, false
	}
	if n := r.detector.FindBestSection(itemNumber, r.Keys()); n != "" {
		if s, ok := r.byNumber[n]; ok {
			return s, true
		}
	}
	hops := 0
	for n := strings.TrimSpace(itemNumber); n != "" && hops <= len(r.sections)+64; n = r.detector.ParentSectionNumber(n) {
		if s, ok := r.byNumber[n]; ok {
			return s, true
		}
		hops++
	}
	return nil, false
}

// BillSection returns the section synthesized for billNumber, if any.
func (r *SectionRegistry) BillSection(billNumber string) (*Section, bool) {
	billNumber = strings.TrimSpace(billNumber)
	if billNumber == "" {
		return nil, false
	}
	return r.Lookup(BillSectionPrefix + billNumber)
}

// Resolve applies the placement fallback chain: bill section, numbering
// match, then the default section.
func (r *SectionRegistry) Resolve(billNumber, itemNumber string) (*Section, error) {
	if s, ok := r.BillSection(billNumber); ok {
		return s, nil
	}
	if s, ok := r.BestSection(itemNumber); ok {
		return s, nil
	}
	return r.Default()
}

// SectionBuilder creates the section tree of a tender import.
type SectionBuilder struct {
	detector HierarchyDetector
	logger   *logrus.Entry
}

// NewSectionBuilder returns a SectionBuilder using detector for lookups.
func NewSectionBuilder(detector HierarchyDetector, logger *logrus.Entry) *SectionBuilder {
	return &SectionBuilder{detector: detector, logger: orDiscard(logger)}
}

// Build creates one section per distinct candidate number and then links
// declared parents. With no candidates a single section "1" titled
// defaultTitle is created.
func (b *SectionBuilder) Build(tenderID string, detected []DetectedSection, defaultTitle string) (*SectionRegistry, []ImportWarning) {
	reg := newSectionRegistry(b.detector)
	var warnings []ImportWarning

	if len(detected) == 0 {
		reg.add(&Section{
			ID:            sectionID(tenderID, "1"),
			TenderID:      tenderID,
			SectionNumber: "1",
			Title:         defaultTitle,
			SortOrder:     0,
		})
		return reg, nil
	}

	candidates := make([]DetectedSection, 0, len(detected))
	for _, c := range detected {
		c.SectionNumber = strings.TrimSpace(c.SectionNumber)
		c.ParentSectionNumber = strings.TrimSpace(c.ParentSectionNumber)
		if c.SectionNumber == "" {
			continue
		}
		candidates = append(candidates, c)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Level != candidates[j].Level {
			return candidates[i].Level < candidates[j].Level
		}
		return candidates[i].SectionNumber < candidates[j].SectionNumber
	})

	// Pass 1: one section per distinct number.
	for _, c := range candidates {
		if _, exists := reg.Lookup(c.SectionNumber); exists {
			warnings = append(warnings, ImportWarning{
				Code:    WarnDuplicateSectionNo,
				Message: fmt.Sprintf("Section %q declared more than once; keeping the first", c.SectionNumber),
			})
			continue
		}
		reg.add(&Section{
			ID:            sectionID(tenderID, c.SectionNumber),
			TenderID:      tenderID,
			SectionNumber: c.SectionNumber,
			Title:         strings.TrimSpace(c.Title),
			SortOrder:     reg.Len(),
		})
	}

	// Pass 2: parent links. Unresolved parents leave the section a root.
	for _, c := range candidates {
		if c.ParentSectionNumber == "" {
			continue
		}
		child, ok := reg.Lookup(c.SectionNumber)
		if !ok || child.ParentSectionID != "" {
			continue
		}
		parent, ok := reg.Lookup(c.ParentSectionNumber)
		if !ok {
			b.logger.WithFields(logrus.Fields{
				"tender":  tenderID,
				"section": c.SectionNumber,
				"parent":  c.ParentSectionNumber,
			}).Debug("parent section not declared, keeping as root")
			continue
		}
		if reg.wouldCycle(child, parent) {
			warnings = append(warnings, ImportWarning{
				Code:    WarnSectionCycle,
				Message: fmt.Sprintf("Section %q cannot be placed under %q without a cycle", c.SectionNumber, c.ParentSectionNumber),
			})
			continue
		}
		child.ParentSectionID = parent.ID
	}

	return reg, warnings
}

// wouldCycle reports whether making parent the parent of child closes a loop.
func (r *SectionRegistry) wouldCycle(child, parent *Section) bool {
	for cur, hops := parent, 0; cur != nil && hops <= len(r.sections); hops++ {
		if cur.ID == child.ID {
			return true
		}
		if cur.ParentSectionID == "" {
			return false
		}
		cur = r.byID[cur.ParentSectionID]
	}
	return true
}

// SynthesizeBillSections adds a "BILL-<n>" section for every row that carries
// a Bill-Number but no item number. New sections sort after the existing
// ones in first-seen row order. It is a no-op when no Bill-Number column is
// mapped and returns the number of sections created.
func (b *SectionBuilder) SynthesizeBillSections(reg *SectionRegistry, tenderID string, rows []Row, mapping FieldMapping) int {
	if !mapping.Has(FieldBillNumber) {
		return 0
	}

	created := 0
	sortOrder := reg.Len()
	for _, row := range rows {
		billNumber := mapping.Value(row, FieldBillNumber)
		if billNumber == "" || mapping.Value(row, FieldItemNumber) != "" {
			continue
		}
		key := BillSectionPrefix + billNumber
		if _, exists := reg.Lookup(key); exists {
			continue
		}

		title := mapping.Value(row, FieldDescription)
		if title == "" {
			title = "Bill No. " + billNumber
		}
		reg.add(&Section{
			ID:            sectionID(tenderID, key),
			TenderID:      tenderID,
			SectionNumber: key,
			Title:         title,
			SortOrder:     sortOrder,
		})
		sortOrder++
		created++
	}
	return created
}
