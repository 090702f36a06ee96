package services

import "sort"

// SectionResult is one node of the nested import summary.
type SectionResult struct {
	SectionNumber string          `json:"section_number"`
	Title         string          `json:"title"`
	ItemCount     int             `json:"item_count"`
	Children      []SectionResult `json:"children,omitempty"`
}

// ImportResult is the auditable outcome of one import run.
type ImportResult struct {
	TenderID        string          `json:"tender_id"`
	TotalRows       int             `json:"total_rows"`
	ItemsCreated    int             `json:"items_created"`
	SkippedRows     int             `json:"skipped_rows"`
	SectionsCreated int             `json:"sections_created"`
	Sections        []SectionResult `json:"sections"`
	Warnings        []ImportWarning `json:"warnings,omitempty"`
	Skipped         []SkippedRow    `json:"skipped,omitempty"`
}

// AssembleImportResult nests sections under their parents with the number of
// items placed directly in each. Roots and every child list are ordered by
// section number. Sections without items are kept.
func AssembleImportResult(sections []Section, itemsPerSection map[string]int) []SectionResult {
	children := make(map[string][]Section)
	known := make(map[string]bool, len(sections))
	for _, s := range sections {
		known[s.ID] = true
	}

	var roots []Section
	for _, s := range sections {
		if s.ParentSectionID == "" || !known[s.ParentSectionID] {
			roots = append(roots, s)
			continue
		}
		children[s.ParentSectionID] = append(children[s.ParentSectionID], s)
	}

	visited := make(map[string]bool, len(sections))
	var nest func(list []Section) []SectionResult
	nest = func(list []Section) []SectionResult {
		sortBySectionNumber(list)
		out := make([]SectionResult, 0, len(list))
		for _, s := range list {
			if visited[s.ID] {
				continue
			}
			visited[s.ID] = true
			node := SectionResult{
				SectionNumber: s.SectionNumber,
				Title:         s.Title,
				ItemCount:     itemsPerSection[s.ID],
			}
			if kids := children[s.ID]; len(kids) > 0 {
				node.Children = nest(kids)
			}
			out = append(out, node)
		}
		return out
	}
	return nest(roots)
}

func sortBySectionNumber(list []Section) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].SectionNumber < list[j].SectionNumber
	})
}

// Walk calls fn for every node in depth-first order.
func Walk(results []SectionResult, fn func(depth int, r SectionResult)) {
	var walk func(depth int, list []SectionResult)
	walk = func(depth int, list []SectionResult) {
		for _, r := range list {
			fn(depth, r)
			walk(depth+1, r.Children)
		}
	}
	walk(0, results)
}
