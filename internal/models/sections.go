package models

import "strings"

// SectionKey identifies one of the fixed report sections
type SectionKey string

const (
	SectionSummary         SectionKey = "summary"
	SectionArguments       SectionKey = "arguments"
	SectionInconsistencies SectionKey = "inconsistencies"
	SectionRecommendations SectionKey = "recommendations"
)

// SectionOrder is the order sections appear in a report
var SectionOrder = []SectionKey{
	SectionSummary,
	SectionArguments,
	SectionInconsistencies,
	SectionRecommendations,
}

var sectionTitles = map[SectionKey]string{
	SectionSummary:         "Summary",
	SectionArguments:       "Key Arguments",
	SectionInconsistencies: "Potential Inconsistencies",
	SectionRecommendations: "Recommendations",
}

// Title returns the heading printed for the section
func (k SectionKey) Title() string {
	if title, ok := sectionTitles[k]; ok {
		return title
	}
	return string(k)
}

// SectionContent holds either a paragraph or a bullet list
type SectionContent struct {
	Text    string   `json:"text,omitempty"`
	Bullets []string `json:"bullets,omitempty"`
}

// IsEmpty reports whether there is nothing printable in the section
func (c SectionContent) IsEmpty() bool {
	if strings.TrimSpace(c.Text) != "" {
		return false
	}
	for _, b := range c.Bullets {
		if strings.TrimSpace(b) != "" {
			return false
		}
	}
	return true
}

// ReportSections maps section keys to their content. Missing keys render a placeholder.
type ReportSections map[SectionKey]SectionContent

// HasContent reports whether at least one section has printable content
func (s ReportSections) HasContent() bool {
	for _, content := range s {
		if !content.IsEmpty() {
			return true
		}
	}
	return false
}
