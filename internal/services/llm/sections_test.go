package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/casebot/internal/models"
)

func TestParseSections_JSON(t *testing.T) {
	raw := `{
		"summary": "The hearing concerned a noise complaint.",
		"arguments": ["Prosecution cites ordinance", "Defense claims private call"],
		"inconsistencies": ["Witness could not discern words"],
		"recommendations": []
	}`

	sections := ParseSections(raw)

	assert.Equal(t, "The hearing concerned a noise complaint.", sections[models.SectionSummary].Text)
	assert.Equal(t, []string{"Prosecution cites ordinance", "Defense claims private call"}, sections[models.SectionArguments].Bullets)
	assert.Equal(t, []string{"Witness could not discern words"}, sections[models.SectionInconsistencies].Bullets)
	_, hasRecommendations := sections[models.SectionRecommendations]
	assert.False(t, hasRecommendations, "empty arrays are left to the placeholder")
}

func TestParseSections_FencedJSONWithAliases(t *testing.T) {
	raw := "```json\n{\"summary\": \"Short.\", \"key_arguments\": \"One argument.\", \"potential_inconsistencies\": [\"A\", 3]}\n```"

	sections := ParseSections(raw)

	assert.Equal(t, "Short.", sections[models.SectionSummary].Text)
	assert.Equal(t, "One argument.", sections[models.SectionArguments].Text)
	assert.Equal(t, []string{"A", "3"}, sections[models.SectionInconsistencies].Bullets)
}

func TestParseSections_YAMLMapping(t *testing.T) {
	raw := "```yaml\nSummary: The appeal challenges the sentence.\nKey Arguments:\n  - Procedural error at trial\n  - New evidence\nrecommendations: File within 30 days.\n```"

	sections := ParseSections(raw)

	assert.Equal(t, "The appeal challenges the sentence.", sections[models.SectionSummary].Text)
	assert.Equal(t, []string{"Procedural error at trial", "New evidence"}, sections[models.SectionArguments].Bullets)
	assert.Equal(t, "File within 30 days.", sections[models.SectionRecommendations].Text)
	assert.Len(t, sections, 3)
}

func TestParseSections_MarkdownHeadings(t *testing.T) {
	raw := `## Summary
The document describes a dispute.
It spans two pages.

## Key Arguments
- Argument one
- Argument **two**
  - nested detail

## Potential Inconsistencies
1. Dates differ

## Conclusion
Not a report section.

## Recommendations
Review the timeline.`

	sections := ParseSections(raw)

	assert.Equal(t, "The document describes a dispute. It spans two pages.", sections[models.SectionSummary].Text)
	assert.Equal(t, []string{"Argument one", "Argument two", "nested detail"}, sections[models.SectionArguments].Bullets)
	assert.Equal(t, []string{"Dates differ"}, sections[models.SectionInconsistencies].Bullets)
	assert.Equal(t, "Review the timeline.", sections[models.SectionRecommendations].Text)
}

func TestParseSections_BoldLabels(t *testing.T) {
	raw := "**Summary:** A brief overview.\n\n**Recommendations:**\n\n- Seek counsel"

	sections := ParseSections(raw)

	assert.Equal(t, "A brief overview.", sections[models.SectionSummary].Text)
	assert.Equal(t, []string{"Seek counsel"}, sections[models.SectionRecommendations].Bullets)
	assert.Len(t, sections, 2)
}

func TestParseSections_FallbackToSummary(t *testing.T) {
	raw := "  The model answered in plain prose without any structure.  "

	sections := ParseSections(raw)

	assert.Len(t, sections, 1)
	assert.Equal(t, "The model answered in plain prose without any structure.", sections[models.SectionSummary].Text)
}

func TestParseSections_JSONWithoutKnownKeysFallsBack(t *testing.T) {
	raw := `{"verdict": "unclear"}`

	sections := ParseSections(raw)

	assert.Equal(t, raw, sections[models.SectionSummary].Text)
	assert.Len(t, sections, 1)
}

func TestParseSections_Empty(t *testing.T) {
	assert.Empty(t, ParseSections(""))
	assert.Empty(t, ParseSections("   \n"))
}
