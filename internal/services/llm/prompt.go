package llm

import (
	"fmt"
	"os"
	"strings"
)

// DocumentPlaceholder marks where the document text is inserted in a prompt template
const DocumentPlaceholder = "{{document}}"

// DefaultPromptTemplate is the fixed analysis instruction
const DefaultPromptTemplate = `Analyze the following political case document.
Focus on factual analysis and do not express personal opinions.

Respond with a single JSON object containing exactly these keys:
- "summary": a brief summary of the document as a string
- "arguments": the key arguments made, as an array of strings
- "inconsistencies": potential inconsistencies or contradictions, as an array of strings
- "recommendations": recommended next steps, as an array of strings

If you cannot produce JSON, use markdown headings named Summary, Arguments,
Inconsistencies and Recommendations instead.

Document Text:
{{document}}`

// SystemInstruction frames the model's role for every request
const SystemInstruction = "You are a careful analyst of legal and political case documents. You report only what the document supports."

// PromptTemplate renders the analysis request for a document
type PromptTemplate struct {
	template string
}

// NewPromptTemplate validates that template contains the document placeholder
func NewPromptTemplate(template string) (*PromptTemplate, error) {
	if !strings.Contains(template, DocumentPlaceholder) {
		return nil, fmt.Errorf("prompt template must contain %s", DocumentPlaceholder)
	}
	return &PromptTemplate{template: template}, nil
}

// LoadPromptTemplate reads a template from path; empty path selects the default
func LoadPromptTemplate(path string) (*PromptTemplate, error) {
	if path == "" {
		return NewPromptTemplate(DefaultPromptTemplate)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", path, err)
	}
	return NewPromptTemplate(string(data))
}

// Render embeds text verbatim into the template
func (p *PromptTemplate) Render(text string) string {
	return strings.ReplaceAll(p.template, DocumentPlaceholder, text)
}
