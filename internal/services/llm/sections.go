package llm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/casebot/internal/models"
	"github.com/tidwall/gjson"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

var (
	fencePattern = regexp.MustCompile("(?s)^```[A-Za-z]*\\s*\n(.*?)\\s*```$")
	spacePattern = regexp.MustCompile(`\s+`)
)

// jsonKeys lists the accepted JSON keys per section, preferred first
var jsonKeys = map[models.SectionKey][]string{
	models.SectionSummary:         {"summary"},
	models.SectionArguments:       {"arguments", "key_arguments"},
	models.SectionInconsistencies: {"inconsistencies", "potential_inconsistencies"},
	models.SectionRecommendations: {"recommendations"},
}

// headingKeywords maps heading text fragments to sections, checked in order
var headingKeywords = []struct {
	fragment string
	key      models.SectionKey
}{
	{"summary", models.SectionSummary},
	{"inconsisten", models.SectionInconsistencies},
	{"argument", models.SectionArguments},
	{"recommend", models.SectionRecommendations},
}

// ParseSections splits an analysis response into the four report sections.
// A JSON object is preferred, then a YAML mapping, then markdown headings,
// and otherwise the whole text becomes the summary. Nothing is invented for
// sections the response does not cover.
func ParseSections(raw string) models.ReportSections {
	trimmed := stripFence(strings.TrimSpace(raw))
	if trimmed == "" {
		return models.ReportSections{}
	}
	if sections, ok := parseJSONSections(trimmed); ok {
		return sections
	}
	if sections, ok := parseYAMLSections(trimmed); ok {
		return sections
	}
	if sections, ok := parseMarkdownSections(trimmed); ok {
		return sections
	}
	return models.ReportSections{
		models.SectionSummary: {Text: trimmed},
	}
}

func stripFence(s string) string {
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

func parseJSONSections(s string) (models.ReportSections, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	body := s[start : end+1]
	if !gjson.Valid(body) {
		return nil, false
	}
	root := gjson.Parse(body)
	if !root.IsObject() {
		return nil, false
	}

	sections := models.ReportSections{}
	found := false
	for _, key := range models.SectionOrder {
		for _, name := range jsonKeys[key] {
			value := root.Get(name)
			if !value.Exists() {
				continue
			}
			found = true
			if content, ok := contentFromJSON(value); ok {
				sections[key] = content
			}
			break
		}
	}
	return sections, found
}

func contentFromJSON(value gjson.Result) (models.SectionContent, bool) {
	switch {
	case value.IsArray():
		var bullets []string
		for _, item := range value.Array() {
			if item.Type != gjson.String && item.Type != gjson.Number {
				continue
			}
			if b := strings.TrimSpace(item.String()); b != "" {
				bullets = append(bullets, b)
			}
		}
		return models.SectionContent{Bullets: bullets}, len(bullets) > 0
	case value.Type == gjson.String:
		t := strings.TrimSpace(value.String())
		return models.SectionContent{Text: t}, t != ""
	default:
		return models.SectionContent{}, false
	}
}

// parseYAMLSections accepts a top-level mapping using the JSON key names.
// Keys are matched case-insensitively with spaces treated as underscores.
func parseYAMLSections(s string) (models.ReportSections, bool) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal([]byte(s), &raw); err != nil || len(raw) == 0 {
		return nil, false
	}

	normalized := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		normalized[strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), " ", "_")] = v
	}

	sections := models.ReportSections{}
	found := false
	for _, key := range models.SectionOrder {
		for _, name := range jsonKeys[key] {
			value, ok := normalized[name]
			if !ok {
				continue
			}
			found = true
			if content, ok := contentFromYAML(value); ok {
				sections[key] = content
			}
			break
		}
	}
	return sections, found
}

func contentFromYAML(value interface{}) (models.SectionContent, bool) {
	switch v := value.(type) {
	case string:
		t := collapse(v)
		return models.SectionContent{Text: t}, t != ""
	case []interface{}:
		var bullets []string
		for _, item := range v {
			switch item.(type) {
			case string, int, float64:
				bullets = appendNonEmpty(bullets, fmt.Sprint(item))
			}
		}
		return models.SectionContent{Bullets: bullets}, len(bullets) > 0
	default:
		return models.SectionContent{}, false
	}
}

func matchHeading(heading string) (models.SectionKey, bool) {
	h := strings.ToLower(heading)
	for _, kw := range headingKeywords {
		if strings.Contains(h, kw.fragment) {
			return kw.key, true
		}
	}
	return "", false
}

// sectionBuilder accumulates paragraphs and bullets for one section
type sectionBuilder struct {
	paragraphs []string
	bullets    []string
}

func parseMarkdownSections(s string) (models.ReportSections, bool) {
	source := []byte(s)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	builders := map[models.SectionKey]*sectionBuilder{}
	var current *sectionBuilder
	matched := false

	enter := func(key models.SectionKey) {
		if builders[key] == nil {
			builders[key] = &sectionBuilder{}
		}
		current = builders[key]
		matched = true
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if key, ok := matchHeading(nodeText(node, source)); ok {
				enter(key)
			} else {
				current = nil
			}
		case *ast.Paragraph:
			if key, rest, ok := boldLabel(node, source); ok {
				enter(key)
				if rest != "" {
					current.paragraphs = append(current.paragraphs, rest)
				}
				continue
			}
			if current != nil {
				if t := nodeText(node, source); t != "" {
					current.paragraphs = append(current.paragraphs, t)
				}
			}
		case *ast.List:
			if current != nil {
				current.bullets = append(current.bullets, listBullets(node, source)...)
			}
		}
	}

	if !matched {
		return nil, false
	}

	sections := models.ReportSections{}
	for key, b := range builders {
		content := models.SectionContent{
			Text:    strings.Join(b.paragraphs, "\n"),
			Bullets: b.bullets,
		}
		if !content.IsEmpty() {
			sections[key] = content
		}
	}
	return sections, true
}

// boldLabel recognises paragraphs that open with a bold section label such as
// "**Summary:** text", returning the section and any trailing text
func boldLabel(p *ast.Paragraph, source []byte) (models.SectionKey, string, bool) {
	emph, ok := p.FirstChild().(*ast.Emphasis)
	if !ok || emph.Level != 2 {
		return "", "", false
	}
	label := nodeText(emph, source)
	if len(label) > 40 {
		return "", "", false
	}
	key, ok := matchHeading(label)
	if !ok {
		return "", "", false
	}

	var rest strings.Builder
	for n := emph.NextSibling(); n != nil; n = n.NextSibling() {
		rest.WriteString(nodeText(n, source))
		rest.WriteByte(' ')
	}
	trailing := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(rest.String()), ":-"))
	return key, collapse(trailing), true
}

func listBullets(list *ast.List, source []byte) []string {
	var bullets []string
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		var parts []string
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if nested, ok := c.(*ast.List); ok {
				bullets = appendNonEmpty(bullets, strings.Join(parts, " "))
				parts = nil
				bullets = append(bullets, listBullets(nested, source)...)
				continue
			}
			parts = append(parts, nodeText(c, source))
		}
		bullets = appendNonEmpty(bullets, strings.Join(parts, " "))
	}
	return bullets
}

func appendNonEmpty(list []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		return append(list, s)
	}
	return list
}

func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return collapse(b.String())
}

func collapse(s string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}
