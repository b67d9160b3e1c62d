package pdf

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/casebot/internal/interfaces"
	"github.com/ternarybob/casebot/internal/models"
)

const (
	coreFont      = "Helvetica"
	unicodeFont   = "ReportUnicode"
	bulletPrefix  = "• "
	maxStemLength = 64
)

// Renderer implements interfaces.ReportRenderer with fpdf
type Renderer struct {
	logger   arbor.ILogger
	title    string
	fontPath string
	now      func() time.Time
}

// Compile-time assertion
var _ interfaces.ReportRenderer = (*Renderer)(nil)

// NewRenderer creates a report renderer. fontPath may name a TTF used for text
// outside Latin-1; empty selects the core Helvetica font.
func NewRenderer(logger arbor.ILogger, title, fontPath string) *Renderer {
	if title == "" {
		title = "Political Case Analysis Report"
	}
	return &Renderer{
		logger:   logger,
		title:    title,
		fontPath: fontPath,
		now:      time.Now,
	}
}

// Render builds the report PDF for one case
func (r *Renderer) Render(caseID, originalFilename string, sections models.ReportSections) ([]byte, error) {
	blocks := BuildLayout(r.title, caseID, originalFilename, sections, r.now())

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 15)
	doc.SetTitle(r.title, true)
	doc.SetSubject(caseID, true)
	doc.SetCreator("casebot", true)

	family := coreFont
	translate := doc.UnicodeTranslatorFromDescriptor("")
	if r.fontPath != "" {
		doc.AddUTF8Font(unicodeFont, "", r.fontPath)
		doc.AddUTF8Font(unicodeFont, "B", r.fontPath)
		if err := doc.Error(); err != nil {
			return nil, &RenderError{Err: fmt.Errorf("failed to load font %s: %w", r.fontPath, err)}
		}
		family = unicodeFont
		translate = func(s string) string { return s }
	}

	d := &drawer{pdf: doc, family: family, tr: translate}
	doc.AddPage()
	for _, block := range blocks {
		d.draw(block)
	}

	if err := doc.Error(); err != nil {
		r.logger.Error().Err(err).Str("case_id", caseID).Msg("Failed to lay out report")
		return nil, &RenderError{Err: err}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		r.logger.Error().Err(err).Str("case_id", caseID).Msg("Failed to generate report output")
		return nil, &RenderError{Err: err}
	}

	r.logger.Debug().
		Str("case_id", caseID).
		Int("blocks", len(blocks)).
		Int("pdf_size", buf.Len()).
		Msg("Report rendered")

	return buf.Bytes(), nil
}

type drawer struct {
	pdf    *fpdf.Fpdf
	family string
	tr     func(string) string
	inMeta bool
}

func (d *drawer) draw(b Block) {
	if b.Kind != BlockMeta && d.inMeta {
		d.pdf.Ln(6)
		d.inMeta = false
	}

	switch b.Kind {
	case BlockTitle:
		d.pdf.SetFont(d.family, "B", 16)
		d.pdf.CellFormat(0, 10, d.tr(b.Text), "", 1, "C", false, 0, "")
		d.pdf.Ln(4)
	case BlockMeta:
		d.inMeta = true
		d.pdf.SetFont(d.family, "B", 10)
		d.pdf.CellFormat(45, 7, d.tr(b.Label), "1", 0, "L", false, 0, "")
		d.pdf.SetFont(d.family, "", 10)
		d.pdf.CellFormat(0, 7, d.tr(b.Text), "1", 1, "L", false, 0, "")
	case BlockHeading:
		d.pdf.Ln(3)
		d.pdf.SetFont(d.family, "B", 12)
		d.pdf.CellFormat(0, 8, d.tr(b.Text), "", 1, "L", false, 0, "")
	case BlockParagraph:
		d.pdf.SetFont(d.family, "", 10)
		d.pdf.MultiCell(0, 5, d.tr(b.Text), "", "J", false)
		d.pdf.Ln(2)
	case BlockBullet:
		d.pdf.SetFont(d.family, "", 10)
		d.pdf.SetX(d.pdf.GetX() + 4)
		d.pdf.MultiCell(0, 5, d.tr(bulletPrefix+b.Text), "", "L", false)
		d.pdf.Ln(1)
	case BlockFooter:
		d.pdf.Ln(6)
		d.pdf.SetFont(d.family, "", 9)
		d.pdf.CellFormat(0, 6, d.tr(b.Text), "", 1, "L", false, 0, "")
	}
}

// ReportFilename derives the delivered file name from the case id and the
// user's original filename.
func ReportFilename(caseID, originalFilename string) string {
	base := filepath.Base(strings.ReplaceAll(originalFilename, "\\", "/"))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	count := 0
	for _, r := range stem {
		if count == maxStemLength {
			break
		}
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
		count++
	}

	clean := b.String()
	if clean == "" || clean == "." || clean == ".." {
		clean = "document"
	}
	return fmt.Sprintf("Analysis_Report_%s_%s.pdf", caseID, clean)
}
