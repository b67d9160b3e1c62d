package pdf

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/casebot/internal/models"
)

// PlaceholderText is printed under a heading whose section has no content
const PlaceholderText = "No information provided."

const timestampLayout = "2006-01-02 15:04:05"

// BlockKind is the visual role of one layout block
type BlockKind int

const (
	BlockTitle BlockKind = iota
	BlockMeta
	BlockHeading
	BlockParagraph
	BlockBullet
	BlockFooter
)

// Block is one drawable unit of the report. Label is only used by BlockMeta rows.
type Block struct {
	Kind  BlockKind
	Label string
	Text  string
}

// BuildLayout computes the full block list of a report. It does not modify
// sections and depends only on its arguments.
func BuildLayout(title, caseID, originalFilename string, sections models.ReportSections, now time.Time) []Block {
	stamp := now.Format(timestampLayout)

	blocks := []Block{
		{Kind: BlockTitle, Text: title},
		{Kind: BlockMeta, Label: "Report ID:", Text: caseID},
		{Kind: BlockMeta, Label: "Original Document:", Text: originalFilename},
		{Kind: BlockMeta, Label: "Analysis Date:", Text: stamp},
		{Kind: BlockHeading, Text: "Introduction"},
		{Kind: BlockParagraph, Text: fmt.Sprintf(
			"This report presents an automated analysis of the case document '%s'. "+
				"A language model reviewed the extracted text to summarise it, identify the key arguments, "+
				"flag potential inconsistencies and suggest next steps.", originalFilename)},
	}

	for _, key := range models.SectionOrder {
		blocks = append(blocks, Block{Kind: BlockHeading, Text: key.Title()})
		blocks = append(blocks, sectionBlocks(sections[key])...)
	}

	blocks = append(blocks,
		Block{Kind: BlockHeading, Text: "Conclusion"},
		Block{Kind: BlockParagraph, Text: "This analysis is generated automatically from the document text alone. " +
			"Its findings should be verified by a qualified person against other sources before being relied upon."},
		Block{Kind: BlockFooter, Text: "End of Report - " + stamp},
	)

	return blocks
}

func sectionBlocks(content models.SectionContent) []Block {
	if content.IsEmpty() {
		return []Block{{Kind: BlockParagraph, Text: PlaceholderText}}
	}

	var blocks []Block
	if text := strings.TrimSpace(content.Text); text != "" {
		blocks = append(blocks, Block{Kind: BlockParagraph, Text: text})
	}
	for _, bullet := range content.Bullets {
		if b := strings.TrimSpace(bullet); b != "" {
			blocks = append(blocks, Block{Kind: BlockBullet, Text: b})
		}
	}
	return blocks
}
