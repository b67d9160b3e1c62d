package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/require"
)

// writeTextPDF writes a PDF with one page per entry in pages.
// An empty entry produces a page with a drawing but no text.
func writeTextPDF(t *testing.T, dir string, pages ...string) string {
	t.Helper()

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	for _, text := range pages {
		doc.AddPage()
		if text == "" {
			doc.Rect(20, 20, 50, 30, "D")
			continue
		}
		doc.MultiCell(0, 6, text, "", "L", false)
	}

	path := filepath.Join(dir, "fixture.pdf")
	require.NoError(t, doc.OutputFileAndClose(path))
	return path
}

func writeEncryptedPDF(t *testing.T, dir string) string {
	t.Helper()

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetProtection(fpdf.CnProtectPrint, "user-secret", "owner-secret")
	doc.SetFont("Helvetica", "", 12)
	doc.AddPage()
	doc.MultiCell(0, 6, "Sealed testimony that must not be readable.", "", "L", false)

	path := filepath.Join(dir, "encrypted.pdf")
	require.NoError(t, doc.OutputFileAndClose(path))
	return path
}

func writeRawFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}
