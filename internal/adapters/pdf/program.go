// Package pdf renders the printable yearly program as an A4 document.
package pdf

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"motoclub/internal/application/projections"
)

const (
	pageMargin   = 20.0
	titleSize    = 24.0
	headingSize  = 16.0
	bodySize     = 12.0
	lineHeight   = 6.0
	sectionSpace = 4.0
)

// Options tweaks the output. The zero value is the production layout.
type Options struct {
	// Uncompressed disables stream compression so the text is greppable.
	Uncompressed bool
}

// RenderProgram writes doc as a PDF to w.
// PRE: doc was built by projections.BuildProgramDocument
// POST: w holds a complete PDF or an error is returned
func RenderProgram(w io.Writer, doc projections.ProgramDocument, opts Options) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetCompression(!opts.Uncompressed)

	// core fonts are cp1252; the translator keeps accented Italian letters intact.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("motoclub", true)

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.CellFormat(0, 14, tr(doc.Title), "", 1, "C", false, 0, "")
	pdf.Ln(sectionSpace * 2)

	pageWidth, _ := pdf.GetPageSize()
	for _, s := range doc.Sections {
		pdf.SetFont("Helvetica", "B", headingSize)
		pdf.MultiCell(0, 8, tr(s.Title), "", "L", false)

		pdf.SetFont("Helvetica", "", bodySize)
		pdf.MultiCell(0, lineHeight, tr(s.DateLine), "", "L", false)
		if s.Location != "" {
			pdf.MultiCell(0, lineHeight, tr("Luogo: "+s.Location), "", "L", false)
		}
		if s.Description != "" {
			pdf.MultiCell(0, lineHeight, tr("Descrizione: "+s.Description), "", "L", false)
		}
		pdf.MultiCell(0, lineHeight, tr("Tipo: "+s.TypeLabel), "", "L", false)
		pdf.MultiCell(0, lineHeight, tr("Stato: "+s.StatusLabel), "", "L", false)

		if s.Separator {
			pdf.Ln(sectionSpace)
			y := pdf.GetY()
			pdf.SetDrawColor(180, 180, 180)
			pdf.Line(pageMargin, y, pageWidth-pageMargin, y)
			pdf.Ln(sectionSpace)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render program %d: %w", doc.Year, err)
	}
	return nil
}
