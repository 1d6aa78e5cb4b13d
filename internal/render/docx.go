package render

import (
	"fmt"
	"io"

	"github.com/andthens/BluePrint/internal/report"
	"github.com/fumiama/go-docx"
)

// Report styling. Sizes are in half-points.
const (
	fontName      = "Segoe UI Semilight"
	bodySize      = "22"
	captionSize   = "20"
	headerFill    = "3B6982"
	headerText    = "FFFFFF"
	accentColor   = "3B6982"
	docxMediaType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	headingStyle = "Heading4"
	captionStyle = "Caption"
)

// DOCXRenderer writes a Word document: a heading, then one captioned grid
// table per report table.
type DOCXRenderer struct{}

func (r *DOCXRenderer) ContentType() string { return docxMediaType }
func (r *DOCXRenderer) Extension() string   { return ".docx" }

func (r *DOCXRenderer) Render(w io.Writer, rep *report.Report) error {
	doc := docx.New().WithDefaultTheme().WithA4Page()

	doc.AddParagraph().Style(headingStyle).AddText(rep.Heading).
		Font(fontName, "", fontName, "").
		Size(captionSize).
		Color(accentColor)

	for i, t := range rep.Tables {
		doc.AddParagraph().Style(captionStyle).AddText(Caption(rep, i)).
			Font(fontName, "", fontName, "").
			Size(captionSize).
			Color(accentColor).
			Bold().
			Italic()

		tbl := doc.AddTable(len(t.Rows)+1, len(t.Header), 0, nil)
		for c, name := range t.Header {
			tbl.TableRows[0].TableCells[c].
				Shade("clear", "auto", headerFill).
				AddParagraph().AddText(name).
				Font(fontName, "", fontName, "").
				Size(bodySize).
				Color(headerText).
				Bold()
		}
		for ri, row := range t.Rows {
			cells := tbl.TableRows[ri+1].TableCells
			for c, v := range row {
				cells[c].AddParagraph().AddText(v).
					Font(fontName, "", fontName, "").
					Size(bodySize)
			}
		}
		// Keep consecutive tables from merging into one grid.
		doc.AddParagraph()
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
