package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/andthens/BluePrint/internal/report"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"
)

// MarkdownRenderer writes a GitHub-flavored Markdown document.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) ContentType() string { return "text/markdown; charset=utf-8" }
func (r *MarkdownRenderer) Extension() string   { return ".md" }

func (r *MarkdownRenderer) Render(w io.Writer, rep *report.Report) error {
	bw := bufio.NewWriter(w)
	writeMarkdown(bw, rep)
	return bw.Flush()
}

func writeMarkdown(w io.Writer, rep *report.Report) {
	fmt.Fprintf(w, "# %s\n\n", escapeCell(rep.Heading))
	for i, t := range rep.Tables {
		fmt.Fprintf(w, "**%s**\n\n", escapeCell(Caption(rep, i)))
		fmt.Fprintf(w, "%s\n\n", markdownTable(t))
	}
}

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// markdownTable lays a table out as a GFM pipe table with padded columns.
func markdownTable(t report.Table) string {
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = lo.Map(row, func(c string, _ int) string { return escapeCell(c) })
	}
	return table.New().
		Border(lipgloss.MarkdownBorder()).
		BorderTop(false).
		BorderBottom(false).
		StyleFunc(func(_, _ int) lipgloss.Style { return cellStyle }).
		Headers(lo.Map(t.Header, func(c string, _ int) string { return escapeCell(c) })...).
		Rows(rows...).
		String()
}

var cellEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"|", "\\|",
	"<", "\\<",
	">", "\\>",
	"*", "\\*",
	"_", "\\_",
	"`", "\\`",
	"[", "\\[",
	"]", "\\]",
	"~", "\\~",
	"&", "\\&",
	"#", "\\#",
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
	"\t", " ",
)

// escapeCell makes a value safe inside a table cell: Markdown punctuation is
// backslash-escaped and line breaks (scripts span many lines) are folded.
func escapeCell(s string) string {
	return cellEscaper.Replace(s)
}
