package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/andthens/BluePrint/internal/report"
	"github.com/fumiama/go-docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() *report.Report {
	return &report.Report{
		Context: "Account",
		Kind:    "Business Component",
		Layout:  "changes",
		Heading: "Account: Fields",
		Tables: []report.Table{
			{
				NodeType:  "FIELD",
				ParentKey: "Account",
				ParentID:  2,
				Header:    []string{"NAME", "COLUMN", "COMMENTS"},
				Rows: [][]string{
					{"Recent Field", "X_RECENT", "CR-1234 | pipes"},
					{"Old Field", "X_OLD", "N/A"},
				},
			},
			{
				NodeType:  "BUSCOMP_SERVER_SCRIPT",
				ParentKey: "Account",
				ParentID:  2,
				Header:    []string{"NAME", "SCRIPT"},
				Rows: [][]string{
					{"BusComp_PreWriteRecord", "function BusComp_PreWriteRecord ()\n{\n  if (a < b) return (CancelOperation);\n}"},
				},
			},
		},
	}
}

func TestForFormat(t *testing.T) {
	for format, ext := range map[string]string{
		"":         ".docx",
		"docx":     ".docx",
		"MD":       ".md",
		"markdown": ".md",
		"html":     ".html",
		"json":     ".json",
		"yml":      ".yaml",
	} {
		r, err := ForFormat(format)
		require.NoError(t, err, format)
		assert.Equal(t, ext, r.Extension(), format)
		assert.NotEmpty(t, r.ContentType())
	}

	_, err := ForFormat("pdf")
	require.Error(t, err)
}

func TestCaption(t *testing.T) {
	rep := sampleReport()
	assert.Equal(t, "Table 1: Account - FIELD (Parent: Account)", Caption(rep, 0))
	assert.Equal(t, "Table 2: Account - BUSCOMP_SERVER_SCRIPT (Parent: Account)", Caption(rep, 1))
}

// cellText returns the text of the first paragraph of a cell.
func cellText(c *docx.WTableCell) string {
	if len(c.Paragraphs) == 0 {
		return ""
	}
	return c.Paragraphs[0].String()
}

func paragraphStyle(p *docx.Paragraph) string {
	if p.Properties == nil || p.Properties.Style == nil {
		return ""
	}
	return p.Properties.Style.Val
}

func TestDOCXRenderer_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&DOCXRenderer{}).Render(&buf, sampleReport()))

	doc, err := docx.Parse(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	var tables []*docx.Table
	var paragraphs, styles []string
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Table:
			tables = append(tables, it)
		case *docx.Paragraph:
			if s := it.String(); s != "" {
				paragraphs = append(paragraphs, s)
				styles = append(styles, paragraphStyle(it))
			}
		}
	}

	require.Len(t, tables, 2)
	assert.Equal(t, []string{
		"Account: Fields",
		"Table 1: Account - FIELD (Parent: Account)",
		"Table 2: Account - BUSCOMP_SERVER_SCRIPT (Parent: Account)",
	}, paragraphs)
	assert.Equal(t, []string{"Heading4", "Caption", "Caption"}, styles)

	first := tables[0]
	require.Len(t, first.TableRows, 3)
	assert.Equal(t, "NAME", cellText(first.TableRows[0].TableCells[0]))
	assert.Equal(t, "COMMENTS", cellText(first.TableRows[0].TableCells[2]))
	assert.Equal(t, "Old Field", cellText(first.TableRows[2].TableCells[0]))
	assert.Equal(t, "N/A", cellText(first.TableRows[2].TableCells[2]))

	// Script line breaks survive as breaks inside the cell.
	script := cellText(tables[1].TableRows[1].TableCells[1])
	assert.Contains(t, script, "\n{\n")
}

func TestMarkdownRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&MarkdownRenderer{}).Render(&buf, sampleReport()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# Account: Fields\n"))
	lines := squeezeLines(out)
	assert.Contains(t, lines, "| NAME | COLUMN | COMMENTS |")
	assert.Contains(t, lines, `| Recent Field | X\_RECENT | CR-1234 \| pipes |`)
	assert.Contains(t, lines, "| Old Field | X\\_OLD | N/A |")
	assert.Contains(t, out, `if (a \< b)`)
	// One table row per record even for multi-line scripts.
	assert.Equal(t, 1, strings.Count(out, "| BusComp\\_PreWriteRecord "))
}

func TestMarkdownRenderer_AlignedColumns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&MarkdownRenderer{}).Render(&buf, sampleReport()))

	var table []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(line, "|") {
			table = append(table, line)
		}
		if len(table) > 0 && line == "" {
			break
		}
	}
	// Header, delimiter row and two records.
	require.Len(t, table, 4)
	assert.Regexp(t, `^\|-+\|-+\|-+\|$`, table[1])
	for _, line := range table[1:] {
		assert.Equal(t, len(table[0]), len(line), line)
	}
}

// squeezeLines collapses runs of blanks so padded table rows compare by content.
func squeezeLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		out = append(out, strings.Join(strings.Fields(line), " "))
	}
	return out
}

func TestHTMLRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&HTMLRenderer{}).Render(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "<title>Account: Fields</title>")
	assert.Equal(t, 2, strings.Count(out, "<table>"))
	assert.Contains(t, out, "<th>NAME</th>")
	assert.Contains(t, out, "<td>X_RECENT</td>")
	assert.Contains(t, out, "CR-1234 | pipes")
	assert.Contains(t, out, "a &lt; b")
	assert.NotContains(t, out, "a < b")
}

func TestHTMLRenderer_EscapesMarkup(t *testing.T) {
	rep := sampleReport()
	rep.Tables[0].Rows[0][2] = `<script>alert("x")</script>`

	var buf bytes.Buffer
	require.NoError(t, (&HTMLRenderer{}).Render(&buf, rep))
	assert.NotContains(t, buf.String(), "<script>")
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONRenderer{}).Render(&buf, sampleReport()))

	var got report.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Account", got.Context)
	require.Len(t, got.Tables, 2)
	assert.Equal(t, "FIELD", got.Tables[0].NodeType)
	assert.Contains(t, buf.String(), `"parent": "Account"`)
}

func TestYAMLRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLRenderer{}).Render(&buf, sampleReport()))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Account: Fields", got["heading"])
	tables, ok := got["tables"].([]any)
	require.True(t, ok)
	assert.Len(t, tables, 2)
}

func TestFormats_AllResolve(t *testing.T) {
	for _, f := range Formats {
		r, err := ForFormat(f)
		require.NoError(t, err, f)
		assert.Equal(t, "."+f, r.Extension())
	}
}
