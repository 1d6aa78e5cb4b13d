package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/andthens/BluePrint/internal/report"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// HTMLRenderer converts the Markdown rendition to a standalone HTML page.
// Raw HTML in the export is never passed through.
type HTMLRenderer struct{}

func (r *HTMLRenderer) ContentType() string { return "text/html; charset=utf-8" }
func (r *HTMLRenderer) Extension() string   { return ".html" }

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

var page = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: "Segoe UI Semilight", "Segoe UI", sans-serif; font-size: 11pt; margin: 2em; }
h1 { color: #3b6982; font-size: 12pt; font-weight: normal; }
p strong { color: #3b6982; font-style: italic; }
table { border-collapse: collapse; margin-bottom: 1.5em; }
th { background: #3b6982; color: #fff; }
th, td { border: 1px solid #000; padding: 2px 6px; text-align: left; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

func (r *HTMLRenderer) Render(w io.Writer, rep *report.Report) error {
	var src bytes.Buffer
	writeMarkdown(&src, rep)

	var body bytes.Buffer
	if err := markdown.Convert(src.Bytes(), &body); err != nil {
		return fmt.Errorf("convert markdown: %w", err)
	}
	return page.Execute(w, struct {
		Title string
		Body  template.HTML
	}{
		Title: rep.Heading,
		Body:  template.HTML(body.String()),
	})
}
