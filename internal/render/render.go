package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/andthens/BluePrint/internal/report"
)

// Renderer turns a report into a document.
type Renderer interface {
	Render(w io.Writer, rep *report.Report) error
	ContentType() string
	Extension() string
}

// Formats lists the canonical format names, default first. ForFormat also
// accepts a few aliases.
var Formats = []string{"docx", "md", "html", "json", "yaml"}

// ForFormat returns the renderer for a format name.
func ForFormat(format string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "docx", "":
		return &DOCXRenderer{}, nil
	case "md", "markdown":
		return &MarkdownRenderer{}, nil
	case "html", "htm":
		return &HTMLRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "yaml", "yml":
		return &YAMLRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Caption is the label placed above table i (0-based) of a report.
func Caption(rep *report.Report, i int) string {
	t := rep.Tables[i]
	return fmt.Sprintf("Table %d: %s - %s (Parent: %s)", i+1, rep.Context, t.NodeType, t.ParentKey)
}
