package api

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/andthens/BluePrint/internal/pipeline"
	"github.com/andthens/BluePrint/internal/render"
	"github.com/andthens/BluePrint/internal/schema"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type formPage struct {
	Layouts       []schema.Layout
	Formats       []string
	DefaultLayout string
	DefaultFormat string
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := indexTemplate.Execute(&buf, formPage{
		Layouts:       schema.Layouts,
		Formats:       render.Formats,
		DefaultLayout: s.cfg.DefaultLayout,
		DefaultFormat: s.cfg.DefaultFormat,
	})
	if err != nil {
		s.log.Error("render form", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// handleFormUpload answers the browser form: the report as an attachment,
// or a plain-text message.
func (s *Server) handleFormUpload(w http.ResponseWriter, r *http.Request) {
	req, reqErr := s.readReportRequest(w, r)
	if reqErr != nil {
		http.Error(w, reqErr.msg, reqErr.code)
		return
	}

	job := pipeline.NewJob(req)
	if err := s.orchestrator.Run(r.Context(), job); err != nil {
		e := generateError(err)
		http.Error(w, e.msg, e.code)
		return
	}
	s.serveReport(w, r, job)
}
