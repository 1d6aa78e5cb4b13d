package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/andthens/BluePrint/internal/pipeline"
	"github.com/andthens/BluePrint/internal/render"
	"github.com/andthens/BluePrint/internal/report"
	"github.com/andthens/BluePrint/internal/schema"
	"github.com/andthens/BluePrint/internal/sif"
	"github.com/go-chi/chi/v5"
)

// Messages shown to form users.
const (
	msgInvalidDate = "Invalid date format. Please use the date picker to select a valid date."
	msgNoFilePart  = "No file part"
	msgNoFile      = "No selected file"
	msgNoData      = "No matching data found in the XML file."
)

// requestError is a client-facing failure with its HTTP status.
type requestError struct {
	code int
	msg  string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) *requestError {
	return &requestError{code: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// readReportRequest parses a multipart upload into a pipeline request. The
// date filter is checked before the file, as the form always did.
func (s *Server) readReportRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, *requestError) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pipeline.Request{}, s.tooLarge()
		}
		if errors.Is(err, http.ErrNotMultipart) {
			// A plain form post carries no file, but its date is still
			// checked first.
			if _, reqErr := readCriteria(r); reqErr != nil {
				return pipeline.Request{}, reqErr
			}
			return pipeline.Request{}, badRequest("%s", msgNoFilePart)
		}
		return pipeline.Request{}, badRequest("invalid multipart form: %v", err)
	}
	defer r.MultipartForm.RemoveAll()

	criteria, reqErr := readCriteria(r)
	if reqErr != nil {
		return pipeline.Request{}, reqErr
	}

	layout, err := schema.ParseLayout(formValueOr(r, "layout", s.cfg.DefaultLayout))
	if err != nil {
		return pipeline.Request{}, badRequest("%v", err)
	}
	format := formValueOr(r, "format", s.cfg.DefaultFormat)
	if _, err := render.ForFormat(format); err != nil {
		return pipeline.Request{}, badRequest("%v", err)
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		// A file input left empty arrives as a plain value.
		if _, ok := r.MultipartForm.Value["file"]; ok {
			return pipeline.Request{}, badRequest("%s", msgNoFile)
		}
		return pipeline.Request{}, badRequest("%s", msgNoFilePart)
	}
	if err != nil {
		return pipeline.Request{}, badRequest("invalid file: %v", err)
	}
	defer file.Close()

	if header.Filename == "" {
		return pipeline.Request{}, badRequest("%s", msgNoFile)
	}
	filename := pipeline.SanitizeFilename(header.Filename)
	if !sif.IsSupportedExtension(filename) {
		return pipeline.Request{}, badRequest("unsupported file type: %s", filepath.Ext(filename))
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return pipeline.Request{}, &requestError{code: http.StatusInternalServerError, msg: "failed to read file"}
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return pipeline.Request{}, s.tooLarge()
	}

	return pipeline.Request{
		Filename: filename,
		Data:     data,
		Layout:   layout,
		Criteria: criteria,
		Format:   format,
	}, nil
}

func (s *Server) tooLarge() *requestError {
	return &requestError{
		code: http.StatusRequestEntityTooLarge,
		msg:  fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes),
	}
}

// readCriteria reads the filter fields of an already parsed form. Author and
// comments are matched as typed.
func readCriteria(r *http.Request) (report.Criteria, *requestError) {
	criteria, err := report.NewCriteria(
		formValue(r, "after_date", "in_date"),
		rawFormValue(r, "author", "user"),
		r.FormValue("comments"),
	)
	if err != nil {
		return report.Criteria{}, badRequest("%s", msgInvalidDate)
	}
	return criteria, nil
}

// formValue returns the first non-blank value among the given field names,
// trimmed.
func formValue(r *http.Request, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(r.FormValue(name)); v != "" {
			return v
		}
	}
	return ""
}

// rawFormValue is formValue without trimming.
func rawFormValue(r *http.Request, names ...string) string {
	for _, name := range names {
		if v := r.FormValue(name); v != "" {
			return v
		}
	}
	return ""
}

func formValueOr(r *http.Request, name, fallback string) string {
	if v := formValue(r, name); v != "" {
		return v
	}
	return fallback
}

// generateError maps a failed generation onto a status and message.
func generateError(err error) *requestError {
	var dateErr *report.ElementDateError
	switch {
	case report.IsNoData(err):
		return &requestError{code: http.StatusUnprocessableEntity, msg: msgNoData}
	case errors.As(err, &dateErr):
		return &requestError{code: http.StatusUnprocessableEntity, msg: err.Error()}
	case errors.Is(err, sif.ErrMalformed):
		return badRequest("%v", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &requestError{code: http.StatusServiceUnavailable, msg: "request canceled"}
	default:
		return &requestError{code: http.StatusInternalServerError, msg: "report generation failed: " + err.Error()}
	}
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	req, reqErr := s.readReportRequest(w, r)
	if reqErr != nil {
		jsonError(w, reqErr.msg, reqErr.code)
		return
	}

	job := pipeline.NewJob(req)
	if err := s.orchestrator.Run(r.Context(), job); err != nil {
		e := generateError(err)
		w.Header().Set("X-Report-ID", job.ID)
		writeJSON(w, e.code, map[string]any{
			"error":     e.msg,
			"report_id": job.ID,
			"status":    job.Snapshot().Status,
		})
		return
	}
	s.serveReport(w, r, job)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"reports": s.orchestrator.ListJobs()})
}

func (s *Server) handleReportStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "reportID"))
	if job == nil {
		jsonError(w, "report not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "reportID"))
	if job == nil {
		jsonError(w, "report not found", http.StatusNotFound)
		return
	}
	if snap := job.Snapshot(); snap.Status != pipeline.StatusCompleted {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     "report is not available",
			"report_id": snap.ID,
			"status":    snap.Status,
		})
		return
	}
	s.serveReport(w, r, job)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "reportID")
	if !s.orchestrator.DeleteJob(id) {
		jsonError(w, "report not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// serveReport streams a completed job's output as an attachment.
func (s *Server) serveReport(w http.ResponseWriter, r *http.Request, job *pipeline.Job) {
	snap := job.Snapshot()
	rd, err := render.ForFormat(snap.Format)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	f, err := os.Open(job.Output())
	if err != nil {
		s.log.Error("report output missing", "report_id", snap.ID, "error", err)
		jsonError(w, "report output no longer available", http.StatusGone)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		jsonError(w, "failed to read report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", rd.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": downloadName(snap.Filename, rd.Extension()),
	}))
	w.Header().Set("X-Report-ID", snap.ID)
	http.ServeContent(w, r, "", info.ModTime(), f)
}

// downloadName derives the attachment name from the uploaded file name,
// e.g. "Account.sif" becomes "Account-report.docx".
func downloadName(source, ext string) string {
	base := strings.TrimSuffix(source, filepath.Ext(source))
	if base == "" {
		base = "output"
	}
	return base + "-report" + ext
}
