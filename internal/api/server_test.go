package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/andthens/BluePrint/internal/config"
	"github.com/andthens/BluePrint/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const accountSIF = `<?xml version="1.0" encoding="UTF-8"?>
<REPOSITORY NAME="Siebel Repository">
  <PROJECT NAME="Account (SSE)">
    <BUSINESS_COMPONENT NAME="Account" TABLE="S_ORG_EXT">
      <FIELD NAME="Recent Field" COLUMN="X_RECENT" UPDATED="01/15/2023 10:22:41" UPDATED_BY="SADMIN" COMMENTS="CR-1234"/>
      <FIELD NAME="Old Field" COLUMN="X_OLD" UPDATED="01/15/2019 08:00:00" UPDATED_BY="JDOE"/>
    </BUSINESS_COMPONENT>
  </PROJECT>
</REPOSITORY>`

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Config{
		OutputDir:       filepath.Join(t.TempDir(), "outputs"),
		UploadDir:       filepath.Join(t.TempDir(), "uploads"),
		KeepUploads:     true,
		WorkerCount:     1,
		MaxQueueSize:    4,
		MaxUploadBytes:  1 << 20,
		DefaultFormat:   "docx",
		DefaultLayout:   "changes",
		ReportTTL:       time.Hour,
		CleanupInterval: time.Hour,
		PurgeOutputs:    true,
		LogLevel:        "info",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch, err := pipeline.NewOrchestrator(cfg, log)
	require.NoError(t, err)
	t.Cleanup(orch.Stop)
	return NewServer(orch, log, cfg)
}

// upload builds a multipart request. A nil file omits the file part.
func upload(t *testing.T, target, filename string, file []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	msg, _ := body["error"].(string)
	return msg
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestForm_Get(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.DefaultFormat = "md" })
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `name="in_date"`)
	assert.Contains(t, body, `<option value="changes" selected>`)
	assert.Contains(t, body, `<option value="md" selected>`)
	assert.Contains(t, body, `<option value="blueprint">`)
}

func TestCreateReport_DOCX(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, upload(t, "/api/reports", "Account.sif", []byte(accountSIF), map[string]string{
		"after_date": "2021-01-01",
	}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=Account-report.docx`, rec.Header().Get("Content-Disposition"))
	assert.NotEmpty(t, rec.Header().Get("X-Report-ID"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "docx is a zip archive")
}

func TestCreateReport_MarkdownFiltersByAuthor(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, upload(t, "/api/reports", "Account.sif", []byte(accountSIF), map[string]string{
		"author": "JDOE",
		"format": "md",
	}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Contains(t, body, "Old Field")
	assert.NotContains(t, body, "Recent Field")
}

func TestCreateReport_FormAliases(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, upload(t, "/api/reports", "Account.sif", []byte(accountSIF), map[string]string{
		"in_date": "2021-01-01",
		"user":    "SADMIN",
		"format":  "json",
	}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Recent Field")
	assert.NotContains(t, rec.Body.String(), "Old Field")
}

func TestCreateReport_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		file     []byte
		fields   map[string]string
		code     int
		msg      string
	}{
		{"invalid date", "Account.sif", []byte(accountSIF), map[string]string{"after_date": "2023-02-30"}, http.StatusBadRequest, msgInvalidDate},
		{"no matching data", "Account.sif", []byte(accountSIF), map[string]string{"author": "NOBODY"}, http.StatusUnprocessableEntity, msgNoData},
		{"no schema", "Screen.sif", []byte(`<REPOSITORY><SCREEN NAME="S"/></REPOSITORY>`), nil, http.StatusUnprocessableEntity, msgNoData},
		{"missing file", "", nil, nil, http.StatusBadRequest, msgNoFilePart},
		{"unsupported type", "notes.txt", []byte("hi"), nil, http.StatusBadRequest, "unsupported file type: .txt"},
		{"unknown layout", "Account.sif", []byte(accountSIF), map[string]string{"layout": "fancy"}, http.StatusBadRequest, `unknown layout: "fancy"`},
		{"unknown format", "Account.sif", []byte(accountSIF), map[string]string{"format": "pdf"}, http.StatusBadRequest, "unsupported format: pdf"},
		{"author is matched as typed", "Account.sif", []byte(accountSIF), map[string]string{"author": "SADMIN "}, http.StatusUnprocessableEntity, msgNoData},
		{
			"malformed element date", "Bad.sif",
			[]byte(`<REPOSITORY><BUSINESS_COMPONENT NAME="B"><FIELD NAME="F" UPDATED="15-01-2023"/></BUSINESS_COMPONENT></REPOSITORY>`),
			map[string]string{"after_date": "2020-01-01"},
			http.StatusUnprocessableEntity, `malformed UPDATED "15-01-2023" on FIELD "F": parsing time "15-01-2023": month out of range`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)
			rec := serve(s, upload(t, "/api/reports", tt.filename, tt.file, tt.fields))
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.msg, decodeError(t, rec))
		})
	}
}

func TestCreateReport_PlainFormPost(t *testing.T) {
	post := func(values url.Values) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req
	}
	s := newTestServer(t, nil)

	rec := serve(s, post(url.Values{"in_date": {"15/01/2023"}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgInvalidDate, decodeError(t, rec))

	rec = serve(s, post(url.Values{"in_date": {"2023-01-15"}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgNoFilePart, decodeError(t, rec))

	rec = serve(s, httptest.NewRequest(http.MethodPost, "/api/reports", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgNoFilePart, decodeError(t, rec))
}

func TestCreateReport_MalformedXML(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, upload(t, "/api/reports", "bad.xml", []byte("<REPOSITORY><APPLET"), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec), "malformed xml")
}

func TestCreateReport_TooLarge(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.MaxUploadBytes = 64 })
	rec := serve(s, upload(t, "/api/reports", "Account.sif", []byte(accountSIF), nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestFormUpload_PlainTextMessages(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, upload(t, "/", "Account.sif", []byte(accountSIF), map[string]string{"in_date": "15/01/2023"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Equal(t, msgInvalidDate, strings.TrimSpace(rec.Body.String()))

	rec = serve(s, upload(t, "/", "Account.sif", []byte(accountSIF), map[string]string{"user": "NOBODY"}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, msgNoData, strings.TrimSpace(rec.Body.String()))

	rec = serve(s, upload(t, "/", "", nil, map[string]string{"file": ""}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgNoFile, strings.TrimSpace(rec.Body.String()))
}

func TestFormUpload_ReturnsAttachment(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, upload(t, "/", "Account.sif", []byte(accountSIF), map[string]string{"format": "html"}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `attachment; filename=Account-report.html`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "<td>X_RECENT</td>")
}

func TestReportRegistry(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, upload(t, "/api/reports", "Account.sif", []byte(accountSIF), map[string]string{"format": "yaml"}))
	require.Equal(t, http.StatusOK, rec.Code)
	id := rec.Header().Get("X-Report-ID")

	// Listing.
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Reports []pipeline.JobSnapshot `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Reports, 1)
	assert.Equal(t, id, list.Reports[0].ID)
	assert.Equal(t, "Account", list.Reports[0].Context)
	assert.Equal(t, 2, list.Reports[0].Rows)

	// Status.
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/reports/"+id+"/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"completed"`)

	// Download again.
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/reports/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Recent Field")

	// Stats.
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		Reports    int            `json:"reports"`
		ByStatus   map[string]int `json:"by_status"`
		Rows       int            `json:"rows"`
		QueueDepth int            `json:"queue_depth"`
		Generation struct {
			Count int `json:"count"`
		} `json:"generation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Reports)
	assert.Equal(t, map[string]int{"completed": 1}, stats.ByStatus)
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 1, stats.Generation.Count)

	// Delete.
	rec = serve(s, httptest.NewRequest(http.MethodDelete, "/api/reports/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/reports/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = serve(s, httptest.NewRequest(http.MethodDelete, "/api/reports/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadReport_NotCompleted(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, upload(t, "/api/reports", "Account.sif", []byte(accountSIF), map[string]string{"author": "NOBODY"}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	id := rec.Header().Get("X-Report-ID")
	require.NotEmpty(t, id)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/reports/"+id, nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"no_data"`)
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.APIKey = "secret" })

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing authorization", decodeError(t, rec))

	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = serve(s, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid api key", decodeError(t, rec))

	req = httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = serve(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The browser form and health check stay public.
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDownloadName(t *testing.T) {
	assert.Equal(t, "Account-report.docx", downloadName("Account.sif", ".docx"))
	assert.Equal(t, "export.v2-report.md", downloadName("export.v2.xml", ".md"))
	assert.Equal(t, "output-report.json", downloadName("", ".json"))
}
