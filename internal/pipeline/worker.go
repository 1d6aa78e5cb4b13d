package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/andthens/BluePrint/internal/render"
	"github.com/andthens/BluePrint/internal/report"
	"github.com/andthens/BluePrint/internal/schema"
	"github.com/andthens/BluePrint/internal/sif"
	"github.com/google/uuid"
)

// Request describes one report to generate.
type Request struct {
	Filename string
	Data     []byte
	Layout   schema.Layout
	Criteria report.Criteria
	Format   string
}

// NewJob creates a queued job for a request. Every job gets its own ID,
// which also names its output file.
func NewJob(req Request) *Job {
	now := time.Now()
	format := req.Format
	if format == "" {
		format = "docx"
	}
	job := &Job{
		ID:        uuid.NewString(),
		Filename:  req.Filename,
		Format:    format,
		Layout:    req.Layout,
		Criteria:  req.Criteria,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
	job.SetFileData(req.Data)
	return job
}

// Worker runs the parse, resolve, build and render steps for a job.
type Worker struct {
	outputDir   string
	uploadDir   string
	keepUploads bool
	timings     *Timings
	log         *slog.Logger
}

func NewWorker(outputDir, uploadDir string, keepUploads bool, log *slog.Logger) *Worker {
	return &Worker{
		outputDir:   outputDir,
		uploadDir:   uploadDir,
		keepUploads: keepUploads,
		timings:     NewTimings(time.Hour),
		log:         log,
	}
}

// Process generates the report for a job and writes it to the output
// directory. The returned error is also recorded on the job; a job that
// yields no data ends in StatusNoData with report.ErrNoSchema or
// report.ErrEmptyResult.
func (w *Worker) Process(ctx context.Context, job *Job) error {
	log := w.log.With("report_id", job.ID, "filename", job.Filename)
	start := time.Now()

	r, err := render.ForFormat(job.Format)
	if err != nil {
		job.Fail("queued", err)
		return err
	}

	if w.keepUploads {
		if err := w.saveUpload(job); err != nil {
			log.Warn("failed to keep upload", "error", err)
		}
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	tree, err := sif.Parse(bytes.NewReader(job.FileData()))
	if err != nil {
		log.Error("parse failed", "error", err)
		job.Fail("parsing", err)
		return err
	}
	job.releaseFileData()
	if err := ctx.Err(); err != nil {
		job.Fail("parsing", err)
		return err
	}

	// Phase 2: Resolve and build
	job.SetStatus(StatusBuilding, "building")
	rep, err := report.Generate(tree, job.Layout, job.Criteria)
	if report.IsNoData(err) {
		log.Info("no matching data", "reason", err)
		job.SetStatus(StatusNoData, err.Error())
		return err
	}
	if err != nil {
		log.Error("build failed", "error", err)
		job.Fail("building", err)
		return err
	}
	log.Info("report built", "context", rep.Context, "tables", len(rep.Tables), "rows", rep.RowCount())

	// Phase 3: Render
	job.SetStatus(StatusRendering, "rendering")
	path := filepath.Join(w.outputDir, job.ID+r.Extension())
	if err := writeReport(path, r, rep); err != nil {
		log.Error("render failed", "error", err)
		job.Fail("rendering", err)
		return err
	}

	job.SetResult(rep, path)
	elapsed := time.Since(start)
	w.timings.Record(elapsed)
	log.Info("report written", "path", path, "duration_ms", elapsed.Milliseconds())
	return nil
}

// Timings returns generation times of recently completed reports.
func (w *Worker) Timings() TimingSnapshot {
	return w.timings.Snapshot()
}

func writeReport(path string, r render.Renderer, rep *report.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := r.Render(f, rep); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

func (w *Worker) saveUpload(job *Job) error {
	path := filepath.Join(w.uploadDir, job.ID+"-"+SanitizeFilename(job.Filename))
	return os.WriteFile(path, job.FileData(), 0o644)
}
