package pipeline

import (
	"crypto/sha256"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/andthens/BluePrint/internal/report"
	"github.com/andthens/BluePrint/internal/schema"
)

// JobStatus represents the state of a report job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusBuilding  JobStatus = "building"
	StatusRendering JobStatus = "rendering"
	StatusCompleted JobStatus = "completed"
	StatusNoData    JobStatus = "no_data"
	StatusFailed    JobStatus = "failed"
)

// Job tracks one report generation, from upload to rendered file.
type Job struct {
	mu sync.Mutex

	ID       string `json:"report_id"`
	Filename string `json:"filename"`
	Format   string `json:"format"`

	Layout   schema.Layout   `json:"layout"`
	Criteria report.Criteria `json:"criteria"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Context    string `json:"context,omitempty"`
	Tables     int    `json:"tables"`
	Rows       int    `json:"rows"`
	OutputPath string `json:"-"`
	Error      string `json:"error,omitempty"`

	SourceHash string    `json:"source_hash,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
}

// JobStore is a thread-safe in-memory registry of report jobs with TTL
// eviction. With purge set, evicted and deleted jobs take their output file
// with them.
type JobStore struct {
	mu    sync.Mutex
	jobs  map[string]*Job
	ttl   time.Duration
	purge bool
}

func NewJobStore(ttl time.Duration, purge bool) *JobStore {
	return &JobStore{
		jobs:  make(map[string]*Job),
		ttl:   ttl,
		purge: purge,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// List returns snapshots of all jobs, newest first.
func (s *JobStore) List() []JobSnapshot {
	s.mu.Lock()
	jobs := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.mu.Unlock()

	snaps := make([]JobSnapshot, 0, len(jobs))
	for _, j := range jobs {
		snaps = append(snaps, j.Snapshot())
	}
	sort.Slice(snaps, func(i, k int) bool {
		return snaps[i].CreatedAt.After(snaps[k].CreatedAt)
	})
	return snaps
}

// Delete removes a job, and its output file when purging. It reports whether the job
// existed.
func (s *JobStore) Delete(id string) bool {
	s.mu.Lock()
	job, ok := s.jobs[id]
	delete(s.jobs, id)
	s.mu.Unlock()
	if ok {
		s.removeOutput(job)
	}
	return ok
}

// Cleanup removes expired jobs and returns how many were evicted.
func (s *JobStore) Cleanup() int {
	s.mu.Lock()
	now := time.Now()
	var expired []*Job
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			expired = append(expired, job)
			delete(s.jobs, id)
		}
	}
	s.mu.Unlock()

	for _, job := range expired {
		s.removeOutput(job)
	}
	return len(expired)
}

func (s *JobStore) removeOutput(job *Job) {
	if !s.purge {
		return
	}
	if path := job.Output(); path != "" {
		os.Remove(path)
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Fail records an error and marks the job failed in the given phase.
func (j *Job) Fail(phase string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusFailed
	j.Phase = phase
	j.Error = err.Error()
	j.UpdatedAt = time.Now()
}

// SetResult records what a completed build produced.
func (j *Job) SetResult(rep *report.Report, outputPath string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Context = rep.Context
	j.Tables = len(rep.Tables)
	j.Rows = rep.RowCount()
	j.OutputPath = outputPath
	j.Status = StatusCompleted
	j.Phase = "done"
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw upload bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
	j.SourceHash = ContentHashHex(data)
}

// FileData returns the raw upload bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// Output returns the rendered file path, empty until the job completes.
func (j *Job) Output() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.OutputPath
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// releaseFileData drops the upload once it has been parsed.
func (j *Job) releaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID         string          `json:"report_id"`
	Filename   string          `json:"filename"`
	Format     string          `json:"format"`
	Layout     schema.Layout   `json:"layout"`
	Criteria   report.Criteria `json:"criteria"`
	Status     JobStatus       `json:"status"`
	Phase      string          `json:"phase"`
	Context    string          `json:"context,omitempty"`
	Tables     int             `json:"tables"`
	Rows       int             `json:"rows"`
	Error      string          `json:"error,omitempty"`
	SourceHash string          `json:"source_hash,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:         j.ID,
		Filename:   j.Filename,
		Format:     j.Format,
		Layout:     j.Layout,
		Criteria:   j.Criteria,
		Status:     j.Status,
		Phase:      j.Phase,
		Context:    j.Context,
		Tables:     j.Tables,
		Rows:       j.Rows,
		Error:      j.Error,
		SourceHash: j.SourceHash,
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
