package api

import (
	"net/http"

	"github.com/andthens/BluePrint/internal/pipeline"
	"github.com/samber/lo"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	reports := s.orchestrator.ListJobs()

	writeJSON(w, http.StatusOK, map[string]any{
		"reports":     len(reports),
		"by_status":   lo.CountValuesBy(reports, func(j pipeline.JobSnapshot) pipeline.JobStatus { return j.Status }),
		"rows":        lo.SumBy(reports, func(j pipeline.JobSnapshot) int { return j.Rows }),
		"queue_depth": s.orchestrator.QueueDepth(),
		"generation":  s.orchestrator.Timings(),
	})
}
