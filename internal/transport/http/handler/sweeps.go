package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-wishlist-api/internal/application/sweeper"
	"github.com/go-wishlist-api/internal/domain"
)

// SweepRunner triggers sweeper passes on demand.
type SweepRunner interface {
	RunHourly(ctx context.Context) (sweeper.Summary, error)
	RunDaily(ctx context.Context) (sweeper.Summary, error)
}

// SweepHandler lets admins run a sweeper pass immediately.
type SweepHandler struct {
	runner SweepRunner
}

func NewSweepHandler(runner SweepRunner) *SweepHandler { return &SweepHandler{runner: runner} }

// Run executes the pass named by {pass}. Partial failures still return the
// summary; the per-entity errors are logged by the sweeper.
func (h *SweepHandler) Run(w http.ResponseWriter, r *http.Request) {
	var (
		sum sweeper.Summary
		err error
	)
	switch chi.URLParam(r, "pass") {
	case sweeper.PassHourly:
		sum, err = h.runner.RunHourly(r.Context())
	case sweeper.PassDaily:
		sum, err = h.runner.RunDaily(r.Context())
	default:
		writeError(w, http.StatusNotFound, domain.KindNotFound, "unknown sweep pass")
		return
	}
	if err != nil && sum.Processed == 0 && sum.Failed == 0 {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
