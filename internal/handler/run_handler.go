package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/octobees/orgscout/internal/dto"
	"github.com/octobees/orgscout/internal/engine"
	"github.com/octobees/orgscout/internal/entity"
	"github.com/octobees/orgscout/internal/jobs"
	"github.com/octobees/orgscout/internal/repository"
)

// RunStarter launches scraping runs. Satisfied by *engine.Engine.
type RunStarter interface {
	StartRun(req engine.RunRequest) uuid.UUID
}

// RunHandler exposes run lifecycle endpoints.
type RunHandler struct {
	engine   RunStarter
	registry *jobs.Registry
	runs     repository.RunsRepository
}

// NewRunHandler constructs a RunHandler. The runs repository may be nil when
// durable run history is not configured.
func NewRunHandler(starter RunStarter, registry *jobs.Registry, runs repository.RunsRepository) *RunHandler {
	return &RunHandler{engine: starter, registry: registry, runs: runs}
}

// Start handles POST /runs requests.
func (h *RunHandler) Start(c echo.Context) error {
	var req dto.StartRunRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	req.Profession = strings.TrimSpace(req.Profession)
	req.Country = strings.TrimSpace(req.Country)
	req.Language = strings.TrimSpace(req.Language)
	if req.Profession == "" {
		return Error(c, http.StatusBadRequest, "profession is required")
	}
	if req.Country == "" {
		return Error(c, http.StatusBadRequest, "country is required")
	}
	if req.MaxPages < 0 || req.DescThreshold < 0 {
		return Error(c, http.StatusBadRequest, "max_pages and desc_threshold must not be negative")
	}

	jobID := h.engine.StartRun(engine.RunRequest{
		Profession:      req.Profession,
		Country:         req.Country,
		Language:        req.Language,
		Keywords:        req.Keywords,
		Sources:         req.Sources,
		MaxPages:        req.MaxPages,
		DescThreshold:   req.DescThreshold,
		KeepIncomplete:  req.KeepIncomplete,
		ExtraExclusions: req.ExtraExclusions,
	})

	if h.runs != nil {
		run := &entity.ScrapeRun{
			ID:         jobID,
			Profession: req.Profession,
			Country:    req.Country,
			Language:   req.Language,
			Keywords:   req.Keywords,
			State:      entity.RunPending,
			StartedAt:  time.Now().UTC(),
		}
		if err := h.runs.Create(c.Request().Context(), run); err != nil {
			log.Printf("run history insert failed: job=%s error=%v", jobID, err)
		}
	}

	return Success(c, http.StatusAccepted, "run accepted", dto.StartRunResponse{JobID: jobID.String()})
}

// Status handles GET /runs/:job_id requests.
func (h *RunHandler) Status(c echo.Context) error {
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid job id")
	}

	job, err := h.registry.Get(jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return Error(c, http.StatusNotFound, "run not found")
		}
		return Error(c, http.StatusInternalServerError, "unable to load run")
	}

	return Success(c, http.StatusOK, "run status", dto.RunStatusResponse{
		JobID:     job.ID.String(),
		State:     job.State,
		Progress:  job.Progress,
		Message:   job.Message,
		Summary:   job.Summary,
		Logs:      h.registry.DrainLog(jobID),
		StartedAt: job.StartedAt,
		UpdatedAt: job.UpdatedAt,
	})
}

// Stop handles POST /runs/:job_id/stop requests. Stopping is cooperative:
// the run finishes its current page and persists what it already accepted.
func (h *RunHandler) Stop(c echo.Context) error {
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid job id")
	}

	if err := h.registry.Stop(jobID); err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return Error(c, http.StatusNotFound, "run not found")
		}
		return Error(c, http.StatusInternalServerError, "unable to stop run")
	}

	return Success(c, http.StatusOK, "stop requested", map[string]string{"job_id": jobID.String()})
}
