package dto

import (
	"time"

	"github.com/octobees/orgscout/internal/entity"
)

// StartRunRequest is the payload used to launch a scraping run.
type StartRunRequest struct {
	Profession string `json:"profession"`
	Country    string `json:"country"`
	Language   string `json:"language,omitempty"`
	Keywords   string `json:"keywords,omitempty"`

	Sources []entity.SourceDescriptor `json:"sources,omitempty"`

	MaxPages        int      `json:"max_pages,omitempty"`
	DescThreshold   int      `json:"desc_threshold,omitempty"`
	KeepIncomplete  *bool    `json:"keep_incomplete,omitempty"`
	ExtraExclusions []string `json:"extra_exclusions,omitempty"`
}

// StartRunResponse acknowledges an accepted run.
type StartRunResponse struct {
	JobID string `json:"job_id"`
}

// RunStatusResponse is a point-in-time snapshot of a run. Log lines are
// drained on read: each line is delivered to at most one poll.
type RunStatusResponse struct {
	JobID     string            `json:"job_id"`
	State     entity.RunState   `json:"state"`
	Progress  int               `json:"progress"`
	Message   string            `json:"message,omitempty"`
	Summary   entity.RunSummary `json:"summary"`
	Logs      []string          `json:"logs,omitempty"`
	StartedAt time.Time         `json:"started_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
