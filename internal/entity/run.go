package entity

import (
	"time"

	"github.com/google/uuid"
)

// RunState tracks a scraping run through its lifecycle.
type RunState string

// Run lifecycle states. Failed is reachable only from configuration errors;
// per-page and per-entry failures skip that unit of work instead.
const (
	RunPending       RunState = "pending"
	RunSearching     RunState = "searching"
	RunParsing       RunState = "parsing"
	RunEnriching     RunState = "enriching"
	RunDeduplicating RunState = "deduplicating"
	RunValidating    RunState = "validating"
	RunDone          RunState = "done"
	RunFailed        RunState = "failed"
)

// ScrapeRun records one execution of the pipeline for a
// (profession, country, language) triple.
type ScrapeRun struct {
	ID         uuid.UUID  `json:"id"`
	Profession string     `json:"profession"`
	Country    string     `json:"country"`
	Language   string     `json:"language"`
	Keywords   string     `json:"keywords,omitempty"`
	State      RunState   `json:"state"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`

	Summary RunSummary `json:"summary"`
}

// RunSummary reports per-stage counts so a caller can tell a genuinely
// empty result apart from a broken pipeline.
type RunSummary struct {
	PagesFetched int `json:"pages_fetched"`
	RawParsed    int `json:"raw_parsed"`
	Enriched     int `json:"enriched"`
	Duplicates   int `json:"duplicates"`
	Rejected     int `json:"rejected"`
	Accepted     int `json:"accepted"`
	SaveFailures int `json:"save_failures"`
}
