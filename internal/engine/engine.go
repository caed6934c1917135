// Package engine orchestrates a scraping run end to end: seed resolution,
// optional search discovery, paginated parsing, enrichment, deduplication
// and the final validation gate. One run executes on its own goroutine; the
// job registry is the only channel back to the HTTP layer.
package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/octobees/orgscout/internal/config"
	"github.com/octobees/orgscout/internal/dedupe"
	"github.com/octobees/orgscout/internal/enrich"
	"github.com/octobees/orgscout/internal/entity"
	"github.com/octobees/orgscout/internal/fetch"
	"github.com/octobees/orgscout/internal/jobs"
	"github.com/octobees/orgscout/internal/normalize"
	"github.com/octobees/orgscout/internal/parse"
	"github.com/octobees/orgscout/internal/seeds"
)

// Discoverer supplies candidate URLs when seed sources are too thin. The
// engine hands it the profession provider's seed queries alongside the raw
// run terms and treats it as a black box returning zero or more URLs.
type Discoverer interface {
	Discover(ctx context.Context, profession, country, language, keywords string, seedQueries []string) []string
}

// Saver persists accepted entries. Save failures are counted, never fatal.
type Saver interface {
	SaveOrganization(ctx context.Context, e *entity.OrganizationEntry) error
}

// Notifier reports run lifecycle transitions to an external monitor.
type Notifier interface {
	NotifyRun(ctx context.Context, jobID uuid.UUID, state entity.RunState, summary entity.RunSummary)
}

// RunRequest configures one scraping run.
type RunRequest struct {
	Profession string `json:"profession"`
	Country    string `json:"country"`
	Language   string `json:"language"`
	Keywords   string `json:"keywords,omitempty"`

	// Sources, when supplied, replaces the profession's seed sources.
	Sources []entity.SourceDescriptor `json:"sources,omitempty"`

	// MaxPages overrides the configured pagination ceiling when > 0.
	MaxPages int `json:"max_pages,omitempty"`
	// DescThreshold is the minimum description length that lets an entry
	// without contact methods through validation. Defaults to 10.
	DescThreshold int `json:"desc_threshold,omitempty"`
	// KeepIncomplete overrides the configured default when non-nil.
	KeepIncomplete *bool `json:"keep_incomplete,omitempty"`
	// ExtraExclusions extends the parser's navigation-word list.
	ExtraExclusions []string `json:"extra_exclusions,omitempty"`
}

// Engine wires the pipeline stages together.
type Engine struct {
	cfg        config.ScraperConfig
	pages      *fetch.Client
	enricher   *enrich.Enricher
	discoverer Discoverer
	registry   *jobs.Registry
	saver      Saver
	notifier   Notifier
}

func New(cfg config.ScraperConfig, pages *fetch.Client, enricher *enrich.Enricher, discoverer Discoverer, registry *jobs.Registry, saver Saver, notifier Notifier) *Engine {
	return &Engine{
		cfg:        cfg,
		pages:      pages,
		enricher:   enricher,
		discoverer: discoverer,
		registry:   registry,
		saver:      saver,
		notifier:   notifier,
	}
}

// StartRun registers a job and launches the run worker. The caller is never
// blocked by scraping work.
func (en *Engine) StartRun(req RunRequest) uuid.UUID {
	jobID, stop := en.registry.Create()
	go en.run(context.Background(), jobID, stop, req)
	return jobID
}

// Run executes a run synchronously. Exposed for the worker goroutine and
// for tests that need deterministic completion.
func (en *Engine) Run(ctx context.Context, jobID uuid.UUID, stop <-chan struct{}, req RunRequest) entity.RunSummary {
	return en.runStages(ctx, jobID, stop, req)
}

func (en *Engine) run(ctx context.Context, jobID uuid.UUID, stop <-chan struct{}, req RunRequest) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("run panic: job=%s error=%v", jobID, r)
			en.registry.Update(jobID, entity.RunFailed, -1, fmt.Sprint(r))
		}
	}()
	en.runStages(ctx, jobID, stop, req)
}

func (en *Engine) runStages(ctx context.Context, jobID uuid.UUID, stop <-chan struct{}, req RunRequest) entity.RunSummary {
	var summary entity.RunSummary

	sources, queries := en.resolveSeeds(req)
	if sourcesEmpty(sources) && len(queries) == 0 {
		en.fail(ctx, jobID, "no sources resolvable for profession/country")
		return summary
	}

	if sourcesEmpty(sources) {
		en.transition(ctx, jobID, entity.RunSearching, 10, summary)
		discovered := en.discover(ctx, req, queries)
		if len(discovered) == 0 {
			en.fail(ctx, jobID, "discovery returned no candidate sources")
			return summary
		}
		sources = append(sources, entity.SourceDescriptor{
			Name:       "search discovery",
			DirectURLs: discovered,
		})
	}

	en.transition(ctx, jobID, entity.RunParsing, 25, summary)
	raw := en.parseSources(ctx, jobID, stop, req, sources, &summary)

	en.transition(ctx, jobID, entity.RunEnriching, 55, summary)
	for _, e := range raw {
		if stopped(stop) || ctx.Err() != nil {
			break
		}
		en.enricher.Enrich(ctx, e)
		if en.cfg.AltSources && (e.Email == "" || e.Phone == "") {
			en.enricher.EnrichComplete(ctx, e)
		} else {
			enrich.Classify(e)
		}
		summary.Enriched++
	}

	en.transition(ctx, jobID, entity.RunDeduplicating, 75, summary)
	d := dedupe.New(0)
	for _, e := range raw {
		d.Add(e)
	}
	summary.Duplicates = d.Merged()

	en.transition(ctx, jobID, entity.RunValidating, 90, summary)
	keep := en.cfg.KeepIncomplete
	if req.KeepIncomplete != nil {
		keep = *req.KeepIncomplete
	}
	for _, e := range d.Entries() {
		if !Validate(e, req.DescThreshold, keep) {
			summary.Rejected++
			continue
		}
		finalize(e)
		summary.Accepted++
		if en.saver != nil {
			if err := en.saver.SaveOrganization(ctx, e); err != nil {
				log.Printf("save failed: job=%s name=%q error=%v", jobID, e.Name, err)
				summary.SaveFailures++
			}
		}
	}

	en.registry.SetSummary(jobID, summary)
	en.transition(ctx, jobID, entity.RunDone, 100, summary)
	return summary
}

// resolveSeeds collects directory sources and discovery queries for the
// run's profession.
func (en *Engine) resolveSeeds(req RunRequest) ([]entity.SourceDescriptor, []string) {
	if len(req.Sources) > 0 {
		return req.Sources, nil
	}
	provider := seeds.ForProfession(req.Profession)
	return provider.Sources(req.Country), provider.Queries(req.Country, req.Language, req.Keywords)
}

func (en *Engine) discover(ctx context.Context, req RunRequest, seedQueries []string) []string {
	if en.discoverer == nil {
		return nil
	}
	return en.discoverer.Discover(ctx, req.Profession, req.Country, req.Language, req.Keywords, seedQueries)
}

// parseSources walks every source's category and direct URLs, paginating
// directory-shaped ones. Per-page failures skip that page only.
func (en *Engine) parseSources(ctx context.Context, jobID uuid.UUID, stop <-chan struct{}, req RunRequest, sources []entity.SourceDescriptor, summary *entity.RunSummary) []*entity.OrganizationEntry {
	maxPages := en.cfg.MaxPages
	if req.MaxPages > 0 {
		maxPages = req.MaxPages
	}
	if maxPages < 1 {
		maxPages = parse.DefaultMaxPages
	}

	var raw []*entity.OrganizationEntry
	for _, source := range sources {
		for _, category := range source.Categories {
			if stopped(stop) {
				return raw
			}
			raw = append(raw, en.parsePaginated(ctx, jobID, stop, req, category.URL, category.Name, maxPages, summary)...)
		}
		for _, direct := range source.DirectURLs {
			if stopped(stop) {
				return raw
			}
			raw = append(raw, en.parsePaginated(ctx, jobID, stop, req, direct, source.Name, 1, summary)...)
		}
	}

	now := time.Now().UTC()
	for _, e := range raw {
		e.ID = uuid.New()
		e.RunID = &jobID
		e.Profession = req.Profession
		e.Country = req.Country
		e.ScrapedAt = now
	}
	return raw
}

func (en *Engine) parsePaginated(ctx context.Context, jobID uuid.UUID, stop <-chan struct{}, req RunRequest, baseURL, category string, maxPages int, summary *entity.RunSummary) []*entity.OrganizationEntry {
	style := parse.DetectPageStyle(baseURL)
	if !parse.IsDirectoryShaped(baseURL) {
		maxPages = 1
	}

	var out []*entity.OrganizationEntry
	for n := 1; n <= maxPages; n++ {
		if stopped(stop) || ctx.Err() != nil {
			break
		}
		pageURL := parse.PageURL(baseURL, style, n)
		if pageURL == "" {
			break
		}
		page, err := en.pages.Get(ctx, pageURL)
		if err == fetch.ErrNotFound {
			break
		}
		if err != nil {
			log.Printf("page skipped: job=%s url=%s error=%v", jobID, pageURL, err)
			continue
		}
		summary.PagesFetched++

		entries := parse.ExtractEntries(page.Body, pageURL, parse.Options{
			Category:        category,
			ExtraExclusions: req.ExtraExclusions,
		})
		if len(entries) == 0 {
			break
		}
		summary.RawParsed += len(entries)
		out = append(out, entries...)
		en.registry.AppendLog(jobID, fmt.Sprintf("%s page %d: %d entries", category, n, len(entries)))
	}
	return out
}

func (en *Engine) transition(ctx context.Context, jobID uuid.UUID, state entity.RunState, progress int, summary entity.RunSummary) {
	en.registry.Update(jobID, state, progress, "")
	if en.notifier != nil {
		en.notifier.NotifyRun(ctx, jobID, state, summary)
	}
}

func (en *Engine) fail(ctx context.Context, jobID uuid.UUID, reason string) {
	log.Printf("run failed: job=%s reason=%s", jobID, reason)
	en.registry.Update(jobID, entity.RunFailed, -1, reason)
	if en.notifier != nil {
		en.notifier.NotifyRun(ctx, jobID, entity.RunFailed, entity.RunSummary{})
	}
}

// finalize derives the remaining fields right before persistence. Contact
// sanitation runs here too: entries from stopped or partially enriched runs
// may still carry parser-verbatim phone and email cells.
func finalize(e *entity.OrganizationEntry) {
	enrich.SanitizeContacts(e)
	e.Website = normalize.URL(e.Website)
	if e.Language == "" {
		e.Language = normalize.DetectLanguage(e.Name+" "+e.Description, e.Website)
	}
	if e.Province == "" && e.City != "" {
		e.Province = normalize.Location(e.City)
	}
	e.QualityScore = FinalScore(e)
}

func sourcesEmpty(sources []entity.SourceDescriptor) bool {
	for _, s := range sources {
		if !s.Empty() {
			return false
		}
	}
	return true
}

func stopped(stop <-chan struct{}) bool {
	if stop == nil {
		return false
	}
	select {
	case <-stop:
		return true
	default:
		return false
	}
}
