package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/orgscout/internal/entity"
)

// ErrRunNotFound is returned when no scrape run matches the lookup.
var ErrRunNotFound = errors.New("scrape run not found")

// RunsRepository records scraping run history for auditing. The in-memory
// job registry holds live progress; this table is the durable trail.
type RunsRepository interface {
	Create(ctx context.Context, run *entity.ScrapeRun) error
	Finish(ctx context.Context, id uuid.UUID, state entity.RunState, errMsg string, summary entity.RunSummary) error
	Get(ctx context.Context, id uuid.UUID) (*entity.ScrapeRun, error)
}

// PGXRunsRepository implements RunsRepository using pgx.
type PGXRunsRepository struct {
	pool pgxPool
}

// NewPGXRunsRepository wires a pgx backed runs repository.
func NewPGXRunsRepository(pool *pgxpool.Pool) *PGXRunsRepository {
	return &PGXRunsRepository{pool: pool}
}

// Create inserts a new run row in its starting state.
func (r *PGXRunsRepository) Create(ctx context.Context, run *entity.ScrapeRun) error {
	if run == nil {
		return fmt.Errorf("run payload is nil")
	}

	_, err := r.pool.Exec(ctx, `
        INSERT INTO scrape_runs (id, profession, country, language, keywords, state, started_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, run.ID, run.Profession, run.Country, run.Language, run.Keywords, run.State, run.StartedAt)
	if err != nil {
		return fmt.Errorf("insert scrape run: %w", err)
	}
	return nil
}

// Finish records the terminal state and per-stage counts of a run.
func (r *PGXRunsRepository) Finish(ctx context.Context, id uuid.UUID, state entity.RunState, errMsg string, summary entity.RunSummary) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE scrape_runs SET
            state = $2,
            error = $3,
            pages_fetched = $4,
            raw_parsed = $5,
            enriched = $6,
            duplicates = $7,
            rejected = $8,
            accepted = $9,
            save_failures = $10,
            finished_at = NOW()
        WHERE id = $1
    `, id, state, errMsg,
		summary.PagesFetched, summary.RawParsed, summary.Enriched,
		summary.Duplicates, summary.Rejected, summary.Accepted, summary.SaveFailures)
	if err != nil {
		return fmt.Errorf("finish scrape run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

// Get retrieves one run by identifier.
func (r *PGXRunsRepository) Get(ctx context.Context, id uuid.UUID) (*entity.ScrapeRun, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT id, profession, country, language, keywords, state, error,
               pages_fetched, raw_parsed, enriched, duplicates, rejected, accepted, save_failures,
               started_at, finished_at
        FROM scrape_runs WHERE id = $1
    `, id)

	var run entity.ScrapeRun
	err := row.Scan(
		&run.ID, &run.Profession, &run.Country, &run.Language, &run.Keywords, &run.State, &run.Error,
		&run.Summary.PagesFetched, &run.Summary.RawParsed, &run.Summary.Enriched,
		&run.Summary.Duplicates, &run.Summary.Rejected, &run.Summary.Accepted, &run.Summary.SaveFailures,
		&run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("query scrape run: %w", err)
	}
	return &run, nil
}
