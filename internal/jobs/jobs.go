// Package jobs tracks in-flight and recently finished scraping runs in
// memory. The registry is the only shared mutable state between the HTTP
// layer and run workers; everything goes through its methods, the map is
// never exposed.
package jobs

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/octobees/orgscout/internal/entity"
)

// ErrNotFound is returned when a job id is unknown or already swept.
var ErrNotFound = errors.New("job not found")

// DefaultTTL is how long a finished job stays visible before the sweeper
// removes it.
const DefaultTTL = 2 * time.Hour

const sweepInterval = 10 * time.Minute

// Job is a snapshot of one run's progress.
type Job struct {
	ID        uuid.UUID         `json:"id"`
	State     entity.RunState   `json:"state"`
	Progress  int               `json:"progress"`
	Message   string            `json:"message,omitempty"`
	Summary   entity.RunSummary `json:"summary"`
	StartedAt time.Time         `json:"started_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type record struct {
	job  Job
	logs []string
	stop chan struct{}
}

// Registry is a thread-safe job store with TTL-based expiry of finished
// entries.
type Registry struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*record
	ttl  time.Duration

	sweepOnce sync.Once
	done      chan struct{}
}

func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		jobs: make(map[uuid.UUID]*record),
		ttl:  ttl,
		done: make(chan struct{}),
	}
}

// Create registers a new pending job and returns its id along with the
// channel the worker polls for a cooperative stop.
func (r *Registry) Create() (uuid.UUID, <-chan struct{}) {
	id := uuid.New()
	now := time.Now()
	rec := &record{
		job: Job{
			ID:        id,
			State:     entity.RunPending,
			StartedAt: now,
			UpdatedAt: now,
		},
		stop: make(chan struct{}),
	}
	r.mu.Lock()
	r.jobs[id] = rec
	r.mu.Unlock()
	return id, rec.stop
}

// Update moves a job to a new state. Progress is 0-100; a negative value
// keeps the previous one.
func (r *Registry) Update(id uuid.UUID, state entity.RunState, progress int, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}
	rec.job.State = state
	if progress >= 0 {
		rec.job.Progress = progress
	}
	if message != "" {
		rec.job.Message = message
	}
	rec.job.UpdatedAt = time.Now()
	return nil
}

// SetSummary attaches stage counters to a job.
func (r *Registry) SetSummary(id uuid.UUID, summary entity.RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}
	rec.job.Summary = summary
	rec.job.UpdatedAt = time.Now()
	return nil
}

// AppendLog records a progress line for later draining by status polls.
func (r *Registry) AppendLog(id uuid.UUID, line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.jobs[id]; ok {
		rec.logs = append(rec.logs, line)
	}
}

// DrainLog returns and clears the accumulated log lines, so each status
// poll sees only what happened since the previous one.
func (r *Registry) DrainLog(id uuid.UUID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.jobs[id]
	if !ok || len(rec.logs) == 0 {
		return nil
	}
	out := rec.logs
	rec.logs = nil
	return out
}

// Get returns a snapshot of one job.
func (r *Registry) Get(id uuid.UUID) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return rec.job, nil
}

// Stop signals the job's worker to halt at the next checkpoint. Idempotent.
func (r *Registry) Stop(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}
	select {
	case <-rec.stop:
	default:
		close(rec.stop)
	}
	return nil
}

// StartSweeper launches the background TTL sweep. Safe to call once;
// subsequent calls are no-ops.
func (r *Registry) StartSweeper() {
	r.sweepOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(sweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					r.sweep(time.Now())
				case <-r.done:
					return
				}
			}
		}()
	})
}

// Close stops the sweeper goroutine.
func (r *Registry) Close() {
	select {
	case <-r.done:
	default:
		close(r.done)
	}
}

// sweep removes terminal jobs whose last update is older than the TTL.
func (r *Registry) sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rec := range r.jobs {
		terminal := rec.job.State == entity.RunDone || rec.job.State == entity.RunFailed
		if terminal && now.Sub(rec.job.UpdatedAt) > r.ttl {
			delete(r.jobs, id)
		}
	}
}
