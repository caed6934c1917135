package jobs

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/octobees/orgscout/internal/entity"
)

func TestCreateAndGet(t *testing.T) {
	r := NewRegistry(time.Hour)
	id, stop := r.Create()
	if stop == nil {
		t.Fatal("no stop channel")
	}
	job, err := r.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.State != entity.RunPending {
		t.Errorf("state = %q, want pending", job.State)
	}
}

func TestGetUnknown(t *testing.T) {
	r := NewRegistry(time.Hour)
	if _, err := r.Get(uuid.New()); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateState(t *testing.T) {
	r := NewRegistry(time.Hour)
	id, _ := r.Create()
	if err := r.Update(id, entity.RunParsing, 40, "parsing sources"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	job, _ := r.Get(id)
	if job.State != entity.RunParsing || job.Progress != 40 || job.Message != "parsing sources" {
		t.Errorf("job = %+v", job)
	}
	// Negative progress keeps the previous value.
	r.Update(id, entity.RunEnriching, -1, "")
	job, _ = r.Get(id)
	if job.Progress != 40 {
		t.Errorf("progress = %d, want 40", job.Progress)
	}
}

func TestDrainLogClears(t *testing.T) {
	r := NewRegistry(time.Hour)
	id, _ := r.Create()
	r.AppendLog(id, "page 1: 12 entries")
	r.AppendLog(id, "page 2: 9 entries")

	lines := r.DrainLog(id)
	if len(lines) != 2 {
		t.Fatalf("lines = %v", lines)
	}
	if again := r.DrainLog(id); again != nil {
		t.Fatalf("second drain = %v, want nil", again)
	}
}

func TestStopClosesChannel(t *testing.T) {
	r := NewRegistry(time.Hour)
	id, stop := r.Create()
	if err := r.Stop(id); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case <-stop:
	default:
		t.Fatal("stop channel not closed")
	}
	// Second stop must not panic.
	if err := r.Stop(id); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestSweepRemovesOnlyStaleTerminalJobs(t *testing.T) {
	r := NewRegistry(time.Minute)
	doneID, _ := r.Create()
	runningID, _ := r.Create()
	r.Update(doneID, entity.RunDone, 100, "")
	r.Update(runningID, entity.RunEnriching, 50, "")

	r.sweep(time.Now().Add(2 * time.Minute))

	if _, err := r.Get(doneID); err != ErrNotFound {
		t.Error("stale finished job survived sweep")
	}
	if _, err := r.Get(runningID); err != nil {
		t.Error("running job was swept")
	}
}
