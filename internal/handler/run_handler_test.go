package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/octobees/orgscout/internal/engine"
	"github.com/octobees/orgscout/internal/entity"
	"github.com/octobees/orgscout/internal/jobs"
)

type stubStarter struct {
	registry *jobs.Registry
	req      engine.RunRequest
	jobID    uuid.UUID
}

func (s *stubStarter) StartRun(req engine.RunRequest) uuid.UUID {
	s.req = req
	id, _ := s.registry.Create()
	s.jobID = id
	return id
}

func TestRunHandler_Start(t *testing.T) {
	e := echo.New()

	t.Run("missing profession", func(t *testing.T) {
		registry := jobs.NewRegistry(time.Hour)
		handler := NewRunHandler(&stubStarter{registry: registry}, registry, nil)

		c, rec := postJSON(t, e, "/runs", map[string]string{"country": "Thailand"})
		_ = handler.Start(c)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("missing country", func(t *testing.T) {
		registry := jobs.NewRegistry(time.Hour)
		handler := NewRunHandler(&stubStarter{registry: registry}, registry, nil)

		c, rec := postJSON(t, e, "/runs", map[string]string{"profession": "lawyer"})
		_ = handler.Start(c)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("accepted", func(t *testing.T) {
		registry := jobs.NewRegistry(time.Hour)
		starter := &stubStarter{registry: registry}
		handler := NewRunHandler(starter, registry, nil)

		c, rec := postJSON(t, e, "/runs", map[string]any{
			"profession": "lawyer",
			"country":    "Thailand",
			"language":   "en",
			"max_pages":  3,
		})
		if err := handler.Start(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", rec.Code)
		}
		if starter.req.Profession != "lawyer" || starter.req.MaxPages != 3 {
			t.Fatalf("unexpected run request: %+v", starter.req)
		}

		var resp APIResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data := resp.Data.(map[string]any)
		if data["job_id"] != starter.jobID.String() {
			t.Fatalf("expected job id %s, got %v", starter.jobID, data["job_id"])
		}
	})
}

func TestRunHandler_Status(t *testing.T) {
	e := echo.New()
	registry := jobs.NewRegistry(time.Hour)
	handler := NewRunHandler(&stubStarter{registry: registry}, registry, nil)

	jobID, _ := registry.Create()
	if err := registry.Update(jobID, entity.RunParsing, 25, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	registry.AppendLog(jobID, "lawyers page 1: 12 entries")

	status := func(id string) (*httptest.ResponseRecorder, APIResponse) {
		req := httptest.NewRequest(http.MethodGet, "/runs/"+id, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("job_id")
		c.SetParamValues(id)
		if err := handler.Status(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var resp APIResponse
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		return rec, resp
	}

	rec, resp := status(jobID.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := resp.Data.(map[string]any)
	if data["state"] != string(entity.RunParsing) {
		t.Fatalf("unexpected state: %v", data["state"])
	}
	logs, _ := data["logs"].([]any)
	if len(logs) != 1 {
		t.Fatalf("expected 1 log line, got %v", data["logs"])
	}

	// Logs are drained: a second poll sees none.
	_, resp = status(jobID.String())
	data = resp.Data.(map[string]any)
	if _, ok := data["logs"]; ok {
		t.Fatalf("expected drained logs, got %v", data["logs"])
	}

	rec, _ = status(uuid.NewString())
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown job, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/runs/not-a-uuid", nil)
	recorder := httptest.NewRecorder()
	c := e.NewContext(req, recorder)
	c.SetParamNames("job_id")
	c.SetParamValues("not-a-uuid")
	_ = handler.Status(c)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", recorder.Code)
	}
}

func TestRunHandler_Stop(t *testing.T) {
	e := echo.New()
	registry := jobs.NewRegistry(time.Hour)
	handler := NewRunHandler(&stubStarter{registry: registry}, registry, nil)

	jobID, stop := registry.Create()

	req := httptest.NewRequest(http.MethodPost, "/runs/"+jobID.String()+"/stop", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("job_id")
	c.SetParamValues(jobID.String())

	if err := handler.Stop(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	select {
	case <-stop:
	default:
		t.Fatalf("expected stop channel to be closed")
	}
}
