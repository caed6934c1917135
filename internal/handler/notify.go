package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/idtoken"

	"github.com/octobees/orgscout/internal/engine"
	"github.com/octobees/orgscout/internal/entity"
	"github.com/octobees/orgscout/internal/repository"
)

// MonitorClient posts run lifecycle events to an external monitor webhook.
// Delivery is best effort: a failed notification is logged and dropped.
type MonitorClient struct {
	client  *http.Client
	baseURL string
}

// NewMonitorClient builds a monitor client, auto-configuring an ID token
// client when the webhook lives behind IAM (Cloud Run to Cloud Run calls).
func NewMonitorClient(client *http.Client, webhookURL string) *MonitorClient {
	if webhookURL == "" {
		return nil
	}
	webhookURL = strings.TrimRight(webhookURL, "/")
	if client == nil {
		idc, err := idtoken.NewClient(context.Background(), webhookURL)
		if err != nil {
			client = &http.Client{Timeout: 10 * time.Second}
		} else {
			client = idc
		}
	}
	return &MonitorClient{client: client, baseURL: webhookURL}
}

// NotifyRun implements engine.Notifier.
func (m *MonitorClient) NotifyRun(ctx context.Context, jobID uuid.UUID, state entity.RunState, summary entity.RunSummary) {
	payload := map[string]any{
		"job_id":  jobID.String(),
		"state":   state,
		"summary": summary,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		log.Printf("monitor notify failed: job=%s state=%s error=%v", jobID, state, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		log.Printf("monitor notify rejected: job=%s state=%s status=%d", jobID, state, resp.StatusCode)
	}
}

// RunRecorder persists terminal run states to the run history table.
type RunRecorder struct {
	runs repository.RunsRepository
}

// NewRunRecorder constructs a RunRecorder.
func NewRunRecorder(runs repository.RunsRepository) *RunRecorder {
	return &RunRecorder{runs: runs}
}

// NotifyRun implements engine.Notifier. Intermediate states are ignored;
// only done and failed reach the database.
func (r *RunRecorder) NotifyRun(ctx context.Context, jobID uuid.UUID, state entity.RunState, summary entity.RunSummary) {
	if state != entity.RunDone && state != entity.RunFailed {
		return
	}
	errMsg := ""
	if state == entity.RunFailed {
		errMsg = "run failed"
	}
	if err := r.runs.Finish(ctx, jobID, state, errMsg, summary); err != nil {
		log.Printf("run history update failed: job=%s error=%v", jobID, err)
	}
}

// MultiNotifier fans one lifecycle event out to several notifiers.
type MultiNotifier []engine.Notifier

// NotifyRun implements engine.Notifier.
func (m MultiNotifier) NotifyRun(ctx context.Context, jobID uuid.UUID, state entity.RunState, summary entity.RunSummary) {
	for _, n := range m {
		if n != nil {
			n.NotifyRun(ctx, jobID, state, summary)
		}
	}
}
