// Package worker runs packaging jobs received over the bus.
package worker

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cordum/pathpack/core/hooks"
	"github.com/cordum/pathpack/core/infra/bus"
	"github.com/cordum/pathpack/core/infra/logging"
	"github.com/cordum/pathpack/core/infra/metrics"
)

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusRejected  = "rejected"
)

// Request asks a worker to package one record.
type Request struct {
	RecordID string `json:"record_id"`
}

// Result reports the outcome of a Request.
type Result struct {
	RecordID   string    `json:"record_id"`
	Type       string    `json:"type,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	WorkerID   string    `json:"worker_id"`
	FinishedAt time.Time `json:"finished_at"`
}

// Publisher announces results.
type Publisher interface {
	Publish(subject string, v any) error
}

// Server is the transport the worker listens on.
type Server interface {
	Serve(ctx context.Context, subject, queue string, handler bus.Handler) error
}

// Worker executes packaging requests one message at a time.
type Worker struct {
	ID        string
	Records   hooks.RecordGetter
	Hooks     *hooks.Registry
	Publisher Publisher
	Metrics   metrics.Metrics
	now       func() time.Time
}

// New returns a worker with a random id.
func New(records hooks.RecordGetter, registry *hooks.Registry, pub Publisher, m metrics.Metrics) *Worker {
	if m == nil {
		m = metrics.Noop{}
	}
	return &Worker{
		ID:        "pathpack-" + uuid.NewString()[:8],
		Records:   records,
		Hooks:     registry,
		Publisher: pub,
		Metrics:   m,
		now:       time.Now,
	}
}

// Run subscribes to the exec subject and blocks until ctx is done.
func (w *Worker) Run(ctx context.Context, srv Server) error {
	if err := srv.Serve(ctx, bus.SubjectExec, bus.QueueWorkers, w.Handle); err != nil {
		return err
	}
	logging.Info("worker", "listening", "id", w.ID, "subject", bus.SubjectExec, "queue", bus.QueueWorkers)
	<-ctx.Done()
	return nil
}

// Handle decodes a request, runs the matching hook and returns the encoded
// result. The result is also published on the done subject.
func (w *Worker) Handle(ctx context.Context, data []byte) []byte {
	w.Metrics.IncJobsReceived(bus.SubjectExec)
	res := w.exec(ctx, data)
	res.WorkerID = w.ID
	res.FinishedAt = w.clock().UTC()

	if w.Publisher != nil {
		if err := w.Publisher.Publish(bus.SubjectDone, res); err != nil {
			logging.Warn("worker", "publish result failed", "record", res.RecordID, "error", err)
		}
	}
	out, err := json.Marshal(res)
	if err != nil {
		logging.Error("worker", "encode result failed", "record", res.RecordID, "error", err)
		return nil
	}
	return out
}

func (w *Worker) exec(ctx context.Context, data []byte) Result {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Result{Status: StatusRejected, Error: "invalid request: " + err.Error()}
	}
	req.RecordID = strings.TrimSpace(req.RecordID)
	if req.RecordID == "" {
		return Result{Status: StatusRejected, Error: "record_id required"}
	}
	rec, err := w.Hooks.ExecRecord(ctx, w.Records, req.RecordID)
	res := Result{RecordID: req.RecordID, Status: StatusSucceeded}
	if rec != nil {
		res.Type = rec.Type
	}
	if err != nil {
		res.Status = StatusFailed
		res.Error = err.Error()
		logging.Error("worker", "job failed", "record", req.RecordID, "error", err)
		return res
	}
	logging.Info("worker", "job done", "record", req.RecordID, "type", res.Type)
	return res
}

func (w *Worker) clock() time.Time {
	if w.now == nil {
		return time.Now()
	}
	return w.now()
}
