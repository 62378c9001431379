package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/cordum/pathpack/core/archive"
	"github.com/cordum/pathpack/core/attach"
	"github.com/cordum/pathpack/core/collect"
	"github.com/cordum/pathpack/core/hooks"
	"github.com/cordum/pathpack/core/infra/bus"
	"github.com/cordum/pathpack/core/records"
)

type capturePublisher struct {
	subjects []string
	results  []Result
	err      error
}

func (p *capturePublisher) Publish(subject string, v any) error {
	p.subjects = append(p.subjects, subject)
	if res, ok := v.(Result); ok {
		p.results = append(p.results, res)
	}
	return p.err
}

type env struct {
	worker  *Worker
	pub     *capturePublisher
	records *records.RedisStore
	attach  *attach.RedisStore
}

func newEnv(t *testing.T) *env {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	t.Cleanup(srv.Close)
	recs, err := records.NewRedisStore("redis://" + srv.Addr())
	if err != nil {
		t.Fatalf("records store: %v", err)
	}
	t.Cleanup(func() { _ = recs.Close() })
	atts, err := attach.NewRedisStore("redis://" + srv.Addr())
	if err != nil {
		t.Fatalf("attach store: %v", err)
	}
	t.Cleanup(func() { _ = atts.Close() })

	deps := hooks.Deps{
		Descriptors: recs,
		Attachments: atts,
		Builder:     archive.Builder{TempDir: t.TempDir()},
	}
	reg := hooks.NewRegistry(hooks.NewLocalHook(deps, nil, collect.Collector{}))
	pub := &capturePublisher{}
	w := New(recs, reg, pub, nil)
	w.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	return &env{worker: w, pub: pub, records: recs, attach: atts}
}

func decode(t *testing.T, data []byte) Result {
	t.Helper()
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return res
}

func TestHandleSucceeds(t *testing.T) {
	e := newEnv(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "main.go")
	if err := os.WriteFile(file, []byte("package main"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ctx := context.Background()
	rec := records.Record{ID: "rec-1", OrganizationID: "org", Type: hooks.TypeLocal}
	if err := e.records.Put(ctx, rec, []string{file}); err != nil {
		t.Fatalf("put: %v", err)
	}

	res := decode(t, e.worker.Handle(ctx, []byte(`{"record_id":"rec-1"}`)))
	if res.Status != StatusSucceeded || res.Type != hooks.TypeLocal || res.Error != "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.WorkerID != e.worker.ID || !res.FinishedAt.Equal(time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)) {
		t.Fatalf("unexpected result metadata: %+v", res)
	}
	att, err := e.attach.Existing(ctx, hooks.FileTabID, "rec-1")
	if err != nil || att == nil {
		t.Fatalf("expected stored attachment, got %+v (%v)", att, err)
	}
	if len(e.pub.subjects) != 1 || e.pub.subjects[0] != bus.SubjectDone {
		t.Fatalf("expected done publication, got %v", e.pub.subjects)
	}
}

func TestHandleHookFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	rec := records.Record{ID: "rec-2", Type: hooks.TypeLocal}
	if err := e.records.Put(ctx, rec, []string{filepath.Join(t.TempDir(), "missing.txt")}); err != nil {
		t.Fatalf("put: %v", err)
	}
	res := decode(t, e.worker.Handle(ctx, []byte(`{"record_id":"rec-2"}`)))
	if res.Status != StatusFailed || !strings.Contains(res.Error, "Error attaching file") {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestHandleRejectsBadRequests(t *testing.T) {
	e := newEnv(t)
	for _, body := range []string{`not json`, `{}`, `{"record_id":"  "}`} {
		res := decode(t, e.worker.Handle(context.Background(), []byte(body)))
		if res.Status != StatusRejected || res.Error == "" {
			t.Fatalf("%s: unexpected result %+v", body, res)
		}
	}
}

func TestHandleUnknownRecordAndType(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	res := decode(t, e.worker.Handle(ctx, []byte(`{"record_id":"nope"}`)))
	if res.Status != StatusFailed || !strings.Contains(res.Error, "record not found") {
		t.Fatalf("unexpected result: %+v", res)
	}
	if err := e.records.Put(ctx, records.Record{ID: "odd", Type: "OTHER"}, nil); err != nil {
		t.Fatalf("put: %v", err)
	}
	res = decode(t, e.worker.Handle(ctx, []byte(`{"record_id":"odd"}`)))
	if res.Status != StatusFailed || res.Type != "OTHER" || !strings.Contains(res.Error, hooks.ErrNoHook.Error()) {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestHandlePublishFailureStillReplies(t *testing.T) {
	e := newEnv(t)
	e.pub.err = errors.New("bus down")
	if out := e.worker.Handle(context.Background(), []byte(`{}`)); len(out) == 0 {
		t.Fatalf("expected reply despite publish failure")
	}
}

type fakeServer struct {
	subject, queue string
	handler        bus.Handler
	err            error
}

func (s *fakeServer) Serve(_ context.Context, subject, queue string, handler bus.Handler) error {
	s.subject, s.queue, s.handler = subject, queue, handler
	return s.err
}

func TestRunSubscribesUntilDone(t *testing.T) {
	e := newEnv(t)
	srv := &fakeServer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.worker.Run(ctx, srv); err != nil {
		t.Fatalf("run: %v", err)
	}
	if srv.subject != bus.SubjectExec || srv.queue != bus.QueueWorkers || srv.handler == nil {
		t.Fatalf("unexpected subscription: %+v", srv)
	}
	srv.err = errors.New("no connection")
	if err := e.worker.Run(context.Background(), srv); err == nil {
		t.Fatalf("expected serve error")
	}
}
