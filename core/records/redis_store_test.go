package records

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
)

func newTestStore(t *testing.T) *RedisStore {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	t.Cleanup(srv.Close)
	store, err := NewRedisStore("redis://" + srv.Addr())
	if err != nil {
		t.Fatalf("create redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPutGetRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	rec := Record{ID: "r1", OrganizationID: "org", Name: "docs", Type: "COPDEV_GIT"}
	paths := []string{"/o/r/tree/main/docs/*.md", "/o/r/tree/main/README.md"}
	if err := store.Put(ctx, rec, paths); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(rec, *got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	descs, err := store.PathDescriptors(ctx, "r1")
	if err != nil {
		t.Fatalf("descriptors: %v", err)
	}
	if diff := cmp.Diff(paths, descs); diff != "" {
		t.Fatalf("descriptor mismatch (-want +got):\n%s", diff)
	}
}

func TestPutReplacesDescriptors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	rec := Record{ID: "r1", Type: "COPDEV_CI"}
	if err := store.Put(ctx, rec, []string{"a", "b"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, rec, nil); err != nil {
		t.Fatalf("put: %v", err)
	}
	descs, err := store.PathDescriptors(ctx, "r1")
	if err != nil {
		t.Fatalf("descriptors: %v", err)
	}
	if len(descs) != 0 {
		t.Fatalf("expected no descriptors, got %v", descs)
	}
}

func TestGetMissingRecord(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Put(context.Background(), Record{}, nil); err == nil {
		t.Fatalf("expected id validation error")
	}
}
