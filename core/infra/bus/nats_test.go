package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
)

func noopHandler(context.Context, []byte) []byte { return nil }

func TestNatsBusPublishErrors(t *testing.T) {
	var nilBus *NatsBus
	if err := nilBus.Publish(SubjectDone, map[string]string{}); !errors.Is(err, errNilBus) {
		t.Fatalf("expected nil bus error, got %v", err)
	}
	bus := &NatsBus{nc: &nats.Conn{}}
	if err := bus.Publish("", map[string]string{}); !errors.Is(err, errEmptySubject) {
		t.Fatalf("expected empty subject error, got %v", err)
	}
	if err := bus.Publish(SubjectDone, make(chan int)); err == nil {
		t.Fatalf("expected encode error")
	}
}

func TestNatsBusRequestErrors(t *testing.T) {
	var nilBus *NatsBus
	if err := nilBus.Request(context.Background(), SubjectExec, nil, nil); !errors.Is(err, errNilBus) {
		t.Fatalf("expected nil bus error, got %v", err)
	}
	bus := &NatsBus{nc: &nats.Conn{}}
	if err := bus.Request(context.Background(), "", nil, nil); !errors.Is(err, errEmptySubject) {
		t.Fatalf("expected empty subject error, got %v", err)
	}
}

func TestNatsBusServeErrors(t *testing.T) {
	var nilBus *NatsBus
	if err := nilBus.Serve(context.Background(), SubjectExec, QueueWorkers, noopHandler); !errors.Is(err, errNilBus) {
		t.Fatalf("expected nil bus error, got %v", err)
	}
	bus := &NatsBus{nc: &nats.Conn{}}
	if err := bus.Serve(context.Background(), "", "", noopHandler); !errors.Is(err, errEmptySubject) {
		t.Fatalf("expected empty subject error, got %v", err)
	}
	if err := bus.Serve(context.Background(), SubjectExec, "", nil); !errors.Is(err, errNilHandler) {
		t.Fatalf("expected nil handler error, got %v", err)
	}
}

func TestNatsBusStatusDefaults(t *testing.T) {
	var nilBus *NatsBus
	if nilBus.IsConnected() {
		t.Fatalf("expected disconnected nil bus")
	}
	if status := nilBus.Status(); status != "UNKNOWN" {
		t.Fatalf("expected UNKNOWN status, got %s", status)
	}
	if url := nilBus.ConnectedURL(); url != "" {
		t.Fatalf("expected empty url, got %s", url)
	}
	nilBus.Close()
}

func TestNewNatsBusUnreachable(t *testing.T) {
	if _, err := NewNatsBus("nats://127.0.0.1:1", "test"); err == nil {
		t.Fatalf("expected connect error")
	}
}
