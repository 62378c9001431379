// Package bus carries JSON job messages over NATS.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/cordum/pathpack/core/infra/logging"
)

const (
	// SubjectExec carries packaging requests; replies go to the request inbox.
	SubjectExec = "job.pathpack.exec"
	// SubjectDone announces every finished packaging job.
	SubjectDone = "sys.pathpack.done"
	// QueueWorkers load-balances requests across workers.
	QueueWorkers = "workers-pathpack"
)

var (
	errNilBus       = errors.New("nats bus not initialized")
	errEmptySubject = errors.New("empty subject")
	errNilHandler   = errors.New("nil handler")
)

// Handler processes one request payload and returns the reply payload.
type Handler func(ctx context.Context, data []byte) []byte

// NatsBus is a thin wrapper over a NATS connection that speaks JSON.
type NatsBus struct {
	nc *nats.Conn
}

// NewNatsBus dials NATS at the provided URL. name identifies the client in
// server monitoring.
func NewNatsBus(url, name string) (*NatsBus, error) {
	if name == "" {
		name = "pathpack"
	}
	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logging.Warn("bus", "disconnected from nats", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info("bus", "reconnected to nats", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logging.Info("bus", "connection closed")
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NatsBus{nc: nc}, nil
}

// Close drains subscriptions and shuts down the connection.
func (b *NatsBus) Close() {
	if b == nil || b.nc == nil {
		return
	}
	if err := b.nc.Drain(); err != nil {
		b.nc.Close()
	}
}

// Publish sends v encoded as JSON on subject.
func (b *NatsBus) Publish(subject string, v any) error {
	if b == nil || b.nc == nil {
		return errNilBus
	}
	if subject == "" {
		return errEmptySubject
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return b.nc.Publish(subject, data)
}

// Request sends v on subject and decodes the reply into out.
func (b *NatsBus) Request(ctx context.Context, subject string, v, out any) error {
	if b == nil || b.nc == nil {
		return errNilBus
	}
	if subject == "" {
		return errEmptySubject
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	msg, err := b.nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		return fmt.Errorf("request %s: %w", subject, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(msg.Data, out); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	return nil
}

// Serve queue-subscribes handler to subject. Each message is handled with
// ctx, and the handler's result is sent to the message's reply inbox when
// one is set.
func (b *NatsBus) Serve(ctx context.Context, subject, queue string, handler Handler) error {
	if b == nil || b.nc == nil {
		return errNilBus
	}
	if subject == "" {
		return errEmptySubject
	}
	if handler == nil {
		return errNilHandler
	}
	cb := func(msg *nats.Msg) {
		reply := handler(ctx, msg.Data)
		if msg.Reply == "" || reply == nil {
			return
		}
		if err := msg.Respond(reply); err != nil {
			logging.Warn("bus", "reply failed", "subject", subject, "error", err)
		}
	}
	var err error
	if queue == "" {
		_, err = b.nc.Subscribe(subject, cb)
	} else {
		_, err = b.nc.QueueSubscribe(subject, queue, cb)
	}
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return nil
}

func (b *NatsBus) IsConnected() bool {
	return b != nil && b.nc != nil && b.nc.IsConnected()
}

func (b *NatsBus) Status() string {
	if b == nil || b.nc == nil {
		return "UNKNOWN"
	}
	return b.nc.Status().String()
}

func (b *NatsBus) ConnectedURL() string {
	if b == nil || b.nc == nil {
		return ""
	}
	return b.nc.ConnectedUrl()
}
