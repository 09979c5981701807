package transport

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	instrumentationName = "github.com/indigo-web/pages/transport"

	// delays between retries after a failed Accept(), so a persistent error (e.g.
	// running out of file descriptors) doesn't turn into a busy loop
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

type TCP struct {
	l        net.Listener
	stop     *atomic.Bool
	logger   *slog.Logger
	accepted metric.Int64Counter
	failed   metric.Int64Counter
}

func NewTCP(logger *slog.Logger, provider metric.MeterProvider) (*TCP, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if provider == nil {
		provider = otel.GetMeterProvider()
	}

	meter := provider.Meter(instrumentationName)
	accepted, err := meter.Int64Counter("server.connections.accepted",
		metric.WithDescription("Connections accepted by the listener"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}

	failed, err := meter.Int64Counter("server.accept.errors",
		metric.WithDescription("Failed attempts to accept a connection"),
		metric.WithUnit("{error}"))
	if err != nil {
		return nil, err
	}

	return &TCP{
		stop:     new(atomic.Bool),
		logger:   logger,
		accepted: accepted,
		failed:   failed,
	}, nil
}

func bindTCP(addr string) (*net.TCPListener, error) {
	tcpaddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, err
	}

	return net.ListenTCP("tcp", tcpaddr)
}

func (t *TCP) Bind(addr string) error {
	l, err := bindTCP(addr)
	if err != nil {
		return err
	}

	t.l = l
	return nil
}

// Serve makes the transport accept connections from an already bound listener
func (t *TCP) Serve(l net.Listener) {
	t.l = l
}

func (t *TCP) Addr() net.Addr {
	if t.l == nil {
		return nil
	}

	return t.l.Addr()
}

// Listen accepts connections until Stop is called. A failed Accept() is logged and
// skipped, it never terminates the loop. The callback is called on the accepting
// goroutine, so it must not block
func (t *TCP) Listen(cb func(conn net.Conn)) error {
	var delay time.Duration

	for !t.stop.Load() {
		conn, err := t.l.Accept()
		if err != nil {
			if t.stop.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}

			t.failed.Add(context.Background(), 1)
			delay = nextDelay(delay)
			t.logger.Error("an error has occurred when accepting a connection",
				"error", err, "retry_in", delay,
			)
			time.Sleep(delay)
			continue
		}

		delay = 0
		t.accepted.Add(context.Background(), 1)
		cb(conn)
	}

	return nil
}

func (t *TCP) Stop() {
	if t.stop.Swap(true) {
		return
	}

	if t.l != nil {
		_ = t.l.Close()
	}
}

func nextDelay(delay time.Duration) time.Duration {
	if delay == 0 {
		return minAcceptDelay
	}

	return min(delay*2, maxAcceptDelay)
}
