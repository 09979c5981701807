// Package pages is a minimal static-page HTTP server. Every accepted connection is
// served by one of a fixed number of workers: a single request is read, mapped onto a
// page file and answered, after which the connection is closed.
package pages

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/indigo-web/pages/config"
	"github.com/indigo-web/pages/internal/address"
	static "github.com/indigo-web/pages/internal/pages"
	"github.com/indigo-web/pages/internal/pool"
	"github.com/indigo-web/pages/internal/server/http"
	"github.com/indigo-web/pages/transport"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var ErrBind = errors.New("pages: cannot bind the address")

type Option func(*App)

// WithFS replaces the filesystem pages are read from. Config.Pages.Root is still
// resolved against it.
func WithFS(fs afero.Fs) Option {
	return func(a *App) {
		a.fs = fs
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(a *App) {
		a.meterProvider = provider
	}
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(a *App) {
		a.tracerProvider = provider
	}
}

type App struct {
	cfg            *config.Config
	fs             afero.Fs
	logger         *slog.Logger
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider

	mu        sync.Mutex
	stopped   bool
	transport transport.Transport
	workers   *pool.Pool
}

// New returns a new App instance. Nil config means config.Default().
func New(cfg *config.Config, opts ...Option) *App {
	if cfg == nil {
		cfg = config.Default()
	}

	a := &App{
		cfg:            cfg,
		fs:             afero.NewOsFs(),
		logger:         slog.Default(),
		meterProvider:  otel.GetMeterProvider(),
		tracerProvider: otel.GetTracerProvider(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Listen binds the address and serves connections until Stop is called. Empty host
// defaults to 127.0.0.1 and empty port to 8000. onReady is called exactly once, right
// after the address is bound, with the actual address (which matters for port 0).
// Binding failures wrap ErrBind and onReady isn't called at all. The worker pool is
// created only afterward, so an invalid pool size is reported after onReady. Listen
// must not be called more than once.
func (a *App) Listen(addr string, onReady func(boundAddr string)) error {
	parsed, err := address.Parse(addr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBind, err)
	}

	resolver := static.NewResolver(a.fs, static.Layout{
		Root:      a.cfg.Pages.Root,
		Index:     a.cfg.Pages.Index,
		Extension: a.cfg.Pages.Extension,
		NotFound:  a.cfg.Pages.NotFound,
	}, a.logger)

	server, err := http.NewServer(a.cfg.NET, resolver,
		http.WithLogger(a.logger),
		http.WithMeterProvider(a.meterProvider),
		http.WithTracerProvider(a.tracerProvider),
	)
	if err != nil {
		return err
	}

	tcp, err := transport.NewTCP(a.logger, a.meterProvider)
	if err != nil {
		return err
	}

	if err = tcp.Bind(parsed.String()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBind, parsed, err)
	}

	boundAddr := tcp.Addr().String()
	a.logger.Info("listening", "addr", boundAddr, "root", a.cfg.Pages.Root)
	if !parsed.IsLocalhost() {
		a.logger.Warn("listening on a non-loopback address, pages are reachable from the network",
			"addr", boundAddr)
	}

	if onReady != nil {
		onReady(boundAddr)
	}

	workers, err := pool.New(int(a.cfg.Pool.Size),
		pool.WithLogger(a.logger),
		pool.WithMeterProvider(a.meterProvider),
	)
	if err != nil {
		tcp.Stop()
		return err
	}

	if !a.attach(tcp, workers) {
		tcp.Stop()
		workers.Close()
		return nil
	}

	err = tcp.Listen(func(conn net.Conn) {
		if err := workers.Submit(func() { server.Handle(conn) }); err != nil {
			a.logger.Warn("dropping a connection", "remote", conn.RemoteAddr().String(), "error", err)
			_ = conn.Close()
		}
	})

	workers.Close()
	a.logger.Info("stopped", "addr", boundAddr)

	return err
}

// attach publishes the running transport and pool, so Stop is able to reach them. It
// reports false if Stop was called before.
func (a *App) attach(t transport.Transport, workers *pool.Pool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return false
	}

	a.transport, a.workers = t, workers
	return true
}

// Stop closes the listener and waits until every connection accepted so far is
// served. Listen returns nil afterward.
func (a *App) Stop() {
	a.mu.Lock()
	a.stopped = true
	t, workers := a.transport, a.workers
	a.mu.Unlock()

	if t == nil {
		return
	}

	t.Stop()
	workers.Close()
}
