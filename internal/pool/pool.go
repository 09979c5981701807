// Package pool implements a fixed-size pool of workers executing jobs from a shared
// unbounded queue.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/indigo-web/pages/internal/pool"

var (
	ErrInvalidPoolSize = errors.New("pool: size must be at least 1")
	ErrWorkerStart     = errors.New("pool: worker could not be started")
	ErrPoolClosed      = errors.New("pool: submit on a closed pool")
	ErrNilJob          = errors.New("pool: nil job")
)

// Job is a one-shot unit of work. It must handle its own failures: the pool doesn't
// report anything back to the submitter.
type Job func()

// Spawner starts fn on a new thread of control. The default one is the go statement,
// which cannot fail.
type Spawner func(fn func()) error

type Option func(*Pool)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(p *Pool) {
		p.meterProvider = provider
	}
}

func WithSpawner(spawn Spawner) Option {
	return func(p *Pool) {
		p.spawn = spawn
	}
}

type Pool struct {
	queue         *queue
	wg            sync.WaitGroup
	closeOnce     sync.Once
	logger        *slog.Logger
	meterProvider metric.MeterProvider
	spawn         Spawner
	metrics       instruments
}

// New starts size workers. A worker failing to start is logged and skipped, so the
// returned pool may run with fewer workers than requested; the caller isn't told.
func New(size int, opts ...Option) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPoolSize, size)
	}

	p := &Pool{
		queue:         newQueue(),
		logger:        slog.Default(),
		meterProvider: otel.GetMeterProvider(),
		spawn:         goSpawner,
	}

	for _, opt := range opts {
		opt(p)
	}

	var err error
	if p.metrics, err = newInstruments(p.meterProvider.Meter(instrumentationName)); err != nil {
		return nil, err
	}

	started := 0
	for id := 0; id < size; id++ {
		p.wg.Add(1)
		if err = p.spawn(p.worker(id)); err != nil {
			p.wg.Done()
			p.logger.Error(
				"an error has occurred when starting a worker",
				"worker", id, "error", errors.Join(ErrWorkerStart, err),
			)
			continue
		}

		started++
	}

	p.metrics.workers.Add(context.Background(), int64(started))
	if started < size {
		p.logger.Warn("pool is running with fewer workers than requested",
			"requested", size, "started", started,
		)
	}

	return p, nil
}

// Submit enqueues the job and wakes exactly one idle worker. It never blocks.
func (p *Pool) Submit(job Job) error {
	if job == nil {
		return ErrNilJob
	}

	if err := p.queue.Push(job); err != nil {
		return err
	}

	p.metrics.submitted.Add(context.Background(), 1)

	return nil
}

// Pending returns the number of submitted jobs that no worker has claimed yet.
func (p *Pool) Pending() int {
	return p.queue.Len()
}

// Close stops accepting new jobs, lets the workers finish everything already submitted
// and waits for them to exit. Safe to call more than once.
func (p *Pool) Close() {
	p.closeOnce.Do(p.queue.Close)
	p.wg.Wait()
}

func (p *Pool) worker(id int) func() {
	return func() {
		defer p.wg.Done()
		defer p.metrics.workers.Add(context.Background(), -1)

		for {
			job, ok := p.queue.Pop()
			if !ok {
				return
			}

			p.run(id, job)
		}
	}
}

func (p *Pool) run(id int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.metrics.panicked.Add(context.Background(), 1)
			p.logger.Error("job panicked, worker keeps serving", "worker", id, "panic", r)
		}
	}()

	job()
	p.metrics.completed.Add(context.Background(), 1)
}

func goSpawner(fn func()) error {
	go fn()
	return nil
}
