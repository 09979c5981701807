package pool

import "go.opentelemetry.io/otel/metric"

type instruments struct {
	submitted, completed, panicked metric.Int64Counter
	workers                        metric.Int64UpDownCounter
}

func newInstruments(meter metric.Meter) (i instruments, err error) {
	i.submitted, err = meter.Int64Counter("pool.jobs.submitted",
		metric.WithDescription("Jobs accepted by the pool"),
		metric.WithUnit("{job}"))
	if err != nil {
		return i, err
	}

	i.completed, err = meter.Int64Counter("pool.jobs.completed",
		metric.WithDescription("Jobs that ran to completion"),
		metric.WithUnit("{job}"))
	if err != nil {
		return i, err
	}

	i.panicked, err = meter.Int64Counter("pool.jobs.panicked",
		metric.WithDescription("Jobs interrupted by a recovered panic"),
		metric.WithUnit("{job}"))
	if err != nil {
		return i, err
	}

	i.workers, err = meter.Int64UpDownCounter("pool.workers",
		metric.WithDescription("Workers currently running"),
		metric.WithUnit("{worker}"))

	return i, err
}
