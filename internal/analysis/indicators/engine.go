package indicators

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"indicator-engine/internal/analysis/series"
	apperrors "indicator-engine/internal/errors"
	"indicator-engine/internal/logging"
)

// Job is one evaluation in a batch.
type Job struct {
	Name      string
	Indicator Indicator
	Inputs    []series.Series
	Range     series.Range
}

// JobResult holds the outcome of one Job.
type JobResult struct {
	Name     string
	Kind     Kind
	Result   series.Result
	Duration time.Duration
	Err      error
}

// Observer receives evaluation measurements. *metrics.Metrics implements it.
type Observer interface {
	ObserveEvaluation(kind string, d time.Duration, bars int, err error)
	WorkerStarted()
	WorkerDone()
}

// Engine evaluates independent jobs with a fixed pool of workers. Indicator
// instances are re-entrant, so jobs may share them.
type Engine struct {
	workers  int
	logger   zerolog.Logger
	observer Observer
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithObserver sets the metrics sink.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) { e.observer = o }
}

// NewEngine creates a new engine with the specified number of workers.
func NewEngine(workers int, opts ...EngineOption) *Engine {
	if workers <= 0 {
		workers = 4
	}
	e := &Engine{workers: workers, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Workers returns the pool size.
func (e *Engine) Workers() int {
	return e.workers
}

// Run evaluates all jobs and returns their results in job order. Once ctx is
// done no further job is started; jobs never started carry ctx.Err(), which
// is also returned.
func (e *Engine) Run(ctx context.Context, jobs []Job) ([]JobResult, error) {
	results := make([]JobResult, len(jobs))
	if len(jobs) == 0 {
		return results, ctx.Err()
	}

	workers := e.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	work := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				results[i] = e.Evaluate(ctx, jobs[i])
			}
		}()
	}

send:
	for i := range jobs {
		select {
		case <-ctx.Done():
			for j := i; j < len(jobs); j++ {
				results[j] = JobResult{Name: jobs[j].Name, Kind: jobKind(jobs[j]), Err: ctx.Err()}
			}
			break send
		case work <- i:
		}
	}
	close(work)
	wg.Wait()

	return results, ctx.Err()
}

// Evaluate runs a single job on the calling goroutine.
func (e *Engine) Evaluate(ctx context.Context, job Job) JobResult {
	out := JobResult{Name: job.Name, Kind: jobKind(job)}
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}
	if job.Indicator == nil {
		out.Err = apperrors.Wrapf(apperrors.ErrConfigInvalid, "job %q has no indicator", job.Name)
		return out
	}

	if e.observer != nil {
		e.observer.WorkerStarted()
		defer e.observer.WorkerDone()
	}

	start := time.Now()
	res, err := job.Indicator.Evaluate(Request{Inputs: job.Inputs, Range: job.Range})
	out.Duration = time.Since(start)
	out.Result, out.Err = res, err

	kind := out.Kind.String()
	if e.observer != nil {
		e.observer.ObserveEvaluation(kind, out.Duration, res.Len(), err)
	}
	logging.LogEvaluation(logging.WithIndicator(e.logger, Label(job.Indicator)), job.Name, kind, res.Begin, res.Len(), out.Duration, err)
	return out
}

func jobKind(job Job) Kind {
	if job.Indicator == nil {
		return kindCount
	}
	return job.Indicator.Descriptor().Kind
}
