package app

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"gofit/domain/core"
	"gofit/domain/gof"
	"gofit/internal"
	"gofit/internal/errors"
	"gofit/ports"
)

// Job is one goodness-of-fit test to run inside a batch
type Job struct {
	ID           core.JobID
	Sample       []float64
	Distribution ports.ReferenceDistribution
	Test         Test
	AssumeSorted bool
}

// JobResult holds the outcome of a job. Err is set for jobs that failed or
// were never started because the batch was cancelled.
type JobResult struct {
	JobID    core.JobID
	Result   gof.Result
	Err      error
	Duration time.Duration
}

// BatchRunner runs independent jobs in parallel, at most MaxConcurrency at
// a time. A failing job does not affect the others.
type BatchRunner struct {
	sem    *semaphore.Weighted
	limit  int
	logger *internal.Logger
}

// NewBatchRunner creates a runner; maxConcurrency <= 0 means GOMAXPROCS
func NewBatchRunner(maxConcurrency int) *BatchRunner {
	if maxConcurrency <= 0 {
		maxConcurrency = runtime.GOMAXPROCS(0)
	}
	return &BatchRunner{
		sem:    semaphore.NewWeighted(int64(maxConcurrency)),
		limit:  maxConcurrency,
		logger: internal.DefaultLogger.WithComponent("batch"),
	}
}

// NewBatchRunner creates a runner bounded by the service configuration
func (s *GofService) NewBatchRunner() *BatchRunner {
	r := NewBatchRunner(s.config.Runtime.MaxConcurrency)
	r.logger = s.logger.WithComponent("batch")
	return r
}

// Run executes jobs and returns their results in job order. Jobs without an
// ID are reported under a fresh one; a caller-supplied ID must be a UUID,
// otherwise the job is not run and reports an invalid-input error.
// Cancelling ctx stops new jobs from starting; those jobs report ctx.Err()
// and Run returns it once the started jobs finish.
func (r *BatchRunner) Run(ctx context.Context, jobs []Job) ([]JobResult, error) {
	results := make([]JobResult, len(jobs))
	rejected := make([]bool, len(jobs))
	for i, job := range jobs {
		if job.ID.IsEmpty() {
			results[i].JobID = core.NewJobID()
			continue
		}
		id, err := core.ParseJobID(job.ID.String())
		if err != nil {
			results[i].JobID = job.ID
			results[i].Err = errors.InvalidInput(err, "job %d", i)
			rejected[i] = true
			continue
		}
		results[i].JobID = id
	}

	r.logger.Debug("running %d jobs (max %d concurrent)", len(jobs), r.limit)

	var wg sync.WaitGroup
	var cancelled error
	for i := range jobs {
		if rejected[i] {
			continue
		}
		if err := r.sem.Acquire(ctx, 1); err != nil {
			cancelled = err
			for j := i; j < len(jobs); j++ {
				if !rejected[j] {
					results[j].Err = fmt.Errorf("job %s not started: %w", results[j].JobID, err)
				}
			}
			break
		}

		wg.Add(1)
		job := jobs[i]
		job.ID = results[i].JobID
		go func(i int) {
			defer wg.Done()
			defer r.sem.Release(1)
			results[i] = r.runJob(job)
		}(i)
	}
	wg.Wait()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		r.logger.Info("batch finished: %d of %d jobs failed", failed, len(jobs))
	}
	return results, cancelled
}

func (r *BatchRunner) runJob(job Job) (res JobResult) {
	start := time.Now()
	res.JobID = job.ID
	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("job %s panicked: %v", job.ID, p)
		}
		res.Duration = time.Since(start)
	}()

	result, err := job.Test.Run(job.Sample, job.Distribution, job.AssumeSorted)
	if err != nil {
		res.Err = fmt.Errorf("job %s: %w", job.ID, err)
		return res
	}
	if result.LowConfidence {
		r.logger.Warn("job %s: %v", job.ID, result.Warning)
	}
	r.logger.Trace("job %s: %s in %v", job.ID, result, time.Since(start))
	res.Result = result
	return res
}
