package pipeline

import (
	"context"
	"runtime"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
)

// Job is one independent placement in a batch.
type Job struct {
	Name    string
	Input   Input
	Options Options
}

// JobResult is the outcome of one job. Err is set when the job failed;
// other jobs still run.
type JobResult struct {
	Name   string
	Result *Result
	Err    error
}

// DeriveSeed gives each named job its own seed, so that images in a batch
// do not share random sequences while the batch as a whole stays
// reproducible.
func DeriveSeed(seed uint64, name string) uint64 {
	if seed == 0 {
		seed = DefaultSeed
	}
	return seed ^ xxhash.Sum64String(name)
}

// Batch runs jobs in parallel with at most workers at a time (0 uses the
// number of CPUs). Results are returned in job order. The returned error
// is non-nil only when ctx is cancelled.
func (r *Runner) Batch(ctx context.Context, jobs []Job, workers int) ([]JobResult, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]JobResult, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			opts := job.Options
			opts.Seed = DeriveSeed(opts.Seed, job.Name)
			res, err := r.Execute(ctx, job.Input, opts)
			results[i] = JobResult{Name: job.Name, Result: res, Err: err}
			if err != nil {
				r.Logger.Warn("job failed", "job", job.Name, "err", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
