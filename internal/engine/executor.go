package engine

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alexisbeaulieu97/fmtcell/internal/cache"
	"github.com/alexisbeaulieu97/fmtcell/internal/fileio"
	"github.com/alexisbeaulieu97/fmtcell/internal/logger"
	"github.com/alexisbeaulieu97/fmtcell/internal/model"
	"github.com/alexisbeaulieu97/fmtcell/internal/paddedcell"
)

// Runner diagnoses the files of an ExecutionPlan.
type Runner struct {
	// Workers bounds how many files are diagnosed at once. Zero means
	// GOMAXPROCS.
	Workers int
	// MaxIterations is the diagnosis bound. Zero means the default.
	MaxIterations int
	Logger        *logger.Logger
	// Cache, when set, lets files known to be clean skip diagnosis and
	// records the files found clean.
	Cache *cache.Cache
	// OnResult, when set, is invoked from worker goroutines as soon as a file
	// is diagnosed. It must be safe for concurrent use.
	OnResult func(model.FileResult)
	// AfterLevel, when set, receives the results of each completed level
	// before the next level reads any file. Writers hook in here so a file
	// claimed by several formats is read by each format after the previous
	// one has written it.
	AfterLevel func(level ExecutionLevel, results []model.FileResult)
}

// Execute runs the plan level by level and returns one result per job in plan
// order. Failures reading or formatting a file are recorded on that file's
// result and never stop the run. The returned error is non-nil only when ctx
// is cancelled; results gathered so far are still returned, and AfterLevel is
// not invoked for the interrupted level.
func (r *Runner) Execute(ctx context.Context, plan *ExecutionPlan) ([]model.FileResult, error) {
	if plan == nil {
		return nil, fmt.Errorf("execution plan is nil")
	}

	all := make([]model.FileResult, 0, plan.Len())
	for _, level := range plan.Levels {
		results, err := r.ExecuteLevel(ctx, level.Jobs)
		all = append(all, results...)
		if err != nil {
			return all, err
		}
		if r.AfterLevel != nil {
			r.AfterLevel(level, results)
		}
	}
	return all, nil
}

// ExecuteLevel diagnoses jobs concurrently and returns their results in input
// order. Jobs not started before ctx is cancelled are omitted.
func (r *Runner) ExecuteLevel(ctx context.Context, jobs []Job) ([]model.FileResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]model.FileResult, len(jobs))
	done := make([]bool, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())

	for i, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		i, job := i, job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := r.diagnose(job)
			results[i] = res
			done[i] = true
			if r.OnResult != nil {
				r.OnResult(res)
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		finished := results[:0]
		for i, ok := range done {
			if ok {
				finished = append(finished, results[i])
			}
		}
		return finished, err
	}
	return results, nil
}

func (r *Runner) workers() int {
	if r.Workers > 0 {
		return r.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (r *Runner) diagnose(job Job) model.FileResult {
	start := time.Now()
	res := model.FileResult{
		Path:      job.Path,
		RelPath:   job.RelPath,
		Format:    job.Format,
		Encoding:  job.Encoding,
		Timestamp: start,
	}

	log := r.Logger.ForFile(job.RelPath, job.Format)

	target, err := fileio.Read(job.Path, job.Encoding)
	if err != nil {
		res.Error = err
		res.Duration = time.Since(start)
		log.Error(err, "unable to read file")
		return res
	}
	res.Original = target.Content
	res.Permissions = target.Permissions

	if job.Formatter == nil {
		res.Error = fmt.Errorf("format %s has no formatter", job.Format)
		res.Duration = time.Since(start)
		log.Error(res.Error, "unable to format file")
		return res
	}

	if r.Cache.IsClean(job.Format, job.RelPath, job.Identity, target.Content) {
		res.Result = paddedcell.KnownClean()
		res.Cached = true
		res.Duration = time.Since(start)
		log.Debug("file unchanged since last clean run")
		return res
	}

	result, err := paddedcell.Diagnose(job.Formatter, target.Content, paddedcell.WithMaxIterations(r.MaxIterations))
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		r.Cache.Forget(job.Format, job.RelPath)
		log.Error(err, "formatter failed on original content")
		return res
	}
	res.Result = result
	if result.IsClean() {
		r.Cache.MarkClean(job.Format, job.RelPath, job.Identity, target.Content)
	} else {
		r.Cache.Forget(job.Format, job.RelPath)
	}

	log = log.WithOutcome(result.Kind().String(), result.Iterations())
	switch result.Kind() {
	case paddedcell.Cycle, paddedcell.Diverged:
		log.Warn(result.AsError(), "formatter chain is unstable on this file")
	default:
		log.Debug("file diagnosed")
	}
	return res
}
