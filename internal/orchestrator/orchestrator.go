package orchestrator

import (
	"runtime"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/sirily11/argo-backtest-core/internal/engine"
	"github.com/sirily11/argo-backtest-core/internal/feed"
	"github.com/sirily11/argo-backtest-core/internal/strategy"
	"github.com/sirily11/argo-backtest-core/internal/types"
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// StrategyFactory builds one fresh, unconfigured strategy instance.
// RunSweep calls it once per Job so that concurrent workers never share
// strategy state; internal/engine.Run itself stays single-threaded, and
// this is what keeps it that way under concurrency.
type StrategyFactory func() strategy.Strategy

// Job is one independent engine.Run to execute: a parameter set, and
// optionally a walk-forward fold bounding which segment of history it
// replays. A nil Window runs the full supplied history.
type Job struct {
	ID     string
	Index  int
	Params map[string]any
	Window *WalkForwardWindow
	// Segment selects which side of Window to replay: "train" or
	// "test". Ignored when Window is nil.
	Segment string
}

// NewJobs pairs every parameter set with every walk-forward window (or,
// if windows is empty, a single nil-window job per parameter set),
// assigning stable IDs and indices for deterministic result ordering.
func NewJobs(paramSets []map[string]any, windows []WalkForwardWindow) []Job {
	var jobs []Job

	if len(windows) == 0 {
		for _, params := range paramSets {
			jobs = append(jobs, Job{ID: uuid.NewString(), Index: len(jobs), Params: params})
		}

		return jobs
	}

	for _, params := range paramSets {
		for i := range windows {
			window := windows[i]
			jobs = append(jobs, Job{ID: uuid.NewString(), Index: len(jobs), Params: params, Window: &window, Segment: "test"})
		}
	}

	return jobs
}

// JobResult pairs a Job with its outcome. Err is set instead of Result
// when the job's engine.Run call failed; a sweep with partial failures
// still returns every other job's result.
type JobResult struct {
	Job    Job
	Result engine.Result
	Err    error
}

// SweepRequest is RunSweep's input: the shared engine config, full
// instrument history, and instrument specs every job replays against
// (sliced per-job by Window, if set), plus the jobs themselves.
type SweepRequest struct {
	Config      engine.Config
	Sources     []feed.Source
	Specs       types.InstrumentSpecs
	NewStrategy StrategyFactory
	Jobs        []Job

	// MaxWorkers bounds concurrent engine.Run calls; zero uses
	// runtime.NumCPU().
	MaxWorkers int

	// ShowProgress renders a schollz/progressbar to stderr as jobs
	// complete.
	ShowProgress bool
}

// RunSweep executes every Job in req concurrently over a worker pool
// (runtime.NumCPU(), or MaxWorkers if set) pulling from a shared job
// channel: each worker owns an independent strategy instance and
// engine.Run call, so the only shared state is the job queue and the
// result collector. Results are returned in job Index order regardless
// of completion order, keeping a sweep's output deterministic even
// though its execution schedule is not.
func RunSweep(req SweepRequest) ([]JobResult, error) {
	if len(req.Jobs) == 0 {
		return nil, coreerrors.New(coreerrors.ErrCodeParamSpaceInvalid, "sweep has no jobs")
	}

	if req.NewStrategy == nil {
		return nil, coreerrors.New(coreerrors.ErrCodeParamSpaceInvalid, "sweep requires a StrategyFactory")
	}

	workers := req.MaxWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	if workers > len(req.Jobs) {
		workers = len(req.Jobs)
	}

	jobChan := make(chan Job)
	resultChan := make(chan JobResult, len(req.Jobs))

	var bar *progressbar.ProgressBar
	if req.ShowProgress {
		bar = progressbar.Default(int64(len(req.Jobs)), "running sweep")
	}

	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for job := range jobChan {
				result, err := runJob(req, job)
				resultChan <- JobResult{Job: job, Result: result, Err: err}

				if bar != nil {
					_ = bar.Add(1)
				}
			}
		}()
	}

	go func() {
		for _, job := range req.Jobs {
			jobChan <- job
		}

		close(jobChan)
	}()

	wg.Wait()
	close(resultChan)

	results := make([]JobResult, 0, len(req.Jobs))
	for result := range resultChan {
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Job.Index < results[j].Job.Index })

	return results, nil
}

func runJob(req SweepRequest, job Job) (engine.Result, error) {
	strat := req.NewStrategy()
	if err := strat.Configure(job.Params); err != nil {
		return engine.Result{}, coreerrors.Wrapf(coreerrors.ErrCodeInvalidParameter, err, "job %s: strategy configuration rejected", job.ID)
	}

	sources := req.Sources

	if job.Window != nil {
		switch job.Segment {
		case "train":
			sources = SliceSources(req.Sources, job.Window.TrainStart, job.Window.TrainEnd)
		default:
			sources = SliceSources(req.Sources, job.Window.TestStart, job.Window.TestEnd)
		}
	}

	result, err := engine.Run(req.Config, sources, req.Specs, strat)
	if err != nil {
		return engine.Result{}, coreerrors.Wrapf(coreerrors.ErrCodeEngineNotReady, err, "job %s: engine run failed", job.ID)
	}

	return result, nil
}
