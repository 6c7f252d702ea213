package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/alexisbeaulieu97/fmtcell/internal/cache"
	"github.com/alexisbeaulieu97/fmtcell/internal/config"
	"github.com/alexisbeaulieu97/fmtcell/internal/engine"
	"github.com/alexisbeaulieu97/fmtcell/internal/logger"
	"github.com/alexisbeaulieu97/fmtcell/internal/model"
	"github.com/alexisbeaulieu97/fmtcell/internal/ratchet"
)

// Service coordinates loading a project, diagnosing its files and handing the
// results to the check, apply and dump consumers.
type Service struct {
	Logger *logger.Logger
}

// NewService constructs an application pipeline service.
func NewService(log *logger.Logger) *Service {
	return &Service{Logger: log}
}

// PrepareRequest selects the configuration and, optionally, the files to
// consider.
type PrepareRequest struct {
	ConfigPath string
	// Paths restricts the run to these files. Empty means every target of
	// every format.
	Paths []string
	// RatchetFrom overrides settings.ratchet_from when non-empty.
	RatchetFrom string
}

// PreparedPipeline is a validated configuration together with its plan.
type PreparedPipeline struct {
	Path   string
	Root   string
	Config *config.Config
	Plan   *engine.ExecutionPlan
}

// Prepare loads configuration and resolves the execution plan. The project
// root is the directory holding the configuration file.
func (s *Service) Prepare(req PrepareRequest) (*PreparedPipeline, error) {
	path := req.ConfigPath
	if path == "" {
		path = config.DefaultFileName
	}

	cfg, err := config.ParseConfig(path)
	if err != nil {
		return nil, err
	}

	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}

	plan, err := engine.GeneratePlan(cfg, root, req.Paths)
	if err != nil {
		return nil, err
	}

	if cacheFile := cfg.Settings.CacheFile; cacheFile != "" {
		cacheRel := filepath.ToSlash(filepath.Clean(cacheFile))
		plan = plan.Filter(func(job engine.Job) bool { return job.RelPath != cacheRel })
	}

	ref := req.RatchetFrom
	if ref == "" {
		ref = cfg.Settings.RatchetFrom
	}
	if ref != "" {
		plan, err = s.ratchetPlan(root, ref, plan)
		if err != nil {
			return nil, err
		}
	}

	s.Logger.WithFields(map[string]any{
		"config":  path,
		"formats": len(cfg.Formats),
		"files":   plan.Len(),
	}).Debug("pipeline prepared")

	return &PreparedPipeline{Path: path, Root: root, Config: cfg, Plan: plan}, nil
}

func (s *Service) ratchetPlan(root, ref string, plan *engine.ExecutionPlan) (*engine.ExecutionPlan, error) {
	r, err := ratchet.Open(root, ref)
	if err != nil {
		return nil, fmt.Errorf("ratchet: %w", err)
	}

	before := plan.Len()
	filtered := plan.Filter(func(job engine.Job) bool {
		changed, err := r.Changed(job.Path)
		if err != nil {
			s.Logger.ForFile(job.RelPath, job.Format).Warn(err, "unable to compare with ratchet reference, keeping file")
			return true
		}
		return changed
	})

	s.Logger.WithFields(map[string]any{
		"ref":     ref,
		"kept":    filtered.Len(),
		"skipped": before - filtered.Len(),
	}).Debug("ratchet applied")

	return filtered, nil
}

// RunRequest configures a diagnosis run.
type RunRequest struct {
	Prepared *PreparedPipeline
	// Workers overrides settings.parallel when positive.
	Workers int
	// MaxIterations overrides settings.max_iterations when positive.
	MaxIterations int
	// NoCache ignores settings.cache_file for this run.
	NoCache bool
	// OnResult receives each file result as soon as it is available. It is
	// called from worker goroutines.
	OnResult func(model.FileResult)
}

// Diagnose runs the padded-cell diagnosis over every planned file.
func (s *Service) Diagnose(ctx context.Context, req RunRequest) ([]model.FileResult, error) {
	return s.diagnose(ctx, req, nil)
}

func (s *Service) diagnose(ctx context.Context, req RunRequest, afterLevel func(engine.ExecutionLevel, []model.FileResult)) ([]model.FileResult, error) {
	if req.Prepared == nil {
		return nil, fmt.Errorf("prepared pipeline is nil")
	}

	settings := req.Prepared.Config.Settings
	runner := &engine.Runner{
		Workers:       settings.Parallel,
		MaxIterations: settings.EffectiveMaxIterations(),
		Logger:        s.Logger,
		OnResult:      req.OnResult,
		AfterLevel:    afterLevel,
	}
	if req.Workers > 0 {
		runner.Workers = req.Workers
	}
	if req.MaxIterations > 0 {
		runner.MaxIterations = req.MaxIterations
	}
	if settings.CacheFile != "" && !req.NoCache {
		runner.Cache = s.openCache(filepath.Join(req.Prepared.Root, filepath.FromSlash(settings.CacheFile)))
	}

	results, err := runner.Execute(ctx, req.Prepared.Plan)
	if saveErr := runner.Cache.Save(); saveErr != nil {
		s.Logger.Warn(saveErr, "unable to save cache")
	}
	return results, err
}

// openCache returns nil, a disabled cache, when the file cannot be used.
func (s *Service) openCache(path string) *cache.Cache {
	c, err := cache.Open(path)
	if err != nil {
		s.Logger.With("cache", path).Warn(err, "ignoring unreadable cache")
		return nil
	}
	return c
}

// Check diagnoses every file and classifies the results without touching
// the disk.
func (s *Service) Check(ctx context.Context, req RunRequest) (*CheckReport, error) {
	results, err := s.Diagnose(ctx, req)
	if err != nil {
		return nil, err
	}
	return NewCheckReport(results), nil
}

// Apply diagnoses every file and writes the canonical content where the
// policy allows it. Each format's writes land before the next format reads
// its files, so a file shared by several formats receives every fix.
func (s *Service) Apply(ctx context.Context, req RunRequest) (*ApplyReport, error) {
	report := &ApplyReport{}
	_, err := s.diagnose(ctx, req, func(_ engine.ExecutionLevel, results []model.FileResult) {
		report.merge(ApplyResults(results, s.Logger))
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Dump diagnoses every file and writes each intermediate state of every
// non-clean file under outDir.
func (s *Service) Dump(ctx context.Context, req RunRequest, outDir string) (*DumpReport, error) {
	results, err := s.Diagnose(ctx, req)
	if err != nil {
		return nil, err
	}
	return DumpResults(results, outDir), nil
}
