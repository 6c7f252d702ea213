package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexisbeaulieu97/fmtcell/internal/config"
	"github.com/alexisbeaulieu97/fmtcell/internal/paddedcell"
	fmterrors "github.com/alexisbeaulieu97/fmtcell/pkg/errors"
)

// Job is one file to diagnose against one formatter chain.
type Job struct {
	Path      string
	RelPath   string
	Format    string
	Encoding  string
	Formatter paddedcell.Applier
	// Identity describes the formatter configuration; it keys the clean-file
	// cache.
	Identity string
}

// ExecutionLevel groups the jobs of a single format. Jobs inside a level run
// in parallel. Levels run one after another, and Runner.AfterLevel fires
// between them, so a file claimed by two formats is never read by the second
// before the first has finished with it.
type ExecutionLevel struct {
	Format string
	Jobs   []Job
}

// ExecutionPlan contains the ordered execution levels for a run.
type ExecutionPlan struct {
	Levels []ExecutionLevel
}

// GeneratePlan resolves every format's targets under root. When paths is
// non-empty only those files are considered; each is assigned to every format
// whose patterns match it.
func GeneratePlan(cfg *config.Config, root string, paths []string) (*ExecutionPlan, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	explicit, err := relativize(root, paths)
	if err != nil {
		return nil, err
	}

	plan := &ExecutionPlan{}
	for _, f := range cfg.Formats {
		formatter, err := config.BuildFormatter(f, cfg.Settings)
		if err != nil {
			return nil, err
		}

		var targets []config.Target
		if len(paths) > 0 {
			for _, target := range explicit {
				if f.Matches(target.RelPath) {
					targets = append(targets, target)
				}
			}
		} else {
			targets, err = f.ResolveTargets(root)
			if err != nil {
				return nil, err
			}
		}

		level := ExecutionLevel{Format: f.Name, Jobs: make([]Job, 0, len(targets))}
		for _, target := range targets {
			level.Jobs = append(level.Jobs, Job{
				Path:      target.Path,
				RelPath:   target.RelPath,
				Format:    f.Name,
				Encoding:  f.EffectiveEncoding(cfg.Settings),
				Formatter: formatter,
				Identity:  formatter.Identity(),
			})
		}
		plan.Levels = append(plan.Levels, level)
	}

	return plan, nil
}

func relativize(root string, paths []string) ([]config.Target, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmterrors.NewFileError(root, "resolve", err)
	}

	targets := make([]config.Target, 0, len(paths))
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmterrors.NewFileError(path, "resolve", err)
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, fmterrors.NewFileError(path, "stat", err)
		}
		rel, err := filepath.Rel(absRoot, abs)
		if err != nil || strings.HasPrefix(rel, "..") {
			return nil, fmterrors.NewFileError(path, "resolve", fmt.Errorf("outside of project root %s", root))
		}
		targets = append(targets, config.Target{Path: abs, RelPath: filepath.ToSlash(rel)})
	}
	return targets, nil
}

// Filter returns a copy of the plan holding only the jobs keep accepts.
func (p *ExecutionPlan) Filter(keep func(Job) bool) *ExecutionPlan {
	if p == nil {
		return nil
	}
	filtered := &ExecutionPlan{Levels: make([]ExecutionLevel, 0, len(p.Levels))}
	for _, level := range p.Levels {
		next := ExecutionLevel{Format: level.Format}
		for _, job := range level.Jobs {
			if keep(job) {
				next.Jobs = append(next.Jobs, job)
			}
		}
		filtered.Levels = append(filtered.Levels, next)
	}
	return filtered
}

// Len counts the jobs across all levels.
func (p *ExecutionPlan) Len() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, level := range p.Levels {
		n += len(level.Jobs)
	}
	return n
}

// String renders a human readable summary of the plan.
func (p *ExecutionPlan) String() string {
	if p == nil {
		return ""
	}

	var b strings.Builder
	for _, level := range p.Levels {
		fmt.Fprintf(&b, "Format %s (%d files)\n", level.Format, len(level.Jobs))
		for _, job := range level.Jobs {
			fmt.Fprintf(&b, "  %s\n", job.RelPath)
		}
	}
	return b.String()
}
