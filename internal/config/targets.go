package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/alexisbeaulieu97/fmtcell/internal/format"
	fmterrors "github.com/alexisbeaulieu97/fmtcell/pkg/errors"
)

// Target is a file selected by a format, addressed both on disk and
// relative to the project root.
type Target struct {
	Path    string
	RelPath string
}

// ResolveTargets expands the format's target patterns under root. Patterns
// use forward slashes and support "**". Directories and excluded files are
// dropped; the result is sorted by relative path and free of duplicates.
func (f Format) ResolveTargets(root string) ([]Target, error) {
	fsys := os.DirFS(root)

	seen := make(map[string]struct{})
	var rels []string
	for _, pattern := range f.Targets {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("format %s: target %q: %w", f.Name, pattern, err)
		}
		for _, rel := range matches {
			if _, dup := seen[rel]; dup || f.excluded(rel) {
				continue
			}
			seen[rel] = struct{}{}
			rels = append(rels, rel)
		}
	}
	sort.Strings(rels)

	targets := make([]Target, len(rels))
	for i, rel := range rels {
		targets[i] = Target{Path: filepath.Join(root, filepath.FromSlash(rel)), RelPath: rel}
	}
	return targets, nil
}

// Matches reports whether a slash-separated path relative to the project
// root belongs to this format.
func (f Format) Matches(rel string) bool {
	rel = filepath.ToSlash(rel)
	if f.excluded(rel) {
		return false
	}
	for _, pattern := range f.Targets {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (f Format) excluded(rel string) bool {
	for _, pattern := range f.Excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// BuildFormatter turns a format into a ready to use formatter chain, applying
// the project settings wherever the format does not override them.
func BuildFormatter(f Format, s Settings) (*format.Formatter, error) {
	built, err := buildSteps(f.Name+".steps", f)
	if err != nil {
		return nil, err
	}

	lineEnding, err := format.ParseLineEnding(f.EffectiveLineEnding(s))
	if err != nil {
		return nil, fmterrors.NewValidationError("line_ending", err.Error(), err)
	}

	formatter := format.New(f.Name, built...)
	formatter.LineEnding = lineEnding
	formatter.TrailingNewline = f.EffectiveTrailingNewline(s)
	return formatter, nil
}
