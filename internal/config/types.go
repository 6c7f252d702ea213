package config

import (
	"github.com/alexisbeaulieu97/fmtcell/internal/paddedcell"
)

// DefaultFileName is the configuration file looked up when no path is given.
const DefaultFileName = ".fmtcell.yaml"

// Config represents the full fmtcell configuration document.
type Config struct {
	Version  string   `yaml:"version" validate:"required,semver"`
	Settings Settings `yaml:"settings,omitempty"`
	Formats  []Format `yaml:"formats" validate:"required,min=1,dive"`
}

// Settings holds project-wide defaults. Every format may override the text
// handling fields.
type Settings struct {
	MaxIterations         int    `yaml:"max_iterations,omitempty" validate:"omitempty,min=1,max=1000"`
	Parallel              int    `yaml:"parallel,omitempty" validate:"omitempty,min=1,max=256"`
	Encoding              string `yaml:"encoding,omitempty" validate:"omitempty,encoding"`
	LineEnding            string `yaml:"line_ending,omitempty" validate:"omitempty,line_ending"`
	EnsureTrailingNewline bool   `yaml:"ensure_trailing_newline,omitempty"`
	RatchetFrom           string `yaml:"ratchet_from,omitempty"`
	// CacheFile, relative to the project root, records files known to be
	// clean. Empty disables the cache.
	CacheFile string `yaml:"cache_file,omitempty"`
}

// Format binds a set of target files to a formatter chain.
type Format struct {
	Name                  string       `yaml:"name" validate:"required,format_name"`
	Targets               []string     `yaml:"targets" validate:"required,min=1,dive,required"`
	Excludes              []string     `yaml:"excludes,omitempty" validate:"omitempty,dive,required"`
	Steps                 []StepConfig `yaml:"steps" validate:"required,min=1,dive"`
	Encoding              string       `yaml:"encoding,omitempty" validate:"omitempty,encoding"`
	LineEnding            string       `yaml:"line_ending,omitempty" validate:"omitempty,line_ending"`
	EnsureTrailingNewline *bool        `yaml:"ensure_trailing_newline,omitempty"`
}

// StepConfig names a registered step type and its raw options. Options are
// decoded and validated by the step factory.
type StepConfig struct {
	Type    string         `yaml:"type" validate:"required"`
	Options map[string]any `yaml:"options,omitempty"`
}

// EffectiveMaxIterations returns the configured diagnosis bound, falling back
// to the default when unset.
func (s Settings) EffectiveMaxIterations() int {
	if s.MaxIterations > 0 {
		return s.MaxIterations
	}
	return paddedcell.DefaultMaxIterations
}

// EffectiveEncoding returns the format's encoding or the project default.
func (f Format) EffectiveEncoding(s Settings) string {
	if f.Encoding != "" {
		return f.Encoding
	}
	return s.Encoding
}

// EffectiveLineEnding returns the format's line ending or the project default.
func (f Format) EffectiveLineEnding(s Settings) string {
	if f.LineEnding != "" {
		return f.LineEnding
	}
	return s.LineEnding
}

// EffectiveTrailingNewline returns the format's trailing newline policy or the
// project default.
func (f Format) EffectiveTrailingNewline(s Settings) bool {
	if f.EnsureTrailingNewline != nil {
		return *f.EnsureTrailingNewline
	}
	return s.EnsureTrailingNewline
}

// FormatByName finds a format by name.
func (c *Config) FormatByName(name string) (Format, bool) {
	if c == nil {
		return Format{}, false
	}
	for _, f := range c.Formats {
		if f.Name == name {
			return f, true
		}
	}
	return Format{}, false
}
