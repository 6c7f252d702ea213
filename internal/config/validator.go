package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"

	"github.com/alexisbeaulieu97/fmtcell/internal/fileio"
	"github.com/alexisbeaulieu97/fmtcell/internal/format"
	"github.com/alexisbeaulieu97/fmtcell/internal/steps"
	fmterrors "github.com/alexisbeaulieu97/fmtcell/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern     = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
	formatNamePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("format_name", func(fl validator.FieldLevel) bool {
			return formatNamePattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("encoding", func(fl validator.FieldLevel) bool {
			return fileio.Supported(fl.Field().String())
		})

		_ = v.RegisterValidation("line_ending", func(fl validator.FieldLevel) bool {
			_, err := format.ParseLineEnding(fl.Field().String())
			return err == nil
		})

		validateInst = v
	})

	return validateInst
}

// ValidateConfig performs schema and cross-field validation on the
// configuration. Every step is built once so that unknown types and bad
// options are reported before any file is touched.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmterrors.NewValidationError("config", "configuration is nil", nil)
	}

	if err := validatorInstance().Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	seen := make(map[string]int, len(cfg.Formats))
	for i, f := range cfg.Formats {
		if first, exists := seen[f.Name]; exists {
			return fmterrors.NewValidationError(
				fieldForFormat(i, "name"),
				fmt.Sprintf("duplicate format name %q (first defined at formats[%d])", f.Name, first),
				nil,
			)
		}
		seen[f.Name] = i

		if err := validatePatterns(i, f); err != nil {
			return err
		}

		if _, err := buildSteps(fieldForFormat(i, "steps"), f); err != nil {
			return err
		}
	}

	return nil
}

func validatePatterns(index int, f Format) error {
	check := func(field string, patterns []string) error {
		for j, pattern := range patterns {
			if !doublestar.ValidatePattern(pattern) {
				return fmterrors.NewValidationError(
					fmt.Sprintf("%s[%d]", fieldForFormat(index, field), j),
					fmt.Sprintf("invalid pattern %q", pattern),
					nil,
				)
			}
		}
		return nil
	}
	if err := check("targets", f.Targets); err != nil {
		return err
	}
	return check("excludes", f.Excludes)
}

func buildSteps(prefix string, f Format) ([]format.Step, error) {
	built := make([]format.Step, 0, len(f.Steps))
	for j, sc := range f.Steps {
		step, err := steps.Build(sc.Type, sc.Options)
		if err != nil {
			field := fmt.Sprintf("%s[%d]", prefix, j)
			var validationErr *fmterrors.ValidationError
			if errors.As(err, &validationErr) {
				return nil, fmterrors.NewValidationError(field+"."+validationErr.Field, validationErr.Message, err)
			}
			return nil, fmterrors.NewValidationError(field, err.Error(), err)
		}
		built = append(built, step)
	}
	return built, nil
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return fmterrors.NewValidationError(field, msg, err)
	}

	return fmterrors.NewValidationError("config", err.Error(), err)
}

// yamlishFieldName turns "Config.Formats[0].Steps[1].Type" into
// "formats[0].steps[1].type".
func yamlishFieldName(fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, part := range parts {
		parts[i] = toSnake(part)
	}
	return strings.Join(parts, ".")
}

func toSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && name[i-1] != '[' {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func fieldForFormat(index int, field string) string {
	return fmt.Sprintf("formats[%d].%s", index, field)
}
