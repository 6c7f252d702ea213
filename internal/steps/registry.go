// Package steps provides the built-in formatter steps and the registry that
// turns a configured step type plus its options into a format.Step.
package steps

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/alexisbeaulieu97/fmtcell/internal/format"
	fmterrors "github.com/alexisbeaulieu97/fmtcell/pkg/errors"
)

// Factory builds a step from raw configuration options.
type Factory func(options map[string]any) (format.Step, error)

// Definition describes a registered step type.
type Definition struct {
	Type        string
	Description string
	// Options is the zero value of the step's options struct, used to list the
	// accepted keys.
	Options any
	Build   Factory
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Definition)

	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// Register adds a step type. Registering the same type twice is an error.
func Register(def Definition) error {
	if strings.TrimSpace(def.Type) == "" {
		return fmt.Errorf("step definition requires a type")
	}
	if def.Build == nil {
		return fmt.Errorf("step %q has no factory", def.Type)
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Type]; exists {
		return fmt.Errorf("step %q already registered", def.Type)
	}
	registry[def.Type] = def
	return nil
}

// Lookup returns the definition registered for stepType.
func Lookup(stepType string) (Definition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[stepType]
	return def, ok
}

// Build constructs a step of the given type from its options.
func Build(stepType string, options map[string]any) (format.Step, error) {
	def, ok := Lookup(stepType)
	if !ok {
		return nil, fmterrors.NewValidationError("type", fmt.Sprintf("unknown step type %q", stepType), nil)
	}
	return def.Build(options)
}

// Definitions lists every registered step type sorted by name.
func Definitions() []Definition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	defs := make([]Definition, 0, len(registry))
	for _, def := range registry {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Type < defs[j].Type })
	return defs
}

// Types lists the registered step type names sorted alphabetically.
func Types() []string {
	defs := Definitions()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Type
	}
	return names
}

// OptionKeys lists the option keys a definition accepts, in declaration
// order. Required keys are suffixed with "*".
func (d Definition) OptionKeys() []string {
	t := reflect.TypeOf(d.Options)
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := strings.Split(field.Tag.Get("mapstructure"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		for _, rule := range strings.Split(field.Tag.Get("validate"), ",") {
			if rule == "required" {
				name += "*"
				break
			}
		}
		keys = append(keys, name)
	}
	return keys
}

func mustRegister(def Definition) {
	if err := Register(def); err != nil {
		panic(err)
	}
}

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		validateInst = validator.New()
	})
	return validateInst
}

// decodeOptions fills out from raw using the struct's `mapstructure` tags,
// rejects unknown keys and runs the struct's `validate` tags.
func decodeOptions(stepType string, raw map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmterrors.NewValidationError(stepType+".options", err.Error(), err)
	}

	if err := validatorInstance().Struct(out); err != nil {
		if ves, ok := err.(validator.ValidationErrors); ok && len(ves) > 0 {
			ve := ves[0]
			field := stepType + ".options." + strings.ToLower(ve.Field())
			return fmterrors.NewValidationError(field, fmt.Sprintf("failed validation for tag '%s'", ve.Tag()), err)
		}
		return fmterrors.NewValidationError(stepType+".options", err.Error(), err)
	}
	return nil
}

// identity encodes a step type and its decoded options deterministically.
func identity(stepType string, opts any) string {
	encoded, err := json.Marshal(opts)
	if err != nil {
		return fmt.Sprintf("%s%+v", stepType, opts)
	}
	return stepType + string(encoded)
}
