package steps

import (
	"bytes"
	"encoding/json"
	"errors"
	"go/format"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	fmtformat "github.com/alexisbeaulieu97/fmtcell/internal/format"
)

func init() {
	mustRegister(Definition{
		Type:        "json",
		Description: "Re-indents a JSON document, keeping key order.",
		Options:     JSONOptions{},
		Build:       buildJSON,
	})
	mustRegister(Definition{
		Type:        "yaml",
		Description: "Re-encodes every YAML document in the file, keeping comments.",
		Options:     YAMLOptions{},
		Build:       buildYAML,
	})
	mustRegister(Definition{
		Type:        "toml",
		Description: "Re-encodes a TOML document with sorted keys.",
		Options:     TOMLOptions{},
		Build:       buildTOML,
	})
	mustRegister(Definition{
		Type:        "gofmt",
		Description: "Formats Go source the way gofmt does.",
		Options:     struct{}{},
		Build:       buildGofmt,
	})
}

// JSONOptions configures the json step.
type JSONOptions struct {
	Indent int `mapstructure:"indent" json:"indent" validate:"min=0,max=16"`
}

func buildJSON(raw map[string]any) (fmtformat.Step, error) {
	opts := JSONOptions{Indent: 4}
	if err := decodeOptions("json", raw, &opts); err != nil {
		return nil, err
	}
	indent := strings.Repeat(" ", opts.Indent)

	return fmtformat.NewStep("json", identity("json", opts), func(text string) (string, error) {
		if strings.TrimSpace(text) == "" {
			return text, nil
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, []byte(text)); err != nil {
			return "", err
		}
		if opts.Indent == 0 {
			return compact.String() + "\n", nil
		}
		var out bytes.Buffer
		if err := json.Indent(&out, compact.Bytes(), "", indent); err != nil {
			return "", err
		}
		out.WriteByte('\n')
		return out.String(), nil
	}), nil
}

// YAMLOptions configures the yaml step.
type YAMLOptions struct {
	Indent int `mapstructure:"indent" json:"indent" validate:"min=2,max=16"`
}

func buildYAML(raw map[string]any) (fmtformat.Step, error) {
	opts := YAMLOptions{Indent: 2}
	if err := decodeOptions("yaml", raw, &opts); err != nil {
		return nil, err
	}

	return fmtformat.NewStep("yaml", identity("yaml", opts), func(text string) (string, error) {
		if strings.TrimSpace(text) == "" {
			return text, nil
		}
		decoder := yaml.NewDecoder(strings.NewReader(text))
		var out bytes.Buffer
		encoder := yaml.NewEncoder(&out)
		encoder.SetIndent(opts.Indent)
		for {
			var doc yaml.Node
			err := decoder.Decode(&doc)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return "", err
			}
			if err := encoder.Encode(&doc); err != nil {
				return "", err
			}
		}
		if err := encoder.Close(); err != nil {
			return "", err
		}
		return out.String(), nil
	}), nil
}

// TOMLOptions configures the toml step.
type TOMLOptions struct {
	Indent int `mapstructure:"indent" json:"indent" validate:"min=0,max=16"`
}

func buildTOML(raw map[string]any) (fmtformat.Step, error) {
	opts := TOMLOptions{Indent: 2}
	if err := decodeOptions("toml", raw, &opts); err != nil {
		return nil, err
	}

	return fmtformat.NewStep("toml", identity("toml", opts), func(text string) (string, error) {
		var doc map[string]any
		if _, err := toml.Decode(text, &doc); err != nil {
			return "", err
		}

		var out bytes.Buffer
		encoder := toml.NewEncoder(&out)
		encoder.Indent = strings.Repeat(" ", opts.Indent)
		if err := encoder.Encode(doc); err != nil {
			return "", err
		}
		return out.String(), nil
	}), nil
}

func buildGofmt(raw map[string]any) (fmtformat.Step, error) {
	var opts struct{}
	if err := decodeOptions("gofmt", raw, &opts); err != nil {
		return nil, err
	}
	return fmtformat.NewStep("gofmt", "", func(text string) (string, error) {
		out, err := format.Source([]byte(text))
		if err != nil {
			return "", err
		}
		return string(out), nil
	}), nil
}
