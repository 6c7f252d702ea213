package steps

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alexisbeaulieu97/fmtcell/internal/format"
	fmterrors "github.com/alexisbeaulieu97/fmtcell/pkg/errors"
)

func init() {
	mustRegister(Definition{
		Type:        "license_header",
		Description: "Replaces everything before the first delimiter match with a license header.",
		Options:     LicenseHeaderOptions{},
		Build:       buildLicenseHeader,
	})
}

// LicenseHeaderOptions configures the license_header step.
type LicenseHeaderOptions struct {
	Header    string `mapstructure:"header" json:"header" validate:"required"`
	Delimiter string `mapstructure:"delimiter" json:"delimiter" validate:"required"`
}

func buildLicenseHeader(raw map[string]any) (format.Step, error) {
	var opts LicenseHeaderOptions
	if err := decodeOptions("license_header", raw, &opts); err != nil {
		return nil, err
	}

	delimiter, err := regexp.Compile("(?m)" + opts.Delimiter)
	if err != nil {
		return nil, fmterrors.NewValidationError("license_header.options.delimiter", fmt.Sprintf("invalid pattern: %v", err), err)
	}

	header := opts.Header
	if !strings.HasSuffix(header, "\n") {
		header += "\n"
	}

	return format.NewStep("license_header", identity("license_header", opts), func(text string) (string, error) {
		if strings.HasPrefix(text, header) {
			return text, nil
		}
		loc := delimiter.FindStringIndex(text)
		if loc == nil {
			return "", fmt.Errorf("unable to find delimiter %q", opts.Delimiter)
		}
		return header + text[loc[0]:], nil
	}), nil
}
