package format

import (
	"fmt"
	"runtime"
	"strings"
)

// LineEnding selects how the terminal pass of a Formatter writes line breaks.
type LineEnding string

const (
	// LineEndingPlatform uses the host's native separator.
	LineEndingPlatform LineEnding = "platform"
	// LineEndingUnix always writes "\n".
	LineEndingUnix LineEnding = "unix"
	// LineEndingWindows always writes "\r\n".
	LineEndingWindows LineEnding = "windows"
	// LineEndingPreserve keeps the first separator found in the original text.
	LineEndingPreserve LineEnding = "preserve"
)

// ParseLineEnding maps a configuration value onto a LineEnding. The empty
// string selects LineEndingPlatform.
func ParseLineEnding(value string) (LineEnding, error) {
	switch LineEnding(strings.ToLower(strings.TrimSpace(value))) {
	case "", LineEndingPlatform:
		return LineEndingPlatform, nil
	case LineEndingUnix:
		return LineEndingUnix, nil
	case LineEndingWindows:
		return LineEndingWindows, nil
	case LineEndingPreserve:
		return LineEndingPreserve, nil
	default:
		return "", fmt.Errorf("unknown line ending %q", value)
	}
}

// Separator returns the separator this policy writes for the given text.
func (le LineEnding) Separator(text string) string {
	switch le {
	case LineEndingUnix:
		return "\n"
	case LineEndingWindows:
		return "\r\n"
	case LineEndingPreserve:
		return detectSeparator(text)
	default:
		if runtime.GOOS == "windows" {
			return "\r\n"
		}
		return "\n"
	}
}

// ToUnix converts every "\r\n" and lone "\r" to "\n".
func ToUnix(text string) string {
	if !strings.ContainsRune(text, '\r') {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// Convert rewrites unix text to use sep.
func Convert(unix, sep string) string {
	if sep == "\n" || sep == "" {
		return unix
	}
	return strings.ReplaceAll(unix, "\n", sep)
}

// detectSeparator finds the first separator in text, defaulting to "\n".
func detectSeparator(text string) string {
	idx := strings.IndexAny(text, "\r\n")
	if idx < 0 {
		return "\n"
	}
	if text[idx] == '\n' {
		return "\n"
	}
	if idx+1 < len(text) && text[idx+1] == '\n' {
		return "\r\n"
	}
	return "\r"
}
