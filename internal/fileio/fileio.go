// Package fileio reads formatter targets into text and writes formatted text
// back without disturbing the file's permissions.
package fileio

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	fmterrors "github.com/alexisbeaulieu97/fmtcell/pkg/errors"
)

// Target is a file loaded for formatting.
type Target struct {
	Path        string
	Encoding    string
	Permissions os.FileMode
	Content     string
}

// Read loads path and decodes it with the named encoding.
func Read(path, encodingName string) (*Target, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmterrors.NewFileError(path, "stat", err)
	}
	if info.IsDir() {
		return nil, fmterrors.NewFileError(path, "read", fmt.Errorf("is a directory"))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmterrors.NewFileError(path, "read", err)
	}

	decoded, err := Decode(data, encodingName)
	if err != nil {
		return nil, fmterrors.NewFileError(path, "decode", err)
	}

	return &Target{
		Path:        path,
		Encoding:    encodingName,
		Permissions: info.Mode().Perm(),
		Content:     decoded,
	}, nil
}

// Write encodes content and atomically replaces the target, keeping its
// original permission bits.
func (t *Target) Write(content string) error {
	data, err := Encode(content, t.Encoding)
	if err != nil {
		return fmterrors.NewFileError(t.Path, "encode", err)
	}
	if err := WriteFileAtomic(t.Path, data, t.Permissions); err != nil {
		return fmterrors.NewFileError(t.Path, "write", err)
	}
	t.Content = content
	return nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames it
// into place.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".fmtcell-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}

	return nil
}

// Decode converts raw bytes in the named encoding into a Go string.
func Decode(data []byte, name string) (string, error) {
	enc, err := Lookup(name)
	if err != nil {
		return "", err
	}
	if enc == nil {
		return string(data), nil
	}

	reader := transform.NewReader(bytes.NewReader(data), enc.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// Encode converts content into the named encoding.
func Encode(content, name string) ([]byte, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return []byte(content), nil
	}
	var buf bytes.Buffer
	writer := transform.NewWriter(&buf, enc.NewEncoder())
	if _, err := writer.Write([]byte(content)); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Lookup resolves an encoding name. UTF-8 (and the empty name) resolve to a
// nil encoding, meaning bytes are used as-is.
func Lookup(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "utf-16", "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// Supported reports whether Lookup accepts name.
func Supported(name string) bool {
	_, err := Lookup(name)
	return err == nil
}
