package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/netdraw/pkg/diagram"
	"github.com/matzehuels/netdraw/pkg/errors"
)

// ExportFilename is the file name offered when exporting a diagram.
const ExportFilename = "network-diagram.drawio"

// Format is a document encoding.
type Format string

// Supported encodings.
const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// ParseFormat parses an encoding name; the empty string means [FormatJSON].
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatJSON, "drawio":
		return FormatJSON, nil
	case FormatXML:
		return FormatXML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "invalid format: %s (must be 'json' or 'xml')", s)
}

// FormatForPath picks an encoding from a file extension: ".xml" selects
// XML, everything else JSON.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xml") {
		return FormatXML
	}
	return FormatJSON
}

// WriteJSON encodes d as JSON with two-space indentation and writes it to w.
// The output can be re-imported with [Read].
func WriteJSON(d *diagram.Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Write encodes d in the given format.
func Write(d *diagram.Document, w io.Writer, f Format) error {
	switch f {
	case FormatXML:
		return WriteXML(d, w)
	case FormatJSON, "":
		return WriteJSON(d, w)
	}
	return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %s", f)
}

// WriteDefault writes the document an empty editor exports.
// A fresh document is built on every call.
func WriteDefault(w io.Writer) error {
	return WriteJSON(diagram.NewDocument(), w)
}

// Export writes d to a file at path in the given format.
// This is a convenience wrapper around [Write] for file-based output.
func Export(d *diagram.Document, path string, f Format) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(d, file, f); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
