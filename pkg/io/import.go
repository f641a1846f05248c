package io

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/netdraw/pkg/diagram"
	"github.com/matzehuels/netdraw/pkg/errors"
)

// MaxImportSize bounds how many bytes an import reads.
const MaxImportSize = 32 << 20

// Result is a decoded, validated import.
type Result struct {
	Document *diagram.Document
	Format   Format
	// Warnings lists lossy conversions: newer minor versions, draw.io cells
	// with no network meaning, dropped edges.
	Warnings []string
}

// Read decodes a document from r, sniffing JSON or draw.io XML, and
// validates it.
//
// Read returns an error if:
//   - The input is empty, larger than [MaxImportSize], or not parseable
//     (MALFORMED_IMPORT)
//   - The document version has an unsupported major version
//     (UNSUPPORTED_VERSION)
//   - The document breaks the schema (INVALID_DOCUMENT, with every issue)
//
// Read does not close r.
func Read(r io.Reader) (*Result, error) {
	data, err := readLimited(r)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode is [Read] on bytes already in memory.
func Decode(data []byte) (*Result, error) {
	if len(data) > MaxImportSize {
		return nil, errors.New(errors.ErrCodeMalformedImport, "file exceeds %d MiB", MaxImportSize>>20)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New(errors.ErrCodeMalformedImport, "file is empty")
	}
	if looksLikeXML(data) {
		return decodeXML(data)
	}
	return decodeJSON(data)
}

// Import reads the file at path and returns the decoded document.
//
// The file extension must be one of .drawio, .xml or .json; other files are
// rejected before they are opened. The error wraps the underlying cause with
// the file path for context.
func Import(path string) (*Result, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// ReadFile returns the raw bytes of an importable file after the same path
// and size checks as [Import]. Callers that cache by content hash use it.
func ReadFile(path string) ([]byte, error) {
	if err := errors.ValidateImportPath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readLimited(f)
}

// Inspect parses r as an arbitrary JSON value without applying any schema.
// It mirrors the first editor release: the parsed value is only meant for
// a developer log. A parse failure is returned as MALFORMED_IMPORT so the
// caller can log it.
func Inspect(r io.Reader) (any, error) {
	data, err := readLimited(r)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, malformed(data, err)
	}
	return v, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImportSize+1))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if len(data) > MaxImportSize {
		return nil, errors.New(errors.ErrCodeMalformedImport, "file exceeds %d MiB", MaxImportSize>>20)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New(errors.ErrCodeMalformedImport, "file is empty")
	}
	return data, nil
}

func looksLikeXML(data []byte) bool {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '<'
}

func decodeJSON(data []byte) (*Result, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	// Reject non-objects up front so "[]" or "42" report a clear reason.
	var top any
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, malformed(data, err)
	}
	if _, ok := top.(map[string]any); !ok {
		return nil, errors.New(errors.ErrCodeInvalidDocument, "document must be a JSON object, got %s", jsonKind(top))
	}

	var d diagram.Document
	if err := json.Unmarshal(data, &d); err != nil {
		var te *json.UnmarshalTypeError
		if stderrors.As(err, &te) {
			ve := &errors.ValidationError{}
			ve.Add(te.Field, "must be %s, got %s", te.Type, te.Value)
			return nil, errors.Wrap(errors.ErrCodeInvalidDocument, ve, "document failed validation")
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode document")
	}

	res := &Result{Document: &d, Format: FormatJSON}
	if d.Version != "" {
		newer, err := diagram.CheckVersion(d.Version)
		if err != nil {
			return nil, err
		}
		if newer {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"document version %s is newer than %s; unknown fields were ignored", d.Version, diagram.CurrentVersion))
			d.Version = diagram.CurrentVersion
		}
	}
	if err := diagram.Validate(&d); err != nil {
		return nil, err
	}
	return res, nil
}

// malformed converts a JSON syntax error into MALFORMED_IMPORT with a
// line:column position.
func malformed(data []byte, err error) error {
	var se *json.SyntaxError
	if stderrors.As(err, &se) {
		line, col := position(data, se.Offset)
		return errors.Wrap(errors.ErrCodeMalformedImport, err, "file is not valid JSON (line %d, column %d)", line, col)
	}
	if stderrors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Wrap(errors.ErrCodeMalformedImport, err, "file is not valid JSON (unexpected end of input)")
	}
	return errors.Wrap(errors.ErrCodeMalformedImport, err, "file is not valid JSON")
}

func position(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col = 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

func jsonKind(v any) string {
	switch v.(type) {
	case []any:
		return "an array"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	}
	return "an object"
}
