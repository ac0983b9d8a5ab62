package hir

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// DumpSchemaVersion is bumped whenever the dump layout changes incompatibly.
const DumpSchemaVersion uint16 = 1

var (
	// ErrUnknownFormat is returned for dump formats other than msgpack and JSON.
	ErrUnknownFormat = errors.New("unknown dump format")
	// ErrSchemaMismatch is returned when a dump was written by an incompatible producer.
	ErrSchemaMismatch = errors.New("dump schema mismatch")
)

// Format selects the dump encoding.
type Format uint8

const (
	FormatMsgpack Format = iota
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatMsgpack:
		return "msgpack"
	case FormatJSON:
		return "json"
	}
	return "unknown"
}

// ParseFormat accepts "msgpack"/"mp" and "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "msgpack", "mp":
		return FormatMsgpack, nil
	case "json":
		return FormatJSON, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatForPath guesses the format from the file extension; anything that
// is not .json is treated as msgpack.
func FormatForPath(path string) Format {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return FormatJSON
	}
	return FormatMsgpack
}

// dumpEnvelope is the on-disk layout of a dump.
type dumpEnvelope struct {
	Schema uint16 `json:"schema" msgpack:"schema"`
	Unit   *Unit  `json:"unit" msgpack:"unit"`
}

// Encode writes unit to w.
func Encode(w io.Writer, unit *Unit, format Format) error {
	env := dumpEnvelope{Schema: DumpSchemaVersion, Unit: unit}
	switch format {
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetOmitEmpty(true)
		return enc.Encode(&env)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(&env)
	}
	return fmt.Errorf("%w: %d", ErrUnknownFormat, format)
}

// Decode reads one unit from r.
func Decode(r io.Reader, format Format) (*Unit, error) {
	var env dumpEnvelope
	switch format {
	case FormatMsgpack:
		if err := msgpack.NewDecoder(r).Decode(&env); err != nil {
			return nil, fmt.Errorf("decode msgpack dump: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&env); err != nil {
			return nil, fmt.Errorf("decode json dump: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}
	if env.Schema != DumpSchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchemaMismatch, env.Schema, DumpSchemaVersion)
	}
	if env.Unit == nil {
		return nil, errors.New("dump has no unit")
	}
	return env.Unit, nil
}

// ReadFile loads a dump from disk and also returns its raw bytes, which
// callers use as a cache key.
func ReadFile(path string) (*Unit, []byte, error) {
	// #nosec G304 -- path is provided by the caller
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	unit, err := Decode(bytes.NewReader(raw), FormatForPath(path))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return unit, raw, nil
}

// WriteFile encodes unit into path, choosing the format by extension.
func WriteFile(path string, unit *Unit) error {
	var buf bytes.Buffer
	if err := Encode(&buf, unit, FormatForPath(path)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}
