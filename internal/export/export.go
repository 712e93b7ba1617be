// Package export writes event-log snapshots to disk in the two supported
// formats. NDJSON carries only the currently-open incidents, one object per
// line; JSON carries a pretty-printed array of whatever scope was requested.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"nathanbeddoewebdev/dcsim/internal/eventlog"
)

// Format selects the output encoding.
type Format string

const (
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
)

// ParseFormat validates a user-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatNDJSON:
		return FormatNDJSON, nil
	}
	return "", fmt.Errorf("export: unknown format %q (want json or ndjson)", s)
}

// NDJSON writes one JSON object per entry, each line newline-terminated.
func NDJSON(w io.Writer, entries []eventlog.Entry) error {
	for _, e := range entries {
		line, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("export: marshalling entry %s: %w", e.ID, err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	return nil
}

// JSON writes a pretty-printed array sorted ascending by timestamp. Entries
// with equal timestamps keep their log order.
func JSON(w io.Writer, entries []eventlog.Entry) error {
	sorted := make([]eventlog.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sorted); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// Filename builds the canonical export name for a scope and format, with
// the timestamp's ':' and '.' characters replaced so it is safe on every
// filesystem.
func Filename(scope eventlog.Scope, format Format, now time.Time) string {
	stamp := now.UTC().Format(time.RFC3339)
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return fmt.Sprintf("dc-eventlog-%s-%s.%s", scope, stamp, format)
}

// File writes an export into dir and returns the full path. NDJSON exports
// receive only currently-open incidents regardless of scope, so callers
// pass open and scoped slices separately.
func File(dir string, scope eventlog.Scope, format Format, now time.Time, scoped, open []eventlog.Entry) (string, error) {
	path := filepath.Join(dir, Filename(scope, format, now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("export: creating %s: %w", path, err)
	}
	defer f.Close()

	switch format {
	case FormatNDJSON:
		err = NDJSON(f, open)
	default:
		err = JSON(f, scoped)
	}
	if err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("export: closing %s: %w", path, err)
	}
	return path, nil
}
