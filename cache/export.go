package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"
)

// ExportVersion is written into every export.
const ExportVersion = "1.0"

// ExportFormat is the JSON document written by Exporter.
type ExportFormat struct {
	Version    string            `json:"version"`
	ExportedAt string            `json:"exported_at"`
	Entries    []ExportEntry     `json:"entries"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ExportEntry is one cached translation, keyed by its storage key
// ("<text>_<lang>").
type ExportEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// EntrySource supplies the entries to export. *kisan.Translator satisfies it.
type EntrySource interface {
	Entries() map[string]string
}

// EntrySink receives imported entries. *kisan.Translator satisfies it.
type EntrySink interface {
	Set(key, value string) error
}

// Exporter writes cache contents as JSON.
type Exporter struct {
	source EntrySource
	now    func() time.Time
}

// NewExporter creates a new cache exporter.
func NewExporter(source EntrySource) *Exporter {
	return &Exporter{source: source, now: time.Now}
}

// Export writes the entries, sorted by key, to w.
func (e *Exporter) Export(w io.Writer, metadata map[string]string) error {
	data := e.source.Entries()
	entries := make([]ExportEntry, 0, len(data))
	for key, value := range data {
		entries = append(entries, ExportEntry{Key: key, Value: value})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	export := ExportFormat{
		Version:    ExportVersion,
		ExportedAt: e.now().UTC().Format(time.RFC3339),
		Entries:    entries,
		Metadata:   metadata,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// ExportToFile exports the cache to a file.
func (e *Exporter) ExportToFile(path string, metadata map[string]string) error {
	f, err := os.Create(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}

	if err := e.Export(f, metadata); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ImportResult contains statistics about an import.
type ImportResult struct {
	Version  string
	Metadata map[string]string
	Imported int
	Failed   int
}

// Importer loads an export into an EntrySink.
type Importer struct {
	sink EntrySink
}

// NewImporter creates a new cache importer.
func NewImporter(sink EntrySink) *Importer {
	return &Importer{sink: sink}
}

// Import reads an export from r. Entries the sink rejects are counted as
// failed and skipped.
func (i *Importer) Import(r io.Reader) (*ImportResult, error) {
	var export ExportFormat
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}
	if export.Version != ExportVersion {
		return nil, fmt.Errorf("unsupported export version %q", export.Version)
	}

	result := &ImportResult{
		Version:  export.Version,
		Metadata: export.Metadata,
	}

	for _, entry := range export.Entries {
		if err := i.sink.Set(entry.Key, entry.Value); err != nil {
			result.Failed++
			continue
		}
		result.Imported++
	}

	return result, nil
}

// ImportFromFile imports cache entries from a file.
func (i *Importer) ImportFromFile(path string) (*ImportResult, error) {
	f, err := os.Open(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return i.Import(f)
}
