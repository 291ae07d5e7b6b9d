// Package ledger aggregates per-document outcomes of a run and persists them.
package ledger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"

	"github.com/usestring/verdicts/pkg/types"
)

// Run output layout, relative to the output directory.
const (
	MetadataFile = "metadata.json"
	LogFile      = "download_log.txt"
	DocumentsDir = "documents"
)

// Build aggregates docs into run metadata. Only "success" and "failed"
// statuses are counted; skipped records never reach the ledger.
func Build(runID string, criteria types.SearchCriteria, docs []types.Document, now time.Time) types.RunMetadata {
	meta := types.RunMetadata{
		RunID:             runID,
		StartDate:         criteria.From.Format(types.DateLayout),
		EndDate:           criteria.To.Format(types.DateLayout),
		DownloadTimestamp: now,
		TotalDocuments:    len(docs),
		Documents:         make([]types.Document, len(docs)),
	}
	copy(meta.Documents, docs)

	for _, d := range docs {
		switch d.DownloadStatus {
		case types.StatusSuccess:
			meta.SuccessfulDownloads++
		case types.StatusFailed:
			meta.FailedDownloads++
		}
	}
	return meta
}

// Write persists meta as metadata.json and download_log.txt under dir.
// Both files are replaced atomically; existing files are overwritten.
func Write(dir string, meta types.RunMetadata) error {
	if meta.SuccessfulDownloads+meta.FailedDownloads != meta.TotalDocuments {
		return fmt.Errorf("ledger counts do not add up: %d successful + %d failed != %d total",
			meta.SuccessfulDownloads, meta.FailedDownloads, meta.TotalDocuments)
	}

	metadata, err := encodeMetadata(meta)
	if err != nil {
		return err
	}
	if err := writeAtomic(filepath.Join(dir, MetadataFile), metadata); err != nil {
		return fmt.Errorf("writing %s: %w", MetadataFile, err)
	}

	if err := writeAtomic(filepath.Join(dir, LogFile), encodeLog(meta.Documents)); err != nil {
		return fmt.Errorf("writing %s: %w", LogFile, err)
	}
	return nil
}

// Read loads a previously written metadata.json.
func Read(dir string) (*types.RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, err
	}
	var meta types.RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", MetadataFile, err)
	}
	return &meta, nil
}

// encodeMetadata renders meta as indented UTF-8 JSON without HTML escaping.
func encodeMetadata(meta types.RunMetadata) ([]byte, error) {
	if meta.Documents == nil {
		meta.Documents = []types.Document{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeLog renders one "<filename> - <status>" line per document.
func encodeLog(docs []types.Document) []byte {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	for _, d := range docs {
		fmt.Fprintf(w, "%s - %s\n", d.Filename, d.DownloadStatus)
	}
	w.Flush()
	return buf.Bytes()
}

func writeAtomic(path string, data []byte) error {
	return renameio.WriteFile(path, data, 0o644)
}
