package output

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"FlowSpectra/internal/config"
	core "FlowSpectra/internal/core/model"
	"FlowSpectra/internal/factory"
	"FlowSpectra/internal/model"
)

func init() {
	factory.RegisterWriter("gob", func(def config.WriterDef, columns []string) (model.Writer, error) {
		return NewGobWriter(def.Gob.RootPath, columns)
	})
}

// Snapshot is the gob form of one feature record.
type Snapshot struct {
	RunID   string
	Source  string
	Vector  []float64
	FlowLen int
	Skipped int
}

// SummaryData holds the metadata for a gob run, written next to the stream.
type SummaryData struct {
	RunID     string   `json:"run_id"`
	Records   int      `json:"records"`
	Width     int      `json:"width"`
	Columns   []string `json:"columns"`
	Timestamp string   `json:"timestamp"`
}

// GobWriter streams snapshots into <root>/<timestamp>/features.gob.
type GobWriter struct {
	dir     string
	columns []string
	file    *os.File
	enc     *gob.Encoder
	runID   string
	records int
}

// NewGobWriter creates the timestamped run directory and the gob stream.
func NewGobWriter(rootPath string, columns []string) (*GobWriter, error) {
	if rootPath == "" {
		return nil, fmt.Errorf("gob writer requires a root_path")
	}
	dir := filepath.Join(rootPath, time.Now().Format("2006-01-02_15-04-05"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	filePath := filepath.Join(dir, "features.gob")
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot file '%s': %w", filePath, err)
	}
	return &GobWriter{dir: dir, columns: columns, file: file, enc: gob.NewEncoder(file)}, nil
}

// Dir returns the run directory.
func (w *GobWriter) Dir() string { return w.dir }

// Name returns the writer type.
func (w *GobWriter) Name() string { return "gob" }

// Write encodes one snapshot onto the stream.
func (w *GobWriter) Write(_ context.Context, rec *core.FeatureRecord) error {
	snap := Snapshot{
		RunID:   rec.RunID,
		Source:  rec.Source,
		Vector:  rec.Vector,
		FlowLen: rec.FlowLen,
		Skipped: rec.SkippedFrames,
	}
	if err := w.enc.Encode(&snap); err != nil {
		return fmt.Errorf("failed to encode %s to gob: %w", rec.Source, err)
	}
	if w.runID == "" {
		w.runID = rec.RunID
	}
	w.records++
	return nil
}

// Close closes the stream and writes summary.json.
func (w *GobWriter) Close() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close gob file: %w", err)
	}

	summary := SummaryData{
		RunID:     w.runID,
		Records:   w.records,
		Width:     len(w.columns),
		Columns:   w.columns,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	summaryFile, err := os.Create(filepath.Join(w.dir, "summary.json"))
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer summaryFile.Close()

	jsonEncoder := json.NewEncoder(summaryFile)
	jsonEncoder.SetIndent("", "  ")
	if err := jsonEncoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode summary to json: %w", err)
	}
	return nil
}

// ReadSnapshots decodes every snapshot of a features.gob stream.
func ReadSnapshots(path string) ([]Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snaps []Snapshot
	dec := gob.NewDecoder(file)
	for {
		var s Snapshot
		if err := dec.Decode(&s); err != nil {
			if errors.Is(err, io.EOF) {
				return snaps, nil
			}
			return nil, fmt.Errorf("failed to decode gob stream: %w", err)
		}
		snaps = append(snaps, s)
	}
}
