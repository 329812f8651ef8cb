package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"FlowSpectra/internal/config"
	core "FlowSpectra/internal/core/model"
	"FlowSpectra/internal/factory"
	"FlowSpectra/internal/model"
)

func init() {
	factory.RegisterWriter("csv", func(def config.WriterDef, _ []string) (model.Writer, error) {
		return NewCSVWriter(def.CSV)
	})
}

// CSVWriter appends one headerless row per capture, the layout the training
// scripts read with header=None.
type CSVWriter struct {
	file  io.Closer
	w     *csv.Writer
	label string
}

// NewCSVWriter opens (or creates) the feature file.
func NewCSVWriter(cfg config.CSVConfig) (*CSVWriter, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("csv writer requires a path")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create csv directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if cfg.Append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(cfg.Path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file '%s': %w", cfg.Path, err)
	}
	return newCSVWriter(file, file, cfg.Label), nil
}

func newCSVWriter(w io.Writer, c io.Closer, label string) *CSVWriter {
	return &CSVWriter{file: c, w: csv.NewWriter(w), label: label}
}

// Name returns the writer type.
func (c *CSVWriter) Name() string { return "csv" }

// Write appends the record's vector as one row and flushes it.
func (c *CSVWriter) Write(_ context.Context, rec *core.FeatureRecord) error {
	row := make([]string, 0, len(rec.Vector)+1)
	for _, v := range rec.Vector {
		row = append(row, FormatValue(v))
	}
	if c.label != "" {
		row = append(row, c.label)
	}
	if err := c.w.Write(row); err != nil {
		return fmt.Errorf("failed to write csv row for %s: %w", rec.Source, err)
	}
	c.w.Flush()
	return c.w.Error()
}

// Close flushes and closes the file.
func (c *CSVWriter) Close() error {
	c.w.Flush()
	err := c.w.Error()
	if c.file != nil {
		if cerr := c.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
