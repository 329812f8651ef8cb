package manager

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"FlowSpectra/internal/config"
	core "FlowSpectra/internal/core/model"
	"FlowSpectra/internal/engine/extractor"
	"FlowSpectra/internal/metrics"
	"FlowSpectra/internal/model"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Failure names a capture that produced no vector.
type Failure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// Summary describes one batch run.
type Summary struct {
	RunID         string        `json:"run_id"`
	Total         int           `json:"total"`
	Succeeded     int           `json:"succeeded"`
	Failed        int           `json:"failed"`
	SkippedFrames int           `json:"skipped_frames"`
	Duration      time.Duration `json:"duration"`
	Failures      []Failure     `json:"failures,omitempty"`
}

// Option customizes a Manager.
type Option func(*Manager)

// WithMetrics records extraction metrics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

// Manager runs the extractor over a batch of captures with a worker pool and
// hands the records to its writers in input order.
type Manager struct {
	extractor  *extractor.Extractor
	writers    []model.Writer
	numWorkers int
	metrics    *metrics.Metrics
}

type job struct {
	index int
	path  string
}

type result struct {
	index int
	rec   *core.FeatureRecord
}

// NewManager creates a new Manager.
func NewManager(cfg *config.Config, writers []model.Writer, opts ...Option) (*Manager, error) {
	m := &Manager{
		writers:    writers,
		numWorkers: cfg.Batch.NumWorkers,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.numWorkers <= 0 {
		m.numWorkers = 1
	}

	ex, err := extractor.New(cfg.Extractor, m.metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}
	m.extractor = ex
	return m, nil
}

// Run extracts every path and writes the records. A capture that fails is
// logged and counted; it never stops the batch. Writer errors and context
// cancellation are returned once the dispatched captures are drained.
func (m *Manager) Run(ctx context.Context, paths []string) (Summary, error) {
	summary := Summary{RunID: uuid.New().String()}
	start := time.Now()

	jobs := make(chan job)
	results := make(chan result, m.numWorkers)

	var workerWg sync.WaitGroup
	workerWg.Add(m.numWorkers)
	for i := 0; i < m.numWorkers; i++ {
		go m.worker(ctx, summary.RunID, jobs, results, &workerWg)
	}
	log.Printf("Batch %s started with %d workers for %d captures.", summary.RunID, m.numWorkers, len(paths))

	go func() {
		defer close(jobs)
		for i, p := range paths {
			select {
			case jobs <- job{index: i, path: p}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		workerWg.Wait()
		close(results)
	}()

	var writeErrs []error
	pending := make(map[int]*core.FeatureRecord)
	next := 0
	for res := range results {
		pending[res.index] = res.rec
		for {
			rec, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			writeErrs = append(writeErrs, m.emit(ctx, rec, &summary)...)
		}
	}

	summary.Duration = time.Since(start)
	log.Printf("Batch %s finished: %d ok, %d failed, %d frames skipped in %s.",
		summary.RunID, summary.Succeeded, summary.Failed, summary.SkippedFrames, summary.Duration)

	if err := ctx.Err(); err != nil {
		writeErrs = append(writeErrs, fmt.Errorf("batch interrupted after %d of %d captures: %w", summary.Total, len(paths), err))
	}
	return summary, errors.Join(writeErrs...)
}

func (m *Manager) worker(ctx context.Context, runID string, jobs <-chan job, results chan<- result, wg *sync.WaitGroup) {
	defer wg.Done()
	for j := range jobs {
		rec := m.extractor.ExtractFile(ctx, j.path)
		rec.RunID = runID
		results <- result{index: j.index, rec: rec}
	}
}

func (m *Manager) emit(ctx context.Context, rec *core.FeatureRecord, summary *Summary) []error {
	summary.Total++
	summary.SkippedFrames += rec.SkippedFrames
	if rec.Failed() {
		summary.Failed++
		summary.Failures = append(summary.Failures, Failure{Source: rec.Source, Error: rec.Err.Error()})
		log.Printf("Error extracting features from %s: %v", rec.Source, rec.Err)
		return nil
	}
	summary.Succeeded++

	var errs []error
	for _, w := range m.writers {
		if err := w.Write(ctx, rec); err != nil {
			log.Printf("Error writing %s to %s: %v", rec.Source, w.Name(), err)
			errs = append(errs, fmt.Errorf("%s writer: %w", w.Name(), err))
		}
	}
	return errs
}

// Close closes every writer.
func (m *Manager) Close() error {
	var errs []error
	for _, w := range m.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s writer: %w", w.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Discover returns the capture files under root whose extension is in exts,
// sorted by path. A root that is itself a file is returned as is.
func Discover(root string, exts []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		want[strings.ToLower(e)] = true
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if want[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}
