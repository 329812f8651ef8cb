package extractor

import (
	"context"
	"fmt"
	"io"
	"time"

	"FlowSpectra/internal/config"
	"FlowSpectra/internal/core/model"
	"FlowSpectra/internal/engine/assembler"
	"FlowSpectra/internal/engine/feature"
	"FlowSpectra/internal/engine/flow"
	"FlowSpectra/internal/metrics"
	"FlowSpectra/pkg/pcap"

	log "github.com/sirupsen/logrus"
)

// Extractor runs the reader, flow builder and assembler for one capture at a time.
// It holds no per-capture state and is safe for concurrent use.
type Extractor struct {
	threshold int
	seqLen    int
	policy    flow.DecodePolicy
	opts      assembler.Options
	metrics   *metrics.Metrics
}

// Sequences are the per-packet series used to compare captures side by side.
type Sequences struct {
	Source string    `json:"source"`
	Sizes  []int     `json:"sizes"`
	Times  []float64 `json:"times"`
	Speeds []float64 `json:"speeds"`
}

// New creates an extractor. m may be nil.
func New(cfg config.ExtractorConfig, m *metrics.Metrics) (*Extractor, error) {
	policy, err := flow.ParsePolicy(cfg.DecodePolicy)
	if err != nil {
		return nil, err
	}
	if cfg.Threshold <= 0 {
		return nil, flow.ErrInvalidThreshold
	}
	seqLen := cfg.SequenceLength
	if seqLen <= 0 {
		seqLen = cfg.Threshold
	}
	return &Extractor{
		threshold: cfg.Threshold,
		seqLen:    seqLen,
		policy:    policy,
		opts:      assembler.Options{Throughput: cfg.Throughput},
		metrics:   m,
	}, nil
}

// Columns returns the column names of the vectors this extractor produces.
func (e *Extractor) Columns() []string {
	return assembler.Columns(e.opts)
}

// Width returns the number of columns per vector.
func (e *Extractor) Width() int {
	return assembler.Width(e.opts)
}

// ExtractFile computes the feature vector of the capture at path. Failures
// are reported in the record's Err field.
func (e *Extractor) ExtractFile(ctx context.Context, path string) *model.FeatureRecord {
	rec := &model.FeatureRecord{Source: path}
	if err := ctx.Err(); err != nil {
		rec.Err = err
		return rec
	}

	reader, err := pcap.NewReader(path)
	if err != nil {
		rec.Err = err
		e.observeFailure()
		return rec
	}
	defer reader.Close()

	e.extract(rec, reader)
	return rec
}

// ExtractReader computes the feature vector of a capture read from r.
func (e *Extractor) ExtractReader(ctx context.Context, name string, r io.Reader) *model.FeatureRecord {
	rec := &model.FeatureRecord{Source: name}
	if err := ctx.Err(); err != nil {
		rec.Err = err
		return rec
	}

	reader, err := pcap.NewReaderFrom(r)
	if err != nil {
		rec.Err = err
		e.observeFailure()
		return rec
	}

	e.extract(rec, reader)
	return rec
}

// Sequences returns the size, time and speed series of the first
// sequence_length accepted frames of the capture read from r.
func (e *Extractor) Sequences(ctx context.Context, name string, r io.Reader) (*Sequences, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reader, err := pcap.NewReaderFrom(r)
	if err != nil {
		return nil, err
	}
	f, _, err := flow.Build(reader, e.seqLen, e.policy)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &Sequences{
		Source: name,
		Sizes:  feature.SizeSequence(f),
		Times:  feature.TimeSequence(f),
		Speeds: feature.SpeedSequence(f),
	}, nil
}

func (e *Extractor) extract(rec *model.FeatureRecord, src flow.FrameSource) {
	start := time.Now()

	f, stats, err := flow.Build(src, e.threshold, e.policy)
	rec.SkippedFrames = stats.SkippedTotal()
	e.observeSkipped(stats)
	if err != nil {
		rec.Err = fmt.Errorf("%s: %w", rec.Source, err)
		e.observeFailure()
		return
	}

	if rec.SkippedFrames > 0 {
		log.WithFields(log.Fields{
			"source":  rec.Source,
			"skipped": rec.SkippedFrames,
		}).Debug("Skipped frames that are not TCP over IP")
	}

	rec.FlowLen = f.Len()
	rec.Vector = assembler.Assemble(f, e.opts)

	if e.metrics != nil {
		e.metrics.Captures.WithLabelValues("ok").Inc()
		e.metrics.Frames.Add(float64(stats.Accepted))
		e.metrics.Duration.Observe(time.Since(start).Seconds())
	}
}

func (e *Extractor) observeSkipped(stats flow.Stats) {
	if e.metrics == nil {
		return
	}
	for reason, n := range stats.Skipped {
		e.metrics.SkippedFrames.WithLabelValues(string(reason)).Add(float64(n))
	}
}

func (e *Extractor) observeFailure() {
	if e.metrics != nil {
		e.metrics.Captures.WithLabelValues("failed").Inc()
	}
}
