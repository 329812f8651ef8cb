package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"FlowSpectra/internal/config"
	"FlowSpectra/internal/engine/extractor"
	"FlowSpectra/internal/engine/manager"
	"FlowSpectra/internal/factory"
	"FlowSpectra/internal/logging"
	"FlowSpectra/internal/metrics"
	"FlowSpectra/internal/output"
	"FlowSpectra/internal/report"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// loadConfig reads the configuration named by --config. A missing default
// file falls back to the built-in defaults.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		if !c.IsSet("config") && errors.Is(err, fs.ErrNotExist) {
			cfg = config.Default()
		} else {
			return nil, err
		}
	}

	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("threshold") {
		cfg.Extractor.Threshold = c.Int("threshold")
	}
	if c.IsSet("throughput") {
		cfg.Extractor.Throughput = c.Bool("throughput")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logging.Setup(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newExtractor(c *cli.Context) (*extractor.Extractor, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return extractor.New(cfg.Extractor, nil)
}

func batchAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("workers") {
		cfg.Batch.NumWorkers = c.Int("workers")
	}
	if out := c.String("output"); out != "" {
		cfg.Writers = []config.WriterDef{{
			Type:    "csv",
			Enabled: true,
			CSV:     config.CSVConfig{Path: out, Label: c.String("label")},
		}}
	}

	inputs := append(c.StringSlice("input"), c.Args().Slice()...)
	if len(inputs) == 0 {
		return cli.Exit("batch needs at least one --input", 2)
	}
	var paths []string
	for _, in := range inputs {
		found, err := manager.Discover(in, cfg.Batch.Extensions)
		if err != nil {
			return fmt.Errorf("failed to discover captures in %s: %w", in, err)
		}
		paths = append(paths, found...)
	}
	log.Printf("Discovered %d captures.", len(paths))

	ex, err := extractor.New(cfg.Extractor, nil)
	if err != nil {
		return err
	}
	writers, err := factory.Create(cfg, ex.Columns())
	if err != nil {
		return err
	}
	var opts []manager.Option
	metricsFile := c.String("metrics-file")
	var m *metrics.Metrics
	if metricsFile != "" {
		m = metrics.New()
		opts = append(opts, manager.WithMetrics(m))
	}
	mgr, err := manager.NewManager(cfg, writers, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, runErr := mgr.Run(ctx, paths)
	if err := mgr.Close(); err != nil {
		log.Printf("Error closing writers: %v", err)
	}
	if m != nil {
		if err := m.WriteTextfile(metricsFile); err != nil {
			log.Printf("Failed to write metrics to %s: %v", metricsFile, err)
		}
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return err
	}
	return runErr
}

func inspectAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("inspect needs exactly one FILE", 2)
	}
	ex, err := newExtractor(c)
	if err != nil {
		return err
	}

	rec := ex.ExtractFile(c.Context, c.Args().First())
	if rec.Failed() {
		return rec.Err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "source\t%s\n", rec.Source)
	fmt.Fprintf(tw, "packets\t%d\n", rec.FlowLen)
	fmt.Fprintf(tw, "skipped\t%d\n", rec.SkippedFrames)
	for i, name := range ex.Columns() {
		fmt.Fprintf(tw, "%s\t%s\n", name, output.FormatValue(rec.Vector[i]))
	}
	return tw.Flush()
}

func schemaAction(c *cli.Context) error {
	ex, err := newExtractor(c)
	if err != nil {
		return err
	}
	for i, name := range ex.Columns() {
		fmt.Fprintf(c.App.Writer, "%d\t%s\n", i, name)
	}
	return nil
}

func sequenceAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("sequence needs at least one FILE", 2)
	}
	ex, err := newExtractor(c)
	if err != nil {
		return err
	}

	var seqs []*extractor.Sequences
	for _, path := range c.Args().Slice() {
		seq, err := readSequences(c.Context, ex, path)
		if err != nil {
			return err
		}
		seqs = append(seqs, seq)
	}

	if c.String("compare") == "" {
		if c.IsSet("plot") {
			return cli.Exit("--plot needs --compare", 2)
		}
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(seqs)
	}

	kind, err := report.ParseKind(c.String("compare"))
	if err != nil {
		return err
	}
	if out := c.String("plot"); out != "" {
		if err := report.Plot(out, kind, seqs); err != nil {
			return err
		}
		log.Printf("Saved %s comparison of %d captures to %s", kind, len(seqs), out)
	}
	return report.Table(c.App.Writer, kind, seqs)
}

func readSequences(ctx context.Context, ex *extractor.Extractor, path string) (*extractor.Sequences, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ex.Sequences(ctx, path, f)
}
