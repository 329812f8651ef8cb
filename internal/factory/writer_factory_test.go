package factory

import (
	"context"
	"errors"
	"testing"

	"FlowSpectra/internal/config"
	core "FlowSpectra/internal/core/model"
	"FlowSpectra/internal/model"
)

type stubWriter struct {
	name   string
	closed bool
}

func (s *stubWriter) Write(context.Context, *core.FeatureRecord) error { return nil }
func (s *stubWriter) Close() error                                     { s.closed = true; return nil }
func (s *stubWriter) Name() string                                     { return s.name }

func TestCreate(t *testing.T) {
	var made []*stubWriter
	RegisterWriter("stub-ok", func(def config.WriterDef, columns []string) (model.Writer, error) {
		w := &stubWriter{name: def.Type}
		made = append(made, w)
		return w, nil
	})
	RegisterWriter("stub-fail", func(config.WriterDef, []string) (model.Writer, error) {
		return nil, errors.New("no backend")
	})

	cfg := &config.Config{Writers: []config.WriterDef{
		{Type: "stub-ok", Enabled: true},
		{Type: "stub-ok", Enabled: false},
	}}
	writers, err := Create(cfg, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(writers) != 1 {
		t.Fatalf("Expected disabled writers to be skipped, got %d writers", len(writers))
	}

	cfg.Writers = append(cfg.Writers, config.WriterDef{Type: "stub-fail", Enabled: true})
	if _, err := Create(cfg, nil); err == nil {
		t.Fatalf("Expected factory error")
	}
	if !made[len(made)-1].closed {
		t.Errorf("Expected already created writers to be closed on error")
	}

	cfg.Writers = []config.WriterDef{{Type: "nope", Enabled: true}}
	if _, err := Create(cfg, nil); err == nil {
		t.Errorf("Expected unknown type error")
	}
}

func TestRegisterWriter_Duplicate(t *testing.T) {
	RegisterWriter("stub-dup", func(config.WriterDef, []string) (model.Writer, error) { return nil, nil })
	defer func() {
		if recover() == nil {
			t.Errorf("Expected panic on duplicate registration")
		}
	}()
	RegisterWriter("stub-dup", func(config.WriterDef, []string) (model.Writer, error) { return nil, nil })
}
