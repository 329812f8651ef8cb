package output

import (
	"context"
	"fmt"

	"FlowSpectra/internal/config"
	core "FlowSpectra/internal/core/model"
	"FlowSpectra/internal/factory"
	"FlowSpectra/internal/model"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
	"google.golang.org/protobuf/proto"
)

func init() {
	factory.RegisterWriter("nats", func(def config.WriterDef, columns []string) (model.Writer, error) {
		return NewNATSWriter(def.NATS, columns)
	})
}

// natsConn is the part of *nats.Conn the writer uses.
type natsConn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSWriter publishes each record as a protobuf Struct on a subject.
type NATSWriter struct {
	nc      natsConn
	subject string
	columns []string
}

// NewNATSWriter connects to the NATS server.
func NewNATSWriter(cfg config.NATSConfig, columns []string) (*NATSWriter, error) {
	if cfg.Subject == "" {
		return nil, fmt.Errorf("nats writer requires a subject")
	}
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", url)
	return &NATSWriter{nc: nc, subject: cfg.Subject, columns: columns}, nil
}

// Name returns the writer type.
func (p *NATSWriter) Name() string { return "nats" }

// Write serializes the record to protobuf and publishes it.
func (p *NATSWriter) Write(_ context.Context, rec *core.FeatureRecord) error {
	data, err := marshalRecord(rec, p.columns)
	if err != nil {
		return err
	}
	return p.nc.Publish(p.subject, data)
}

func marshalRecord(rec *core.FeatureRecord, columns []string) ([]byte, error) {
	s, err := NewRecordMessage(rec, columns).Struct()
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

// Close drains and closes the NATS connection.
func (p *NATSWriter) Close() error {
	if p.nc == nil {
		return nil
	}
	if err := p.nc.Drain(); err != nil {
		return err
	}
	log.Println("NATS connection drained and closed.")
	return nil
}
