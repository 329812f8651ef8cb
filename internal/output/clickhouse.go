package output

import (
	"context"
	"fmt"
	"time"

	"FlowSpectra/internal/config"
	core "FlowSpectra/internal/core/model"
	"FlowSpectra/internal/factory"
	"FlowSpectra/internal/model"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	log "github.com/sirupsen/logrus"
)

func init() {
	factory.RegisterWriter("clickhouse", func(def config.WriterDef, _ []string) (model.Writer, error) {
		return NewClickHouseWriter(def.ClickHouse)
	})
}

const createTableStatement = `
CREATE TABLE IF NOT EXISTS flow_features (
    RunID     String,
    Timestamp DateTime,
    Source    String,
    FlowLen   UInt32,
    Skipped   UInt32,
    Features  Array(Float64)
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (RunID, Source);
`

// clickHouseBatchSize is the number of rows buffered before a batch is sent.
const clickHouseBatchSize = 1000

// ClickHouseWriter implements the model.Writer interface for ClickHouse.
type ClickHouseWriter struct {
	conn    driver.Conn
	batch   driver.Batch
	pending int
	written int
}

// NewClickHouseWriter creates a new ClickHouse writer.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (*ClickHouseWriter, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Exec(context.Background(), createTableStatement); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	log.Println("Successfully connected to ClickHouse and ensured table exists.")

	return &ClickHouseWriter{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: false,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

// Name returns the writer type.
func (w *ClickHouseWriter) Name() string { return "clickhouse" }

// Write appends the record to the current batch, sending it once full.
func (w *ClickHouseWriter) Write(ctx context.Context, rec *core.FeatureRecord) error {
	if w.batch == nil {
		batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO flow_features")
		if err != nil {
			return fmt.Errorf("failed to prepare batch: %w", err)
		}
		w.batch = batch
	}

	if err := w.batch.Append(clickHouseRow(rec, time.Now())...); err != nil {
		return fmt.Errorf("failed to append %s to batch: %w", rec.Source, err)
	}
	w.pending++

	if w.pending >= clickHouseBatchSize {
		return w.flush()
	}
	return nil
}

func clickHouseRow(rec *core.FeatureRecord, ts time.Time) []interface{} {
	features := make([]float64, len(rec.Vector))
	copy(features, rec.Vector)
	return []interface{}{
		rec.RunID,
		ts,
		rec.Source,
		uint32(rec.FlowLen),
		uint32(rec.SkippedFrames),
		features,
	}
}

func (w *ClickHouseWriter) flush() error {
	if w.batch == nil || w.pending == 0 {
		return nil
	}
	batch, n := w.batch, w.pending
	w.batch, w.pending = nil, 0
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	w.written += n
	log.Printf("Wrote %d feature rows to ClickHouse", n)
	return nil
}

// Close sends the remaining rows and closes the connection.
func (w *ClickHouseWriter) Close() error {
	err := w.flush()
	if cerr := w.conn.Close(); err == nil {
		err = cerr
	}
	return err
}
