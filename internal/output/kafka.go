package output

import (
	"context"
	"encoding/json"
	"fmt"

	"FlowSpectra/internal/config"
	core "FlowSpectra/internal/core/model"
	"FlowSpectra/internal/factory"
	"FlowSpectra/internal/model"

	"github.com/IBM/sarama"
)

func init() {
	factory.RegisterWriter("kafka", func(def config.WriterDef, _ []string) (model.Writer, error) {
		return NewKafkaWriter(def.Kafka)
	})
}

// KafkaWriter sends each record as a JSON message keyed by its source.
type KafkaWriter struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaWriter creates a synchronous producer for the configured brokers.
func NewKafkaWriter(cfg config.KafkaConfig) (*KafkaWriter, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("kafka writer requires brokers and a topic")
	}
	producer, err := sarama.NewSyncProducer(cfg.Brokers, producerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return newKafkaWriter(producer, cfg.Topic), nil
}

func producerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	return config
}

func newKafkaWriter(producer sarama.SyncProducer, topic string) *KafkaWriter {
	return &KafkaWriter{producer: producer, topic: topic}
}

// Name returns the writer type.
func (k *KafkaWriter) Name() string { return "kafka" }

// Write sends the record and waits for the broker acknowledgement.
func (k *KafkaWriter) Write(_ context.Context, rec *core.FeatureRecord) error {
	value, err := json.Marshal(NewRecordMessage(rec, nil))
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", rec.Source, err)
	}

	message := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(rec.Source),
		Value: sarama.ByteEncoder(value),
	}
	if _, _, err := k.producer.SendMessage(message); err != nil {
		return fmt.Errorf("failed to send %s to kafka: %w", rec.Source, err)
	}
	return nil
}

// Close closes the producer.
func (k *KafkaWriter) Close() error {
	return k.producer.Close()
}
