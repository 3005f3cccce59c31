package invalidation

import (
	"fmt"

	"github.com/IBM/sarama"
	json "github.com/goccy/go-json"
)

// NewProducer builds a synchronous producer suited to low-volume reload
// announcements.
func NewProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = false
	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("producer create: %w", err)
	}
	return p, nil
}

// Publish validates ev and sends it keyed by format, so events for one
// format stay ordered within a partition.
func Publish(p sarama.SyncProducer, topic string, ev Event) (partition int32, offset int64, err error) {
	if err := ev.Validate(); err != nil {
		return 0, 0, fmt.Errorf("invalid reload event: %w", err)
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return 0, 0, fmt.Errorf("encode reload event: %w", err)
	}
	partition, offset, err = p.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(ev.Format.String()),
		Value: sarama.ByteEncoder(b),
	})
	if err != nil {
		return 0, 0, fmt.Errorf("send reload event: %w", err)
	}
	return partition, offset, nil
}
