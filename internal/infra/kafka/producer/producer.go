package producer

import (
	"context"
	"encoding/json"
	"fmt"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"

	"github.com/aliskhannn/video-overlay/internal/config"
	"github.com/aliskhannn/video-overlay/internal/model"
)

// Producer publishes dispatch messages to Kafka.
type Producer struct {
	Client   *wbfkafka.Producer
	strategy retry.Strategy
	cfg      *config.Kafka
}

// New creates a new Producer.
// - cfg: Kafka configuration struct
// - s: retry strategy
func New(
	cfg *config.Kafka,
	s retry.Strategy,
) *Producer {
	producer := wbfkafka.NewProducer(cfg.Brokers, cfg.Topic)

	return &Producer{
		Client:   producer,
		cfg:      cfg,
		strategy: s,
	}
}

// Enqueue serializes the dispatch message to JSON and sends it to Kafka.
// The output key is used as the message key so redeliveries of one job
// stay on one partition.
func (p *Producer) Enqueue(ctx context.Context, msg model.DispatchMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch message: %v", err)
	}

	key := []byte(msg.OutputKey)

	if err = p.Client.SendWithRetry(ctx, p.strategy, key, data); err != nil {
		return fmt.Errorf("failed to send dispatch message: %v", err)
	}

	return nil
}
