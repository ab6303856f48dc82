package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/aliskhannn/video-overlay/internal/model"
)

// worker defines the interface for processing one dispatch message.
type worker interface {
	Process(ctx context.Context, msg model.DispatchMessage) error
}

// DispatchHandler handles Kafka messages carrying job descriptors.
type DispatchHandler struct {
	worker worker
}

// NewDispatchHandler creates a new handler with the given worker.
func NewDispatchHandler(w worker) *DispatchHandler {
	return &DispatchHandler{worker: w}
}

// Handle unmarshals a dispatch message and hands it to the worker. Any
// error propagates to the consumer, which leaves the message uncommitted
// for redelivery.
func (h *DispatchHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var dm model.DispatchMessage
	if err := json.Unmarshal(msg.Value, &dm); err != nil {
		return fmt.Errorf("unmarshal dispatch message: %w", err)
	}

	if err := h.worker.Process(ctx, dm); err != nil {
		return fmt.Errorf("process job: %w", err)
	}

	return nil
}
