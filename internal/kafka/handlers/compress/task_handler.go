package compress

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-compressor/internal/model"
)

// service defines the interface for processing queued compression tasks.
type service interface {
	ProcessTask(ctx context.Context, task model.Task) error
}

// TaskHandler handles Kafka messages carrying compression tasks.
type TaskHandler struct {
	service service
}

// NewTaskHandler creates a new handler with the given service.
func NewTaskHandler(s service) *TaskHandler {
	return &TaskHandler{service: s}
}

// Handle unmarshals the task from the message and compresses the image it points to.
func (h *TaskHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var task model.Task
	if err := json.Unmarshal(msg.Value, &task); err != nil {
		return fmt.Errorf("unmarshal task: %w", err)
	}

	if err := h.service.ProcessTask(ctx, task); err != nil {
		return fmt.Errorf("process task %s: %w", task.ID, err)
	}

	zlog.Logger.Info().Str("id", task.ID.String()).Msg("image compressed")

	return nil
}
