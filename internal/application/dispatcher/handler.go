package dispatcher

import (
	"context"

	"github.com/garyjia/expense-approval/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name        string
	EventType   event.Type
	Handler     Handler
	Description string
}

// NewLoggingHandler returns a handler that writes every event to logger
func NewLoggingHandler(logger Logger) Handler {
	return func(ctx context.Context, evt *event.Event) error {
		kv := []interface{}{
			"event_type", evt.Type.String(),
			"event_id", evt.ID,
			"expense_id", evt.ExpenseID,
			"correlation_id", evt.CorrelationID,
		}
		for k, v := range evt.Payload {
			kv = append(kv, k, v)
		}
		logger.Info("Workflow event", kv...)
		return nil
	}
}
