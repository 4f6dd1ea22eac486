package events

import (
	"context"

	"github.com/tutorium/sessions/internal/model"
	"go.uber.org/zap"
)

// LogSink writes activity events to the structured log. Used when no broker
// is configured.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(_ context.Context, event model.ActivityEvent) error {
	s.logger.Info("activity",
		zap.String("type", string(event.Type)),
		zap.String("actor_id", event.ActorID.String()),
		zap.String("entity_id", event.EntityID.String()),
		zap.String("description", event.Description),
		zap.Time("occurred_at", event.OccurredAt),
	)
	return nil
}
