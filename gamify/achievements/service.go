package achievements

import (
	"context"
	"log/slog"
)

// Service is the single entry point producers call with game events.
// Tracking and unlocking are best-effort from the producer's point of
// view: a failure here never blocks the pack opening or purchase that
// emitted the event, because events can be replayed and unlocks are
// idempotent.
type Service struct {
	tracker *Tracker
	engine  *Engine
}

func NewService(tracker *Tracker, engine *Engine) *Service {
	return &Service{tracker: tracker, engine: engine}
}

// Process records the event's stats side effects, then runs the unlock
// engine over it. The returned slice holds the newly granted
// achievements, for producers that announce them.
func (s *Service) Process(ctx context.Context, ev Event) ([]Unlocked, error) {
	if err := s.tracker.Track(ctx, ev); err != nil {
		slog.Error("Event tracking failed",
			slog.String("type", "engine"),
			slog.String("event", string(ev.EventType())),
			slog.String("user_id", ev.UserID()),
			slog.String("error", err.Error()))
		return nil, err
	}

	return s.engine.HandleEvent(ctx, ev)
}
