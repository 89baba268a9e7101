package publisher

import (
	"context"
	"log/slog"

	"podium/internal/registry/models"
)

// LogPublisher writes notifications to the structured log. It is used when no
// broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event *models.Event) error {
	args := []any{
		"event", string(event.Type),
		"log_type", "notification",
		"seq", event.Seq,
		"athlete_id", event.AthleteID.String(),
	}
	switch event.Type {
	case models.EventAthleteRegistered:
		args = append(args, "name", event.Name, "caller", event.Caller.String())
	case models.EventAchievementAdded:
		args = append(args, "achievement_id", event.AchievementID.String(), "title", event.Title)
	case models.EventAthleteVerified:
		args = append(args, "verified", event.Verified)
	}
	p.logger.InfoContext(ctx, "registry notification", args...)
	return nil
}
