package mykafka

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/sample_app/internal/logging"
)

const (
	UserCreated   = "user_created"
	UserUpdated   = "user_updated"
	UserDestroyed = "user_destroyed"
	UserSignedIn  = "user_signed_in"
	UserSignedOut = "user_signed_out"
)

type UserEvent struct {
	Type       string    `json:"type"`
	UserID     uuid.UUID `json:"user_id"`
	Name       string    `json:"name,omitempty"`
	Email      string    `json:"email,omitempty"`
	ActorID    uuid.UUID `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// UserEvents publishes onto a single topic. A nil Publisher drops events.
type UserEvents struct {
	Publisher Publisher
	Topic     string
}

// Emit never fails the caller; delivery errors are logged.
func (u *UserEvents) Emit(ctx context.Context, ev UserEvent) {
	if u == nil || u.Publisher == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if err := u.Publisher.PublishEvent(ctx, u.Topic, ev.UserID.String(), ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", ev.Type, "topic", u.Topic, "error", err)
	}
}
