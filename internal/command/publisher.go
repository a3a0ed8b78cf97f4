package command

import "context"

// EventPublisher delivers domain events after the cart they describe has been saved.
// *kafka.Producer satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
