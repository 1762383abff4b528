package analytics

import "context"

// Store persists link events. Implementations must tolerate redelivery of an
// event with the same ID.
type Store interface {
	SaveLinkCreated(ctx context.Context, event *LinkCreatedEvent) error
	SaveLinkClicked(ctx context.Context, event *LinkClickedEvent) error
}
