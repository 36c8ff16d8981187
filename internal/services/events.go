package services

import "log"

// Marketplace event types published after successful store operations.
const (
	EventAccountRegistered = "account.registered"
	EventListingCreated    = "listing.created"
	EventListingSold       = "listing.sold"
	EventListingDeleted    = "listing.deleted"
	EventPurchaseInitiated = "purchase.initiated"
)

// EventPublisher delivers marketplace events to a message broker.
type EventPublisher interface {
	PublishEvent(eventType string, payload any) error
}

// publishEvent is best-effort: a broker failure never fails the store operation.
func publishEvent(p EventPublisher, eventType string, payload any) {
	if p == nil {
		log.Printf("Event publisher is not initialized. Skipping %s event.", eventType)
		return
	}
	if err := p.PublishEvent(eventType, payload); err != nil {
		log.Printf("Warning: Failed to publish %s event: %v", eventType, err)
		return
	}
	log.Printf("Successfully published %s event", eventType)
}
