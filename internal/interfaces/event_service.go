package interfaces

import "context"

// EventType represents different event types in the system
type EventType string

const (
	EventSubmissionReceived  EventType = "submission_received"
	EventSubmissionAccepted  EventType = "submission_accepted"
	EventAnalysisStarted     EventType = "analysis_started"
	EventReportGenerating    EventType = "report_generating"
	EventSubmissionDelivered EventType = "submission_delivered"
	EventSubmissionFailed    EventType = "submission_failed"
	EventAgreementChanged    EventType = "agreement_changed"
)

// SubmissionEventTypes lists every stage event the pipeline publishes, in order
var SubmissionEventTypes = []EventType{
	EventSubmissionReceived,
	EventSubmissionAccepted,
	EventAnalysisStarted,
	EventReportGenerating,
	EventSubmissionDelivered,
	EventSubmissionFailed,
}

// Event represents a system event
type Event struct {
	Type    EventType
	Payload interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService manages pub/sub event bus
type EventService interface {
	// Subscribe to an event type
	Subscribe(eventType EventType, handler EventHandler) error

	// Publish an event to all subscribers without waiting
	Publish(ctx context.Context, event Event) error

	// PublishSync publishes event and waits for all handlers to complete
	PublishSync(ctx context.Context, event Event) error

	// Close shuts down the event service
	Close() error
}
