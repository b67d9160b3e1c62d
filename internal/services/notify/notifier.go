package notify

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/casebot/internal/interfaces"
)

// Notifier turns submission stage events into messages for the submitting user
type Notifier struct {
	logger arbor.ILogger
}

// NewNotifier creates a notifier
func NewNotifier(logger arbor.ILogger) *Notifier {
	return &Notifier{logger: logger}
}

// Subscribe registers the notifier for every stage that has a user-visible message
func (n *Notifier) Subscribe(events interfaces.EventService) error {
	for _, eventType := range []interfaces.EventType{
		interfaces.EventSubmissionAccepted,
		interfaces.EventAnalysisStarted,
		interfaces.EventReportGenerating,
		interfaces.EventSubmissionFailed,
	} {
		if err := events.Subscribe(eventType, n.Handle); err != nil {
			return fmt.Errorf("failed to subscribe notifier to %s: %w", eventType, err)
		}
	}
	return nil
}

// MessageFor returns the text for an event, or "" when the event is silent
func MessageFor(eventType interfaces.EventType, payload interfaces.SubmissionEvent) string {
	switch eventType {
	case interfaces.EventSubmissionAccepted:
		return FileAccepted
	case interfaces.EventAnalysisStarted:
		return AnalysisStarted
	case interfaces.EventReportGenerating:
		return ReportGenerating
	case interfaces.EventSubmissionFailed:
		return FailureMessage(payload.Category, payload.Detail, payload.Backend)
	default:
		return ""
	}
}

// Handle is the event handler registered by Subscribe
func (n *Notifier) Handle(ctx context.Context, event interfaces.Event) error {
	payload, ok := event.Payload.(interfaces.SubmissionEvent)
	if !ok || payload.Submission == nil || payload.Messenger == nil {
		return nil
	}

	text := MessageFor(event.Type, payload)
	if text == "" {
		return nil
	}

	if err := payload.Messenger.SendText(ctx, payload.Submission.UserID, text); err != nil {
		n.logger.WithCorrelationId(payload.Submission.CaseID).Warn().
			Err(err).
			Str("event_type", string(event.Type)).
			Msg("Failed to notify user")
		return fmt.Errorf("notify %s: %w", event.Type, err)
	}
	return nil
}
