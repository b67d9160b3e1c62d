package events

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/casebot/internal/interfaces"
)

// NewLoggerSubscriber creates an event handler that logs pipeline and agreement events
func NewLoggerSubscriber(logger arbor.ILogger) interfaces.EventHandler {
	return func(ctx context.Context, event interfaces.Event) error {
		switch payload := event.Payload.(type) {
		case interfaces.SubmissionEvent:
			logSubmissionEvent(logger, event.Type, payload)
		case *interfaces.SubmissionEvent:
			if payload != nil {
				logSubmissionEvent(logger, event.Type, *payload)
			}
		case interfaces.AgreementEvent:
			logger.Info().
				Str("event_type", string(event.Type)).
				Str("user_id", payload.UserID).
				Str("from", string(payload.Previous)).
				Str("to", string(payload.Current)).
				Msg("Agreement changed")
		default:
			logger.Debug().
				Str("event_type", string(event.Type)).
				Msg("Event published")
		}
		return nil
	}
}

func logSubmissionEvent(logger arbor.ILogger, eventType interfaces.EventType, payload interfaces.SubmissionEvent) {
	sub := payload.Submission
	if sub == nil {
		logger.Warn().Str("event_type", string(eventType)).Msg("Submission event without submission")
		return
	}

	log := logger.WithCorrelationId(sub.CaseID)
	if eventType == interfaces.EventSubmissionFailed {
		log.Warn().
			Str("event_type", string(eventType)).
			Str("user_id", sub.UserID).
			Str("stage", string(sub.FailedStage)).
			Str("category", string(payload.Category)).
			Str("reason", sub.FailureReason).
			Msg("Submission failed")
		return
	}

	log.Info().
		Str("event_type", string(eventType)).
		Str("user_id", sub.UserID).
		Str("state", string(sub.State)).
		Str("filename", sub.OriginalFilename).
		Msg("Submission event")
}

// SubscribeLoggerToAllEvents subscribes the logger to every event type the service emits
func SubscribeLoggerToAllEvents(eventService interfaces.EventService, logger arbor.ILogger) error {
	subscriber := NewLoggerSubscriber(logger)

	eventTypes := append([]interfaces.EventType{}, interfaces.SubmissionEventTypes...)
	eventTypes = append(eventTypes, interfaces.EventAgreementChanged)

	for _, eventType := range eventTypes {
		if err := eventService.Subscribe(eventType, subscriber); err != nil {
			return fmt.Errorf("failed to subscribe logger to event type %s: %w", eventType, err)
		}
	}

	logger.Debug().
		Int("event_type_count", len(eventTypes)).
		Msg("Logger subscribed to all event types")

	return nil
}
