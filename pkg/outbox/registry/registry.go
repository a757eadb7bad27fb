// Package registry knows, for every outbox event type, which aggregate it
// belongs to, which Pub/Sub topic carries it and what its payload looks like.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/angelmondragon/tms-backend/pkg/config"
	"github.com/angelmondragon/tms-backend/pkg/db/models"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/angelmondragon/tms-backend/pkg/outbox"
	"github.com/angelmondragon/tms-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
	newPayload    func() any
}

func describe[T any](event enums.OutboxEventType, aggregate enums.OutboxAggregateType, topic string) EventDescriptor {
	return EventDescriptor{
		EventType:     event,
		AggregateType: aggregate,
		Topic:         topic,
		newPayload:    func() any { return new(T) },
	}
}

// ResolvedEvent is an outbox row after its envelope and payload decoded.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.Envelope
	Payload    any
}

// NonRetryableError marks a row that will never publish, however often it is
// retried. The publisher dead-letters it immediately.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string { return "non-retryable: " + e.Err.Error() }
func (e NonRetryableError) Unwrap() error { return e.Err }

func NewNonRetryableError(err error) NonRetryableError {
	if err == nil {
		err = errors.New("unspecified")
	}
	return NonRetryableError{Err: err}
}

func IsNonRetryable(err error) bool {
	var target NonRetryableError
	return errors.As(err, &target)
}

func permanent(format string, args ...any) error {
	return NewNonRetryableError(fmt.Errorf(format, args...))
}

type EventRegistry struct {
	byType map[enums.OutboxEventType]EventDescriptor
}

// NewEventRegistry routes dispatch events to cfg.DispatchTopic and
// notification requests to cfg.NotificationTopic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	switch {
	case cfg.DispatchTopic == "":
		return nil, errors.New("event registry: dispatch topic is required")
	case cfg.NotificationTopic == "":
		return nil, errors.New("event registry: notification topic is required")
	}

	dispatch, notify := cfg.DispatchTopic, cfg.NotificationTopic
	descriptors := []EventDescriptor{
		describe[payloads.PlanCreatedEvent](enums.EventPlanCreated, enums.AggregateDailyPlan, dispatch),
		describe[payloads.PlanAssignmentsAddedEvent](enums.EventPlanAssignmentsAdded, enums.AggregateDailyPlan, dispatch),
		describe[payloads.PlanPublishedEvent](enums.EventPlanPublished, enums.AggregateDailyPlan, dispatch),
		describe[payloads.JobAssignedEvent](enums.EventJobAssigned, enums.AggregateJob, dispatch),
		describe[payloads.JobStatusChangedEvent](enums.EventJobStatusChanged, enums.AggregateJob, dispatch),
		describe[payloads.NotificationRequestedEvent](enums.EventNotificationRequested, enums.AggregateUser, notify),
	}

	r := &EventRegistry{byType: make(map[enums.OutboxEventType]EventDescriptor, len(descriptors))}
	for _, d := range descriptors {
		r.byType[d.EventType] = d
	}
	return r, nil
}

// Topics returns the distinct topics in sorted order.
func (r *EventRegistry) Topics() []string {
	set := make(map[string]struct{}, 2)
	for _, d := range r.byType {
		set[d.Topic] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

// Resolve decodes row. Every failure is non-retryable: a row that is
// malformed now stays malformed.
func (r *EventRegistry) Resolve(row models.OutboxEvent) (*ResolvedEvent, error) {
	d, ok := r.byType[row.EventType]
	switch {
	case !ok:
		return nil, permanent("unsupported event type %s", row.EventType)
	case d.AggregateType != row.AggregateType:
		return nil, permanent("%s belongs to %s, row says %s", row.EventType, d.AggregateType, row.AggregateType)
	case row.AggregateID == uuid.Nil:
		return nil, permanent("%s row has no aggregate id", row.EventType)
	}

	env, err := outbox.DecodeEnvelope(row.Payload)
	if err != nil {
		return nil, permanent("%s: %w", row.EventType, err)
	}
	payload := d.newPayload()
	if err := json.Unmarshal(env.Data, payload); err != nil {
		return nil, permanent("decode %s payload: %w", row.EventType, err)
	}
	return &ResolvedEvent{Descriptor: d, Envelope: env, Payload: payload}, nil
}
