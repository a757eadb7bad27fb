package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tms-backend/pkg/config"
	"github.com/angelmondragon/tms-backend/pkg/db/models"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/angelmondragon/tms-backend/pkg/outbox"
	"github.com/angelmondragon/tms-backend/pkg/outbox/payloads"
)

func testRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{DispatchTopic: "tms-dispatch", NotificationTopic: "tms-notify"})
	require.NoError(t, err)
	return reg
}

func row(t *testing.T, eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, data any) models.OutboxEvent {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	env, err := json.Marshal(outbox.Envelope{Version: 1, EventID: uuid.NewString(), OccurredAt: time.Now().UTC(), Data: raw})
	require.NoError(t, err)
	return models.OutboxEvent{EventType: eventType, AggregateType: aggregate, AggregateID: uuid.New(), Payload: env}
}

func TestResolveDecodesTypedPayload(t *testing.T) {
	reg := testRegistry(t)
	jobID := uuid.New()

	resolved, err := reg.Resolve(row(t, enums.EventPlanAssignmentsAdded, enums.AggregateDailyPlan, payloads.PlanAssignmentsAddedEvent{
		PlanID:      uuid.New(),
		Assignments: []payloads.PlanAssignmentRef{{JobID: jobID, EquipmentID: uuid.New(), Order: 1}},
	}))
	require.NoError(t, err)
	assert.Equal(t, "tms-dispatch", resolved.Descriptor.Topic)
	assert.NotEmpty(t, resolved.Envelope.EventID)

	payload, ok := resolved.Payload.(*payloads.PlanAssignmentsAddedEvent)
	require.True(t, ok, "payload type %T", resolved.Payload)
	assert.Equal(t, jobID, payload.Assignments[0].JobID)
}

func TestResolveRoutesNotifications(t *testing.T) {
	reg := testRegistry(t)
	resolved, err := reg.Resolve(row(t, enums.EventNotificationRequested, enums.AggregateUser, payloads.NotificationRequestedEvent{
		Channel: payloads.NotificationChannelEmail, Template: payloads.TemplateAuthCode, To: "driver@example.com",
	}))
	require.NoError(t, err)
	assert.Equal(t, "tms-notify", resolved.Descriptor.Topic)
	assert.Equal(t, []string{"tms-dispatch", "tms-notify"}, reg.Topics())
}

func TestResolveFailuresAreNonRetryable(t *testing.T) {
	reg := testRegistry(t)

	missingID := row(t, enums.EventJobAssigned, enums.AggregateJob, map[string]string{"job_id": "x"})
	missingID.AggregateID = uuid.Nil
	garbled := row(t, enums.EventJobAssigned, enums.AggregateJob, nil)
	garbled.Payload = json.RawMessage(`{"version":`)

	cases := map[string]models.OutboxEvent{
		"unknown type":       row(t, "reservation_released", enums.AggregateJob, map[string]string{"a": "b"}),
		"aggregate mismatch": row(t, enums.EventJobAssigned, enums.AggregateDailyPlan, map[string]string{"job_id": "x"}),
		"no aggregate id":    missingID,
		"null payload":       row(t, enums.EventPlanPublished, enums.AggregateDailyPlan, nil),
		"bad envelope":       garbled,
		"wrong payload type": row(t, enums.EventJobAssigned, enums.AggregateJob, []int{1}),
	}
	for name, r := range cases {
		_, err := reg.Resolve(r)
		assert.True(t, IsNonRetryable(err), "%s: %v", name, err)
	}
}

func TestNonRetryableWrapping(t *testing.T) {
	cause := errors.New("topic missing")
	err := NewNonRetryableError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "non-retryable: topic missing", err.Error())
	assert.False(t, IsNonRetryable(cause))
	assert.NotPanics(t, func() { _ = NewNonRetryableError(nil).Error() })
}

func TestNewEventRegistryRequiresTopics(t *testing.T) {
	_, err := NewEventRegistry(config.PubSubConfig{NotificationTopic: "n"})
	assert.Error(t, err)
	_, err = NewEventRegistry(config.PubSubConfig{DispatchTopic: "d"})
	assert.Error(t, err)
}
