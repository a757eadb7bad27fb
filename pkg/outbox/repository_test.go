package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/tms-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tms-backend/pkg/db/models"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEmitQueuesEnvelope(t *testing.T) {
	client := dbtest.NewClient(t)
	svc := NewEmitter(NewRepository(client.DB()), nil)
	jobID := uuid.New()

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, Event{
			EventType:     enums.EventJobAssigned,
			AggregateType: enums.AggregateJob,
			AggregateID:   jobID,
			Data:          map[string]string{"jobId": jobID.String()},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, client.DB().Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, jobID, rows[0].AggregateID)
	assert.Nil(t, rows[0].PublishedAt)

	envelope, err := DecodeEnvelope(rows[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, envelopeVersion, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	assert.JSONEq(t, `{"jobId":"`+jobID.String()+`"}`, string(envelope.Data))
}

func TestEmitRejectsUnknownEventType(t *testing.T) {
	client := dbtest.NewClient(t)
	svc := NewEmitter(NewRepository(client.DB()), nil)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, Event{EventType: "order_paid"})
	})
	require.Error(t, err)
	assert.Error(t, svc.Emit(context.Background(), nil, Event{EventType: enums.EventJobAssigned}))
}

func TestDecodeEnvelopeRequiresData(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"version":1,"eventId":"e1","data":null}`))
	assert.Error(t, err)
	_, err = DecodeEnvelope([]byte(`not json`))
	assert.Error(t, err)

	env, err := DecodeEnvelope([]byte(`{"version":1,"eventId":"e1","data":{"planId":"p"}}`))
	require.NoError(t, err)
	assert.Equal(t, "e1", env.EventID)
}

func TestFetchSkipsPublishedAndExhaustedRows(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	now := time.Now().UTC()

	pending := insertEvent(t, conn, now.Add(-time.Minute), nil, 0)
	insertEvent(t, conn, now.Add(-2*time.Minute), &now, 0)
	insertEvent(t, conn, now.Add(-3*time.Minute), nil, 10)

	rows, err := repo.FetchUnpublishedForPublish(conn, 10, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, pending.ID, rows[0].ID)

	require.NoError(t, repo.MarkFailedTx(conn, pending.ID, errors.New("unavailable")))
	require.NoError(t, conn.First(&pending, "id = ?", pending.ID).Error)
	assert.Equal(t, 1, pending.AttemptCount)
	require.NotNil(t, pending.LastError)

	require.NoError(t, repo.MarkTerminalTx(conn, pending.ID, errors.New("bad payload"), 10))
	rows, err = repo.FetchUnpublishedForPublish(conn, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)

	n, err := repo.CountUnpublished(nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestDeletePublishedBefore(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	now := time.Now().UTC()
	old := now.Add(-40 * 24 * time.Hour)

	insertEvent(t, conn, old, &old, 1)
	recent := insertEvent(t, conn, now, &now, 1)
	unpublished := insertEvent(t, conn, old, nil, 3)

	deleted, err := repo.DeletePublishedBefore(context.Background(), nil, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	var ids []uuid.UUID
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Order("created_at").Pluck("id", &ids).Error)
	assert.ElementsMatch(t, []uuid.UUID{recent.ID, unpublished.ID}, ids)
}

func TestDLQInsertTruncatesAndPurges(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewDLQRepository(conn)
	long := strings.Repeat("x", maxDLQErrorLen+50)

	entry := models.OutboxDLQ{
		EventID:       uuid.New(),
		EventType:     enums.EventPlanPublished,
		AggregateType: enums.AggregateDailyPlan,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   enums.OutboxDLQReasonNonRetryable,
		ErrorMessage:  &long,
		FailedAt:      time.Now().UTC().Add(-60 * 24 * time.Hour),
	}
	require.NoError(t, repo.InsertTx(conn, entry))
	require.Error(t, repo.InsertTx(nil, entry))

	rows, err := repo.List(context.Background(), DLQFilter{Reason: enums.OutboxDLQReasonNonRetryable})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].ErrorMessage)
	assert.Len(t, *rows[0].ErrorMessage, maxDLQErrorLen)

	rows, err = repo.List(context.Background(), DLQFilter{Reason: enums.OutboxDLQReasonMaxAttempts})
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = repo.List(context.Background(), DLQFilter{Since: time.Now().Add(-24 * time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, rows)

	deleted, err := repo.DeleteBefore(context.Background(), nil, time.Now().UTC().Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}

func TestClipKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 10))
	assert.Equal(t, "ab", clip("abc", 2))
	// "é" is two bytes; cutting inside it drops the whole rune.
	assert.Equal(t, "a", clip("aé", 2))
}

func TestDeadLetterCopiesEvent(t *testing.T) {
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventJobStatusChanged,
		AggregateType: enums.AggregateJob,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"x":1}`),
		AttemptCount:  4,
	}
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.FixedZone("SAST", 2*60*60))
	row := event.DeadLetter(enums.OutboxDLQReasonMaxAttempts, errors.New("deadline exceeded"), at)

	assert.Equal(t, event.ID, row.EventID)
	assert.Equal(t, 4, row.AttemptCount)
	assert.Equal(t, time.UTC, row.FailedAt.Location())
	require.NotNil(t, row.ErrorMessage)
	assert.Equal(t, "deadline exceeded", *row.ErrorMessage)
	assert.Nil(t, event.DeadLetter(enums.OutboxDLQReasonNonRetryable, nil, at).ErrorMessage)
}

func insertEvent(t *testing.T, conn *gorm.DB, createdAt time.Time, publishedAt *time.Time, attempts int) models.OutboxEvent {
	t.Helper()
	row := models.OutboxEvent{
		EventType:     enums.EventJobStatusChanged,
		AggregateType: enums.AggregateJob,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		CreatedAt:     createdAt,
		PublishedAt:   publishedAt,
		AttemptCount:  attempts,
	}
	require.NoError(t, conn.Create(&row).Error)
	return row
}
