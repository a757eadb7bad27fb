package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/tms-backend/pkg/logger"
	"gorm.io/gorm"
)

func TestOutboxRetentionJobPurgesPublishedAndDeadLetters(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	events := &fakeEventPurger{}
	dlq := &fakeDLQPurger{}
	job := newOutboxRetentionJob(t, events, dlq)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expectedCutoff := now.Add(-outboxRetentionDays * 24 * time.Hour)
	if !events.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, events.lastCutoff)
	}
	expectedDLQ := now.Add(-dlqRetentionDays * 24 * time.Hour)
	if !dlq.lastCutoff.Equal(expectedDLQ) {
		t.Fatalf("expected dlq cutoff %s, got %s", expectedDLQ, dlq.lastCutoff)
	}
	if events.called != 1 || dlq.called != 1 {
		t.Fatalf("expected one call each, got %d and %d", events.called, dlq.called)
	}
	if job.Every() != outboxRetentionTick {
		t.Fatalf("unexpected cadence %s", job.Every())
	}
}

func TestOutboxRetentionJobWithoutDLQ(t *testing.T) {
	events := &fakeEventPurger{}
	job := newOutboxRetentionJob(t, events, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if events.called != 1 {
		t.Fatalf("expected events purged once, got %d", events.called)
	}
}

func TestOutboxRetentionJobPropagatesError(t *testing.T) {
	events := &fakeEventPurger{err: errors.New("boom")}
	dlq := &fakeDLQPurger{}
	job := newOutboxRetentionJob(t, events, dlq)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if dlq.called != 0 {
		t.Fatalf("dlq purge should not run after a failure")
	}
}

func newOutboxRetentionJob(t *testing.T, events *fakeEventPurger, dlq *fakeDLQPurger) *outboxRetentionJob {
	t.Helper()
	params := OutboxRetentionJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		DB:     passthroughTx{},
		Events: events,
	}
	if dlq != nil {
		params.DeadLetters = dlq
	}
	jobIface, err := NewOutboxRetentionJob(params)
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	job, ok := jobIface.(*outboxRetentionJob)
	if !ok {
		t.Fatalf("expected outboxRetentionJob, got %T", jobIface)
	}
	return job
}

type fakeEventPurger struct {
	lastCutoff time.Time
	called     int
	err        error
}

func (f *fakeEventPurger) DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return 7, nil
}

type fakeDLQPurger struct {
	lastCutoff time.Time
	called     int
}

func (f *fakeDLQPurger) DeleteBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	return 2, nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
