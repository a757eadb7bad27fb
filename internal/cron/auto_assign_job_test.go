package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/tms-backend/internal/assignment"
	"github.com/angelmondragon/tms-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAssignmentRunner struct {
	summary assignment.RunSummary
	err     error
	calls   int
}

func (f *fakeAssignmentRunner) Run(context.Context) (assignment.RunSummary, error) {
	f.calls++
	return f.summary, f.err
}

func TestAutoAssignJobRunsBatch(t *testing.T) {
	runner := &fakeAssignmentRunner{summary: assignment.RunSummary{Considered: 3, Assigned: 2, Unassigned: 1}}
	job, err := NewAutoAssignJob(AutoAssignJobParams{Logger: logger.Nop(), Runner: runner})
	require.NoError(t, err)

	assert.Equal(t, "auto-assign", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, runner.calls)
}

func TestAutoAssignJobWrapsFailure(t *testing.T) {
	runner := &fakeAssignmentRunner{err: errors.New("db down")}
	job, err := NewAutoAssignJob(AutoAssignJobParams{Logger: logger.Nop(), Runner: runner})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestNewAutoAssignJobRequiresRunner(t *testing.T) {
	_, err := NewAutoAssignJob(AutoAssignJobParams{Logger: logger.Nop()})
	assert.Error(t, err)
	_, err = NewAutoAssignJob(AutoAssignJobParams{Runner: &fakeAssignmentRunner{}})
	assert.Error(t, err)
}
