package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/tms-backend/internal/assignment"
	"github.com/angelmondragon/tms-backend/pkg/logger"
)

type assignmentRunner interface {
	Run(ctx context.Context) (assignment.RunSummary, error)
}

type AutoAssignJobParams struct {
	Logger *logger.Logger
	Runner assignmentRunner
}

// NewAutoAssignJob runs one auto-assignment batch per cron cycle.
func NewAutoAssignJob(params AutoAssignJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Runner == nil {
		return nil, fmt.Errorf("assignment runner required")
	}
	return &autoAssignJob{logg: params.Logger, runner: params.Runner}, nil
}

type autoAssignJob struct {
	logg   *logger.Logger
	runner assignmentRunner
}

func (j *autoAssignJob) Name() string { return "auto-assign" }

func (j *autoAssignJob) Run(ctx context.Context) error {
	summary, err := j.runner.Run(ctx)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"considered": summary.Considered,
		"assigned":   summary.Assigned,
		"unassigned": summary.Unassigned,
	})
	if err != nil {
		j.logg.Warn(logCtx, "auto assignment batch stopped early")
		return fmt.Errorf("auto assign: %w", err)
	}
	j.logg.Info(logCtx, "auto assignment batch complete")
	return nil
}
