// Package assignment runs the periodic auto-assignment batch that hands
// unassigned PENDING jobs to the least loaded eligible driver.
package assignment

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/tms-backend/pkg/db/models"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/angelmondragon/tms-backend/pkg/logger"
	"github.com/angelmondragon/tms-backend/pkg/metrics"
	"github.com/angelmondragon/tms-backend/pkg/outbox"
	"github.com/angelmondragon/tms-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultMaxActiveJobs = 5
	DefaultPermission    = enums.PermissionReadTransportRequest
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.Event) error
}

type assignmentRepository interface {
	PendingUnassigned(ctx context.Context) ([]models.Job, error)
	EligibleDrivers(ctx context.Context, permission enums.Permission) ([]models.User, error)
	ActiveLoads(ctx context.Context, driverIDs []uuid.UUID) (map[uuid.UUID]int, error)
	AssignTx(tx *gorm.DB, jobID, driverID uuid.UUID, at time.Time) (bool, error)
}

type decisionRecorder interface {
	IncDecision(outcome string)
	SetPending(n int)
}

// Decision is the outcome for one job in a run.
type Decision struct {
	JobID    uuid.UUID  `json:"jobId"`
	DriverID *uuid.UUID `json:"driverId,omitempty"`
	Load     int        `json:"load"`
	Outcome  string     `json:"outcome"`
}

// RunSummary reports what one batch did.
type RunSummary struct {
	Considered int        `json:"considered"`
	Assigned   int        `json:"assigned"`
	Unassigned int        `json:"unassigned"`
	Decisions  []Decision `json:"decisions"`
}

// ServiceParams wires the auto-assignment service.
type ServiceParams struct {
	Repo          assignmentRepository
	Tx            txRunner
	Outbox        outboxPublisher
	Logger        *logger.Logger
	Metrics       decisionRecorder
	MaxActiveJobs int
	Permission    enums.Permission
	Now           func() time.Time
}

// Service runs auto-assignment batches.
type Service struct {
	repo       assignmentRepository
	tx         txRunner
	outbox     outboxPublisher
	logg       *logger.Logger
	metrics    decisionRecorder
	maxActive  int
	permission enums.Permission
	now        func() time.Time
}

// NewService validates dependencies and applies defaults.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("assignment repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	svc := &Service{
		repo:       params.Repo,
		tx:         params.Tx,
		outbox:     params.Outbox,
		logg:       params.Logger,
		metrics:    params.Metrics,
		maxActive:  params.MaxActiveJobs,
		permission: params.Permission,
		now:        params.Now,
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.metrics == nil {
		svc.metrics = (*metrics.DispatchMetrics)(nil)
	}
	if svc.maxActive <= 0 {
		svc.maxActive = DefaultMaxActiveJobs
	}
	if svc.permission == "" {
		svc.permission = DefaultPermission
	}
	if !svc.permission.IsValid() {
		return nil, fmt.Errorf("unknown eligibility permission %q", svc.permission)
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

// Run processes every unassigned PENDING job once. Drivers and their loads
// are read once per run and the load table is updated after each assignment,
// so later jobs in the batch see earlier decisions. An unexpected error stops
// the run; assignments already committed stay in place.
func (s *Service) Run(ctx context.Context) (RunSummary, error) {
	summary := RunSummary{Decisions: []Decision{}}

	jobs, err := s.repo.PendingUnassigned(ctx)
	if err != nil {
		return summary, fmt.Errorf("load pending jobs: %w", err)
	}
	s.metrics.SetPending(len(jobs))
	if len(jobs) == 0 {
		return summary, nil
	}

	drivers, err := s.repo.EligibleDrivers(ctx, s.permission)
	if err != nil {
		return summary, fmt.Errorf("load eligible drivers: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(drivers))
	for _, d := range drivers {
		ids = append(ids, d.ID)
	}
	loads, err := s.repo.ActiveLoads(ctx, ids)
	if err != nil {
		return summary, fmt.Errorf("load driver workloads: %w", err)
	}

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Considered++

		jobCtx := s.logg.WithFields(ctx, map[string]any{
			"job_id":   job.ID.String(),
			"priority": job.Priority,
		})

		driver, load, ok := pickDriver(drivers, loads)
		if !ok || load >= s.maxActive {
			summary.Unassigned++
			summary.Decisions = append(summary.Decisions, Decision{JobID: job.ID, Load: load, Outcome: metrics.OutcomeNoDriver})
			s.metrics.IncDecision(metrics.OutcomeNoDriver)
			s.logg.Info(jobCtx, "no suitable driver for job")
			continue
		}

		claimed, err := s.assign(ctx, job, driver, load)
		if err != nil {
			return summary, fmt.Errorf("assign job %s: %w", job.ID, err)
		}
		if !claimed {
			summary.Unassigned++
			summary.Decisions = append(summary.Decisions, Decision{JobID: job.ID, Load: load, Outcome: metrics.OutcomeSkipped})
			s.metrics.IncDecision(metrics.OutcomeSkipped)
			s.logg.Info(jobCtx, "job changed before assignment")
			continue
		}

		loads[driver]++
		driverID := driver
		summary.Assigned++
		summary.Decisions = append(summary.Decisions, Decision{JobID: job.ID, DriverID: &driverID, Load: load + 1, Outcome: metrics.OutcomeAssigned})
		s.metrics.IncDecision(metrics.OutcomeAssigned)
		s.logg.Info(s.logg.WithFields(jobCtx, map[string]any{
			"driver_id":   driver.String(),
			"driver_load": load + 1,
		}), "job assigned")
	}
	return summary, nil
}

func (s *Service) assign(ctx context.Context, job models.Job, driverID uuid.UUID, load int) (bool, error) {
	now := s.now().UTC()
	var claimed bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.AssignTx(tx, job.ID, driverID, now)
		if err != nil || !ok {
			return err
		}
		claimed = true
		return s.outbox.Emit(ctx, tx, outbox.Event{
			EventType:     enums.EventJobAssigned,
			AggregateType: enums.AggregateJob,
			AggregateID:   job.ID,
			Data: payloads.JobAssignedEvent{
				JobID:      job.ID,
				DriverID:   driverID,
				Priority:   job.Priority,
				DriverLoad: load + 1,
				AssignedAt: now,
			},
		})
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

// pickDriver returns the driver with the fewest active jobs; the first in
// driver order wins ties.
func pickDriver(drivers []models.User, loads map[uuid.UUID]int) (uuid.UUID, int, bool) {
	if len(drivers) == 0 {
		return uuid.Nil, 0, false
	}
	best := drivers[0].ID
	bestLoad := loads[best]
	for _, d := range drivers[1:] {
		if l := loads[d.ID]; l < bestLoad {
			best, bestLoad = d.ID, l
		}
	}
	return best, bestLoad, true
}
