// Package jobs manages transport jobs: CRUD, comments and the terminal
// complete/cancel transitions.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/tms-backend/internal/resources"
	"github.com/angelmondragon/tms-backend/pkg/db"
	"github.com/angelmondragon/tms-backend/pkg/db/models"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tms-backend/pkg/errors"
	"github.com/angelmondragon/tms-backend/pkg/logger"
	"github.com/angelmondragon/tms-backend/pkg/outbox"
	"github.com/angelmondragon/tms-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.Event) error
}

func jobNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
}

// ServiceParams wires the job service.
type ServiceParams struct {
	Repo   *Repository
	Tx     txRunner
	Outbox outboxPublisher
	Logger *logger.Logger
	Now    func() time.Time
}

// Service exposes job CRUD through Resource plus the job-specific actions.
type Service struct {
	resource *resources.Service[models.Job]
	repo     *Repository
	tx       txRunner
	outbox   outboxPublisher
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("job repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	resource, err := resources.New(resources.Params[models.Job]{
		Name:   "job",
		Repo:   params.Repo.CRUD,
		Tx:     params.Tx,
		Logger: logg,
		Now:    now,
	})
	if err != nil {
		return nil, err
	}
	return &Service{
		resource: resource,
		repo:     params.Repo,
		tx:       params.Tx,
		outbox:   params.Outbox,
		logg:     logg,
		now:      now,
	}, nil
}

// Resource returns the generic CRUD surface for jobs.
func (s *Service) Resource() *resources.Service[models.Job] {
	return s.resource
}

// AddComment attaches a comment to an existing job.
func (s *Service) AddComment(ctx context.Context, actorID, jobID uuid.UUID, in CommentInput) (*models.JobComment, error) {
	exists, err := s.repo.Exists(ctx, jobID)
	if err != nil {
		return nil, db.Classify(err, "load job")
	}
	if !exists {
		return nil, jobNotFound()
	}

	authorID := actorID
	if in.AuthorID != nil {
		authorID = *in.AuthorID
	}
	if authorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"authorId": "is required"})
	}

	comment := &models.JobComment{
		ID:       uuid.New(),
		JobID:    jobID,
		AuthorID: authorID,
		Content:  in.Content,
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.CreateCommentTx(tx, comment)
	}); err != nil {
		return nil, db.Classify(err, "add job comment")
	}

	created, err := s.repo.FindComment(ctx, comment.ID)
	if err != nil {
		return nil, db.Classify(err, "load job comment")
	}
	return created, nil
}

// Complete marks the job COMPLETED.
func (s *Service) Complete(ctx context.Context, actorID, jobID uuid.UUID) (*models.Job, error) {
	return s.transition(ctx, actorID, jobID, enums.JobStatusCompleted)
}

// Cancel marks the job CANCELLED.
func (s *Service) Cancel(ctx context.Context, actorID, jobID uuid.UUID) (*models.Job, error) {
	return s.transition(ctx, actorID, jobID, enums.JobStatusCancelled)
}

// transition moves a job into a terminal status. Repeating the same
// transition is a no-op; leaving a terminal status is rejected.
func (s *Service) transition(ctx context.Context, actorID, jobID uuid.UUID, to enums.JobStatus) (*models.Job, error) {
	now := s.now().UTC()
	var from enums.JobStatus
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		current, err := s.repo.StatusTx(tx, jobID)
		if err != nil {
			return err
		}
		from = current
		if current == to {
			return nil
		}
		if isTerminal(current) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "job is already "+string(current)).
				WithDetails(map[string]any{"status": current, "requested": to})
		}
		moved, err := s.repo.SetStatusTx(tx, jobID, current, to, now)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "job status changed concurrently")
		}
		return s.outbox.Emit(ctx, tx, outbox.Event{
			EventType:     enums.EventJobStatusChanged,
			AggregateType: enums.AggregateJob,
			AggregateID:   jobID,
			Actor:         actorRef(actorID),
			Data: payloads.JobStatusChangedEvent{
				JobID:     jobID,
				From:      current,
				To:        to,
				ChangedAt: now,
			},
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jobNotFound()
		}
		return nil, db.Classify(err, "update job status")
	}

	if from != to {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"job_id": jobID.String(),
			"from":   from,
			"to":     to,
		}), "job status changed")
	}
	return s.resource.Get(ctx, jobID)
}

func isTerminal(status enums.JobStatus) bool {
	return status == enums.JobStatusCompleted || status == enums.JobStatusCancelled
}

func actorRef(id uuid.UUID) *outbox.Actor {
	if id == uuid.Nil {
		return nil
	}
	return &outbox.Actor{UserID: id}
}
