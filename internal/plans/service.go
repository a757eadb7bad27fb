package plans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/tms-backend/internal/listing"
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

type planRepository interface {
	CreateTx(tx *gorm.DB, plan *models.DailyPlan) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.DailyPlan, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	InsertAssignmentsTx(tx *gorm.DB, rows []models.PlanAssignment) error
	MarkJobsPlannedTx(tx *gorm.DB, jobIDs []uuid.UUID, at time.Time) error
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status enums.PlanStatus, at time.Time) error
	FindInRange(ctx context.Context, start, end time.Time) ([]models.DailyPlan, error)
	List(ctx context.Context, params listing.Params) (*listing.Page[models.DailyPlan], error)
}

// Service manages daily plans and their assignments.
type Service interface {
	CreatePlan(ctx context.Context, creatorID uuid.UUID, date string) (*models.DailyPlan, error)
	AddAssignments(ctx context.Context, actorID, planID uuid.UUID, items []AssignmentInput) ([]models.PlanAssignment, error)
	PublishPlan(ctx context.Context, actorID, planID uuid.UUID) (*models.DailyPlan, error)
	PlansForDate(ctx context.Context, date string) ([]models.DailyPlan, error)
	ListPlans(ctx context.Context, params listing.Params) (*listing.Page[models.DailyPlan], error)
	GetPlan(ctx context.Context, id uuid.UUID) (*models.DailyPlan, error)
}

// ServiceParams wires the plan service.
type ServiceParams struct {
	Repo   planRepository
	Tx     txRunner
	Outbox outboxPublisher
	Logger *logger.Logger
	Now    func() time.Time
}

type service struct {
	repo   planRepository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
	now    func() time.Time
}

// NewService validates dependencies and builds the plan service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("plan repository required")
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
	return &service{
		repo:   params.Repo,
		tx:     params.Tx,
		outbox: params.Outbox,
		logg:   logg,
		now:    now,
	}, nil
}

func (s *service) CreatePlan(ctx context.Context, creatorID uuid.UUID, date string) (*models.DailyPlan, error) {
	if creatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	day, ok := ParseDate(date)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD or RFC3339").
			WithDetails(map[string]any{"field": "date"})
	}

	plan := &models.DailyPlan{
		Date:        day,
		Status:      enums.PlanStatusDraft,
		CreatedByID: creatorID,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, plan); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.Event{
			EventType:     enums.EventPlanCreated,
			AggregateType: enums.AggregateDailyPlan,
			AggregateID:   plan.ID,
			Actor:         &outbox.Actor{UserID: creatorID},
			Data: payloads.PlanCreatedEvent{
				PlanID:      plan.ID,
				Date:        day.Format(dateLayout),
				CreatedByID: creatorID,
			},
		})
	})
	if err != nil {
		return nil, db.Classify(err, "create plan")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"plan_id": plan.ID.String(), "plan_date": day.Format(dateLayout)})
	s.logg.Info(logCtx, "plan created")
	plan.Assignments = []models.PlanAssignment{}
	return plan, nil
}

func (s *service) AddAssignments(ctx context.Context, actorID, planID uuid.UUID, items []AssignmentInput) ([]models.PlanAssignment, error) {
	if items == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignments are required").
			WithDetails(map[string]any{"field": "assignments"})
	}

	exists, err := s.repo.Exists(ctx, planID)
	if err != nil {
		return nil, db.Classify(err, "load plan")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
	}

	rows := make([]models.PlanAssignment, 0, len(items))
	jobIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		rows = append(rows, models.PlanAssignment{
			ID:          uuid.New(),
			PlanID:      planID,
			EquipmentID: item.EquipmentID,
			JobID:       item.JobID,
			Order:       item.Order,
		})
		jobIDs = append(jobIDs, item.JobID)
	}
	if len(rows) == 0 {
		return rows, nil
	}

	now := s.now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.InsertAssignmentsTx(tx, rows); err != nil {
			return err
		}
		if err := s.repo.MarkJobsPlannedTx(tx, jobIDs, now); err != nil {
			return err
		}
		refs := make([]payloads.PlanAssignmentRef, 0, len(rows))
		for _, row := range rows {
			refs = append(refs, payloads.PlanAssignmentRef{
				AssignmentID: row.ID,
				EquipmentID:  row.EquipmentID,
				JobID:        row.JobID,
				Order:        row.Order,
			})
		}
		return s.outbox.Emit(ctx, tx, outbox.Event{
			EventType:     enums.EventPlanAssignmentsAdded,
			AggregateType: enums.AggregateDailyPlan,
			AggregateID:   planID,
			Actor:         actorRef(actorID),
			Data:          payloads.PlanAssignmentsAddedEvent{PlanID: planID, Assignments: refs},
		})
	})
	if err != nil {
		classified := db.Classify(err, "add plan assignments")
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"plan_id": planID.String(),
			"count":   len(rows),
			"error":   err.Error(),
		}), "plan assignments rolled back")
		return nil, classified
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"plan_id": planID.String(), "count": len(rows)})
	s.logg.Info(logCtx, "plan assignments added")
	return rows, nil
}

func (s *service) PublishPlan(ctx context.Context, actorID, planID uuid.UUID) (*models.DailyPlan, error) {
	now := s.now().UTC()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.UpdateStatusTx(tx, planID, enums.PlanStatusPublished, now); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.Event{
			EventType:     enums.EventPlanPublished,
			AggregateType: enums.AggregateDailyPlan,
			AggregateID:   planID,
			Actor:         actorRef(actorID),
			Data:          payloads.PlanPublishedEvent{PlanID: planID, PublishedAt: now},
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
		}
		return nil, db.Classify(err, "publish plan")
	}

	plan, err := s.repo.FindByID(ctx, planID)
	if err != nil {
		return nil, db.Classify(err, "load plan")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"plan_id": planID.String()}), "plan published")
	return plan, nil
}

func (s *service) PlansForDate(ctx context.Context, date string) ([]models.DailyPlan, error) {
	day, ok := ParseDate(date)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD or RFC3339").
			WithDetails(map[string]any{"field": "date"})
	}
	start, end := dayBounds(day)
	plans, err := s.repo.FindInRange(ctx, start, end)
	if err != nil {
		return nil, db.Classify(err, "load plans for date")
	}
	return plans, nil
}

func (s *service) ListPlans(ctx context.Context, params listing.Params) (*listing.Page[models.DailyPlan], error) {
	page, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, db.Classify(err, "list plans")
	}
	return page, nil
}

func (s *service) GetPlan(ctx context.Context, id uuid.UUID) (*models.DailyPlan, error) {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
		}
		return nil, db.Classify(err, "load plan")
	}
	return plan, nil
}

func actorRef(id uuid.UUID) *outbox.Actor {
	if id == uuid.Nil {
		return nil
	}
	return &outbox.Actor{UserID: id}
}
