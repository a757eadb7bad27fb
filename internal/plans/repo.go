package plans

import (
	"context"
	"time"

	"github.com/angelmondragon/tms-backend/internal/listing"
	"github.com/angelmondragon/tms-backend/pkg/db/models"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository handles daily plan persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to plan operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func withDetails(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Assignments", func(db *gorm.DB) *gorm.DB {
			return db.Order("plan_assignments.assignment_order ASC")
		}).
		Preload("Assignments.Equipment").
		Preload("Assignments.Job").
		Preload("CreatedBy")
}

// CreateTx inserts a plan inside the caller's transaction.
func (r *Repository) CreateTx(tx *gorm.DB, plan *models.DailyPlan) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Create(plan).Error
}

// FindByID loads a plan with its assignments and creator.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DailyPlan, error) {
	var plan models.DailyPlan
	if err := withDetails(r.db.WithContext(ctx)).
		Where("daily_plans.id = ?", id).
		First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// Exists reports whether a plan row exists.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.DailyPlan{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertAssignmentsTx creates every assignment row in one statement.
func (r *Repository) InsertAssignmentsTx(tx *gorm.DB, rows []models.PlanAssignment) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}

// MarkJobsPlannedTx moves the referenced jobs to PLANNED.
func (r *Repository) MarkJobsPlannedTx(tx *gorm.DB, jobIDs []uuid.UUID, at time.Time) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if len(jobIDs) == 0 {
		return nil
	}
	return tx.Model(&models.Job{}).
		Where("id IN ?", jobIDs).
		Updates(map[string]any{
			"status":     enums.JobStatusPlanned,
			"updated_at": at,
		}).Error
}

// UpdateStatusTx sets a plan's status. It returns gorm.ErrRecordNotFound when
// no row matched.
func (r *Repository) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status enums.PlanStatus, at time.Time) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	res := tx.Model(&models.DailyPlan{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindInRange returns plans dated within [start, end).
func (r *Repository) FindInRange(ctx context.Context, start, end time.Time) ([]models.DailyPlan, error) {
	plans := make([]models.DailyPlan, 0)
	if err := withDetails(r.db.WithContext(ctx)).
		Where("daily_plans.date >= ? AND daily_plans.date < ?", start, end).
		Order("daily_plans.date ASC").
		Order("daily_plans.created_at ASC").
		Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

// List runs the shared list contract over daily_plans.
func (r *Repository) List(ctx context.Context, params listing.Params) (*listing.Page[models.DailyPlan], error) {
	return listing.Find[models.DailyPlan](ctx, r.db, listing.Plans, params, withDetails)
}
