package jobs

import (
	"context"
	"time"

	"github.com/angelmondragon/tms-backend/internal/listing"
	"github.com/angelmondragon/tms-backend/internal/repo"
	"github.com/angelmondragon/tms-backend/pkg/db/models"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func details(db *gorm.DB) *gorm.DB {
	return db.
		Preload("AssignedDriver").
		Preload("Requester").
		Preload("Shaft").
		Preload("Client").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("job_comments.created_at ASC")
		}).
		Preload("Comments.Author")
}

// Repository persists jobs and their comments.
type Repository struct {
	*repo.CRUD[models.Job]
}

// NewRepository binds a GORM DB to job queries.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{CRUD: repo.NewCRUD[models.Job](db, listing.Jobs, details)}
}

// Exists reports whether a job row is present.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Job{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// CreateCommentTx inserts a comment.
func (r *Repository) CreateCommentTx(tx *gorm.DB, comment *models.JobComment) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Create(comment).Error
}

// FindComment loads a comment with its author.
func (r *Repository) FindComment(ctx context.Context, id uuid.UUID) (*models.JobComment, error) {
	var comment models.JobComment
	if err := r.DB(ctx).Preload("Author").First(&comment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// StatusTx reads the current status inside tx.
func (r *Repository) StatusTx(tx *gorm.DB, id uuid.UUID) (enums.JobStatus, error) {
	if tx == nil {
		return "", gorm.ErrInvalidTransaction
	}
	var job models.Job
	if err := tx.Select("id", "status").First(&job, "id = ?", id).Error; err != nil {
		return "", err
	}
	return job.Status, nil
}

// SetStatusTx moves a job to status, only while it is still in from.
func (r *Repository) SetStatusTx(tx *gorm.DB, id uuid.UUID, from, to enums.JobStatus, at time.Time) (bool, error) {
	if tx == nil {
		return false, gorm.ErrInvalidTransaction
	}
	res := tx.Model(&models.Job{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
