package assignment

import (
	"context"
	"time"

	dbtypes "github.com/angelmondragon/tms-backend/pkg/db/types"
	"github.com/angelmondragon/tms-backend/pkg/db/models"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// priorityOrder sorts HIGH before MEDIUM before LOW.
const priorityOrder = "CASE jobs.priority WHEN 'HIGH' THEN 0 WHEN 'MEDIUM' THEN 1 WHEN 'LOW' THEN 2 ELSE 3 END"

// Repository reads dispatch candidates and records assignments.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to assignment queries.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// PendingUnassigned returns PENDING jobs without a driver, highest priority
// first, then oldest first.
func (r *Repository) PendingUnassigned(ctx context.Context) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.WithContext(ctx).
		Where("jobs.status = ? AND jobs.assigned_driver_id IS NULL", enums.JobStatusPending).
		Order(priorityOrder).
		Order("jobs.created_at ASC").
		Order("jobs.id ASC").
		Find(&jobs).Error
	return jobs, err
}

// EligibleDrivers returns DRIVER users holding the permission in a stable order.
func (r *Repository) EligibleDrivers(ctx context.Context, permission enums.Permission) ([]models.User, error) {
	conn := r.db.WithContext(ctx)
	clause, arg := dbtypes.ContainsClause(conn.Dialector.Name(), "users.permissions", string(permission))

	var drivers []models.User
	err := conn.
		Where("users.role = ?", enums.RoleDriver).
		Where(clause, arg).
		Order("users.created_at ASC").
		Order("users.id ASC").
		Find(&drivers).Error
	return drivers, err
}

type loadRow struct {
	DriverID uuid.UUID `gorm:"column:driver_id"`
	Active   int       `gorm:"column:active"`
}

// ActiveLoads counts PENDING and IN_PROGRESS jobs per driver in one query.
// Drivers with no active work are absent from the map.
func (r *Repository) ActiveLoads(ctx context.Context, driverIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	loads := make(map[uuid.UUID]int, len(driverIDs))
	if len(driverIDs) == 0 {
		return loads, nil
	}
	var rows []loadRow
	err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Select("jobs.assigned_driver_id AS driver_id, COUNT(*) AS active").
		Where("jobs.assigned_driver_id IN ?", driverIDs).
		Where("jobs.status IN ?", []enums.JobStatus{enums.JobStatusPending, enums.JobStatusInProgress}).
		Group("jobs.assigned_driver_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		loads[row.DriverID] = row.Active
	}
	return loads, nil
}

// AssignTx sets the driver only while the job is still PENDING and
// unassigned. It reports whether the row was claimed.
func (r *Repository) AssignTx(tx *gorm.DB, jobID, driverID uuid.UUID, at time.Time) (bool, error) {
	if tx == nil {
		return false, gorm.ErrInvalidTransaction
	}
	res := tx.Model(&models.Job{}).
		Where("id = ? AND status = ? AND assigned_driver_id IS NULL", jobID, enums.JobStatusPending).
		Updates(map[string]any{
			"assigned_driver_id": driverID,
			"updated_at":         at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
