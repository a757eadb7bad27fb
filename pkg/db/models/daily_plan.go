package models

import (
	"time"

	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DailyPlan groups the equipment/job pairings dispatched on one day.
type DailyPlan struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Date        time.Time        `gorm:"column:date;not null" json:"date"`
	Status      enums.PlanStatus `gorm:"column:status;type:plan_status_enum;not null" json:"status"`
	CreatedByID uuid.UUID        `gorm:"column:created_by_id;type:uuid;not null" json:"createdById"`
	CreatedBy   *User            `gorm:"foreignKey:CreatedByID" json:"createdBy,omitempty"`
	Assignments []PlanAssignment `gorm:"foreignKey:PlanID" json:"assignments,omitempty"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (p *DailyPlan) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// PlanAssignment pairs one piece of equipment with one job at a position in
// the plan. Position and job are each unique within a plan.
type PlanAssignment struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	PlanID      uuid.UUID  `gorm:"column:plan_id;type:uuid;not null;uniqueIndex:plan_assignments_plan_order_key,priority:1;uniqueIndex:plan_assignments_plan_job_key,priority:1" json:"planId"`
	EquipmentID uuid.UUID  `gorm:"column:equipment_id;type:uuid;not null" json:"equipmentId"`
	Equipment   *Equipment `gorm:"foreignKey:EquipmentID" json:"equipment,omitempty"`
	JobID       uuid.UUID  `gorm:"column:job_id;type:uuid;not null;uniqueIndex:plan_assignments_plan_job_key,priority:2" json:"jobId"`
	Job         *Job       `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Order       int        `gorm:"column:assignment_order;not null;uniqueIndex:plan_assignments_plan_order_key,priority:2" json:"order"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (a *PlanAssignment) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}
