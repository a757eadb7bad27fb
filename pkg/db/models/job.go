package models

import (
	"time"

	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Job is a transport request: a collection from a shaft for a client.
type Job struct {
	ID                      uuid.UUID                `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Title                   string                   `gorm:"column:title;not null" json:"title"`
	Description             string                   `gorm:"column:description;not null" json:"description"`
	JobType                 enums.JobType            `gorm:"column:job_type;type:job_type_enum;not null" json:"jobType"`
	Priority                enums.JobPriority        `gorm:"column:priority;type:job_priority_enum;not null" json:"priority"`
	SiteClassification      enums.SiteClassification `gorm:"column:site_classification;type:site_classification_enum;not null" json:"siteClassification"`
	Status                  enums.JobStatus          `gorm:"column:status;type:job_status_enum;not null" json:"status"`
	AssignedDriverID        *uuid.UUID               `gorm:"column:assigned_driver_id;type:uuid" json:"assignedDriverId"`
	AssignedDriver          *User                    `gorm:"foreignKey:AssignedDriverID" json:"assignedDriver,omitempty"`
	RequesterID             *uuid.UUID               `gorm:"column:requester_id;type:uuid" json:"requesterId"`
	Requester               *User                    `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	ShaftID                 uuid.UUID                `gorm:"column:shaft_id;type:uuid;not null" json:"shaftId"`
	Shaft                   *Shaft                   `gorm:"foreignKey:ShaftID" json:"shaft,omitempty"`
	ClientID                uuid.UUID                `gorm:"column:client_id;type:uuid;not null" json:"clientId"`
	Client                  *Client                  `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	LoadbayID               *uuid.UUID               `gorm:"column:loadbay_id;type:uuid" json:"loadbayId"`
	Loadbay                 *Loadbay                 `gorm:"foreignKey:LoadbayID" json:"loadbay,omitempty"`
	EstimatedTonnage        *decimal.Decimal         `gorm:"column:estimated_tonnage;type:numeric(12,2)" json:"estimatedTonnage"`
	Location                *string                  `gorm:"column:location" json:"location"`
	CompletionProof         *string                  `gorm:"column:completion_proof" json:"completionProof"`
	PreferredCollectionTime *string                  `gorm:"column:preferred_collection_time" json:"preferredCollectionTime"`
	PickedUpAt              *time.Time               `gorm:"column:picked_up_at" json:"pickedUpAt"`
	DroppedOffAt            *time.Time               `gorm:"column:dropped_off_at" json:"droppedOffAt"`
	Comments                []JobComment             `gorm:"foreignKey:JobID" json:"comments,omitempty"`
	CreatedAt               time.Time                `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt               time.Time                `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (j *Job) BeforeCreate(*gorm.DB) error {
	assignID(&j.ID)
	return nil
}

type JobComment struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	JobID     uuid.UUID `gorm:"column:job_id;type:uuid;not null" json:"jobId"`
	AuthorID  uuid.UUID `gorm:"column:author_id;type:uuid;not null" json:"authorId"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Content   string    `gorm:"column:content;not null" json:"content"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (c *JobComment) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}
