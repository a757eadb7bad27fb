package jobs

import (
	"time"

	"github.com/angelmondragon/tms-backend/pkg/db/models"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tms-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateJobInput is the body of POST /job.
type CreateJobInput struct {
	Title                   string                   `json:"title" validate:"required"`
	Description             string                   `json:"description" validate:"required"`
	JobType                 enums.JobType            `json:"jobType" validate:"required"`
	Priority                enums.JobPriority        `json:"priority"`
	SiteClassification      enums.SiteClassification `json:"siteClassification"`
	ShaftID                 uuid.UUID                `json:"shaftId" validate:"required"`
	ClientID                uuid.UUID                `json:"clientId" validate:"required"`
	LoadbayID               *uuid.UUID               `json:"loadbayId"`
	AssignedDriverID        *uuid.UUID               `json:"assignedDriverId"`
	RequesterID             *uuid.UUID               `json:"requesterId"`
	EstimatedTonnage        *decimal.Decimal         `json:"estimatedTonnage"`
	Location                *string                  `json:"location"`
	PreferredCollectionTime *string                  `json:"preferredCollectionTime"`
}

// Stamp makes the caller the requester unless one was given.
func (in *CreateJobInput) Stamp(actorID uuid.UUID) {
	if in.RequesterID == nil && actorID != uuid.Nil {
		in.RequesterID = &actorID
	}
}

func (in *CreateJobInput) Build(id uuid.UUID) (*models.Job, error) {
	priority := in.Priority
	if priority == "" {
		priority = enums.JobPriorityMedium
	}
	classification := in.SiteClassification
	if classification == "" {
		classification = enums.SiteClassificationGreen
	}
	switch {
	case !in.JobType.IsValid():
		return nil, invalidField("jobType")
	case !priority.IsValid():
		return nil, invalidField("priority")
	case !classification.IsValid():
		return nil, invalidField("siteClassification")
	case in.EstimatedTonnage != nil && in.EstimatedTonnage.IsNegative():
		return nil, invalidField("estimatedTonnage")
	}
	return &models.Job{
		ID:                      id,
		Title:                   in.Title,
		Description:             in.Description,
		JobType:                 in.JobType,
		Priority:                priority,
		SiteClassification:      classification,
		Status:                  enums.JobStatusPending,
		ShaftID:                 in.ShaftID,
		ClientID:                in.ClientID,
		LoadbayID:               in.LoadbayID,
		AssignedDriverID:        in.AssignedDriverID,
		RequesterID:             in.RequesterID,
		EstimatedTonnage:        in.EstimatedTonnage,
		Location:                in.Location,
		PreferredCollectionTime: in.PreferredCollectionTime,
	}, nil
}

// UpdateJobInput is the body of PUT /job/{id}. Absent fields are left as is.
type UpdateJobInput struct {
	Title                   *string                   `json:"title" validate:"omitempty,min=1"`
	Description             *string                   `json:"description" validate:"omitempty,min=1"`
	JobType                 *enums.JobType            `json:"jobType"`
	Priority                *enums.JobPriority        `json:"priority"`
	SiteClassification      *enums.SiteClassification `json:"siteClassification"`
	Status                  *enums.JobStatus          `json:"status"`
	ShaftID                 *uuid.UUID                `json:"shaftId"`
	ClientID                *uuid.UUID                `json:"clientId"`
	LoadbayID               *uuid.UUID                `json:"loadbayId"`
	AssignedDriverID        *uuid.UUID                `json:"assignedDriverId"`
	EstimatedTonnage        *decimal.Decimal          `json:"estimatedTonnage"`
	Location                *string                   `json:"location"`
	CompletionProof         *string                   `json:"completionProof"`
	PreferredCollectionTime *string                   `json:"preferredCollectionTime"`
	PickedUpAt              *time.Time                `json:"pickedUpAt"`
	DroppedOffAt            *time.Time                `json:"droppedOffAt"`
}

func (in *UpdateJobInput) Columns() (map[string]any, error) {
	switch {
	case in.JobType != nil && !in.JobType.IsValid():
		return nil, invalidField("jobType")
	case in.Priority != nil && !in.Priority.IsValid():
		return nil, invalidField("priority")
	case in.SiteClassification != nil && !in.SiteClassification.IsValid():
		return nil, invalidField("siteClassification")
	case in.Status != nil && !in.Status.IsValid():
		return nil, invalidField("status")
	case in.EstimatedTonnage != nil && in.EstimatedTonnage.IsNegative():
		return nil, invalidField("estimatedTonnage")
	}

	cols := map[string]any{}
	if in.Title != nil {
		cols["title"] = *in.Title
	}
	if in.Description != nil {
		cols["description"] = *in.Description
	}
	if in.JobType != nil {
		cols["job_type"] = *in.JobType
	}
	if in.Priority != nil {
		cols["priority"] = *in.Priority
	}
	if in.SiteClassification != nil {
		cols["site_classification"] = *in.SiteClassification
	}
	if in.Status != nil {
		cols["status"] = *in.Status
	}
	if in.ShaftID != nil {
		cols["shaft_id"] = *in.ShaftID
	}
	if in.ClientID != nil {
		cols["client_id"] = *in.ClientID
	}
	if in.LoadbayID != nil {
		cols["loadbay_id"] = *in.LoadbayID
	}
	if in.AssignedDriverID != nil {
		cols["assigned_driver_id"] = *in.AssignedDriverID
	}
	if in.EstimatedTonnage != nil {
		cols["estimated_tonnage"] = *in.EstimatedTonnage
	}
	if in.Location != nil {
		cols["location"] = *in.Location
	}
	if in.CompletionProof != nil {
		cols["completion_proof"] = *in.CompletionProof
	}
	if in.PreferredCollectionTime != nil {
		cols["preferred_collection_time"] = *in.PreferredCollectionTime
	}
	if in.PickedUpAt != nil {
		cols["picked_up_at"] = in.PickedUpAt.UTC()
	}
	if in.DroppedOffAt != nil {
		cols["dropped_off_at"] = in.DroppedOffAt.UTC()
	}
	return cols, nil
}

// CommentInput is the body of POST /job/{id}/comment. authorId defaults to
// the caller.
type CommentInput struct {
	Content  string     `json:"content" validate:"required"`
	AuthorID *uuid.UUID `json:"authorId"`
}

func invalidField(field string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
		WithDetails(map[string]string{field: "is invalid"})
}
