package payloads

import (
	"time"

	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/google/uuid"
)

// PlanCreatedEvent announces a new draft plan.
type PlanCreatedEvent struct {
	PlanID      uuid.UUID `json:"plan_id"`
	Date        string    `json:"date"`
	CreatedByID uuid.UUID `json:"created_by_id"`
}

// PlanAssignmentRef is one equipment/job pairing inside a plan event.
type PlanAssignmentRef struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
	EquipmentID  uuid.UUID `json:"equipment_id"`
	JobID        uuid.UUID `json:"job_id"`
	Order        int       `json:"order"`
}

// PlanAssignmentsAddedEvent is emitted once per successful batch.
type PlanAssignmentsAddedEvent struct {
	PlanID      uuid.UUID           `json:"plan_id"`
	Assignments []PlanAssignmentRef `json:"assignments"`
}

// PlanPublishedEvent tells drivers that the day's plan is final.
type PlanPublishedEvent struct {
	PlanID      uuid.UUID `json:"plan_id"`
	PublishedAt time.Time `json:"published_at"`
}

// JobAssignedEvent is emitted by the auto-assignment batch.
type JobAssignedEvent struct {
	JobID      uuid.UUID         `json:"job_id"`
	DriverID   uuid.UUID         `json:"driver_id"`
	Priority   enums.JobPriority `json:"priority"`
	DriverLoad int               `json:"driver_load"`
	AssignedAt time.Time         `json:"assigned_at"`
}

// JobStatusChangedEvent covers completion and cancellation.
type JobStatusChangedEvent struct {
	JobID     uuid.UUID       `json:"job_id"`
	From      enums.JobStatus `json:"from"`
	To        enums.JobStatus `json:"to"`
	ChangedAt time.Time       `json:"changed_at"`
}

// NotificationRequestedEvent asks the notification service to message a user.
type NotificationRequestedEvent struct {
	UserID   uuid.UUID         `json:"user_id"`
	Channel  string            `json:"channel"`
	Template string            `json:"template"`
	To       string            `json:"to"`
	Params   map[string]string `json:"params,omitempty"`
}

const (
	NotificationChannelEmail = "email"
	TemplateAuthCode         = "auth_code"
)
