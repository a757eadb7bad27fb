package models

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Procedure is a checklist drivers run, e.g. the start-of-day inspection.
type Procedure struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name        string              `gorm:"column:name;not null" json:"name"`
	Description string              `gorm:"column:description;not null" json:"description"`
	Type        enums.ProcedureType `gorm:"column:type;type:procedure_type_enum;not null" json:"type"`
	Questions   []Question          `gorm:"foreignKey:ProcedureID" json:"questions,omitempty"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (p *Procedure) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

type Question struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProcedureID uuid.UUID          `gorm:"column:procedure_id;type:uuid;not null" json:"procedureId"`
	Text        string             `gorm:"column:text;not null" json:"text"`
	AnswerType  enums.AnswerType   `gorm:"column:answer_type;type:answer_type_enum;not null" json:"answerType"`
	Type        enums.QuestionType `gorm:"column:type;type:question_type_enum;not null" json:"type"`
	Choices     json.RawMessage    `gorm:"column:choices;type:jsonb" json:"choices"`
	Order       int                `gorm:"column:question_order;not null" json:"order"`
	ImageURL    *string            `gorm:"column:image_url" json:"imageUrl"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (q *Question) BeforeCreate(*gorm.DB) error {
	assignID(&q.ID)
	return nil
}

// Execution is one run of a procedure by a user.
type Execution struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProcedureID uuid.UUID             `gorm:"column:procedure_id;type:uuid;not null" json:"procedureId"`
	Procedure   *Procedure            `gorm:"foreignKey:ProcedureID" json:"procedure,omitempty"`
	UserID      uuid.UUID             `gorm:"column:user_id;type:uuid;not null" json:"userId"`
	User        *User                 `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Responses   json.RawMessage       `gorm:"column:responses;type:jsonb;not null" json:"responses"`
	Status      enums.ExecutionStatus `gorm:"column:status;type:execution_status_enum;not null" json:"status"`
	StartTime   time.Time             `gorm:"column:start_time;not null" json:"startTime"`
	EndTime     *time.Time            `gorm:"column:end_time" json:"endTime"`
	Exceptions  []Exception           `gorm:"foreignKey:ExecutionID" json:"exceptions,omitempty"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (e *Execution) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	if e.StartTime.IsZero() {
		e.StartTime = time.Now().UTC()
	}
	return nil
}

// Exception records a deviation raised while running a procedure.
type Exception struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ExecutionID uuid.UUID       `gorm:"column:execution_id;type:uuid;not null" json:"executionId"`
	Description string          `gorm:"column:description;not null" json:"description"`
	Evidence    json.RawMessage `gorm:"column:evidence;type:jsonb;not null" json:"evidence"`
	ActionTaken *string         `gorm:"column:action_taken" json:"actionTaken"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (e *Exception) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	return nil
}
