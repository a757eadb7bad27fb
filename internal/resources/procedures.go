package resources

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/tms-backend/pkg/db/models"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuestionInput struct {
	Text       string             `json:"text" validate:"required"`
	AnswerType enums.AnswerType   `json:"answerType" validate:"required"`
	Type       enums.QuestionType `json:"type"`
	Choices    json.RawMessage    `json:"choices"`
	Order      int                `json:"order" validate:"min=0"`
	ImageURL   *string            `json:"imageUrl" validate:"omitempty,url"`
}

func buildQuestions(procedureID uuid.UUID, inputs []QuestionInput) ([]models.Question, error) {
	questions := make([]models.Question, 0, len(inputs))
	for i, q := range inputs {
		field := fmt.Sprintf("questions[%d]", i)
		if err := checkEnum(field+".answerType", q.AnswerType); err != nil {
			return nil, err
		}
		qType := q.Type
		if qType == "" {
			qType = enums.QuestionTypeText
		}
		if err := checkEnum(field+".type", qType); err != nil {
			return nil, err
		}
		if len(q.Choices) > 0 && !json.Valid(q.Choices) {
			return nil, invalidField(field+".choices", "must be valid JSON")
		}
		questions = append(questions, models.Question{
			ID:          uuid.New(),
			ProcedureID: procedureID,
			Text:        q.Text,
			AnswerType:  q.AnswerType,
			Type:        qType,
			Choices:     q.Choices,
			Order:       q.Order,
			ImageURL:    q.ImageURL,
		})
	}
	return questions, nil
}

// replaceQuestions swaps the question set of a procedure.
func replaceQuestions(tx *gorm.DB, procedureID uuid.UUID, questions []models.Question) error {
	if err := tx.Where("procedure_id = ?", procedureID).Delete(&models.Question{}).Error; err != nil {
		return err
	}
	if len(questions) == 0 {
		return nil
	}
	return tx.Create(&questions).Error
}

// ProcedureInput creates a procedure together with its questions.
type ProcedureInput struct {
	Name        string              `json:"name" validate:"required"`
	Description string              `json:"description" validate:"required"`
	Type        enums.ProcedureType `json:"type"`
	Questions   []QuestionInput     `json:"questions" validate:"omitempty,dive"`

	questions []models.Question
}

func (in *ProcedureInput) Build(id uuid.UUID) (*models.Procedure, error) {
	pType := in.Type
	if pType == "" {
		pType = enums.ProcedureTypeStandard
	}
	if err := checkEnum("type", pType); err != nil {
		return nil, err
	}
	questions, err := buildQuestions(id, in.Questions)
	if err != nil {
		return nil, err
	}
	in.questions = questions
	return &models.Procedure{ID: id, Name: in.Name, Description: in.Description, Type: pType}, nil
}

func (in *ProcedureInput) Associate(tx *gorm.DB, id uuid.UUID) error {
	if len(in.questions) == 0 {
		return nil
	}
	return tx.Create(&in.questions).Error
}

// ProcedurePatch updates a procedure. A non-nil questions list replaces the
// existing questions.
type ProcedurePatch struct {
	Name        *string              `json:"name" validate:"omitempty,min=1"`
	Description *string              `json:"description" validate:"omitempty,min=1"`
	Type        *enums.ProcedureType `json:"type"`
	Questions   []QuestionInput      `json:"questions" validate:"omitempty,dive"`
}

func (p *ProcedurePatch) Columns() (map[string]any, error) {
	c := columns{}
	if p.Type != nil {
		if err := checkEnum("type", *p.Type); err != nil {
			return nil, err
		}
	}
	if p.Questions != nil {
		if _, err := buildQuestions(uuid.Nil, p.Questions); err != nil {
			return nil, err
		}
	}
	set(c, "name", p.Name)
	set(c, "description", p.Description)
	set(c, "type", p.Type)
	return c, nil
}

func (p *ProcedurePatch) Associate(tx *gorm.DB, id uuid.UUID) error {
	if p.Questions == nil {
		return nil
	}
	questions, err := buildQuestions(id, p.Questions)
	if err != nil {
		return err
	}
	return replaceQuestions(tx, id, questions)
}

// ExecutionInput starts a procedure run. userId defaults to the caller.
type ExecutionInput struct {
	ProcedureID uuid.UUID             `json:"procedureId" validate:"required"`
	UserID      uuid.UUID             `json:"userId"`
	Responses   json.RawMessage       `json:"responses"`
	Status      enums.ExecutionStatus `json:"status"`
	StartTime   *time.Time            `json:"startTime"`
	EndTime     *time.Time            `json:"endTime"`
}

func (in *ExecutionInput) Stamp(actorID uuid.UUID) {
	if in.UserID == uuid.Nil {
		in.UserID = actorID
	}
}

func (in *ExecutionInput) Build(id uuid.UUID) (*models.Execution, error) {
	if in.UserID == uuid.Nil {
		return nil, invalidField("userId", "is required")
	}
	status := in.Status
	if status == "" {
		status = enums.ExecutionStatusInProgress
	}
	if err := checkEnum("status", status); err != nil {
		return nil, err
	}
	responses, err := jsonOr(in.Responses, "responses", "{}")
	if err != nil {
		return nil, err
	}
	exec := &models.Execution{
		ID:          id,
		ProcedureID: in.ProcedureID,
		UserID:      in.UserID,
		Responses:   responses,
		Status:      status,
		EndTime:     utcPtr(in.EndTime),
	}
	if in.StartTime != nil {
		exec.StartTime = in.StartTime.UTC()
	}
	return exec, nil
}

type ExecutionPatch struct {
	Responses json.RawMessage        `json:"responses"`
	Status    *enums.ExecutionStatus `json:"status"`
	EndTime   *time.Time             `json:"endTime"`
}

func (p *ExecutionPatch) Columns() (map[string]any, error) {
	c := columns{}
	if p.Responses != nil {
		if !json.Valid(p.Responses) {
			return nil, invalidField("responses", "must be valid JSON")
		}
		c["responses"] = p.Responses
	}
	if p.Status != nil {
		if err := checkEnum("status", *p.Status); err != nil {
			return nil, err
		}
		c["status"] = *p.Status
	}
	if p.EndTime != nil {
		c["end_time"] = p.EndTime.UTC()
	}
	return c, nil
}

type ExceptionInput struct {
	ExecutionID uuid.UUID       `json:"executionId" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Evidence    json.RawMessage `json:"evidence"`
	ActionTaken *string         `json:"actionTaken"`
}

func (in *ExceptionInput) Build(id uuid.UUID) (*models.Exception, error) {
	evidence, err := jsonOr(in.Evidence, "evidence", "[]")
	if err != nil {
		return nil, err
	}
	return &models.Exception{
		ID:          id,
		ExecutionID: in.ExecutionID,
		Description: in.Description,
		Evidence:    evidence,
		ActionTaken: in.ActionTaken,
	}, nil
}

type ExceptionPatch struct {
	Description *string         `json:"description" validate:"omitempty,min=1"`
	Evidence    json.RawMessage `json:"evidence"`
	ActionTaken *string         `json:"actionTaken"`
}

func (p *ExceptionPatch) Columns() (map[string]any, error) {
	c := columns{}
	set(c, "description", p.Description)
	set(c, "action_taken", p.ActionTaken)
	if p.Evidence != nil {
		if !json.Valid(p.Evidence) {
			return nil, invalidField("evidence", "must be valid JSON")
		}
		c["evidence"] = p.Evidence
	}
	return c, nil
}

func jsonOr(raw json.RawMessage, field, fallback string) (json.RawMessage, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return json.RawMessage(fallback), nil
	}
	if !json.Valid(raw) {
		return nil, invalidField(field, "must be valid JSON")
	}
	return raw, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
